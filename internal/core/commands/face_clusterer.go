// Copyright 2025 Clipstream, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"

	"github.com/clipstream/go-video-indexer/internal/core/cor"
	"github.com/clipstream/go-video-indexer/internal/core/faces"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// FaceClusterCommand groups the video's detected faces into identities.
type FaceClusterCommand struct {
	cor.BaseCommand
	faces  *faces.Service
	videos *storage.VideoStore
}

// NewFaceClusterCommand builds the face clustering stage.
func NewFaceClusterCommand(name string, service *faces.Service, videos *storage.VideoStore) *FaceClusterCommand {
	return &FaceClusterCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		faces:       service,
		videos:      videos,
	}
}

// Execute clusters the faces and advances the video to faces_clustered.
func (c *FaceClusterCommand) Execute(context cor.Context) {
	state := stateFrom(context, c.GetInputParam())
	ctx := context.GetContext()

	if _, err := c.faces.Cluster(ctx, state.VideoID); err != nil {
		context.AddError(c.GetName(), fmt.Errorf("cluster faces of video %s: %w", state.VideoID, err))
		return
	}

	if err := advanceStatus(ctx, c.videos, state.VideoID, model.StatusFacesClustered); err != nil {
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(c.GetOutputParam(), state)
}
