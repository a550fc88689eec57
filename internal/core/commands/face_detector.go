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

// FaceDetectCommand runs face detection and encoding over every extracted
// frame. The resulting faces are persisted by the face service as they are
// produced, so a later failure does not lose earlier frames' detections.
type FaceDetectCommand struct {
	cor.BaseCommand
	faces  *faces.Service
	videos *storage.VideoStore
}

// NewFaceDetectCommand builds the face detection stage.
func NewFaceDetectCommand(name string, service *faces.Service, videos *storage.VideoStore) *FaceDetectCommand {
	return &FaceDetectCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		faces:       service,
		videos:      videos,
	}
}

// Execute detects faces in all frames and advances the video to
// faces_detected.
func (c *FaceDetectCommand) Execute(context cor.Context) {
	state := stateFrom(context, c.GetInputParam())
	ctx := context.GetContext()

	for _, frame := range state.Frames {
		detected, err := c.faces.DetectAndEncode(ctx, frame, state.VideoID)
		if err != nil {
			context.AddError(c.GetName(), fmt.Errorf("faces of video %s: %w", state.VideoID, err))
			return
		}
		state.Faces = append(state.Faces, detected...)
	}

	if err := advanceStatus(ctx, c.videos, state.VideoID, model.StatusFacesDetected); err != nil {
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(c.GetOutputParam(), state)
}
