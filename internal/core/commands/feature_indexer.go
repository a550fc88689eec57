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
	"github.com/clipstream/go-video-indexer/internal/core/index"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// FeatureIndexCommand writes the extracted feature set into the semantic
// index: transcript segments, per-frame visual and OCR evidence, and the
// fused whole-video embedding. Indexing sits on the core content path; a
// video whose features cannot be indexed is not searchable, so this stage
// is registered fatal.
type FeatureIndexCommand struct {
	cor.BaseCommand
	index  *index.Index
	videos *storage.VideoStore
}

// NewFeatureIndexCommand builds the feature indexing stage.
func NewFeatureIndexCommand(name string, idx *index.Index, videos *storage.VideoStore) *FeatureIndexCommand {
	return &FeatureIndexCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		index:       idx,
		videos:      videos,
	}
}

// Execute indexes the features and advances the video to features_indexed.
func (c *FeatureIndexCommand) Execute(context cor.Context) {
	state := stateFrom(context, c.GetInputParam())
	ctx := context.GetContext()

	if err := c.index.IndexFeatures(ctx, state.VideoID, state.Features); err != nil {
		context.AddError(c.GetName(), fmt.Errorf("index features of video %s: %w", state.VideoID, err))
		return
	}

	if err := advanceStatus(ctx, c.videos, state.VideoID, model.StatusFeaturesIndexed); err != nil {
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(c.GetOutputParam(), state)
}
