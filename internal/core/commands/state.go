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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface, one per pipeline stage.
// Each command reads the shared PipelineState from the chain context, calls
// its collaborator or core engine, writes its results back onto the state,
// and advances the video's persisted status. Commands never decide failure
// policy themselves; the chain's registration table does.
package commands

import (
	"context"
	"fmt"

	"github.com/clipstream/go-video-indexer/internal/core/cor"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// PipelineState is the single mutable object threaded through one video's
// processing chain. Stages fill in their own fields; a recovered stage
// simply leaves its fields at their zero values, and downstream stages
// treat that as "no evidence of this kind".
type PipelineState struct {
	VideoID   string
	VideoPath string

	// Extraction results.
	Audio  *model.AudioTrack // nil when the video has no audio stream
	Frames []model.Frame

	// Derived features.
	Features *model.FeatureSet
	Faces    []*model.Face

	// Entity mentions shaped as events, ready for scoring.
	EntityEvents []model.Event

	// Event detection results.
	Events  []model.Event
	Summary *model.Summary
}

// advanceStatus persists the stage boundary a command just crossed.
func advanceStatus(ctx context.Context, store *storage.VideoStore, videoID string, status model.VideoStatus) error {
	if err := store.UpdateStatus(ctx, videoID, status); err != nil {
		return fmt.Errorf("advance video %s to %s: %w", videoID, status, err)
	}
	return nil
}

// stateFrom pulls the pipeline state a command expects from the chain
// context.
func stateFrom(context cor.Context, param string) *PipelineState {
	state, _ := context.Get(param).(*PipelineState)
	return state
}
