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
	"github.com/clipstream/go-video-indexer/internal/core/events"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// ArtifactWriteCommand persists the single durable event document of the
// run and closes the video out as complete. When event detection was
// recovered over, the artifact still exists: it carries no events and the
// fixed empty summary, so the read side never distinguishes "no events
// found" from "detection skipped".
type ArtifactWriteCommand struct {
	cor.BaseCommand
	artifacts *storage.ArtifactStore
	detector  *events.Detector
	videos    *storage.VideoStore
}

// NewArtifactWriteCommand builds the final persistence stage.
func NewArtifactWriteCommand(name string, artifacts *storage.ArtifactStore, detector *events.Detector, videos *storage.VideoStore) *ArtifactWriteCommand {
	return &ArtifactWriteCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		artifacts:   artifacts,
		detector:    detector,
		videos:      videos,
	}
}

// Execute writes the artifact and advances the video to complete.
func (c *ArtifactWriteCommand) Execute(context cor.Context) {
	state := stateFrom(context, c.GetInputParam())
	ctx := context.GetContext()

	duration := float64(len(state.Frames))
	if state.Features != nil {
		duration = state.Features.Duration
	}

	summary := state.Summary
	if summary == nil {
		empty := c.detector.GenerateSummary(nil, duration)
		summary = &empty
	}

	eventList := make([]*model.Event, 0, len(state.Events))
	for i := range state.Events {
		eventList = append(eventList, &state.Events[i])
	}

	artifact := &model.EventArtifact{
		VideoID:  state.VideoID,
		Duration: duration,
		Events:   eventList,
		Summary:  summary,
	}
	if err := c.artifacts.Put(ctx, artifact); err != nil {
		context.AddError(c.GetName(), fmt.Errorf("persist artifact of video %s: %w", state.VideoID, err))
		return
	}

	if err := advanceStatus(ctx, c.videos, state.VideoID, model.StatusComplete); err != nil {
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(c.GetOutputParam(), state)
}
