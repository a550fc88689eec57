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
	"github.com/clipstream/go-video-indexer/internal/core/cor"
	"github.com/clipstream/go-video-indexer/internal/core/events"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// EventDetectCommand runs the event detection engine over the evidence the
// earlier stages accumulated: frame embeddings for scene changes, the audio
// track for spikes and silence, and the entity mentions from enrichment.
// Evidence a recovered stage failed to produce is simply absent, and the
// detector sees an empty slice for it.
type EventDetectCommand struct {
	cor.BaseCommand
	detector *events.Detector
	videos   *storage.VideoStore
}

// NewEventDetectCommand builds the event detection stage.
func NewEventDetectCommand(name string, detector *events.Detector, videos *storage.VideoStore) *EventDetectCommand {
	return &EventDetectCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		detector:    detector,
		videos:      videos,
	}
}

// Execute detects, scores, and summarizes the video's events, then
// advances it to events_detected.
func (c *EventDetectCommand) Execute(context cor.Context) {
	state := stateFrom(context, c.GetInputParam())

	var embeddings []model.FrameEmbedding
	duration := float64(len(state.Frames))
	if state.Features != nil {
		embeddings = state.Features.FrameEmbeddings
		duration = state.Features.Duration
	}

	sceneChanges := c.detector.DetectSceneChanges(embeddings)
	audioEvents := c.detector.DetectAudioEvents(state.Audio)
	state.Events = c.detector.ScoreEvents(sceneChanges, audioEvents, state.EntityEvents)

	summary := c.detector.GenerateSummary(state.Events, duration)
	state.Summary = &summary

	if err := advanceStatus(context.GetContext(), c.videos, state.VideoID, model.StatusEventsDetected); err != nil {
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(c.GetOutputParam(), state)
}
