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

package services

import (
	"context"

	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// EventService serves the per-video event artifact and its summary.
type EventService struct {
	artifacts *storage.ArtifactStore
}

// NewEventService returns an event facade over the artifact store.
func NewEventService(artifacts *storage.ArtifactStore) *EventService {
	return &EventService{artifacts: artifacts}
}

// GetEvents returns the full event artifact of one video. The error is
// storage.ErrNotFound when the video has no artifact yet.
func (s *EventService) GetEvents(ctx context.Context, videoID string) (*model.EventArtifact, error) {
	return s.artifacts.Get(ctx, videoID)
}

// GetSummary returns just the summary of one video's artifact.
func (s *EventService) GetSummary(ctx context.Context, videoID string) (*model.Summary, error) {
	artifact, err := s.artifacts.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return artifact.Summary, nil
}
