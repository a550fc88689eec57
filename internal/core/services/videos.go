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

// VideoService lists videos and reports their processing status.
type VideoService struct {
	videos *storage.VideoStore
}

// NewVideoService returns a video facade over the video store.
func NewVideoService(videos *storage.VideoStore) *VideoService {
	return &VideoService{videos: videos}
}

// List returns all videos, newest first.
func (s *VideoService) List(ctx context.Context) ([]*model.Video, error) {
	return s.videos.List(ctx)
}

// Get returns one video by id.
func (s *VideoService) Get(ctx context.Context, videoID string) (*model.Video, error) {
	return s.videos.Get(ctx, videoID)
}
