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

// Package services holds the read-side facades the API handlers call.
// Each service narrows one engine or store to the operations a handler
// needs, keeping HTTP concerns out of the core packages.
package services

import (
	"context"

	"github.com/clipstream/go-video-indexer/internal/core/index"
	"github.com/clipstream/go-video-indexer/internal/core/model"
)

// SearchService exposes semantic search over the index.
type SearchService struct {
	index *index.Index
}

// NewSearchService returns a search facade over idx.
func NewSearchService(idx *index.Index) *SearchService {
	return &SearchService{index: idx}
}

// Search runs a semantic query, optionally scoped to one video.
func (s *SearchService) Search(ctx context.Context, query string, videoID string, limit int) ([]model.SearchResult, error) {
	return s.index.Search(ctx, query, videoID, limit)
}
