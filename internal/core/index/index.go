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

// Package index implements the semantic index: an append-only store of
// (text, embedding, metadata) records searched by brute-force k-nearest
// neighbor over Euclidean distance. All records live in one embedding
// space, established by the first insert; text is embedded through the
// TextEmbedder collaborator and video-level vectors arrive pre-fused
// through the TemporalFuser.
package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/clipstream/go-video-indexer/internal/collab"
	"github.com/clipstream/go-video-indexer/internal/config"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
)

// Index is the in-memory semantic index. Safe for concurrent use: inserts
// take the write lock, searches snapshot under the read lock.
type Index struct {
	embedder        collab.TextEmbedder
	fuser           collab.TemporalFuser
	defaultLimit    int
	overFetchFactor int

	mu      sync.RWMutex
	records []*model.IndexRecord
	dim     int // 0 until the first record establishes the space
}

// New builds an empty index around its embedder and fuser.
func New(embedder collab.TextEmbedder, fuser collab.TemporalFuser, cfg config.Index) *Index {
	return &Index{
		embedder:        embedder,
		fuser:           fuser,
		defaultLimit:    cfg.DefaultLimit,
		overFetchFactor: cfg.OverFetchFactor,
	}
}

// Add embeds the text and appends a record for it. Returns the record id.
func (x *Index) Add(ctx context.Context, videoID string, text string, metadata model.RecordMetadata) (string, error) {
	embedding, err := x.embedder.EmbedText(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embed text for video %s: %w", videoID, err)
	}
	return x.AddFusedEmbedding(ctx, videoID, embedding, text, metadata)
}

// AddFusedEmbedding appends a record with a precomputed embedding. The
// vector must match the dimensionality established by the first record.
func (x *Index) AddFusedEmbedding(_ context.Context, videoID string, embedding vector.Vector, text string, metadata model.RecordMetadata) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dim == 0 {
		x.dim = len(embedding)
	} else if err := vector.CheckDim(embedding, x.dim); err != nil {
		return "", fmt.Errorf("add record for video %s: %w", videoID, err)
	}

	record := &model.IndexRecord{
		ID:        fmt.Sprintf("%s_%s", videoID, uuid.NewString()),
		VideoID:   videoID,
		Text:      text,
		Embedding: embedding,
		Metadata:  metadata,
	}
	x.records = append(x.records, record)
	return record.ID, nil
}

// IndexFeatures turns one video's feature set into index records: one per
// transcript segment, one per frame with detected objects, one per frame
// with on-screen text, and, when frame embeddings exist, one fused
// video_summary record spanning the whole video.
func (x *Index) IndexFeatures(ctx context.Context, videoID string, features *model.FeatureSet) error {
	for _, segment := range features.Transcript {
		_, err := x.Add(ctx, videoID, segment.Text, model.RecordMetadata{
			Type:    model.RecordTypeTranscript,
			VideoID: videoID,
			Start:   segment.Start,
			End:     segment.End,
		})
		if err != nil {
			return err
		}
	}

	for _, frame := range features.Frames {
		if len(frame.Objects) > 0 {
			labels := make([]string, 0, len(frame.Objects))
			for _, object := range frame.Objects {
				labels = append(labels, object.Label)
			}
			_, err := x.Add(ctx, videoID, "Objects: "+strings.Join(labels, ", "), model.RecordMetadata{
				Type:      model.RecordTypeVisual,
				VideoID:   videoID,
				Timestamp: frame.Timestamp,
				Objects:   labels,
			})
			if err != nil {
				return err
			}
		}
		if len(frame.OCRText) > 0 {
			_, err := x.Add(ctx, videoID, "Text on screen: "+strings.Join(frame.OCRText, " "), model.RecordMetadata{
				Type:      model.RecordTypeOCR,
				VideoID:   videoID,
				Timestamp: frame.Timestamp,
			})
			if err != nil {
				return err
			}
		}
	}

	if len(features.FrameEmbeddings) > 0 {
		fused, err := x.fuser.Fuse(ctx, features.FrameEmbeddings)
		if err != nil {
			return fmt.Errorf("fuse embeddings of video %s: %w", videoID, err)
		}
		_, err = x.AddFusedEmbedding(ctx, videoID, fused, "Video Content Summary", model.RecordMetadata{
			Type:    model.RecordTypeVideoSummary,
			VideoID: videoID,
			Start:   0,
			End:     features.Duration,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Search embeds the query and returns the nearest records by Euclidean
// distance, ascending. A non-empty videoID restricts results to that video;
// the candidate pool is widened by the over-fetch factor before the filter
// so a popular corpus cannot crowd the video out. At most limit results;
// limit <= 0 means the configured default.
func (x *Index) Search(ctx context.Context, query string, videoID string, limit int) ([]model.SearchResult, error) {
	if limit <= 0 {
		limit = x.defaultLimit
	}

	queryEmbedding, err := x.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	fetch := limit
	if videoID != "" {
		fetch = limit * x.overFetchFactor
	}

	x.mu.RLock()
	candidates := make([]*model.IndexRecord, 0, len(x.records))
	for _, record := range x.records {
		if videoID != "" && record.VideoID != videoID {
			continue
		}
		candidates = append(candidates, record)
	}
	x.mu.RUnlock()

	results := make([]model.SearchResult, 0, len(candidates))
	for _, record := range candidates {
		results = append(results, model.SearchResult{
			ID:       record.ID,
			Text:     record.Text,
			Metadata: record.Metadata,
			Distance: vector.Euclidean(queryEmbedding, record.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > fetch {
		results = results[:fetch]
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Len reports the number of records held.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records)
}
