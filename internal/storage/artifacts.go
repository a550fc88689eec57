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

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clipstream/go-video-indexer/internal/core/model"
)

// ArtifactStore persists the single event artifact each video ends up with.
// Put replaces the whole document; the artifact is always recomputed from
// the full event set, never patched in place.
type ArtifactStore struct {
	db *DB
}

// NewArtifactStore returns a store backed by db.
func NewArtifactStore(db *DB) *ArtifactStore {
	return &ArtifactStore{db: db}
}

// Put writes or replaces the artifact of one video.
func (s *ArtifactStore) Put(ctx context.Context, artifact *model.EventArtifact) error {
	payload, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("encode artifact of video %s: %w", artifact.VideoID, err)
	}
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO event_artifacts (video_id, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(video_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		artifact.VideoID, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store artifact of video %s: %w", artifact.VideoID, err)
	}
	return nil
}

// Get returns the artifact of one video, or ErrNotFound.
func (s *ArtifactStore) Get(ctx context.Context, videoID string) (*model.EventArtifact, error) {
	var payload string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT payload FROM event_artifacts WHERE video_id = ?`, videoID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load artifact of video %s: %w", videoID, err)
	}
	var artifact model.EventArtifact
	if err := json.Unmarshal([]byte(payload), &artifact); err != nil {
		return nil, fmt.Errorf("decode artifact of video %s: %w", videoID, err)
	}
	return &artifact, nil
}
