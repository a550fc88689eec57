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
	"errors"
	"fmt"
	"time"

	"github.com/clipstream/go-video-indexer/internal/core/model"
)

// VideoStore persists video records and their pipeline status.
type VideoStore struct {
	db *DB
}

// NewVideoStore returns a store backed by db.
func NewVideoStore(db *DB) *VideoStore {
	return &VideoStore{db: db}
}

// Insert records a newly uploaded video.
func (s *VideoStore) Insert(ctx context.Context, video *model.Video) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO videos (id, file_name, status, created_at) VALUES (?, ?, ?, ?)`,
		video.ID, video.FileName, string(video.Status), video.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert video %s: %w", video.ID, err)
	}
	return nil
}

// UpdateStatus moves a video to the given stage boundary.
func (s *VideoStore) UpdateStatus(ctx context.Context, videoID string, status model.VideoStatus) error {
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE videos SET status = ? WHERE id = ?`, string(status), videoID)
	if err != nil {
		return fmt.Errorf("update status of video %s: %w", videoID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one video by id, or ErrNotFound.
func (s *VideoStore) Get(ctx context.Context, videoID string) (*model.Video, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT id, file_name, status, created_at FROM videos WHERE id = ?`, videoID)
	return scanVideo(row)
}

// List returns all videos, newest first.
func (s *VideoStore) List(ctx context.Context) ([]*model.Video, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, file_name, status, created_at FROM videos ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*model.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*model.Video, error) {
	var video model.Video
	var status, createdAt string
	if err := row.Scan(&video.ID, &video.FileName, &status, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan video: %w", err)
	}
	video.Status = model.VideoStatus(status)
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse video created_at: %w", err)
	}
	video.CreatedAt = parsed
	return &video, nil
}
