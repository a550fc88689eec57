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

// Package storage provides the durable stores shared between the pipeline
// and the API: videos and their processing status, faces with their cluster
// assignments and person tags, and the per-video event artifact. All three
// are backed by one SQLite database opened with a single write connection,
// which serializes every mutation regardless of how many pipeline runs or
// API handlers are active.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by all stores when the requested row does not
// exist.
var ErrNotFound = errors.New("storage: not found")

const schema = `
CREATE TABLE IF NOT EXISTS videos (
    id         TEXT PRIMARY KEY,
    file_name  TEXT NOT NULL,
    status     TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS faces (
    face_id     TEXT PRIMARY KEY,
    video_id    TEXT NOT NULL REFERENCES videos(id),
    timestamp   REAL NOT NULL,
    encoding    TEXT NOT NULL,
    box_top     INTEGER NOT NULL,
    box_right   INTEGER NOT NULL,
    box_bottom  INTEGER NOT NULL,
    box_left    INTEGER NOT NULL,
    cluster_id  INTEGER,
    person_name TEXT
);
CREATE INDEX IF NOT EXISTS idx_faces_video  ON faces(video_id);
CREATE INDEX IF NOT EXISTS idx_faces_person ON faces(person_name);

CREATE TABLE IF NOT EXISTS people (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    name      TEXT NOT NULL,
    face_id   TEXT NOT NULL,
    tagged_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_people_name ON people(name);

CREATE TABLE IF NOT EXISTS event_artifacts (
    video_id   TEXT PRIMARY KEY REFERENCES videos(id),
    payload    TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// DB wraps the shared SQLite handle the stores hang off.
type DB struct {
	conn *sql.DB
}

// Open creates or opens the database at path, applies the pragmas and the
// schema, and restricts the pool to one connection so that writes from
// concurrent pipeline runs serialize at the driver instead of racing.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}
