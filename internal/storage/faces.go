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
	"github.com/clipstream/go-video-indexer/internal/core/vector"
)

// FaceStore persists face detections, their cluster labels, and person
// tags. Encodings are stored as JSON arrays; at 128 floats per face the
// round-trip cost is negligible next to the detection itself.
type FaceStore struct {
	db *DB
}

// NewFaceStore returns a store backed by db.
func NewFaceStore(db *DB) *FaceStore {
	return &FaceStore{db: db}
}

// InsertFaces stores a batch of detections in one transaction.
func (s *FaceStore) InsertFaces(ctx context.Context, faces []*model.Face) error {
	if len(faces) == 0 {
		return nil
	}
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin face insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO faces (face_id, video_id, timestamp, encoding,
		    box_top, box_right, box_bottom, box_left, cluster_id, person_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare face insert: %w", err)
	}
	defer stmt.Close()

	for _, face := range faces {
		encoded, err := json.Marshal(face.Encoding)
		if err != nil {
			return fmt.Errorf("encode face %s: %w", face.FaceID, err)
		}
		_, err = stmt.ExecContext(ctx, face.FaceID, face.VideoID, face.Timestamp, string(encoded),
			face.Box.Top, face.Box.Right, face.Box.Bottom, face.Box.Left,
			face.ClusterID, face.PersonName)
		if err != nil {
			return fmt.Errorf("insert face %s: %w", face.FaceID, err)
		}
	}
	return tx.Commit()
}

// FacesForVideo returns all detections of one video in insertion order.
func (s *FaceStore) FacesForVideo(ctx context.Context, videoID string) ([]*model.Face, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT face_id, video_id, timestamp, encoding,
		        box_top, box_right, box_bottom, box_left, cluster_id, person_name
		 FROM faces WHERE video_id = ? ORDER BY rowid`, videoID)
	if err != nil {
		return nil, fmt.Errorf("query faces of video %s: %w", videoID, err)
	}
	defer rows.Close()
	return scanFaces(rows)
}

// AssignClusters writes the cluster label of each listed face in one
// transaction. Labels include the noise label; a face absent from the map
// keeps its current assignment.
func (s *FaceStore) AssignClusters(ctx context.Context, labels map[string]int) error {
	if len(labels) == 0 {
		return nil
	}
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cluster assignment: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE faces SET cluster_id = ? WHERE face_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare cluster assignment: %w", err)
	}
	defer stmt.Close()

	for faceID, clusterID := range labels {
		if _, err := stmt.ExecContext(ctx, clusterID, faceID); err != nil {
			return fmt.Errorf("assign cluster of face %s: %w", faceID, err)
		}
	}
	return tx.Commit()
}

// TagFace names the person behind one face and propagates the name to every
// face in the same cluster of the same video. A face that is unclustered,
// or that the clusterer labeled noise, is tagged alone. Returns the number
// of faces tagged, or ErrNotFound for an unknown face id.
func (s *FaceStore) TagFace(ctx context.Context, faceID string, personName string) (int, error) {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tag: %w", err)
	}
	defer tx.Rollback()

	var videoID string
	var clusterID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT video_id, cluster_id FROM faces WHERE face_id = ?`, faceID).
		Scan(&videoID, &clusterID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("look up face %s: %w", faceID, err)
	}

	var res sql.Result
	if clusterID.Valid && clusterID.Int64 != model.NoiseClusterID {
		res, err = tx.ExecContext(ctx,
			`UPDATE faces SET person_name = ? WHERE video_id = ? AND cluster_id = ?`,
			personName, videoID, clusterID.Int64)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE faces SET person_name = ? WHERE face_id = ?`, personName, faceID)
	}
	if err != nil {
		return 0, fmt.Errorf("tag face %s: %w", faceID, err)
	}
	tagged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("tag face %s: %w", faceID, err)
	}

	// The people index is append-only: every tag operation leaves a row,
	// repeated tags of the same face included.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO people (name, face_id, tagged_at) VALUES (?, ?, ?)`,
		personName, faceID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("record person tag of face %s: %w", faceID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tag of face %s: %w", faceID, err)
	}
	return int(tagged), nil
}

// ListPeople returns every tagged person name with the number of tag
// operations recorded against it, ordered by name.
func (s *FaceStore) ListPeople(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT name, COUNT(*) FROM people GROUP BY name ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	people := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people[name] = count
	}
	return people, rows.Err()
}

// SearchByPerson returns every appearance of a named person, ordered by
// video then timestamp.
func (s *FaceStore) SearchByPerson(ctx context.Context, personName string) ([]model.Appearance, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT face_id, video_id, timestamp FROM faces
		 WHERE person_name = ? ORDER BY video_id, timestamp, face_id`, personName)
	if err != nil {
		return nil, fmt.Errorf("search appearances of %q: %w", personName, err)
	}
	defer rows.Close()

	var appearances []model.Appearance
	for rows.Next() {
		var a model.Appearance
		if err := rows.Scan(&a.FaceID, &a.VideoID, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan appearance: %w", err)
		}
		appearances = append(appearances, a)
	}
	return appearances, rows.Err()
}

// ClustersForVideo returns the read-side cluster view of one video: cluster
// id to member faces, with unclustered and noise faces grouped under the
// noise label.
func (s *FaceStore) ClustersForVideo(ctx context.Context, videoID string) (map[int][]*model.Face, error) {
	faces, err := s.FacesForVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	clusters := make(map[int][]*model.Face)
	for _, face := range faces {
		id := model.NoiseClusterID
		if face.ClusterID != nil {
			id = *face.ClusterID
		}
		clusters[id] = append(clusters[id], face)
	}
	return clusters, nil
}

func scanFaces(rows *sql.Rows) ([]*model.Face, error) {
	var faces []*model.Face
	for rows.Next() {
		var face model.Face
		var encoded string
		var clusterID sql.NullInt64
		var personName sql.NullString
		err := rows.Scan(&face.FaceID, &face.VideoID, &face.Timestamp, &encoded,
			&face.Box.Top, &face.Box.Right, &face.Box.Bottom, &face.Box.Left,
			&clusterID, &personName)
		if err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		var encoding vector.Vector
		if err := json.Unmarshal([]byte(encoded), &encoding); err != nil {
			return nil, fmt.Errorf("decode encoding of face %s: %w", face.FaceID, err)
		}
		face.Encoding = encoding
		if clusterID.Valid {
			id := int(clusterID.Int64)
			face.ClusterID = &id
		}
		if personName.Valid {
			name := personName.String
			face.PersonName = &name
		}
		faces = append(faces, &face)
	}
	return faces, rows.Err()
}
