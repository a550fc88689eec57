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

// Package faces groups the faces seen in a video into person identities.
// Detection and encoding are delegated to the FaceEncoder collaborator;
// this package owns the clustering of the resulting encodings, the person
// tagging that propagates through a cluster, and person search. Everything
// durable lives in the face store.
package faces

import (
	"context"
	"fmt"

	"github.com/clipstream/go-video-indexer/internal/collab"
	"github.com/clipstream/go-video-indexer/internal/config"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// Service is the face identity layer: detection persistence, density
// clustering, tagging, and person search.
type Service struct {
	encoder collab.FaceEncoder
	store   *storage.FaceStore
	eps     float64
	minPts  int
}

// NewService wires the face service to its encoder, store, and clustering
// parameters.
func NewService(encoder collab.FaceEncoder, store *storage.FaceStore, cfg config.Clusterer) *Service {
	return &Service{
		encoder: encoder,
		store:   store,
		eps:     cfg.Epsilon,
		minPts:  cfg.MinSamples,
	}
}

// DetectAndEncode runs the encoder over one frame, wraps each detection
// into a Face with no cluster and no person, and persists the batch. The
// face id embeds the video, timestamp, and detection index, which keeps ids
// unique across frames without coordination.
func (s *Service) DetectAndEncode(ctx context.Context, frame model.Frame, videoID string) ([]*model.Face, error) {
	detections, err := s.encoder.DetectAndEncodeFaces(ctx, frame.Path)
	if err != nil {
		return nil, fmt.Errorf("encode faces of frame %d: %w", frame.Index, err)
	}
	if len(detections) == 0 {
		return nil, nil
	}

	faces := make([]*model.Face, 0, len(detections))
	for i, detection := range detections {
		faces = append(faces, &model.Face{
			FaceID:    fmt.Sprintf("%s_%g_%d", videoID, frame.Timestamp, i),
			VideoID:   videoID,
			Timestamp: frame.Timestamp,
			Encoding:  detection.Encoding,
			Box:       detection.Box,
		})
	}
	if err := s.store.InsertFaces(ctx, faces); err != nil {
		return nil, err
	}
	return faces, nil
}

// Cluster density-clusters all faces of one video and writes the resulting
// labels back in one transaction. Noise faces are left unassigned. Returns
// the membership mapping, cluster id to face ids; fewer than two faces
// yields an empty map, since no dense region can form.
func (s *Service) Cluster(ctx context.Context, videoID string) (map[int][]string, error) {
	faces, err := s.store.FacesForVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(faces) < 2 {
		return map[int][]string{}, nil
	}

	encodings := make([]vector.Vector, len(faces))
	for i, face := range faces {
		encodings[i] = face.Encoding
	}
	labels := dbscan(encodings, s.eps, s.minPts)

	clusters := make(map[int][]string)
	assignments := make(map[string]int)
	for i, label := range labels {
		if label == model.NoiseClusterID {
			continue
		}
		clusters[label] = append(clusters[label], faces[i].FaceID)
		assignments[faces[i].FaceID] = label
	}
	if err := s.store.AssignClusters(ctx, assignments); err != nil {
		return nil, err
	}
	return clusters, nil
}

// Tag names the person behind a face. The name propagates to every face in
// the same cluster of the same video and to no face outside it. Returns
// the number of faces tagged.
func (s *Service) Tag(ctx context.Context, faceID string, personName string) (int, error) {
	return s.store.TagFace(ctx, faceID, personName)
}

// SearchByPerson returns every appearance of a named person across all
// videos.
func (s *Service) SearchByPerson(ctx context.Context, personName string) ([]model.Appearance, error) {
	return s.store.SearchByPerson(ctx, personName)
}

// ClustersForVideo returns the current cluster view of one video, with
// unclustered and noise faces grouped under the noise label.
func (s *Service) ClustersForVideo(ctx context.Context, videoID string) (map[int][]*model.Face, error) {
	return s.store.ClustersForVideo(ctx, videoID)
}

// People returns every tagged person name with its tag count.
func (s *Service) People(ctx context.Context) (map[string]int, error) {
	return s.store.ListPeople(ctx)
}
