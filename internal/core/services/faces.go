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

	"github.com/clipstream/go-video-indexer/internal/core/faces"
	"github.com/clipstream/go-video-indexer/internal/core/model"
)

// FaceService exposes the face identity read and tag operations.
type FaceService struct {
	faces *faces.Service
}

// NewFaceService returns a face facade over the identity service.
func NewFaceService(service *faces.Service) *FaceService {
	return &FaceService{faces: service}
}

// Clusters returns the cluster view of one video.
func (s *FaceService) Clusters(ctx context.Context, videoID string) (map[int][]*model.Face, error) {
	return s.faces.ClustersForVideo(ctx, videoID)
}

// Tag names the person behind a face, propagating through its cluster.
// Returns the number of faces tagged.
func (s *FaceService) Tag(ctx context.Context, faceID string, personName string) (int, error) {
	return s.faces.Tag(ctx, faceID, personName)
}

// SearchByPerson returns every appearance of a named person.
func (s *FaceService) SearchByPerson(ctx context.Context, personName string) ([]model.Appearance, error) {
	return s.faces.SearchByPerson(ctx, personName)
}

// People returns the tagged person names with their tag counts.
func (s *FaceService) People(ctx context.Context) (map[string]int, error) {
	return s.faces.People(ctx)
}
