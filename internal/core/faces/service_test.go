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

package faces

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/go-video-indexer/internal/collab"
	"github.com/clipstream/go-video-indexer/internal/config"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

type fakeEncoder struct {
	detections []collab.FaceEncoding
	err        error
}

func (f *fakeEncoder) DetectAndEncodeFaces(_ context.Context, _ string) ([]collab.FaceEncoding, error) {
	return f.detections, f.err
}

func newTestService(t *testing.T, encoder collab.FaceEncoder) (*Service, *storage.FaceStore) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "faces.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	err = storage.NewVideoStore(db).Insert(context.Background(), &model.Video{
		ID: "vid-1", FileName: "vid-1.mp4", Status: model.StatusUploaded, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	store := storage.NewFaceStore(db)
	return NewService(encoder, store, config.DefaultConfig().Clusterer), store
}

func TestDetectAndEncodePersistsFaces(t *testing.T) {
	encoder := &fakeEncoder{detections: []collab.FaceEncoding{
		{Box: model.BoundingBox{Top: 1, Right: 2, Bottom: 3, Left: 0}, Encoding: vector.Vector{0.1, 0.2}},
		{Box: model.BoundingBox{Top: 4, Right: 5, Bottom: 6, Left: 3}, Encoding: vector.Vector{0.3, 0.4}},
	}}
	service, store := newTestService(t, encoder)
	ctx := context.Background()

	faces, err := service.DetectAndEncode(ctx, model.Frame{Index: 0, Timestamp: 2.5, Path: "frame.jpg"}, "vid-1")
	require.NoError(t, err)
	require.Len(t, faces, 2)
	assert.Equal(t, "vid-1_2.5_0", faces[0].FaceID)
	assert.Equal(t, "vid-1_2.5_1", faces[1].FaceID)

	stored, err := store.FacesForVideo(ctx, "vid-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Nil(t, stored[0].ClusterID)
	assert.Nil(t, stored[0].PersonName)
}

func TestDetectAndEncodePropagatesEncoderError(t *testing.T) {
	encoderErr := errors.New("model unavailable")
	service, _ := newTestService(t, &fakeEncoder{err: encoderErr})

	_, err := service.DetectAndEncode(context.Background(), model.Frame{Path: "frame.jpg"}, "vid-1")
	assert.ErrorIs(t, err, encoderErr)
}

func TestDetectAndEncodeNoFaces(t *testing.T) {
	service, store := newTestService(t, &fakeEncoder{})
	ctx := context.Background()

	faces, err := service.DetectAndEncode(ctx, model.Frame{Path: "frame.jpg"}, "vid-1")
	require.NoError(t, err)
	assert.Empty(t, faces)

	stored, err := store.FacesForVideo(ctx, "vid-1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func insertFaceWithEncoding(t *testing.T, store *storage.FaceStore, id string, ts float64, encoding vector.Vector) {
	t.Helper()
	err := store.InsertFaces(context.Background(), []*model.Face{{
		FaceID: id, VideoID: "vid-1", Timestamp: ts, Encoding: encoding,
	}})
	require.NoError(t, err)
}

func TestClusterGroupsSimilarEncodings(t *testing.T) {
	service, store := newTestService(t, &fakeEncoder{})
	ctx := context.Background()

	// Two people seen twice each, plus one unmatched face.
	insertFaceWithEncoding(t, store, "a1", 1, vector.Vector{0, 0})
	insertFaceWithEncoding(t, store, "a2", 2, vector.Vector{0.1, 0})
	insertFaceWithEncoding(t, store, "b1", 3, vector.Vector{5, 5})
	insertFaceWithEncoding(t, store, "b2", 4, vector.Vector{5.1, 5})
	insertFaceWithEncoding(t, store, "n1", 5, vector.Vector{50, 50})

	clusters, err := service.Cluster(ctx, "vid-1")
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.ElementsMatch(t, []string{"a1", "a2"}, clusters[0])
	assert.ElementsMatch(t, []string{"b1", "b2"}, clusters[1])

	view, err := service.ClustersForVideo(ctx, "vid-1")
	require.NoError(t, err)
	require.Len(t, view[model.NoiseClusterID], 1)
	assert.Equal(t, "n1", view[model.NoiseClusterID][0].FaceID)
	assert.Nil(t, view[model.NoiseClusterID][0].ClusterID)
}

func TestClusterFewerThanTwoFaces(t *testing.T) {
	service, store := newTestService(t, &fakeEncoder{})
	ctx := context.Background()

	clusters, err := service.Cluster(ctx, "vid-1")
	require.NoError(t, err)
	assert.Empty(t, clusters)

	insertFaceWithEncoding(t, store, "solo", 1, vector.Vector{0, 0})
	clusters, err = service.Cluster(ctx, "vid-1")
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestClusterMembershipStableAcrossRuns(t *testing.T) {
	service, store := newTestService(t, &fakeEncoder{})
	ctx := context.Background()

	insertFaceWithEncoding(t, store, "a1", 1, vector.Vector{0, 0})
	insertFaceWithEncoding(t, store, "a2", 2, vector.Vector{0.1, 0})
	insertFaceWithEncoding(t, store, "b1", 3, vector.Vector{5, 5})
	insertFaceWithEncoding(t, store, "b2", 4, vector.Vector{5.1, 5})

	first, err := service.Cluster(ctx, "vid-1")
	require.NoError(t, err)
	second, err := service.Cluster(ctx, "vid-1")
	require.NoError(t, err)

	membership := func(clusters map[int][]string) [][]string {
		var groups [][]string
		for _, ids := range clusters {
			groups = append(groups, ids)
		}
		return groups
	}
	for _, group := range membership(first) {
		found := false
		for _, other := range membership(second) {
			if assert.ObjectsAreEqual(group, other) {
				found = true
				break
			}
		}
		assert.True(t, found, "cluster membership changed between runs")
	}
}

func TestTagPropagationThroughService(t *testing.T) {
	service, store := newTestService(t, &fakeEncoder{})
	ctx := context.Background()

	insertFaceWithEncoding(t, store, "a1", 1, vector.Vector{0, 0})
	insertFaceWithEncoding(t, store, "a2", 2, vector.Vector{0.1, 0})
	_, err := service.Cluster(ctx, "vid-1")
	require.NoError(t, err)

	tagged, err := service.Tag(ctx, "a1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, 2, tagged)

	appearances, err := service.SearchByPerson(ctx, "Alice")
	require.NoError(t, err)
	assert.Len(t, appearances, 2)

	people, err := service.People(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, people["Alice"])
}
