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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
)

func TestDBSCANSeparatesTwoGroups(t *testing.T) {
	points := []vector.Vector{
		{0, 0},
		{0.1, 0},
		{10, 10},
		{10.1, 10},
	}
	labels := dbscan(points, 0.5, 2)

	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[2], labels[3])
	assert.NotEqual(t, labels[0], labels[2])
	for _, label := range labels {
		assert.NotEqual(t, model.NoiseClusterID, label)
	}
}

func TestDBSCANMarksIsolatedPointsAsNoise(t *testing.T) {
	points := []vector.Vector{
		{0, 0},
		{5, 5},
		{10, 10},
	}
	labels := dbscan(points, 0.5, 2)
	for _, label := range labels {
		assert.Equal(t, model.NoiseClusterID, label)
	}
}

func TestDBSCANChainsDensityReachablePoints(t *testing.T) {
	// Consecutive points 0.4 apart: each neighborhood holds its immediate
	// neighbors, so the whole line merges into one cluster.
	points := []vector.Vector{
		{0, 0},
		{0.4, 0},
		{0.8, 0},
		{1.2, 0},
	}
	labels := dbscan(points, 0.5, 2)
	for _, label := range labels {
		assert.Equal(t, 0, label)
	}
}

func TestDBSCANNoiseThenOutlierStaysNoise(t *testing.T) {
	points := []vector.Vector{
		{100, 100},
		{0, 0},
		{0.1, 0},
	}
	labels := dbscan(points, 0.5, 2)
	assert.Equal(t, model.NoiseClusterID, labels[0])
	assert.Equal(t, labels[1], labels[2])
	assert.NotEqual(t, model.NoiseClusterID, labels[1])
}
