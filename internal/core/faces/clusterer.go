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
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
)

// unclassified marks a point the scan has not reached yet. It never appears
// in the returned labels.
const unclassified = -2

// dbscan density-clusters the encodings and returns one label per point.
// Points in no dense region get model.NoiseClusterID. Cluster numbering
// starts at 0 in discovery order, so labels are stable for a given input
// order but carry no meaning across runs; only membership does.
func dbscan(points []vector.Vector, eps float64, minPts int) []int {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unclassified
	}

	clusterID := 0
	for i := range points {
		if labels[i] != unclassified {
			continue
		}
		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minPts {
			labels[i] = model.NoiseClusterID
			continue
		}

		labels[i] = clusterID
		seeds := append([]int(nil), neighbors...)
		for len(seeds) > 0 {
			j := seeds[0]
			seeds = seeds[1:]

			if labels[j] == model.NoiseClusterID {
				// Border point: density-reachable but not a core point.
				labels[j] = clusterID
			}
			if labels[j] != unclassified {
				continue
			}
			labels[j] = clusterID

			jNeighbors := regionQuery(points, j, eps)
			if len(jNeighbors) >= minPts {
				seeds = append(seeds, jNeighbors...)
			}
		}
		clusterID++
	}
	return labels
}

// regionQuery returns the indices within eps of point i, i itself included.
func regionQuery(points []vector.Vector, i int, eps float64) []int {
	var neighbors []int
	for j := range points {
		if vector.Euclidean(points[i], points[j]) <= eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}
