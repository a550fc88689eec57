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

package vector

import (
	"math"
	"testing"

	"github.com/zeebo/assert"
)

func TestNormalizeProducesUnitVector(t *testing.T) {
	v := Normalize(Vector{3, 4})
	assert.True(t, math.Abs(Norm(v)-1.0) < 1e-5)
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize(Vector{0, 0, 0})
	for _, x := range v {
		assert.Equal(t, float32(0), x)
	}
}

func TestCosineIdenticalDirection(t *testing.T) {
	a := Vector{1, 2, 3}
	b := Vector{2, 4, 6}
	assert.True(t, math.Abs(Cosine(a, b)-1.0) < 1e-5)
}

func TestCosineOrthogonal(t *testing.T) {
	a := Vector{1, 0}
	b := Vector{0, 1}
	assert.True(t, math.Abs(Cosine(a, b)) < 1e-6)
}

func TestEuclidean(t *testing.T) {
	a := Vector{0, 0}
	b := Vector{3, 4}
	assert.True(t, math.Abs(Euclidean(a, b)-5.0) < 1e-6)
}

func TestCheckDim(t *testing.T) {
	assert.NoError(t, CheckDim(Vector{1, 2, 3}, 3))
	assert.Error(t, CheckDim(Vector{1, 2}, 3))
}
