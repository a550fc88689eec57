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

// Package vector defines the embedding vocabulary shared by the event
// detector, the face clusterer, and the semantic index. An embedding is a
// plain []float32; similarity math accumulates in float64 to keep the
// comparisons stable for the near-identical vectors that scene-change
// detection produces.
package vector

import (
	"fmt"
	"math"
)

// Vector is a fixed-length numeric embedding. The dimension is constant
// within one embedding space (per video for frame embeddings, per index for
// text embeddings) but is not encoded in the type.
type Vector = []float32

// Epsilon guards divisions by the norm of a zero vector. The value matches
// the guard the upstream models apply before shipping embeddings.
const Epsilon = 1e-8

// Norm returns the L2 norm of v.
func Norm(v Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v. A zero vector normalizes to
// itself rather than producing NaNs.
func Normalize(v Vector) Vector {
	norm := Norm(v) + Epsilon
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Dot returns the inner product of a and b. Panics on dimension mismatch are
// avoided by truncating to the shorter operand; callers are expected to have
// validated dimensions with CheckDim first.
func Dot(a, b Vector) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine returns the cosine similarity of a and b: 1 means identical
// direction, lower means more divergent.
func Cosine(a, b Vector) float64 {
	return Dot(a, b) / ((Norm(a) + Epsilon) * (Norm(b) + Epsilon))
}

// Euclidean returns the L2 distance between a and b.
func Euclidean(a, b Vector) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CheckDim verifies that v has the expected dimension.
func CheckDim(v Vector, want int) error {
	if len(v) != want {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(v), want)
	}
	return nil
}
