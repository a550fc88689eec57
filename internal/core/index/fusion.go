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

package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
)

// ErrNoFrames is returned when fusion is asked to collapse an empty
// sequence.
var ErrNoFrames = errors.New("index: no frame embeddings to fuse")

// MeanPoolFuser is the reference TemporalFuser: it mean-pools the frame
// embeddings and L2-normalizes the result. It satisfies the fusion
// contract for every non-empty equal-dimension sequence, and deployments
// that run a learned temporal model inject it in this seat instead.
type MeanPoolFuser struct{}

// Fuse returns the unit-norm mean of the frame embeddings.
func (MeanPoolFuser) Fuse(_ context.Context, frames []model.FrameEmbedding) (vector.Vector, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	dim := len(frames[0].Embedding)
	sums := make([]float64, dim)
	for _, frame := range frames {
		if err := vector.CheckDim(frame.Embedding, dim); err != nil {
			return nil, fmt.Errorf("fuse frame %d: %w", frame.FrameIndex, err)
		}
		for i, x := range frame.Embedding {
			sums[i] += float64(x)
		}
	}

	pooled := make(vector.Vector, dim)
	for i, sum := range sums {
		pooled[i] = float32(sum / float64(len(frames)))
	}
	return vector.Normalize(pooled), nil
}
