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

package collab

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/clipstream/go-video-indexer/internal/core/model"
)

// RateLimitedLinker wraps an EntityLinker with a client-side rate limiter
// and a per-call deadline. The knowledge-base lookup is the only unbounded
// network call in the pipeline, so every call first waits for a limiter
// token and then runs under its own timeout. A deadline hit surfaces as an
// error from Link, which the enrichment stage treats like any other miss
// for that one entity.
type RateLimitedLinker struct {
	delegate EntityLinker
	limiter  *rate.Limiter
	timeout  time.Duration
}

// NewRateLimitedLinker wraps delegate with a limiter of callsPerSecond and
// a per-call timeout.
func NewRateLimitedLinker(delegate EntityLinker, callsPerSecond int, timeout time.Duration) *RateLimitedLinker {
	return &RateLimitedLinker{
		delegate: delegate,
		limiter:  rate.NewLimiter(rate.Limit(callsPerSecond), callsPerSecond),
		timeout:  timeout,
	}
}

// Link waits for limiter admission, then calls the delegate under the
// per-call deadline.
func (l *RateLimitedLinker) Link(ctx context.Context, entityText string, entityLabel string) (*model.KBEntity, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait for entity %q: %w", entityText, err)
	}
	callCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return l.delegate.Link(callCtx, entityText, entityLabel)
}
