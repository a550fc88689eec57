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

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"go.opentelemetry.io/otel"

	"github.com/clipstream/go-video-indexer/internal/core/commands"
	"github.com/clipstream/go-video-indexer/internal/core/cor"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// headerSniffLen is how many bytes the content-type probe needs.
const headerSniffLen = 261

// Runner accepts uploaded video files and dispatches each one through the
// pipeline on its own goroutine. Every run gets a fresh chain context and
// its own root span, so concurrent videos neither share state nor traces.
type Runner struct {
	workflow *VideoPipelineWorkflow
	videos   *storage.VideoStore
	wg       sync.WaitGroup
}

// NewRunner builds a runner around the pipeline workflow.
func NewRunner(workflow *VideoPipelineWorkflow, videos *storage.VideoStore) *Runner {
	return &Runner{workflow: workflow, videos: videos}
}

// Process validates the uploaded file, records the video row, and starts
// the pipeline in the background. It returns the new video id immediately;
// progress is observable through the video's status.
func (r *Runner) Process(ctx context.Context, path string, fileName string) (string, error) {
	if err := validateVideoFile(path); err != nil {
		return "", err
	}

	videoID := uuid.NewString()
	video := &model.Video{
		ID:        videoID,
		FileName:  fileName,
		Status:    model.StatusUploaded,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.videos.Insert(ctx, video); err != nil {
		return "", err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.Run(context.Background(), videoID, path)
	}()
	return videoID, nil
}

// Run executes the pipeline synchronously for one recorded video. Process
// calls it on a goroutine; tests call it directly.
func (r *Runner) Run(ctx context.Context, videoID string, path string) {
	tracer := otel.Tracer(r.workflow.GetName())
	spanCtx, span := tracer.Start(ctx, "video-pipeline-run")
	defer span.End()

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(spanCtx)
	chainCtx.Add(cor.CtxIn, &commands.PipelineState{VideoID: videoID, VideoPath: path})

	r.workflow.Execute(chainCtx)

	if chainCtx.HasErrors() {
		for stage, err := range chainCtx.GetErrors() {
			slog.ErrorContext(spanCtx, "pipeline run failed",
				"video_id", videoID, "stage", stage, "error", err)
		}
		if err := r.videos.UpdateStatus(spanCtx, videoID, model.StatusFailed); err != nil {
			slog.ErrorContext(spanCtx, "failed to mark video as failed",
				"video_id", videoID, "error", err)
		}
	}
}

// Wait blocks until every in-flight pipeline run has finished. The server
// calls it during graceful shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// validateVideoFile sniffs the file header and rejects anything that is
// not a known video container.
func validateVideoFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	head := make([]byte, headerSniffLen)
	n, err := f.Read(head)
	if err != nil {
		return fmt.Errorf("read upload header: %w", err)
	}
	if !filetype.IsVideo(head[:n]) {
		return fmt.Errorf("unsupported upload: %s is not a video file", filepath.Base(path))
	}
	return nil
}
