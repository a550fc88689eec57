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

package commands

import (
	"fmt"

	"github.com/clipstream/go-video-indexer/internal/collab"
	"github.com/clipstream/go-video-indexer/internal/core/cor"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// FeatureExtractCommand derives the multimodal feature set of one video:
// the speech transcript from the audio track, and per-frame objects,
// on-screen text, and visual embeddings. The feature set's duration is the
// extracted frame count, which stands in for seconds at the one-frame-per-
// second sampling interval.
//
// The command walks every frame even when a detector finds nothing there;
// a frame only contributes a FrameAnalysis entry when at least one detector
// produced output, matching what the index expects downstream.
type FeatureExtractCommand struct {
	cor.BaseCommand
	transcriber collab.Transcriber
	objects     collab.ObjectDetector
	ocr         collab.OCRReader
	embedder    collab.FrameEmbedder
	videos      *storage.VideoStore
}

// NewFeatureExtractCommand builds the feature extraction stage.
func NewFeatureExtractCommand(
	name string,
	transcriber collab.Transcriber,
	objects collab.ObjectDetector,
	ocr collab.OCRReader,
	embedder collab.FrameEmbedder,
	videos *storage.VideoStore,
) *FeatureExtractCommand {
	return &FeatureExtractCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		transcriber: transcriber,
		objects:     objects,
		ocr:         ocr,
		embedder:    embedder,
		videos:      videos,
	}
}

// Execute extracts the feature set and advances the video to
// features_extracted.
func (c *FeatureExtractCommand) Execute(context cor.Context) {
	state := stateFrom(context, c.GetInputParam())
	ctx := context.GetContext()

	features := &model.FeatureSet{Duration: float64(len(state.Frames))}

	if state.Audio != nil {
		transcript, err := c.transcriber.Transcribe(ctx, state.Audio)
		if err != nil {
			context.AddError(c.GetName(), fmt.Errorf("transcribe video %s: %w", state.VideoID, err))
			return
		}
		features.Transcript = transcript
	}

	for _, frame := range state.Frames {
		objects, err := c.objects.DetectObjects(ctx, frame.Path)
		if err != nil {
			context.AddError(c.GetName(), fmt.Errorf("detect objects in frame %d: %w", frame.Index, err))
			return
		}
		ocrText, err := c.ocr.ReadText(ctx, frame.Path)
		if err != nil {
			context.AddError(c.GetName(), fmt.Errorf("read text in frame %d: %w", frame.Index, err))
			return
		}
		if len(objects) > 0 || len(ocrText) > 0 {
			features.Frames = append(features.Frames, model.FrameAnalysis{
				FrameIndex: frame.Index,
				Timestamp:  frame.Timestamp,
				Objects:    objects,
				OCRText:    ocrText,
			})
		}

		embedding, err := c.embedder.EmbedFrame(ctx, frame.Path)
		if err != nil {
			context.AddError(c.GetName(), fmt.Errorf("embed frame %d: %w", frame.Index, err))
			return
		}
		features.FrameEmbeddings = append(features.FrameEmbeddings, model.FrameEmbedding{
			FrameIndex: frame.Index,
			Timestamp:  frame.Timestamp,
			Embedding:  embedding,
		})
	}

	state.Features = features
	if err := advanceStatus(ctx, c.videos, state.VideoID, model.StatusFeaturesExtracted); err != nil {
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(c.GetOutputParam(), state)
}
