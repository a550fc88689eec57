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

// Package collab declares the interfaces of every external collaborator the
// core depends on: media extraction, model inference (speech, objects, OCR,
// embeddings, faces, entities), knowledge-base linking, and temporal fusion.
// The core never performs inference itself; it is written entirely against
// these interfaces, and the Collaborators container is the one place a
// deployment binds real implementations.
package collab

import (
	"context"

	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
)

// AudioExtractor pulls the audio stream out of a video file. A video with
// no usable audio yields (nil, nil): absent audio is a normal condition,
// not an extraction failure.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath string, outDir string) (*model.AudioTrack, error)
}

// FrameExtractor samples frames from a video at a fixed interval, returning
// them in order. The image files it writes are run-private temp files.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath string, outDir string, intervalSeconds int) ([]model.Frame, error)
}

// Transcriber converts an audio track into ordered transcript segments.
type Transcriber interface {
	Transcribe(ctx context.Context, track *model.AudioTrack) ([]model.TranscriptSegment, error)
}

// ObjectDetector labels objects visible in one frame image.
type ObjectDetector interface {
	DetectObjects(ctx context.Context, imagePath string) ([]model.DetectedObject, error)
}

// OCRReader extracts on-screen text tokens from one frame image.
type OCRReader interface {
	ReadText(ctx context.Context, imagePath string) ([]string, error)
}

// FrameEmbedder produces the fixed-dimension visual embedding of one frame.
// The dimension is constant across all frames of a video.
type FrameEmbedder interface {
	EmbedFrame(ctx context.Context, imagePath string) (vector.Vector, error)
}

// TextEmbedder maps text into the semantic index's embedding space.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) (vector.Vector, error)
}

// FaceEncoding is one detected face: its location and 128-dim encoding.
type FaceEncoding struct {
	Box      model.BoundingBox
	Encoding vector.Vector
}

// FaceEncoder detects faces in one frame image and produces their
// encodings.
type FaceEncoder interface {
	DetectAndEncodeFaces(ctx context.Context, imagePath string) ([]FaceEncoding, error)
}

// EntityExtractor runs named-entity recognition over a piece of text.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]model.Entity, error)
}

// EntityLinker resolves an entity against a knowledge base. A miss is
// (nil, nil); only transport-level problems are errors.
type EntityLinker interface {
	Link(ctx context.Context, entityText string, entityLabel string) (*model.KBEntity, error)
}

// TemporalFuser collapses an ordered sequence of equal-dimension frame
// embeddings into one unit-L2-norm vector in the shared embedding space.
// It must be total over any non-empty sequence.
type TemporalFuser interface {
	Fuse(ctx context.Context, frames []model.FrameEmbedding) (vector.Vector, error)
}

// Collaborators bundles every external dependency of the pipeline. It is
// assembled once at startup (or per test) and handed to the workflow,
// acting as the dependency-injection container for all model-facing calls.
type Collaborators struct {
	Audio       AudioExtractor
	Frames      FrameExtractor
	Transcriber Transcriber
	Objects     ObjectDetector
	OCR         OCRReader
	FrameEmbed  FrameEmbedder
	TextEmbed   TextEmbedder
	Faces       FaceEncoder
	Entities    EntityExtractor
	Linker      EntityLinker
	Fuser       TemporalFuser
}
