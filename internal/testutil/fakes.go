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

// Package testutil provides hand-written fake collaborators for pipeline
// tests. Each fake returns scripted data, keyed by frame path or input text
// where the real collaborator's output depends on its input, and can be
// armed with an error to simulate a failing model call.
package testutil

import (
	"context"

	"github.com/clipstream/go-video-indexer/internal/collab"
	"github.com/clipstream/go-video-indexer/internal/core/index"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
)

// FakeAudioExtractor returns a scripted audio track. A nil Track with a nil
// Err models a video without an audio stream.
type FakeAudioExtractor struct {
	Track *model.AudioTrack
	Err   error
}

func (f *FakeAudioExtractor) ExtractAudio(_ context.Context, _ string, _ string) (*model.AudioTrack, error) {
	return f.Track, f.Err
}

// FakeFrameExtractor returns a scripted frame sequence.
type FakeFrameExtractor struct {
	Frames []model.Frame
	Err    error
}

func (f *FakeFrameExtractor) ExtractFrames(_ context.Context, _ string, _ string, _ int) ([]model.Frame, error) {
	return f.Frames, f.Err
}

// FakeTranscriber returns a scripted transcript.
type FakeTranscriber struct {
	Segments []model.TranscriptSegment
	Err      error
}

func (f *FakeTranscriber) Transcribe(_ context.Context, _ *model.AudioTrack) ([]model.TranscriptSegment, error) {
	return f.Segments, f.Err
}

// FakeObjectDetector returns detections keyed by frame path.
type FakeObjectDetector struct {
	ByPath map[string][]model.DetectedObject
	Err    error
}

func (f *FakeObjectDetector) DetectObjects(_ context.Context, imagePath string) ([]model.DetectedObject, error) {
	return f.ByPath[imagePath], f.Err
}

// FakeOCRReader returns text tokens keyed by frame path.
type FakeOCRReader struct {
	ByPath map[string][]string
	Err    error
}

func (f *FakeOCRReader) ReadText(_ context.Context, imagePath string) ([]string, error) {
	return f.ByPath[imagePath], f.Err
}

// FakeFrameEmbedder returns embeddings keyed by frame path, falling back to
// Default for paths it has no script for.
type FakeFrameEmbedder struct {
	ByPath  map[string]vector.Vector
	Default vector.Vector
	Err     error
}

func (f *FakeFrameEmbedder) EmbedFrame(_ context.Context, imagePath string) (vector.Vector, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if v, ok := f.ByPath[imagePath]; ok {
		return v, nil
	}
	return f.Default, nil
}

// FakeTextEmbedder returns embeddings keyed by exact text, falling back to
// Default for unscripted text. Search tests script the query texts they
// care about and let everything else land far away at the default.
type FakeTextEmbedder struct {
	ByText  map[string]vector.Vector
	Default vector.Vector
	Err     error
}

func (f *FakeTextEmbedder) EmbedText(_ context.Context, text string) (vector.Vector, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if v, ok := f.ByText[text]; ok {
		return v, nil
	}
	return f.Default, nil
}

// FakeFaceEncoder returns face detections keyed by frame path.
type FakeFaceEncoder struct {
	ByPath map[string][]collab.FaceEncoding
	Err    error
}

func (f *FakeFaceEncoder) DetectAndEncodeFaces(_ context.Context, imagePath string) ([]collab.FaceEncoding, error) {
	return f.ByPath[imagePath], f.Err
}

// FakeEntityExtractor returns entities keyed by exact input text.
type FakeEntityExtractor struct {
	ByText map[string][]model.Entity
	Err    error
}

func (f *FakeEntityExtractor) ExtractEntities(_ context.Context, text string) ([]model.Entity, error) {
	return f.ByText[text], f.Err
}

// FakeEntityLinker returns knowledge-base hits keyed by entity text and
// counts its calls. Unscripted text is a miss, (nil, nil).
type FakeEntityLinker struct {
	ByText map[string]*model.KBEntity
	Err    error
	Calls  int
}

func (f *FakeEntityLinker) Link(_ context.Context, entityText string, _ string) (*model.KBEntity, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.ByText[entityText], nil
}

// Fakes bundles one of every fake so a test can reach in and rescript or
// fail individual collaborators mid-scenario.
type Fakes struct {
	Audio       *FakeAudioExtractor
	Frames      *FakeFrameExtractor
	Transcriber *FakeTranscriber
	Objects     *FakeObjectDetector
	OCR         *FakeOCRReader
	FrameEmbed  *FakeFrameEmbedder
	TextEmbed   *FakeTextEmbedder
	Faces       *FakeFaceEncoder
	Entities    *FakeEntityExtractor
	Linker      *FakeEntityLinker
}

// NewFakes returns a set of empty fakes with two-dimensional default
// embeddings, enough for a pipeline run that exercises every stage without
// any scripted data.
func NewFakes() *Fakes {
	return &Fakes{
		Audio:       &FakeAudioExtractor{},
		Frames:      &FakeFrameExtractor{},
		Transcriber: &FakeTranscriber{},
		Objects:     &FakeObjectDetector{},
		OCR:         &FakeOCRReader{},
		FrameEmbed:  &FakeFrameEmbedder{Default: vector.Vector{1, 0}},
		TextEmbed:   &FakeTextEmbedder{Default: vector.Vector{100, 100}},
		Faces:       &FakeFaceEncoder{},
		Entities:    &FakeEntityExtractor{},
		Linker:      &FakeEntityLinker{},
	}
}

// Collaborators assembles the fakes into the container the workflow takes,
// with the real mean-pool fuser standing in for temporal fusion.
func (f *Fakes) Collaborators() *collab.Collaborators {
	return &collab.Collaborators{
		Audio:       f.Audio,
		Frames:      f.Frames,
		Transcriber: f.Transcriber,
		Objects:     f.Objects,
		OCR:         f.OCR,
		FrameEmbed:  f.FrameEmbed,
		TextEmbed:   f.TextEmbed,
		Faces:       f.Faces,
		Entities:    f.Entities,
		Linker:      f.Linker,
		Fuser:       &index.MeanPoolFuser{},
	}
}
