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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains the in-memory carriers that exist only
// for the duration of one pipeline run. They are produced by the extraction
// stages, handed between commands through the chain context, and discarded
// when the run finishes; none of them is persisted in this form.
package model

import "github.com/clipstream/go-video-indexer/internal/core/vector"

// Frame is one image sampled from the video at the extraction interval.
// The file behind Path is a run-private temp file cleaned up at run end.
type Frame struct {
	Index     int
	Timestamp float64
	Path      string
}

// FrameEmbedding is the visual embedding of one extracted frame. The vector
// length is constant within one video.
type FrameEmbedding struct {
	FrameIndex int
	Timestamp  float64
	Embedding  vector.Vector
}

// TranscriptSegment is one span of recognized speech. Start <= End.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// DetectedObject is one labeled detection within a frame.
type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// FrameAnalysis bundles the per-frame evidence (objects, on-screen text)
// for frames where either detector produced output.
type FrameAnalysis struct {
	FrameIndex int
	Timestamp  float64
	Objects    []DetectedObject
	OCRText    []string
}

// AudioTrack is the decoded audio signal for one video. A video without an
// audio stream is represented by a nil track, which downstream stages treat
// as "no audio evidence", not as an error.
type AudioTrack struct {
	Path       string
	SampleRate int
	Samples    []float32
}

// Entity is one named entity recognized in transcript or OCR text. The
// timestamp is inherited from the segment or frame the text came from.
// Description is filled only when knowledge-base linking succeeded within
// its budget.
type Entity struct {
	Text        string
	Label       string
	Timestamp   float64
	Description string
}

// KBEntity is the result of linking an entity against a knowledge base.
type KBEntity struct {
	ID          string
	Label       string
	Description string
}

// FeatureSet aggregates everything the feature-extraction stage derived for
// one video. Duration is the extracted frame count, standing in for seconds
// at the 1 fps sampling interval.
type FeatureSet struct {
	Transcript      []TranscriptSegment
	Frames          []FrameAnalysis
	FrameEmbeddings []FrameEmbedding
	Duration        float64
}
