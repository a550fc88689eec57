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
// This file, `persistent.go`, contains the entities that outlive a single
// pipeline run: videos and their processing status, detected events and the
// per-video event artifact, faces and their cluster assignments, and the
// records held by the semantic index.
package model

import (
	"time"

	"github.com/clipstream/go-video-indexer/internal/core/vector"
)

// EventType is the discriminant for the event variant. All events share the
// same {timestamp, score, importance, description} shape; the type selects
// the scoring multiplier and the summary bucket.
type EventType string

const (
	EventSceneChange   EventType = "scene_change"
	EventAudioSpike    EventType = "audio_spike"
	EventSilence       EventType = "silence"
	EventEntityMention EventType = "entity_mention"
)

// Event is a single timestamped observation produced by the event detector.
// Events are immutable once created; importance is always score multiplied
// by the type's weight and is computed exactly once, during scoring.
type Event struct {
	Timestamp   float64   `json:"timestamp"`
	Type        EventType `json:"type"`
	Score       float64   `json:"score"`
	Importance  float64   `json:"importance"`
	Description string    `json:"description"`
}

// Summary is the hierarchical roll-up of one video's events. It is derived
// deterministically from the full event set and recomputed whole, never
// patched.
type Summary struct {
	TopMoments           []float64         `json:"top_moments"`
	EventCount           int               `json:"event_count"`
	SceneCount           int               `json:"scene_count"`
	AudioSpikeCount      int               `json:"audio_spike_count"`
	HighlightDescription string            `json:"highlight_description"`
	EventsByType         map[EventType]int `json:"events_by_type"`
}

// EventArtifact is the single durable document written per video after event
// detection. Duration is the extracted frame count, an approximation of
// seconds at the 1 fps sampling interval.
type EventArtifact struct {
	VideoID  string   `json:"video_id"`
	Duration float64  `json:"duration"`
	Events   []*Event `json:"events"`
	Summary  *Summary `json:"summary"`
}

// VideoStatus names a pipeline stage boundary. A video's status only ever
// moves forward through this sequence; StatusFailed is terminal and is
// reached only from a fatal extraction stage.
type VideoStatus string

const (
	StatusUploaded          VideoStatus = "uploaded"
	StatusAudioExtracted    VideoStatus = "audio_extracted"
	StatusFramesExtracted   VideoStatus = "frames_extracted"
	StatusFeaturesExtracted VideoStatus = "features_extracted"
	StatusFacesDetected     VideoStatus = "faces_detected"
	StatusFacesClustered    VideoStatus = "faces_clustered"
	StatusFeaturesIndexed   VideoStatus = "features_indexed"
	StatusEntitiesEnriched  VideoStatus = "entities_enriched"
	StatusEventsDetected    VideoStatus = "events_detected"
	StatusComplete          VideoStatus = "complete"
	StatusFailed            VideoStatus = "failed"
)

// Video is the durable record of one uploaded file.
type Video struct {
	ID        string      `json:"id"`
	FileName  string      `json:"file_name"`
	Status    VideoStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// BoundingBox locates a face within a frame. The field order follows the
// (top, right, bottom, left) convention of the upstream face model.
type BoundingBox struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// NoiseClusterID is the reserved label for faces the clusterer considered
// noise. It never appears in the cluster membership mapping.
const NoiseClusterID = -1

// Face is one detection of a face in one frame. ClusterID and PersonName
// start nil: ClusterID is assigned when clustering runs over the video,
// PersonName when a user tags the face (or another face in its cluster).
type Face struct {
	FaceID     string        `json:"face_id"`
	VideoID    string        `json:"video_id"`
	Timestamp  float64       `json:"timestamp"`
	Encoding   vector.Vector `json:"encoding"`
	Box        BoundingBox   `json:"location"`
	ClusterID  *int          `json:"cluster_id"`
	PersonName *string       `json:"person_name"`
}

// Appearance is one occurrence of a named person, returned by person search.
type Appearance struct {
	FaceID    string  `json:"face_id"`
	VideoID   string  `json:"video_id"`
	Timestamp float64 `json:"timestamp"`
}

// Record type discriminants for semantic index metadata.
const (
	RecordTypeTranscript   = "transcript"
	RecordTypeVisual       = "visual"
	RecordTypeOCR          = "ocr"
	RecordTypeEntity       = "entity"
	RecordTypeVideoSummary = "video_summary"
)

// RecordMetadata describes where an index record came from. Timestamp is set
// for frame-scoped evidence (visual, ocr, entity); Start/End for spans
// (transcript segments, the whole-video summary record).
type RecordMetadata struct {
	Type       string   `json:"type"`
	VideoID    string   `json:"video_id"`
	Timestamp  float64  `json:"timestamp,omitempty"`
	Start      float64  `json:"start,omitempty"`
	End        float64  `json:"end,omitempty"`
	Objects    []string `json:"objects,omitempty"`
	EntityType string   `json:"entity_type,omitempty"`
}

// IndexRecord is one append-only entry in the semantic index. The embedding
// lives in the index's single configured space: text records are embedded on
// insert, video_summary records arrive pre-fused in the same space.
type IndexRecord struct {
	ID        string         `json:"id"`
	VideoID   string         `json:"video_id"`
	Text      string         `json:"text"`
	Embedding vector.Vector  `json:"-"`
	Metadata  RecordMetadata `json:"metadata"`
}

// SearchResult is one ranked hit from the semantic index. Distance is
// Euclidean over the embedding space; smaller is more similar.
type SearchResult struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata RecordMetadata `json:"metadata"`
	Distance float64        `json:"distance"`
}
