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

// Package config defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the pipeline, the detectors, the shared stores, and the collaborator
// budgets.
//
// Structs:
//   - Storage: Local filesystem and database locations.
//   - Detector: Thresholds for the event detection engine.
//   - Clusterer: Parameters for face identity clustering.
//   - Index: Semantic index search parameters.
//   - Enrichment: Budgets for the entity-enrichment collaborators.
//   - Config: The top-level struct that aggregates all other sections.
package config

import "time"

// Storage holds the local filesystem layout for one deployment: where
// uploads land, where run-private frames and audio are extracted, and the
// SQLite database backing the shared stores.
type Storage struct {
	UploadDir    string `toml:"upload_dir"`    // Directory where uploaded videos are saved.
	FramesDir    string `toml:"frames_dir"`    // Root for per-video extracted frame directories.
	AudioDir     string `toml:"audio_dir"`     // Directory for extracted audio tracks.
	DatabasePath string `toml:"database_path"` // Path of the SQLite database file.
}

// Detector holds the tunable thresholds of the event detection engine.
// The defaults mirror the values the scoring heuristics were tuned with;
// see DefaultConfig.
type Detector struct {
	SceneChangeThreshold float64 `toml:"scene_change_threshold"` // Cosine similarity drop that counts as a scene change.
	AudioSpikeThreshold  float64 `toml:"audio_spike_threshold"`  // Normalized energy above which a spike begins.
	SilenceThreshold     float64 `toml:"silence_threshold"`      // Normalized energy below which a silence run begins.
	MinSilenceSeconds    float64 `toml:"min_silence_seconds"`    // Minimum duration for a silence run to be reported.
}

// Clusterer holds the density-clustering parameters for face identity
// grouping.
type Clusterer struct {
	Epsilon    float64 `toml:"epsilon"`     // Neighborhood radius in encoding space.
	MinSamples int     `toml:"min_samples"` // Minimum neighborhood size for a core point.
}

// Index holds the semantic index search parameters.
type Index struct {
	DefaultLimit    int `toml:"default_limit"`     // Result count when the caller does not specify one.
	OverFetchFactor int `toml:"over_fetch_factor"` // Multiplier applied to the limit when filtering by video.
}

// Enrichment holds the budgets applied to the entity-enrichment
// collaborators, which are the only network-bound calls in the pipeline.
type Enrichment struct {
	TimeoutSeconds    int `toml:"timeout_seconds"`      // Per-call deadline for extraction and linking.
	LinkerRateLimit   int `toml:"linker_rate_limit"`    // Knowledge-base lookups allowed per second.
	MaxEntitiesPerRun int `toml:"max_entities_per_run"` // Upper bound on indexed entities for one video.
}

// Media holds the settings of the ffmpeg-backed extraction collaborators.
type Media struct {
	FFmpegPath string `toml:"ffmpeg_path"` // Path of the ffmpeg executable.
	SampleRate int    `toml:"sample_rate"` // Sample rate audio is decoded at.
}

// Inference holds the connection settings of the remote model server that
// implements the inference collaborators.
type Inference struct {
	BaseURL        string `toml:"base_url"`        // Root URL of the inference service.
	TimeoutSeconds int    `toml:"timeout_seconds"` // Per-call HTTP deadline.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other sections.
type Config struct {
	Application struct {
		Name          string `toml:"name"`           // The name of the application, used in telemetry.
		Port          int    `toml:"port"`           // HTTP listen port.
		FrameInterval int    `toml:"frame_interval"` // Seconds between sampled frames during extraction.
	} `toml:"application"`
	Storage    Storage    `toml:"storage"`
	Media      Media      `toml:"media"`
	Inference  Inference  `toml:"inference"`
	Detector   Detector   `toml:"detector"`
	Clusterer  Clusterer  `toml:"clusterer"`
	Index      Index      `toml:"index"`
	Enrichment Enrichment `toml:"enrichment"`
}

// EnrichmentTimeout returns the per-call deadline as a duration.
func (c *Config) EnrichmentTimeout() time.Duration {
	return time.Duration(c.Enrichment.TimeoutSeconds) * time.Second
}

// DefaultConfig returns a Config populated with the built-in defaults. The
// TOML loader overlays files on top of this, so a missing file or section
// still yields a runnable configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Application.Name = "video-indexer"
	c.Application.Port = 8080
	c.Application.FrameInterval = 1
	c.Storage = Storage{
		UploadDir:    "data/uploads",
		FramesDir:    "data/frames",
		AudioDir:     "data/audio",
		DatabasePath: "data/video-indexer.db",
	}
	c.Detector = Detector{
		SceneChangeThreshold: 0.3,
		AudioSpikeThreshold:  0.7,
		SilenceThreshold:     0.1,
		MinSilenceSeconds:    0.5,
	}
	c.Media = Media{FFmpegPath: "ffmpeg", SampleRate: 22050}
	c.Inference = Inference{BaseURL: "http://localhost:9090", TimeoutSeconds: 60}
	c.Clusterer = Clusterer{Epsilon: 0.5, MinSamples: 2}
	c.Index = Index{DefaultLimit: 5, OverFetchFactor: 10}
	c.Enrichment = Enrichment{TimeoutSeconds: 5, LinkerRateLimit: 2, MaxEntitiesPerRun: 200}
	return c
}
