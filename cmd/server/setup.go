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

// Package main contains the setup and initialization logic for the server.
// This file builds the centralized state manager that holds all shared
// dependencies: the configuration, the SQLite-backed stores, the pipeline
// runner, and the read-side services the API handlers call.
//
// Functions:
//   - SetupOS: Points the configuration loader at the configs directory
//     and selects the runtime environment.
//   - GetConfig: A singleton accessor that loads the configuration from
//     TOML files exactly once.
//   - InitState: Opens the database, binds the production collaborators,
//     and wires the pipeline workflow, runner, and services together.
package main

import (
	"context"
	"log"
	"os"

	"github.com/clipstream/go-video-indexer/internal/collab"
	"github.com/clipstream/go-video-indexer/internal/config"
	"github.com/clipstream/go-video-indexer/internal/core/events"
	"github.com/clipstream/go-video-indexer/internal/core/faces"
	"github.com/clipstream/go-video-indexer/internal/core/index"
	"github.com/clipstream/go-video-indexer/internal/core/services"
	"github.com/clipstream/go-video-indexer/internal/core/workflow"
	"github.com/clipstream/go-video-indexer/internal/inference"
	"github.com/clipstream/go-video-indexer/internal/kb"
	"github.com/clipstream/go-video-indexer/internal/media"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// StateManager holds all the shared dependencies for the application,
// acting as a centralized container for the stores, the pipeline runner,
// and the services. This avoids global variables scattered across files
// and keeps dependency wiring in one place.
type StateManager struct {
	config        *config.Config
	db            *storage.DB
	runner        *workflow.Runner
	searchService *services.SearchService
	videoService  *services.VideoService
	faceService   *services.FaceService
	eventService  *services.EventService
	otelShutdown  func(context.Context) error
}

// state is the single instance of StateManager for the server process.
var state = &StateManager{}

// SetupOS sets the environment variables the configuration loader uses to
// find the TOML files. The runtime selects the override file (for example
// ".env.local.toml") layered on top of the base configuration.
func SetupOS() (err error) {
	err = os.Setenv(config.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(config.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application configuration.
// The first call sets up the environment and loads the TOML files;
// subsequent calls return the cached configuration.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = cfg
	}
	return state.config
}

// InitState initializes the entire application state. It opens the SQLite
// database, binds the production collaborators (ffmpeg for extraction, the
// model server for inference, Wikidata for entity linking), builds the
// engines and the pipeline workflow around them, and exposes the read side
// through the services the API handlers use.
func InitState(ctx context.Context) {
	cfg := GetConfig()

	db, err := storage.Open(cfg.Storage.DatabasePath)
	if err != nil {
		panic(err)
	}
	state.db = db

	videoStore := storage.NewVideoStore(db)
	faceStore := storage.NewFaceStore(db)
	artifactStore := storage.NewArtifactStore(db)

	// The extraction collaborators shell out to ffmpeg; every model-bound
	// collaborator is served by the inference client; entity linking goes
	// to Wikidata behind the rate-limited wrapper.
	ffmpeg := media.NewFFmpeg(cfg.Media)
	models := inference.NewClient(cfg.Inference)
	linker := collab.NewRateLimitedLinker(
		kb.NewWikidataLinker(), cfg.Enrichment.LinkerRateLimit, cfg.EnrichmentTimeout())

	collabs := &collab.Collaborators{
		Audio:       ffmpeg,
		Frames:      ffmpeg,
		Transcriber: models,
		Objects:     models,
		OCR:         models,
		FrameEmbed:  models,
		TextEmbed:   models,
		Faces:       models,
		Entities:    models,
		Linker:      linker,
		Fuser:       &index.MeanPoolFuser{},
	}

	faceService := faces.NewService(collabs.Faces, faceStore, cfg.Clusterer)
	idx := index.New(collabs.TextEmbed, collabs.Fuser, cfg.Index)
	detector := events.NewDetector(cfg.Detector)

	pipeline := workflow.NewVideoPipelineWorkflow(
		cfg, collabs, videoStore, artifactStore, faceService, idx, detector)
	state.runner = workflow.NewRunner(pipeline, videoStore)

	state.searchService = services.NewSearchService(idx)
	state.videoService = services.NewVideoService(videoStore)
	state.faceService = services.NewFaceService(faceService)
	state.eventService = services.NewEventService(artifactStore)
}
