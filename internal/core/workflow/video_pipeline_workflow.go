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

// Package workflow assembles the per-stage commands into the video
// processing pipeline and dispatches uploaded videos through it. The
// failure policy lives here, in the chain registration table: extraction
// and indexing stages are fatal, the evidence-producing stages (faces,
// entities, events) are recoverable and degrade to an absent modality.
package workflow

import (
	"github.com/clipstream/go-video-indexer/internal/collab"
	"github.com/clipstream/go-video-indexer/internal/config"
	"github.com/clipstream/go-video-indexer/internal/core/commands"
	"github.com/clipstream/go-video-indexer/internal/core/cor"
	"github.com/clipstream/go-video-indexer/internal/core/events"
	"github.com/clipstream/go-video-indexer/internal/core/faces"
	"github.com/clipstream/go-video-indexer/internal/core/index"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// VideoPipelineWorkflow is the end-to-end processing chain for one video:
// audio, frames, features, faces, indexing, enrichment, events, artifact.
type VideoPipelineWorkflow struct {
	cor.BaseCommand
	cfg       *config.Config
	collabs   *collab.Collaborators
	videos    *storage.VideoStore
	artifacts *storage.ArtifactStore
	faces     *faces.Service
	index     *index.Index
	detector  *events.Detector
	chain     cor.Chain
}

// NewVideoPipelineWorkflow wires the pipeline's commands to their engines
// and builds the chain.
func NewVideoPipelineWorkflow(
	cfg *config.Config,
	collabs *collab.Collaborators,
	videos *storage.VideoStore,
	artifacts *storage.ArtifactStore,
	faceService *faces.Service,
	idx *index.Index,
	detector *events.Detector,
) *VideoPipelineWorkflow {
	w := &VideoPipelineWorkflow{
		BaseCommand: *cor.NewBaseCommand("video-pipeline"),
		cfg:         cfg,
		collabs:     collabs,
		videos:      videos,
		artifacts:   artifacts,
		faces:       faceService,
		index:       idx,
		detector:    detector,
	}
	w.initializeChain()
	return w
}

// Execute runs the pipeline chain for the video on the context.
func (w *VideoPipelineWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain registers the stage commands in processing order. The
// registration method is the failure policy: AddCommand stages abort the
// run, AddRecoverableCommand stages log and continue.
func (w *VideoPipelineWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Extraction is the foundation of everything downstream; nothing can
	// proceed without it.
	out.AddCommand(commands.NewAudioExtractCommand(
		"audio-extract", w.collabs.Audio, w.videos, w.cfg.Storage.AudioDir))
	out.AddCommand(commands.NewFrameExtractCommand(
		"frame-extract", w.collabs.Frames, w.videos, w.cfg.Storage.FramesDir, w.cfg.Application.FrameInterval))
	out.AddCommand(commands.NewFeatureExtractCommand(
		"feature-extract", w.collabs.Transcriber, w.collabs.Objects, w.collabs.OCR, w.collabs.FrameEmbed, w.videos))

	// Identity, enrichment, and event evidence each degrade independently.
	out.AddRecoverableCommand(commands.NewFaceDetectCommand("face-detect", w.faces, w.videos))
	out.AddRecoverableCommand(commands.NewFaceClusterCommand("face-cluster", w.faces, w.videos))

	// The index is the core content path: a video that cannot be indexed
	// is not searchable and the run fails.
	out.AddCommand(commands.NewFeatureIndexCommand("feature-index", w.index, w.videos))

	out.AddRecoverableCommand(commands.NewEntityEnrichCommand(
		"entity-enrich", w.collabs.Entities, w.collabs.Linker, w.index, w.videos, w.cfg.Enrichment.MaxEntitiesPerRun))
	out.AddRecoverableCommand(commands.NewEventDetectCommand("event-detect", w.detector, w.videos))

	out.AddCommand(commands.NewArtifactWriteCommand("artifact-write", w.artifacts, w.detector, w.videos))

	w.chain = out
}
