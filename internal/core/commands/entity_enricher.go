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
	"log/slog"
	"strings"

	"github.com/clipstream/go-video-indexer/internal/collab"
	"github.com/clipstream/go-video-indexer/internal/core/cor"
	"github.com/clipstream/go-video-indexer/internal/core/index"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// EntityEnrichCommand runs named-entity recognition over the transcript
// and the per-frame OCR text, links each entity against the knowledge base
// through the rate-limited wrapper, and indexes every mention as an entity
// record. A link that misses or times out degrades to an unenriched
// mention for that one entity; only the extractor failing is a stage
// error.
//
// Each mention also becomes an entity event on the pipeline state, carrying
// the timestamp of the segment or frame it was seen in, ready for scoring
// by the event detection stage.
type EntityEnrichCommand struct {
	cor.BaseCommand
	extractor collab.EntityExtractor
	linker    collab.EntityLinker
	index     *index.Index
	videos    *storage.VideoStore
	maxPerRun int
}

// NewEntityEnrichCommand builds the entity enrichment stage.
func NewEntityEnrichCommand(
	name string,
	extractor collab.EntityExtractor,
	linker collab.EntityLinker,
	idx *index.Index,
	videos *storage.VideoStore,
	maxPerRun int,
) *EntityEnrichCommand {
	return &EntityEnrichCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		extractor:   extractor,
		linker:      linker,
		index:       idx,
		videos:      videos,
		maxPerRun:   maxPerRun,
	}
}

// Execute enriches the video's text evidence and advances it to
// entities_enriched.
func (c *EntityEnrichCommand) Execute(context cor.Context) {
	state := stateFrom(context, c.GetInputParam())
	ctx := context.GetContext()

	entities, err := c.collectEntities(context, state)
	if err != nil {
		context.AddError(c.GetName(), err)
		return
	}

	for _, entity := range entities {
		text := fmt.Sprintf("%s (%s)", entity.Text, entity.Label)
		if entity.Description != "" {
			text += " - " + entity.Description
		}
		_, err := c.index.Add(ctx, state.VideoID, text, model.RecordMetadata{
			Type:       model.RecordTypeEntity,
			VideoID:    state.VideoID,
			Timestamp:  entity.Timestamp,
			EntityType: entity.Label,
		})
		if err != nil {
			context.AddError(c.GetName(), err)
			return
		}
		state.EntityEvents = append(state.EntityEvents, model.Event{
			Timestamp:   entity.Timestamp,
			Description: "Mentioned: " + entity.Text,
		})
	}

	if err := advanceStatus(ctx, c.videos, state.VideoID, model.StatusEntitiesEnriched); err != nil {
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(c.GetOutputParam(), state)
}

// collectEntities extracts entities from every transcript segment and
// every frame's OCR text, stamps them with the source timestamp, links
// them best-effort, and caps the total at the configured budget.
func (c *EntityEnrichCommand) collectEntities(context cor.Context, state *PipelineState) ([]model.Entity, error) {
	if state.Features == nil {
		return nil, nil
	}
	ctx := context.GetContext()

	var collected []model.Entity
	appendFrom := func(text string, timestamp float64) error {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		entities, err := c.extractor.ExtractEntities(ctx, text)
		if err != nil {
			return fmt.Errorf("extract entities of video %s: %w", state.VideoID, err)
		}
		for _, entity := range entities {
			entity.Timestamp = timestamp
			collected = append(collected, entity)
		}
		return nil
	}

	for _, segment := range state.Features.Transcript {
		if err := appendFrom(segment.Text, segment.Start); err != nil {
			return nil, err
		}
	}
	for _, frame := range state.Features.Frames {
		if len(frame.OCRText) == 0 {
			continue
		}
		if err := appendFrom(strings.Join(frame.OCRText, " "), frame.Timestamp); err != nil {
			return nil, err
		}
	}

	if c.maxPerRun > 0 && len(collected) > c.maxPerRun {
		collected = collected[:c.maxPerRun]
	}

	for i := range collected {
		kb, err := c.linker.Link(ctx, collected[i].Text, collected[i].Label)
		if err != nil {
			// Budget exhausted or transport failure: this entity stays
			// unenriched and the stage moves on.
			slog.WarnContext(ctx, "knowledge-base link failed",
				"video_id", state.VideoID, "entity", collected[i].Text, "error", err)
			continue
		}
		if kb != nil {
			collected[i].Description = kb.Description
		}
	}
	return collected, nil
}
