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
	"github.com/clipstream/go-video-indexer/internal/collab"
	"github.com/clipstream/go-video-indexer/internal/core/cor"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/storage"
)

// FrameExtractCommand samples frames from the video at the configured
// interval. The frame image files are run-private; every path is tracked
// in the chain context and removed when the run closes.
type FrameExtractCommand struct {
	cor.BaseCommand
	extractor collab.FrameExtractor
	videos    *storage.VideoStore
	outDir    string
	interval  int
}

// NewFrameExtractCommand builds the frame extraction stage.
func NewFrameExtractCommand(name string, extractor collab.FrameExtractor, videos *storage.VideoStore, outDir string, interval int) *FrameExtractCommand {
	return &FrameExtractCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		extractor:   extractor,
		videos:      videos,
		outDir:      outDir,
		interval:    interval,
	}
}

// Execute extracts the frames and advances the video to frames_extracted.
func (c *FrameExtractCommand) Execute(context cor.Context) {
	state := stateFrom(context, c.GetInputParam())

	frames, err := c.extractor.ExtractFrames(context.GetContext(), state.VideoPath, c.outDir, c.interval)
	if err != nil {
		context.AddError(c.GetName(), err)
		return
	}
	state.Frames = frames
	for _, frame := range frames {
		context.AddTempFile(frame.Path)
	}

	if err := advanceStatus(context.GetContext(), c.videos, state.VideoID, model.StatusFramesExtracted); err != nil {
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(c.GetOutputParam(), state)
}
