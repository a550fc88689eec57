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

// AudioExtractCommand pulls the audio track out of the uploaded video.
// A video without an audio stream is a normal outcome: the extractor
// returns a nil track, the state records it, and the audio-dependent
// stages downstream produce no evidence instead of failing.
type AudioExtractCommand struct {
	cor.BaseCommand
	extractor collab.AudioExtractor
	videos    *storage.VideoStore
	outDir    string
}

// NewAudioExtractCommand builds the audio extraction stage.
func NewAudioExtractCommand(name string, extractor collab.AudioExtractor, videos *storage.VideoStore, outDir string) *AudioExtractCommand {
	return &AudioExtractCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		extractor:   extractor,
		videos:      videos,
		outDir:      outDir,
	}
}

// Execute extracts the audio track and advances the video to
// audio_extracted.
func (c *AudioExtractCommand) Execute(context cor.Context) {
	state := stateFrom(context, c.GetInputParam())

	track, err := c.extractor.ExtractAudio(context.GetContext(), state.VideoPath, c.outDir)
	if err != nil {
		context.AddError(c.GetName(), err)
		return
	}
	state.Audio = track
	if track != nil && track.Path != "" {
		context.AddTempFile(track.Path)
	}

	if err := advanceStatus(context.GetContext(), c.videos, state.VideoID, model.StatusAudioExtracted); err != nil {
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(c.GetOutputParam(), state)
}
