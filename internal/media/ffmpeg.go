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

// Package media binds the extraction collaborators to ffmpeg. Audio is
// decoded to mono PCM16 at the configured sample rate and loaded into
// memory as float32 samples; frames are sampled at a fixed interval into
// per-video directories of JPEG files. Both invocations inherit the
// caller's context, so a cancelled pipeline kills the child process.
package media

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clipstream/go-video-indexer/internal/config"
	"github.com/clipstream/go-video-indexer/internal/core/model"
)

// FFmpeg implements the AudioExtractor and FrameExtractor collaborators by
// shelling out to the ffmpeg executable.
type FFmpeg struct {
	path       string
	sampleRate int
}

// NewFFmpeg builds the extractor from the media configuration.
func NewFFmpeg(cfg config.Media) *FFmpeg {
	return &FFmpeg{path: cfg.FFmpegPath, sampleRate: cfg.SampleRate}
}

// ExtractAudio decodes the video's audio stream into a raw PCM16 file under
// outDir and loads it as a normalized float32 track. A video without an
// audio stream yields (nil, nil).
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath string, outDir string) (*model.AudioTrack, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	rawPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))+".pcm")

	cmd := exec.CommandContext(ctx, f.path,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-vn", "-ac", "1", "-ar", fmt.Sprint(f.sampleRate),
		"-f", "s16le", rawPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		// ffmpeg reports input files without any audio stream as an error;
		// treat that case as a silent video rather than a failure.
		if strings.Contains(string(out), "does not contain any stream") ||
			strings.Contains(string(out), "Output file does not contain any stream") {
			return nil, nil
		}
		return nil, fmt.Errorf("ffmpeg audio extract: %w: %s", err, strings.TrimSpace(string(out)))
	}

	raw, err := os.ReadFile(rawPath)
	if err != nil {
		return nil, fmt.Errorf("read extracted audio: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float32(float64(s) / math.MaxInt16)
	}
	return &model.AudioTrack{Path: rawPath, SampleRate: f.sampleRate, Samples: samples}, nil
}

// ExtractFrames samples one frame every intervalSeconds into a directory
// derived from the video name and returns them in timestamp order.
func (f *FFmpeg) ExtractFrames(ctx context.Context, videoPath string, outDir string, intervalSeconds int) ([]model.Frame, error) {
	if intervalSeconds <= 0 {
		intervalSeconds = 1
	}
	frameDir := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath)))
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}

	pattern := filepath.Join(frameDir, "frame_%06d.jpg")
	cmd := exec.CommandContext(ctx, f.path,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%d", intervalSeconds),
		pattern)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extract: %w: %s", err, strings.TrimSpace(string(out)))
	}

	entries, err := filepath.Glob(filepath.Join(frameDir, "frame_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("list extracted frames: %w", err)
	}
	sort.Strings(entries)

	frames := make([]model.Frame, 0, len(entries))
	for i, path := range entries {
		frames = append(frames, model.Frame{
			Index:     i,
			Timestamp: float64(i * intervalSeconds),
			Path:      path,
		})
	}
	return frames, nil
}
