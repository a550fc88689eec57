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

// Package events implements the event detection and scoring engine. It
// turns the per-video evidence (frame embeddings, the audio signal, entity
// mentions) into a timestamp-ordered event list and a hierarchical summary.
// Detection is pure computation over inputs already extracted by the
// pipeline; the package performs no I/O and no inference.
package events

import (
	"fmt"
	"math"
	"sort"

	"github.com/clipstream/go-video-indexer/internal/config"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
)

// RMS envelope framing. One energy value per hop, computed over a window
// of frameLength samples.
const (
	rmsFrameLength = 2048
	rmsHopLength   = 512
)

// Importance multipliers per event type. Scene changes and audio spikes are
// boosted, silence is discounted.
const (
	sceneChangeWeight = 1.2
	audioSpikeWeight  = 1.5
	silenceWeight     = 0.8

	entityMentionScore      = 0.7
	entityMentionImportance = 0.9
)

// summaryTopMoments caps the highlight list of a summary.
const summaryTopMoments = 5

// Detector holds the detection thresholds. Construct it with NewDetector;
// the zero value detects nothing.
type Detector struct {
	SceneChangeThreshold float64
	AudioSpikeThreshold  float64
	SilenceThreshold     float64
	MinSilenceSeconds    float64
}

// NewDetector builds a detector from the configured thresholds.
func NewDetector(cfg config.Detector) *Detector {
	return &Detector{
		SceneChangeThreshold: cfg.SceneChangeThreshold,
		AudioSpikeThreshold:  cfg.AudioSpikeThreshold,
		SilenceThreshold:     cfg.SilenceThreshold,
		MinSilenceSeconds:    cfg.MinSilenceSeconds,
	}
}

// DetectSceneChanges compares each consecutive pair of frame embeddings and
// emits a scene_change event at the later frame whenever their cosine
// similarity falls below 1 minus the threshold. The score is the size of
// the drop, 1 minus the similarity. Fewer than two frames yields no events.
func (d *Detector) DetectSceneChanges(embeddings []model.FrameEmbedding) []model.Event {
	if len(embeddings) < 2 {
		return nil
	}

	var events []model.Event
	for i := 1; i < len(embeddings); i++ {
		prev := vector.Normalize(embeddings[i-1].Embedding)
		curr := vector.Normalize(embeddings[i].Embedding)
		similarity := vector.Dot(prev, curr)

		if similarity < 1-d.SceneChangeThreshold {
			events = append(events, model.Event{
				Timestamp:   embeddings[i].Timestamp,
				Type:        model.EventSceneChange,
				Score:       1 - similarity,
				Description: fmt.Sprintf("Scene transition detected (similarity: %.2f)", similarity),
			})
		}
	}
	return events
}

// DetectAudioEvents computes the peak-normalized RMS energy envelope of the
// track and derives two kinds of events from it: audio spikes, emitted once
// at the onset of each run above the spike threshold, and silence periods,
// emitted at the start of each run below the silence threshold that lasts
// longer than the minimum. A silence run still open when the track ends is
// counted. A nil or empty track yields no events.
func (d *Detector) DetectAudioEvents(track *model.AudioTrack) []model.Event {
	if track == nil || len(track.Samples) == 0 || track.SampleRate <= 0 {
		return nil
	}

	envelope := rmsEnvelope(track.Samples)
	normalizeByPeak(envelope)

	var events []model.Event
	secondsPerHop := float64(rmsHopLength) / float64(track.SampleRate)

	// Spikes: edge-triggered, one event per run above the threshold.
	for i, volume := range envelope {
		if volume > d.AudioSpikeThreshold && (i == 0 || envelope[i-1] <= d.AudioSpikeThreshold) {
			events = append(events, model.Event{
				Timestamp:   float64(i) * secondsPerHop,
				Type:        model.EventAudioSpike,
				Score:       volume,
				Description: fmt.Sprintf("Audio spike detected (volume: %.2f)", volume),
			})
		}
	}

	// Silence: runs below the threshold, reported at run start once long
	// enough.
	inSilence := false
	silenceStart := 0.0
	emitSilence := func(end float64) {
		duration := end - silenceStart
		if duration > d.MinSilenceSeconds {
			events = append(events, model.Event{
				Timestamp:   silenceStart,
				Type:        model.EventSilence,
				Score:       duration,
				Description: fmt.Sprintf("Silence period (%.1fs)", duration),
			})
		}
	}
	for i, volume := range envelope {
		t := float64(i) * secondsPerHop
		switch {
		case volume < d.SilenceThreshold && !inSilence:
			inSilence = true
			silenceStart = t
		case volume >= d.SilenceThreshold && inSilence:
			inSilence = false
			emitSilence(t)
		}
	}
	if inSilence {
		emitSilence(float64(len(track.Samples)) / float64(track.SampleRate))
	}

	return events
}

// ScoreEvents assigns each event its importance and merges the three
// streams into one timestamp-ordered list. Importance is score times the
// type's weight, except entity mentions, which carry a fixed score and
// importance. The sort is stable, so events sharing a timestamp keep the
// scene, audio, entity order of the inputs.
func (d *Detector) ScoreEvents(sceneChanges, audioEvents, entityMentions []model.Event) []model.Event {
	all := make([]model.Event, 0, len(sceneChanges)+len(audioEvents)+len(entityMentions))

	for _, event := range sceneChanges {
		event.Importance = event.Score * sceneChangeWeight
		all = append(all, event)
	}
	for _, event := range audioEvents {
		weight := silenceWeight
		if event.Type == model.EventAudioSpike {
			weight = audioSpikeWeight
		}
		event.Importance = event.Score * weight
		all = append(all, event)
	}
	for _, event := range entityMentions {
		event.Type = model.EventEntityMention
		event.Score = entityMentionScore
		event.Importance = entityMentionImportance
		all = append(all, event)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp < all[j].Timestamp
	})
	return all
}

// GenerateSummary rolls a scored event list up into the per-video summary.
// Top moments are the timestamps of the highest-importance events, at most
// five, with importance ties resolved toward the earlier position in the
// input. An empty event list produces the fixed no-events summary.
func (d *Detector) GenerateSummary(events []model.Event, videoDuration float64) model.Summary {
	if len(events) == 0 {
		return model.Summary{
			TopMoments:           []float64{},
			HighlightDescription: "No significant events detected",
			EventsByType:         map[model.EventType]int{},
		}
	}

	byImportance := make([]model.Event, len(events))
	copy(byImportance, events)
	sort.SliceStable(byImportance, func(i, j int) bool {
		return byImportance[i].Importance > byImportance[j].Importance
	})

	topCount := summaryTopMoments
	if len(byImportance) < topCount {
		topCount = len(byImportance)
	}
	topMoments := make([]float64, 0, topCount)
	for _, event := range byImportance[:topCount] {
		topMoments = append(topMoments, event.Timestamp)
	}

	byType := map[model.EventType]int{
		model.EventSceneChange:   0,
		model.EventAudioSpike:    0,
		model.EventSilence:       0,
		model.EventEntityMention: 0,
	}
	for _, event := range events {
		byType[event.Type]++
	}
	sceneCount := byType[model.EventSceneChange]
	audioSpikeCount := byType[model.EventAudioSpike]

	description := fmt.Sprintf("Video contains %d scene changes", sceneCount)
	if audioSpikeCount > 0 {
		description += fmt.Sprintf(" and %d audio highlights", audioSpikeCount)
	}
	description += fmt.Sprintf(". Top %d moments identified.", topCount)

	return model.Summary{
		TopMoments:           topMoments,
		EventCount:           len(events),
		SceneCount:           sceneCount,
		AudioSpikeCount:      audioSpikeCount,
		HighlightDescription: description,
		EventsByType:         byType,
	}
}

// rmsEnvelope computes one root-mean-square energy value per hop. The final
// windows shrink as they run off the end of the signal.
func rmsEnvelope(samples []float32) []float64 {
	var envelope []float64
	for start := 0; start < len(samples); start += rmsHopLength {
		end := start + rmsFrameLength
		if end > len(samples) {
			end = len(samples)
		}
		var sum float64
		for _, s := range samples[start:end] {
			sum += float64(s) * float64(s)
		}
		envelope = append(envelope, math.Sqrt(sum/float64(end-start)))
	}
	return envelope
}

// normalizeByPeak scales the envelope so its maximum is 1, guarding the
// all-silent case with a small epsilon.
func normalizeByPeak(envelope []float64) {
	peak := 0.0
	for _, v := range envelope {
		if v > peak {
			peak = v
		}
	}
	for i := range envelope {
		envelope[i] /= peak + vector.Epsilon
	}
}
