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

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/go-video-indexer/internal/config"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
)

func newTestDetector() *Detector {
	return NewDetector(config.DefaultConfig().Detector)
}

func embedding(ts float64, v vector.Vector) model.FrameEmbedding {
	return model.FrameEmbedding{Timestamp: ts, Embedding: v}
}

func TestDetectSceneChangesNeedsTwoFrames(t *testing.T) {
	d := newTestDetector()
	assert.Empty(t, d.DetectSceneChanges(nil))
	assert.Empty(t, d.DetectSceneChanges([]model.FrameEmbedding{
		embedding(0, vector.Vector{1, 0}),
	}))
}

func TestDetectSceneChangesOrthogonalFrames(t *testing.T) {
	d := newTestDetector()
	events := d.DetectSceneChanges([]model.FrameEmbedding{
		embedding(0, vector.Vector{1, 0}),
		embedding(1, vector.Vector{0, 1}),
	})
	require.Len(t, events, 1)
	assert.Equal(t, model.EventSceneChange, events[0].Type)
	assert.Equal(t, 1.0, events[0].Timestamp)
	assert.InDelta(t, 1.0, events[0].Score, 1e-6)
	assert.Contains(t, events[0].Description, "similarity: 0.00")
}

func TestDetectSceneChangesIdenticalFrames(t *testing.T) {
	d := newTestDetector()
	events := d.DetectSceneChanges([]model.FrameEmbedding{
		embedding(0, vector.Vector{3, 4}),
		embedding(1, vector.Vector{3, 4}),
		embedding(2, vector.Vector{6, 8}), // same direction, larger magnitude
	})
	assert.Empty(t, events)
}

func TestDetectSceneChangesTimestampIsLaterFrame(t *testing.T) {
	d := newTestDetector()
	events := d.DetectSceneChanges([]model.FrameEmbedding{
		embedding(10, vector.Vector{1, 0}),
		embedding(11, vector.Vector{1, 0}),
		embedding(12, vector.Vector{0, 1}),
	})
	require.Len(t, events, 1)
	assert.Equal(t, 12.0, events[0].Timestamp)
}

// constantSamples returns n samples of the given amplitude.
func constantSamples(n int, amplitude float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = amplitude
	}
	return s
}

func TestDetectAudioEventsNilTrack(t *testing.T) {
	d := newTestDetector()
	assert.Empty(t, d.DetectAudioEvents(nil))
	assert.Empty(t, d.DetectAudioEvents(&model.AudioTrack{SampleRate: 22050}))
}

func TestDetectAudioEventsSpikeAtOnset(t *testing.T) {
	d := newTestDetector()
	// Constant loud signal: the whole envelope normalizes to ~1, so exactly
	// one edge-triggered spike fires, at the start.
	track := &model.AudioTrack{
		SampleRate: 512,
		Samples:    constantSamples(4096, 0.5),
	}
	events := d.DetectAudioEvents(track)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAudioSpike, events[0].Type)
	assert.Equal(t, 0.0, events[0].Timestamp)
	assert.InDelta(t, 1.0, events[0].Score, 1e-3)
}

func TestDetectAudioEventsTrailingSilenceCounts(t *testing.T) {
	d := newTestDetector()
	// 4 seconds of sound then 8 seconds of silence running to the end of the
	// track. With a 512 sample rate one envelope hop is one second.
	samples := append(constantSamples(2048, 1.0), constantSamples(4096, 0)...)
	track := &model.AudioTrack{SampleRate: 512, Samples: samples}

	events := d.DetectAudioEvents(track)

	var silences []model.Event
	for _, e := range events {
		if e.Type == model.EventSilence {
			silences = append(silences, e)
		}
	}
	require.Len(t, silences, 1)
	assert.Equal(t, 4.0, silences[0].Timestamp)
	assert.InDelta(t, 8.0, silences[0].Score, 1e-6)
}

func TestDetectAudioEventsShortSilenceIgnored(t *testing.T) {
	d := &Detector{
		AudioSpikeThreshold: 0.7,
		SilenceThreshold:    0.1,
		MinSilenceSeconds:   100, // nothing qualifies
	}
	samples := append(constantSamples(2048, 1.0), constantSamples(4096, 0)...)
	events := d.DetectAudioEvents(&model.AudioTrack{SampleRate: 512, Samples: samples})
	for _, e := range events {
		assert.NotEqual(t, model.EventSilence, e.Type)
	}
}

func TestScoreEventsAppliesMultipliers(t *testing.T) {
	d := newTestDetector()
	scored := d.ScoreEvents(
		[]model.Event{{Timestamp: 1, Type: model.EventSceneChange, Score: 0.5}},
		[]model.Event{
			{Timestamp: 2, Type: model.EventAudioSpike, Score: 0.8},
			{Timestamp: 3, Type: model.EventSilence, Score: 2.0},
		},
		[]model.Event{{Timestamp: 4, Description: "Mentioned: Alice"}},
	)
	require.Len(t, scored, 4)
	assert.InDelta(t, 0.6, scored[0].Importance, 1e-9)  // 0.5 * 1.2
	assert.InDelta(t, 1.2, scored[1].Importance, 1e-9)  // 0.8 * 1.5
	assert.InDelta(t, 1.6, scored[2].Importance, 1e-9)  // 2.0 * 0.8
	assert.Equal(t, model.EventEntityMention, scored[3].Type)
	assert.Equal(t, 0.7, scored[3].Score)
	assert.Equal(t, 0.9, scored[3].Importance)
}

func TestScoreEventsStableTimestampOrder(t *testing.T) {
	d := newTestDetector()
	scored := d.ScoreEvents(
		[]model.Event{{Timestamp: 5, Type: model.EventSceneChange, Score: 0.4}},
		[]model.Event{{Timestamp: 5, Type: model.EventAudioSpike, Score: 0.9}},
		[]model.Event{{Timestamp: 5}},
	)
	require.Len(t, scored, 3)
	// Ties keep scene, audio, entity input order.
	assert.Equal(t, model.EventSceneChange, scored[0].Type)
	assert.Equal(t, model.EventAudioSpike, scored[1].Type)
	assert.Equal(t, model.EventEntityMention, scored[2].Type)
}

func TestGenerateSummaryEmpty(t *testing.T) {
	d := newTestDetector()
	summary := d.GenerateSummary(nil, 120)
	assert.Empty(t, summary.TopMoments)
	assert.Equal(t, 0, summary.EventCount)
	assert.Equal(t, "No significant events detected", summary.HighlightDescription)
}

func TestGenerateSummaryTopMomentsAndCounts(t *testing.T) {
	d := newTestDetector()
	events := []model.Event{
		{Timestamp: 1, Type: model.EventSceneChange, Importance: 0.5},
		{Timestamp: 2, Type: model.EventAudioSpike, Importance: 1.5},
		{Timestamp: 3, Type: model.EventSceneChange, Importance: 0.9},
		{Timestamp: 4, Type: model.EventSilence, Importance: 0.2},
		{Timestamp: 5, Type: model.EventEntityMention, Importance: 0.9},
		{Timestamp: 6, Type: model.EventAudioSpike, Importance: 1.2},
	}
	summary := d.GenerateSummary(events, 60)

	assert.Equal(t, 6, summary.EventCount)
	assert.Equal(t, 2, summary.SceneCount)
	assert.Equal(t, 2, summary.AudioSpikeCount)
	assert.Equal(t, 1, summary.EventsByType[model.EventSilence])
	assert.Equal(t, 1, summary.EventsByType[model.EventEntityMention])

	// Importance order, ties broken toward the earlier event: the two 0.9
	// events keep timestamps 3 before 5.
	require.Len(t, summary.TopMoments, 5)
	assert.Equal(t, []float64{2, 6, 3, 5, 1}, summary.TopMoments)

	assert.Equal(t,
		"Video contains 2 scene changes and 2 audio highlights. Top 5 moments identified.",
		summary.HighlightDescription)
}

func TestGenerateSummaryFewerThanFiveEvents(t *testing.T) {
	d := newTestDetector()
	events := []model.Event{
		{Timestamp: 1, Type: model.EventSceneChange, Importance: 0.5},
		{Timestamp: 2, Type: model.EventSceneChange, Importance: 0.7},
	}
	summary := d.GenerateSummary(events, 30)
	assert.Equal(t, []float64{2, 1}, summary.TopMoments)
	assert.Equal(t,
		"Video contains 2 scene changes. Top 2 moments identified.",
		summary.HighlightDescription)
}
