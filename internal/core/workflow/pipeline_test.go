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

package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/go-video-indexer/internal/collab"
	"github.com/clipstream/go-video-indexer/internal/config"
	"github.com/clipstream/go-video-indexer/internal/core/events"
	"github.com/clipstream/go-video-indexer/internal/core/faces"
	"github.com/clipstream/go-video-indexer/internal/core/index"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
	"github.com/clipstream/go-video-indexer/internal/storage"
	"github.com/clipstream/go-video-indexer/internal/testutil"
)

type testPipeline struct {
	runner    *Runner
	videos    *storage.VideoStore
	faces     *faces.Service
	index     *index.Index
	artifacts *storage.ArtifactStore
}

func newTestPipeline(t *testing.T, fakes *testutil.Fakes) *testPipeline {
	t.Helper()
	cfg := config.DefaultConfig()

	db, err := storage.Open(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	videoStore := storage.NewVideoStore(db)
	artifactStore := storage.NewArtifactStore(db)
	faceService := faces.NewService(fakes.Faces, storage.NewFaceStore(db), cfg.Clusterer)
	idx := index.New(fakes.TextEmbed, &index.MeanPoolFuser{}, cfg.Index)
	detector := events.NewDetector(cfg.Detector)

	pipeline := NewVideoPipelineWorkflow(
		cfg, fakes.Collaborators(), videoStore, artifactStore, faceService, idx, detector)
	return &testPipeline{
		runner:    NewRunner(pipeline, videoStore),
		videos:    videoStore,
		faces:     faceService,
		index:     idx,
		artifacts: artifactStore,
	}
}

func (p *testPipeline) admitAndRun(t *testing.T, videoID string) {
	t.Helper()
	err := p.videos.Insert(context.Background(), &model.Video{
		ID: videoID, FileName: videoID + ".mp4", Status: model.StatusUploaded, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	p.runner.Run(context.Background(), videoID, videoID+".mp4")
}

func (p *testPipeline) status(t *testing.T, videoID string) model.VideoStatus {
	t.Helper()
	video, err := p.videos.Get(context.Background(), videoID)
	require.NoError(t, err)
	return video.Status
}

// scriptedFakes builds a three-frame video with speech, one object
// detection, one OCR hit, two scene cuts, an opening audio spike followed
// by silence, and three face detections forming one identity plus noise.
func scriptedFakes() *testutil.Fakes {
	fakes := testutil.NewFakes()

	// 512 samples per second: 4 loud seconds, then silence to 12s.
	samples := make([]float32, 6144)
	for i := 0; i < 2048; i++ {
		samples[i] = 0.9
	}
	fakes.Audio.Track = &model.AudioTrack{Path: "audio.pcm", SampleRate: 512, Samples: samples}

	fakes.Frames.Frames = []model.Frame{
		{Index: 0, Timestamp: 0, Path: "f0.jpg"},
		{Index: 1, Timestamp: 1, Path: "f1.jpg"},
		{Index: 2, Timestamp: 2, Path: "f2.jpg"},
	}
	fakes.Transcriber.Segments = []model.TranscriptSegment{
		{Start: 0, End: 2, Text: "Alice visits Paris"},
	}
	fakes.Objects.ByPath = map[string][]model.DetectedObject{
		"f1.jpg": {{Label: "cat", Confidence: 0.9}},
	}
	fakes.OCR.ByPath = map[string][]string{
		"f2.jpg": {"EXIT"},
	}

	// Orthogonal neighbors make every frame transition a scene cut.
	fakes.FrameEmbed.ByPath = map[string]vector.Vector{
		"f0.jpg": {1, 0},
		"f1.jpg": {0, 1},
		"f2.jpg": {1, 0},
	}

	fakes.TextEmbed.ByText = map[string]vector.Vector{
		"Alice visits Paris":              {3, 3},
		"Objects: cat":                    {0, 10},
		"Text on screen: EXIT":            {10, 0},
		"Paris (GPE) - capital of France": {1, 1},
		"french capital":                  {1.1, 1},
	}

	fakes.Faces.ByPath = map[string][]collab.FaceEncoding{
		"f0.jpg": {
			{Encoding: vector.Vector{0, 0}},
			{Encoding: vector.Vector{0.1, 0}},
		},
		"f1.jpg": {
			{Encoding: vector.Vector{5, 5}},
		},
	}

	fakes.Entities.ByText = map[string][]model.Entity{
		"Alice visits Paris": {{Text: "Paris", Label: "GPE"}},
	}
	fakes.Linker.ByText = map[string]*model.KBEntity{
		"Paris": {ID: "Q90", Label: "Paris", Description: "capital of France"},
	}
	return fakes
}

func TestPipelineRunIndexesAllEvidence(t *testing.T) {
	pipeline := newTestPipeline(t, scriptedFakes())
	pipeline.admitAndRun(t, "vid-1")

	assert.Equal(t, model.StatusComplete, pipeline.status(t, "vid-1"))

	// Transcript + objects + OCR + fused summary + one linked entity.
	assert.Equal(t, 5, pipeline.index.Len())

	results, err := pipeline.index.Search(context.Background(), "french capital", "", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Paris (GPE) - capital of France", results[0].Text)
	assert.Equal(t, model.RecordTypeEntity, results[0].Metadata.Type)
	assert.Equal(t, "GPE", results[0].Metadata.EntityType)
	assert.Equal(t, "Video Content Summary", results[1].Text)
	assert.Equal(t, model.RecordTypeVideoSummary, results[1].Metadata.Type)
}

func TestPipelineRunWritesEventArtifact(t *testing.T) {
	pipeline := newTestPipeline(t, scriptedFakes())
	pipeline.admitAndRun(t, "vid-1")

	artifact, err := pipeline.artifacts.Get(context.Background(), "vid-1")
	require.NoError(t, err)
	assert.Equal(t, "vid-1", artifact.VideoID)
	assert.Equal(t, 3.0, artifact.Duration)

	require.Len(t, artifact.Events, 5)
	types := make([]model.EventType, 0, len(artifact.Events))
	timestamps := make([]float64, 0, len(artifact.Events))
	for _, event := range artifact.Events {
		types = append(types, event.Type)
		timestamps = append(timestamps, event.Timestamp)
	}
	assert.Equal(t, []model.EventType{
		model.EventAudioSpike, model.EventEntityMention,
		model.EventSceneChange, model.EventSceneChange, model.EventSilence,
	}, types)
	assert.Equal(t, []float64{0, 0, 1, 2, 4}, timestamps)
	assert.Equal(t, "Mentioned: Paris", artifact.Events[1].Description)
	assert.InDelta(t, 0.9, artifact.Events[1].Importance, 1e-9)

	summary := artifact.Summary
	require.NotNil(t, summary)
	assert.Equal(t, 5, summary.EventCount)
	assert.Equal(t, 2, summary.SceneCount)
	assert.Equal(t, 1, summary.AudioSpikeCount)
	assert.Equal(t, []float64{4, 0, 1, 2, 0}, summary.TopMoments)
	assert.Equal(t,
		"Video contains 2 scene changes and 1 audio highlights. Top 5 moments identified.",
		summary.HighlightDescription)
}

func TestPipelineRunClustersAndTagsFaces(t *testing.T) {
	pipeline := newTestPipeline(t, scriptedFakes())
	pipeline.admitAndRun(t, "vid-1")
	ctx := context.Background()

	clusters, err := pipeline.faces.ClustersForVideo(ctx, "vid-1")
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Len(t, clusters[0], 2)
	assert.Len(t, clusters[model.NoiseClusterID], 1)

	tagged, err := pipeline.faces.Tag(ctx, "vid-1_0_0", "Alice")
	require.NoError(t, err)
	assert.Equal(t, 2, tagged)

	appearances, err := pipeline.faces.SearchByPerson(ctx, "Alice")
	require.NoError(t, err)
	assert.Len(t, appearances, 2)
}

func TestPipelineRecoversWhenFaceDetectionFails(t *testing.T) {
	fakes := scriptedFakes()
	fakes.Faces.Err = assert.AnError
	pipeline := newTestPipeline(t, fakes)
	pipeline.admitAndRun(t, "vid-1")

	// The run completes without face evidence; everything else survives.
	assert.Equal(t, model.StatusComplete, pipeline.status(t, "vid-1"))
	assert.Equal(t, 5, pipeline.index.Len())

	clusters, err := pipeline.faces.ClustersForVideo(context.Background(), "vid-1")
	require.NoError(t, err)
	assert.Empty(t, clusters)

	_, err = pipeline.artifacts.Get(context.Background(), "vid-1")
	assert.NoError(t, err)
}

func TestPipelineRecoversWhenEntityExtractionFails(t *testing.T) {
	fakes := scriptedFakes()
	fakes.Entities.Err = assert.AnError
	pipeline := newTestPipeline(t, fakes)
	pipeline.admitAndRun(t, "vid-1")

	assert.Equal(t, model.StatusComplete, pipeline.status(t, "vid-1"))

	// No entity records, and no entity mentions among the events.
	assert.Equal(t, 4, pipeline.index.Len())
	artifact, err := pipeline.artifacts.Get(context.Background(), "vid-1")
	require.NoError(t, err)
	assert.Len(t, artifact.Events, 4)
	assert.Zero(t, artifact.Summary.EventsByType[model.EventEntityMention])
}

func TestPipelineFatalExtractionFailure(t *testing.T) {
	fakes := scriptedFakes()
	fakes.Frames.Err = assert.AnError
	pipeline := newTestPipeline(t, fakes)
	pipeline.admitAndRun(t, "vid-1")

	assert.Equal(t, model.StatusFailed, pipeline.status(t, "vid-1"))
	assert.Zero(t, pipeline.index.Len())

	_, err := pipeline.artifacts.Get(context.Background(), "vid-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProcessRejectsNonVideoUpload(t *testing.T) {
	pipeline := newTestPipeline(t, scriptedFakes())

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a video"), 0o644))

	_, err := pipeline.runner.Process(context.Background(), path, "notes.txt")
	assert.Error(t, err)

	videos, err := pipeline.videos.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, videos)
}

func TestProcessDispatchesVideoUpload(t *testing.T) {
	pipeline := newTestPipeline(t, scriptedFakes())

	// A minimal MP4 header is enough for the content sniff.
	header := []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2',
		0x00, 0x00, 0x00, 0x00, 'm', 'p', '4', '2', 'i', 's', 'o', 'm',
	}
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, header, 0o644))

	videoID, err := pipeline.runner.Process(context.Background(), path, "clip.mp4")
	require.NoError(t, err)
	require.NotEmpty(t, videoID)
	pipeline.runner.Wait()

	assert.Equal(t, model.StatusComplete, pipeline.status(t, videoID))
}
