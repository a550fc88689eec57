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

// Package inference is the JSON-over-HTTP client for the model server that
// hosts the speech, vision, text, and face models. It implements every
// inference-bound collaborator interface; the server is expected to share
// a filesystem with this process, so requests reference media by path
// rather than shipping sample data over the wire.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clipstream/go-video-indexer/internal/collab"
	"github.com/clipstream/go-video-indexer/internal/config"
	"github.com/clipstream/go-video-indexer/internal/core/model"
	"github.com/clipstream/go-video-indexer/internal/core/vector"
)

// Client calls the model server. One instance is shared by all pipeline
// runs; the underlying http.Client handles connection reuse.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a client from the inference configuration.
func NewClient(cfg config.Inference) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// post sends the request payload to route and decodes the JSON response
// into out.
func (c *Client) post(ctx context.Context, route string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", route, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", route, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call model server %s: %w", route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("model server %s returned status %d: %s", route, resp.StatusCode, detail)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", route, err)
	}
	return nil
}

type imageRequest struct {
	ImagePath string `json:"image_path"`
}

// Transcribe converts an audio track to transcript segments.
func (c *Client) Transcribe(ctx context.Context, track *model.AudioTrack) ([]model.TranscriptSegment, error) {
	var out struct {
		Segments []model.TranscriptSegment `json:"segments"`
	}
	payload := struct {
		AudioPath  string `json:"audio_path"`
		SampleRate int    `json:"sample_rate"`
	}{AudioPath: track.Path, SampleRate: track.SampleRate}
	if err := c.post(ctx, "/transcribe", payload, &out); err != nil {
		return nil, err
	}
	return out.Segments, nil
}

// DetectObjects labels the objects visible in one frame image.
func (c *Client) DetectObjects(ctx context.Context, imagePath string) ([]model.DetectedObject, error) {
	var out struct {
		Objects []model.DetectedObject `json:"objects"`
	}
	if err := c.post(ctx, "/objects", imageRequest{ImagePath: imagePath}, &out); err != nil {
		return nil, err
	}
	return out.Objects, nil
}

// ReadText extracts on-screen text tokens from one frame image.
func (c *Client) ReadText(ctx context.Context, imagePath string) ([]string, error) {
	var out struct {
		Text []string `json:"text"`
	}
	if err := c.post(ctx, "/ocr", imageRequest{ImagePath: imagePath}, &out); err != nil {
		return nil, err
	}
	return out.Text, nil
}

// EmbedFrame produces the visual embedding of one frame image.
func (c *Client) EmbedFrame(ctx context.Context, imagePath string) (vector.Vector, error) {
	var out struct {
		Embedding vector.Vector `json:"embedding"`
	}
	if err := c.post(ctx, "/embed/frame", imageRequest{ImagePath: imagePath}, &out); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}

// EmbedText maps text into the shared embedding space.
func (c *Client) EmbedText(ctx context.Context, text string) (vector.Vector, error) {
	var out struct {
		Embedding vector.Vector `json:"embedding"`
	}
	payload := struct {
		Text string `json:"text"`
	}{Text: text}
	if err := c.post(ctx, "/embed/text", payload, &out); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}

// DetectAndEncodeFaces detects and encodes the faces in one frame image.
func (c *Client) DetectAndEncodeFaces(ctx context.Context, imagePath string) ([]collab.FaceEncoding, error) {
	var out struct {
		Faces []struct {
			Box      model.BoundingBox `json:"box"`
			Encoding vector.Vector     `json:"encoding"`
		} `json:"faces"`
	}
	if err := c.post(ctx, "/faces", imageRequest{ImagePath: imagePath}, &out); err != nil {
		return nil, err
	}
	faces := make([]collab.FaceEncoding, 0, len(out.Faces))
	for _, face := range out.Faces {
		faces = append(faces, collab.FaceEncoding{Box: face.Box, Encoding: face.Encoding})
	}
	return faces, nil
}

// ExtractEntities runs named-entity recognition over text.
func (c *Client) ExtractEntities(ctx context.Context, text string) ([]model.Entity, error) {
	var out struct {
		Entities []struct {
			Text  string `json:"text"`
			Label string `json:"label"`
		} `json:"entities"`
	}
	payload := struct {
		Text string `json:"text"`
	}{Text: text}
	if err := c.post(ctx, "/entities", payload, &out); err != nil {
		return nil, err
	}
	entities := make([]model.Entity, 0, len(out.Entities))
	for _, entity := range out.Entities {
		entities = append(entities, model.Entity{Text: entity.Text, Label: entity.Label})
	}
	return entities, nil
}
