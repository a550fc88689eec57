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

// Package kb links named entities against the public Wikidata search API.
// It is the production EntityLinker; the pipeline always reaches it through
// the rate-limited, deadline-bounded wrapper.
package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/clipstream/go-video-indexer/internal/core/model"
)

// DefaultEndpoint is the Wikidata entity search API.
const DefaultEndpoint = "https://www.wikidata.org/w/api.php"

// WikidataLinker resolves entity text to Wikidata entities via the
// wbsearchentities action. A search with no hits is a miss, (nil, nil).
type WikidataLinker struct {
	endpoint string
	client   *http.Client
}

// NewWikidataLinker builds a linker against the default endpoint.
func NewWikidataLinker() *WikidataLinker {
	return &WikidataLinker{endpoint: DefaultEndpoint, client: http.DefaultClient}
}

type searchResponse struct {
	Search []struct {
		ID          string `json:"id"`
		Label       string `json:"label"`
		Description string `json:"description"`
	} `json:"search"`
}

// Link searches Wikidata for the entity text and returns the best match.
func (l *WikidataLinker) Link(ctx context.Context, entityText string, _ string) (*model.KBEntity, error) {
	params := url.Values{
		"action":   {"wbsearchentities"},
		"format":   {"json"},
		"language": {"en"},
		"search":   {entityText},
		"limit":    {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build wikidata request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query wikidata for %q: %w", entityText, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikidata returned status %d for %q", resp.StatusCode, entityText)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode wikidata response for %q: %w", entityText, err)
	}
	if len(parsed.Search) == 0 {
		return nil, nil
	}

	hit := parsed.Search[0]
	label := hit.Label
	if label == "" {
		label = entityText
	}
	return &model.KBEntity{
		ID:          hit.ID,
		Label:       label,
		Description: hit.Description,
	}, nil
}
