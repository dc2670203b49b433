// Package source holds the stateless fetchers for variant evidence.
// Fetchers never return Go errors: every failure is folded into the
// returned model.SearchResult, and callers must check IsErr.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/varsig/internal/model"
	"github.com/ppiankov/varsig/internal/worker"
)

// maxResponseBytes caps how much of an API response is read
const maxResponseBytes = 4 << 20

// Fetcher resolves a query to a search result
type Fetcher interface {
	Fetch(ctx context.Context, query string) model.SearchResult
}

// WebSearch calls the Tavily search API
type WebSearch struct {
	baseURL    string
	depth      string
	keys       KeySelector
	httpClient *http.Client
	limiter    *worker.Limiter
}

// NewWebSearch creates a web-search fetcher. limiter may be nil.
func NewWebSearch(baseURL, depth string, keys KeySelector, httpClient *http.Client, limiter *worker.Limiter) *WebSearch {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	if depth == "" {
		depth = "advanced"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &WebSearch{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		depth:      depth,
		keys:       keys,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

type searchRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Fetch runs one search. One outbound call per invocation, no retries.
func (s *WebSearch) Fetch(ctx context.Context, query string) model.SearchResult {
	url := s.baseURL + "/search"

	if err := s.limiter.Wait(ctx, url); err != nil {
		return model.Failed(fmt.Sprintf("rate limiter: %v", err))
	}

	body, err := json.Marshal(searchRequest{Query: query, SearchDepth: s.depth})
	if err != nil {
		return model.Failed(fmt.Sprintf("marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.Failed(fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.keys.Next())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return model.Failed(fmt.Sprintf("search request: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.Failed(fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		return model.Failed(fmt.Sprintf("Request failed with status %d", resp.StatusCode))
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return model.Failed(fmt.Sprintf("malformed search response: %v", err))
	}

	items := make([]model.SearchItem, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		items = append(items, model.SearchItem{
			Title:   strings.TrimSpace(r.Title),
			URL:     r.URL,
			Content: visibleText(r.Content),
		})
	}

	return model.OK(items)
}
