package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// GeminiGenerator implements Generator for the Gemini generateContent API
type GeminiGenerator struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type geminiModelList struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
	NextPageToken string `json:"nextPageToken"`
}

// Finish reasons that mean the candidate was withheld
var geminiBlockedReasons = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
}

// NewGeminiGenerator creates a new Gemini generator
func NewGeminiGenerator(config Config) (*GeminiGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	return &GeminiGenerator{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: config.httpClient(),
		config:     config,
	}, nil
}

// Name returns the provider name
func (g *GeminiGenerator) Name() string {
	return "gemini"
}

// Generate calls generateContent for model
func (g *GeminiGenerator) Generate(ctx context.Context, model, prompt string) (*Generation, error) {
	model = strings.TrimPrefix(model, "models/")

	ctx, cancel := context.WithTimeout(ctx, g.config.timeout())
	defer cancel()

	apiReq := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.3,
			MaxOutputTokens: g.config.maxTokens(),
		},
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?%s",
		g.baseURL, url.PathEscape(model), url.Values{"key": {g.apiKey}}.Encode())

	var resp geminiResponse
	if err := g.do(ctx, http.MethodPost, endpoint, model, apiReq, &resp); err != nil {
		return nil, err
	}

	out := &Generation{
		Model:      model,
		TokensUsed: resp.UsageMetadata.TotalTokenCount,
	}

	if reason := resp.PromptFeedback.BlockReason; reason != "" {
		out.Blocked = true
		out.BlockReason = reason
		return out, nil
	}
	if len(resp.Candidates) == 0 {
		out.Blocked = true
		out.BlockReason = "no candidates"
		return out, nil
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	out.Text = strings.TrimSpace(text.String())

	if out.Text == "" && geminiBlockedReasons[candidate.FinishReason] {
		out.Blocked = true
		out.BlockReason = candidate.FinishReason
	}

	return out, nil
}

// ListModels pages through the model list and keeps models that support generateContent
func (g *GeminiGenerator) ListModels(ctx context.Context) ([]string, error) {
	var models []string
	pageToken := ""

	for {
		params := url.Values{"key": {g.apiKey}, "pageSize": {"100"}}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		endpoint := fmt.Sprintf("%s/v1beta/models?%s", g.baseURL, params.Encode())

		var page geminiModelList
		if err := g.do(ctx, http.MethodGet, endpoint, "", nil, &page); err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}

		for _, m := range page.Models {
			if slices.Contains(m.SupportedGenerationMethods, "generateContent") {
				models = append(models, strings.TrimPrefix(m.Name, "models/"))
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return models, nil
}

// do makes an HTTP request to the Gemini API and decodes the response into out
func (g *GeminiGenerator) do(ctx context.Context, method, endpoint, model string, body, out any) error {
	if err := g.config.Limiter.Wait(ctx, endpoint); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		// The endpoint carries the key, so only the cause is reported.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		genErr := &GenerationError{
			Provider: "gemini",
			Model:    model,
			Code:     codeForStatus(httpResp.StatusCode),
			Status:   httpResp.StatusCode,
			Message:  string(respBody),
		}
		var apiErr geminiError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			genErr.Message = apiErr.Error.Message
			if apiErr.Error.Status == "NOT_FOUND" {
				genErr.Code = CodeModelNotFound
			}
		}
		return genErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
