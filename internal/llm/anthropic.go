package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// AnthropicGenerator implements Generator for Anthropic Claude models
type AnthropicGenerator struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Anthropic API structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model        string `json:"model"`
	StopReason   string `json:"stop_reason"`
	StopSequence string `json:"stop_sequence"`
	Usage        struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type anthropicModelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
	HasMore bool   `json:"has_more"`
	LastID  string `json:"last_id"`
}

// NewAnthropicGenerator creates a new Anthropic generator
func NewAnthropicGenerator(config Config) (*AnthropicGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	return &AnthropicGenerator{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: config.httpClient(),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicGenerator) Name() string {
	return "anthropic"
}

// Generate calls the Messages API for model
func (p *AnthropicGenerator) Generate(ctx context.Context, model, prompt string) (*Generation, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	apiReq := anthropicRequest{
		Model:     model,
		MaxTokens: p.config.maxTokens(),
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: 0.3,
	}

	var resp anthropicResponse
	if err := p.makeRequest(ctx, http.MethodPost, "/v1/messages", model, apiReq, &resp); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	out := &Generation{
		Text:       strings.TrimSpace(text.String()),
		Model:      model,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}
	if resp.Model != "" {
		out.Model = resp.Model
	}
	if resp.StopReason == "refusal" {
		out.Blocked = true
		out.BlockReason = resp.StopReason
	}

	return out, nil
}

// ListModels returns the Claude models visible to the API key
func (p *AnthropicGenerator) ListModels(ctx context.Context) ([]string, error) {
	var models []string
	path := "/v1/models?limit=100"

	for {
		var page anthropicModelList
		if err := p.makeRequest(ctx, http.MethodGet, path, "", nil, &page); err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}

		for _, m := range page.Data {
			models = append(models, m.ID)
		}

		if !page.HasMore || page.LastID == "" {
			break
		}
		path = "/v1/models?limit=100&after_id=" + page.LastID
	}

	return models, nil
}

// makeRequest makes an HTTP request to the Anthropic API
func (p *AnthropicGenerator) makeRequest(ctx context.Context, method, path, model string, body, out any) error {
	url := p.baseURL + path

	if err := p.config.Limiter.Wait(ctx, url); err != nil {
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

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	// Set headers
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		genErr := &GenerationError{
			Provider: "anthropic",
			Model:    model,
			Code:     codeForStatus(httpResp.StatusCode),
			Status:   httpResp.StatusCode,
			Message:  string(respBody),
		}
		var apiErr anthropicError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Type != "" {
			genErr.Message = apiErr.Error.Type + " - " + apiErr.Error.Message
			if apiErr.Error.Type == "not_found_error" {
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
