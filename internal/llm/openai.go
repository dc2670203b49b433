package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator implements Generator for OpenAI chat models
type OpenAIGenerator struct {
	client  *openai.Client
	baseURL string
	config  Config
}

// NewOpenAIGenerator creates a new OpenAI generator
func NewOpenAIGenerator(config Config) (*OpenAIGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = config.httpClient()

	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(clientConfig),
		baseURL: clientConfig.BaseURL,
		config:  config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIGenerator) Name() string {
	return "openai"
}

// Generate runs one chat completion against model
func (p *OpenAIGenerator) Generate(ctx context.Context, model, prompt string) (*Generation, error) {
	if err := p.config.Limiter.Wait(ctx, p.baseURL); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	if reasoningModel(model) {
		// Reasoning models reject max_tokens and custom temperatures.
		chatReq.MaxCompletionTokens = p.config.maxTokens()
	} else {
		chatReq.MaxTokens = p.config.maxTokens()
		chatReq.Temperature = 0.3
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, p.wrapError(model, err)
	}

	out := &Generation{
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}
	if resp.Model != "" {
		out.Model = resp.Model
	}

	if len(resp.Choices) == 0 {
		out.Blocked = true
		out.BlockReason = "no choices"
		return out, nil
	}

	choice := resp.Choices[0]
	out.Text = strings.TrimSpace(choice.Message.Content)
	if out.Text == "" && choice.Message.Refusal != "" {
		out.Blocked = true
		out.BlockReason = "refusal"
	}
	if choice.FinishReason == openai.FinishReasonContentFilter {
		out.Blocked = true
		out.BlockReason = string(openai.FinishReasonContentFilter)
	}

	return out, nil
}

// ListModels returns the chat-capable models visible to the API key
func (p *OpenAIGenerator) ListModels(ctx context.Context) ([]string, error) {
	if err := p.config.Limiter.Wait(ctx, p.baseURL); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", p.wrapError("", err))
	}

	var models []string
	for _, m := range list.Models {
		if chatCapable(m.ID) {
			models = append(models, m.ID)
		}
	}
	return models, nil
}

// wrapError converts go-openai errors into a GenerationError
func (p *OpenAIGenerator) wrapError(model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		genErr := &GenerationError{
			Provider: "openai",
			Model:    model,
			Code:     codeForStatus(apiErr.HTTPStatusCode),
			Status:   apiErr.HTTPStatusCode,
			Message:  apiErr.Message,
			Err:      err,
		}
		if code, ok := apiErr.Code.(string); ok && code == "model_not_found" {
			genErr.Code = CodeModelNotFound
		}
		return genErr
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &GenerationError{
			Provider: "openai",
			Model:    model,
			Code:     codeForStatus(reqErr.HTTPStatusCode),
			Status:   reqErr.HTTPStatusCode,
			Err:      err,
		}
	}

	return fmt.Errorf("OpenAI API error: %w", err)
}

func reasoningModel(id string) bool {
	return strings.HasPrefix(id, "o1") || strings.HasPrefix(id, "o3") || strings.HasPrefix(id, "o4")
}

var nonChatMarkers = []string{"embedding", "audio", "realtime", "tts", "transcribe", "whisper", "dall-e", "image", "moderation", "search"}

func chatCapable(id string) bool {
	if !strings.HasPrefix(id, "gpt-") && !strings.HasPrefix(id, "chatgpt-") && !reasoningModel(id) {
		return false
	}
	for _, marker := range nonChatMarkers {
		if strings.Contains(id, marker) {
			return false
		}
	}
	return true
}
