package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newGeminiTestGenerator(t *testing.T, url string) *GeminiGenerator {
	t.Helper()
	gen, err := NewGeminiGenerator(Config{
		APIKey:    "test-key",
		BaseURL:   url,
		Timeout:   5 * time.Second,
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("Failed to create generator: %v", err)
	}
	return gen
}

func TestGeminiGenerator_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.0-flash:generateContent" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("Expected key query parameter, got %q", r.URL.Query().Get("key"))
		}

		var req geminiRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "prompt" {
			t.Errorf("Unexpected contents: %+v", req.Contents)
		}
		if req.GenerationConfig.MaxOutputTokens != 256 {
			t.Errorf("Expected maxOutputTokens 256, got %d", req.GenerationConfig.MaxOutputTokens)
		}

		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Oncogenic, "}, {"text": "Level 1."}]}, "finishReason": "STOP"}],
			"usageMetadata": {"totalTokenCount": 42}
		}`))
	}))
	defer server.Close()

	gen := newGeminiTestGenerator(t, server.URL)

	out, err := gen.Generate(context.Background(), "models/gemini-2.0-flash", "prompt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if out.Text != "Oncogenic, Level 1." {
		t.Errorf("Unexpected text: %q", out.Text)
	}
	if out.TokensUsed != 42 {
		t.Errorf("Expected 42 tokens, got %d", out.TokensUsed)
	}
	if out.Model != "gemini-2.0-flash" {
		t.Errorf("Expected normalized model name, got %s", out.Model)
	}
}

func TestGeminiGenerator_Generate_PromptBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback": {"blockReason": "SAFETY"}}`))
	}))
	defer server.Close()

	gen := newGeminiTestGenerator(t, server.URL)

	out, err := gen.Generate(context.Background(), "gemini-2.0-flash", "prompt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !out.Blocked || out.BlockReason != "SAFETY" {
		t.Errorf("Expected SAFETY block, got %+v", out)
	}
}

func TestGeminiGenerator_Generate_CandidateBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": []}, "finishReason": "RECITATION"}]}`))
	}))
	defer server.Close()

	gen := newGeminiTestGenerator(t, server.URL)

	out, err := gen.Generate(context.Background(), "gemini-2.0-flash", "prompt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !out.Blocked || out.BlockReason != "RECITATION" {
		t.Errorf("Expected RECITATION block, got %+v", out)
	}
}

func TestGeminiGenerator_Generate_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"code": 404, "message": "models/gemini-1.0-pro is not found for API version v1beta", "status": "NOT_FOUND"}}`))
	}))
	defer server.Close()

	gen := newGeminiTestGenerator(t, server.URL)

	_, err := gen.Generate(context.Background(), "gemini-1.0-pro", "prompt")
	if !IsModelNotFound(err) {
		t.Fatalf("Expected model-not-found error, got %v", err)
	}
	if !strings.Contains(err.Error(), "is not found") {
		t.Errorf("Expected service message in error, got %v", err)
	}
}

func TestGeminiGenerator_Generate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"code": 503, "message": "The model is overloaded.", "status": "UNAVAILABLE"}}`))
	}))
	defer server.Close()

	gen := newGeminiTestGenerator(t, server.URL)

	_, err := gen.Generate(context.Background(), "gemini-2.0-flash", "prompt")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if IsModelNotFound(err) {
		t.Error("Overload must not be reported as model-not-found")
	}
}

func TestGeminiGenerator_Generate_TransportErrorHidesKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	gen := newGeminiTestGenerator(t, url)

	_, err := gen.Generate(context.Background(), "gemini-2.0-flash", "prompt")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Errorf("Error leaks the API key: %v", err)
	}
}

func TestGeminiGenerator_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"models": [
				{"name": "models/gemini-2.0-flash", "supportedGenerationMethods": ["generateContent", "countTokens"]},
				{"name": "models/text-embedding-004", "supportedGenerationMethods": ["embedContent"]}
			], "nextPageToken": "p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"models": [
			{"name": "models/gemini-1.5-pro", "supportedGenerationMethods": ["generateContent"]}
		]}`))
	}))
	defer server.Close()

	gen := newGeminiTestGenerator(t, server.URL)

	models, err := gen.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if strings.Join(models, ",") != "gemini-2.0-flash,gemini-1.5-pro" {
		t.Errorf("Unexpected models: %v", models)
	}
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		provider string
		key      string
		wantName string
		wantErr  bool
	}{
		{"gemini", "k", "gemini", false},
		{"openai", "k", "openai", false},
		{"claude", "k", "anthropic", false},
		{"ollama", "", "ollama", false},
		{"gemini", "", "", true},
		{"", "k", "", true},
		{"bard", "k", "", true},
	}

	for _, tt := range tests {
		gen, err := NewGenerator(Config{Provider: tt.provider, APIKey: tt.key})
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewGenerator(%q): expected error", tt.provider)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewGenerator(%q): %v", tt.provider, err)
			continue
		}
		if gen.Name() != tt.wantName {
			t.Errorf("NewGenerator(%q).Name() = %s, want %s", tt.provider, gen.Name(), tt.wantName)
		}
	}
}
