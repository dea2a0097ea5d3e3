package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agusespa/devassist/internal/types"
)

func TestNewOllamaProvider(t *testing.T) {
	baseURL := "http://localhost:11434"
	model := "test-model"

	provider := NewOllamaProvider(baseURL, model, DefaultMaxTokens)

	if provider.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, provider.baseURL)
	}
	if provider.GetModel() != model {
		t.Errorf("Expected model %s, got %s", model, provider.GetModel())
	}
	if provider.client == nil {
		t.Error("Expected HTTP client to be initialized")
	}
}

func TestOllamaProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("Expected model test-model, got %s", req.Model)
		}
		if req.Prompt != "test prompt" {
			t.Errorf("Expected prompt 'test prompt', got %s", req.Prompt)
		}
		if req.Stream {
			t.Error("Expected stream false")
		}
		if req.Options.NumPredict != 500 {
			t.Errorf("Expected num_predict 500, got %d", req.Options.NumPredict)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "test response", Done: true})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model", DefaultMaxTokens)
	result, err := provider.Complete(context.Background(), "test prompt")

	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if result != "test response" {
		t.Errorf("Expected response 'test response', got %s", result)
	}
}

func TestOllamaProvider_Complete_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model", DefaultMaxTokens)
	_, err := provider.Complete(context.Background(), "test prompt")

	var ce *types.CompletionError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected CompletionError, got %v", err)
	}
	if !strings.Contains(err.Error(), "ollama request failed with status: 500") {
		t.Errorf("Expected status error, got: %v", err)
	}
}

func TestOllamaProvider_Complete_Incomplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "", Done: true})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model", DefaultMaxTokens)
	_, err := provider.Complete(context.Background(), "test prompt")

	if err == nil || !strings.Contains(err.Error(), "empty or incomplete response") {
		t.Errorf("Expected empty response error, got: %v", err)
	}
}

func TestOllamaProvider_Complete_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model", DefaultMaxTokens)
	_, err := provider.Complete(context.Background(), "test prompt")

	if err == nil || !strings.Contains(err.Error(), "failed to unmarshal response") {
		t.Errorf("Expected unmarshal error, got: %v", err)
	}
}

func TestOllamaProvider_Complete_NetworkError(t *testing.T) {
	provider := NewOllamaProvider("http://invalid-url-that-does-not-exist:12345", "test-model", DefaultMaxTokens)
	provider.client.Timeout = 100 * time.Millisecond

	_, err := provider.Complete(context.Background(), "test prompt")

	if err == nil || !strings.Contains(err.Error(), "failed to make request") {
		t.Errorf("Expected network error, got: %v", err)
	}
}
