package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func geminiOK(text string) any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     10,
			"candidatesTokenCount": 5,
			"totalTokenCount":      15,
		},
	}
}

func TestGeminiChat(t *testing.T) {
	var gotKey string
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(geminiOK("translated text"))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{
		APIKey:  "key-1",
		BaseURL: srv.URL,
	})

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "translate to arabic"},
			{Role: "user", Content: "chapter text"},
		},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if !result.Success || result.Content != "translated text" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.TotalTokens != 15 {
		t.Errorf("expected usage captured, got %d", result.TotalTokens)
	}
	if gotKey != "key-1" {
		t.Errorf("expected api key header, got %q", gotKey)
	}
	if gotBody.SystemInstruction == nil || len(gotBody.SystemInstruction.Parts) != 1 {
		t.Errorf("system message not mapped to system_instruction: %+v", gotBody)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Role != "user" {
		t.Errorf("user message not mapped: %+v", gotBody.Contents)
	}
}

func TestGeminiRateLimitSurfacesImmediately(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{
		APIKey:     "key-1",
		BaseURL:    srv.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})

	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRateLimit(err) {
		t.Errorf("expected rate-limit classification, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("429 should not be retried in-client, got %d calls", calls.Load())
	}
}

func TestGeminiRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(geminiOK("ok"))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{
		APIKey:     "key-1",
		BaseURL:    srv.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if result.Content != "ok" {
		t.Errorf("unexpected content %q", result.Content)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestGeminiStructuredOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiOK("```json\n{\"newTerms\":[]}\n```"))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "k", BaseURL: srv.URL})

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "extract"}},
		ResponseFormat: &ResponseFormat{Type: "json_schema"},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if string(result.ParsedJSON) != `{"newTerms":[]}` {
		t.Errorf("expected fence-stripped JSON, got %s", result.ParsedJSON)
	}
}
