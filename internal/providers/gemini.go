package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	GeminiName         = "gemini"
	GeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	GeminiDefaultModel = "gemini-2.5-flash"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	MaxRetries   int           // Max retry attempts for transient failures (default: 3)
	RetryDelay   time.Duration // Base delay between retries (default: 1s)
	Limiter      *RateLimiter  // Optional request pacing
}

// GeminiClient implements LLMClient using the Gemini generateContent API.
// Each client is bound to a single API key so callers can hold one client
// per credential and swap between them.
type GeminiClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	maxRetries   int
	retryDelay   time.Duration
	limiter      *RateLimiter
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = GeminiBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = GeminiDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	return &GeminiClient{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		defaultModel: cfg.DefaultModel,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		limiter:    cfg.Limiter,
	}
}

// Name returns the client identifier.
func (c *GeminiClient) Name() string {
	return GeminiName
}

// Chat sends a chat completion request.
func (c *GeminiClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	gReq := c.buildRequest(req)

	result := &ChatResult{
		RequestID: requestID,
		Provider:  GeminiName,
		ModelUsed: model,
		Attempts:  1,
	}

	gResp, err := c.doRequest(ctx, model, gReq)
	if err != nil {
		result.Success = false
		result.ErrorType = "http_error"
		result.ErrorMessage = err.Error()
		result.TotalTime = time.Since(start)
		return result, err
	}

	if len(gResp.Candidates) == 0 {
		result.Success = false
		result.ErrorType = "empty_response"
		result.ErrorMessage = "no candidates in response"
		result.TotalTime = time.Since(start)
		return result, fmt.Errorf("no candidates in response")
	}

	var content strings.Builder
	for _, part := range gResp.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}

	result.Success = true
	result.Content = content.String()
	result.PromptTokens = gResp.UsageMetadata.PromptTokenCount
	result.CompletionTokens = gResp.UsageMetadata.CandidatesTokenCount
	result.TotalTokens = gResp.UsageMetadata.TotalTokenCount
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	if req.ResponseFormat != nil && result.Content != "" {
		parsed, perr := ParseJSON(result.Content)
		if perr != nil {
			result.Success = false
			result.ErrorType = "json_parse"
			result.ErrorMessage = perr.Error()
		} else {
			result.ParsedJSON = parsed
		}
	}

	return result, nil
}

// buildRequest maps a ChatRequest onto the generateContent wire format.
// System messages become the system instruction; the rest map to contents.
func (c *GeminiClient) buildRequest(req *ChatRequest) *geminiRequest {
	gReq := &geminiRequest{}

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			if gReq.SystemInstruction == nil {
				gReq.SystemInstruction = &geminiContent{}
			}
			gReq.SystemInstruction.Parts = append(gReq.SystemInstruction.Parts, geminiPart{Text: m.Content})
		case "assistant":
			gReq.Contents = append(gReq.Contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: m.Content}},
			})
		default:
			gReq.Contents = append(gReq.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: m.Content}},
			})
		}
	}

	if req.Temperature > 0 || req.MaxTokens > 0 || req.ResponseFormat != nil {
		gReq.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
		if req.ResponseFormat != nil {
			gReq.GenerationConfig.ResponseMimeType = "application/json"
		}
	}

	return gReq
}

// doRequest makes an HTTP request to Gemini with retry on transient errors.
// Rate-limit rejections (429) are returned immediately so the caller can
// rotate to another credential instead of burning retries on a dead key.
func (c *GeminiClient) doRequest(ctx context.Context, model string, gReq *geminiRequest) (*geminiResponse, error) {
	bodyBytes, err := json.Marshal(gReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.sleepWithJitter(ctx, attempt)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			c.sleepWithJitter(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, string(respBody))
			c.sleepWithJitter(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, string(respBody))
		}

		var gResp geminiResponse
		if err := json.Unmarshal(respBody, &gResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}

		return &gResp, nil
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// sleepWithJitter sleeps with exponential backoff and jitter, respecting
// context cancellation.
func (c *GeminiClient) sleepWithJitter(ctx context.Context, attempt int) {
	baseDelay := c.retryDelay * time.Duration(1<<attempt)
	if baseDelay > 10*time.Second {
		baseDelay = 10 * time.Second
	}

	jitter := time.Duration(float64(baseDelay) * (0.8 + 0.5*float64(time.Now().UnixNano()%1000)/1000))

	select {
	case <-ctx.Done():
	case <-time.After(jitter):
	}
}

// Gemini API types

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"system_instruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Role  string       `json:"role"`
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Verify interface
var _ LLMClient = (*GeminiClient)(nil)
