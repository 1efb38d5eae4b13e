package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	chatCompletionsPath = "/v1/chat/completions"
	maxRequestSize      = 256 * 1024 // prompts are bounded by post length
	maxErrorBody        = 64 * 1024
)

func (c *client) ChatCompletion(parentCtx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	if req == nil {
		return nil, fmt.Errorf("llmclient: request is nil")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("llmclient: invalid request: %w", err)
	}

	ctx, cancel := context.WithTimeout(parentCtx, c.cfg.UpstreamTimeout)
	defer cancel()

	bodyBytes, err := json.Marshal(providerChatRequest{
		Model:          req.Model,
		Messages:       req.Messages,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: req.ResponseFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("llmclient: marshal request: %w", err)
	}
	if len(bodyBytes) > maxRequestSize {
		return nil, fmt.Errorf("llmclient: request too large (%d bytes, max %d)", len(bodyBytes), maxRequestSize)
	}

	c.logger.Debug("llm request starting",
		zap.String("model", req.Model),
		zap.Int("body_bytes", len(bodyBytes)),
	)

	url := c.cfg.BaseURL + chatCompletionsPath

	// a fresh *http.Request per attempt, since the body reader is consumed
	doOnce := func(ctx context.Context, body []byte) (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("llmclient: build HTTP request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		httpReq.Header.Set("Content-Type", "application/json")
		return c.httpClient.Do(httpReq)
	}

	resp, err := c.doWithRetry(ctx, bodyBytes, doOnce)
	if err != nil {
		c.logger.Error("llm request failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		uerr := upstreamError(resp.StatusCode, body)
		c.logger.Error("llm upstream error",
			zap.Int("status", uerr.StatusCode),
			zap.String("error_type", uerr.Type),
			zap.String("error_message", uerr.Message),
		)
		return nil, uerr
	}

	var pResp providerChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&pResp); err != nil {
		return nil, fmt.Errorf("llmclient: decode upstream response: %w", err)
	}

	out := &ChatResponse{
		ID:      pResp.ID,
		Created: time.Unix(pResp.Created, 0),
		Model:   pResp.Model,
		Choices: make([]ChatChoice, 0, len(pResp.Choices)),
		Usage:   &Usage{},
	}
	for _, ch := range pResp.Choices {
		out.Choices = append(out.Choices, ChatChoice(ch))
	}
	if pResp.Usage != nil {
		*out.Usage = Usage(*pResp.Usage)
	}

	c.logger.Info("llm request completed",
		zap.String("model", out.Model),
		zap.Int("choices", len(out.Choices)),
		zap.Int("prompt_tokens", out.Usage.PromptTokens),
		zap.Int("completion_tokens", out.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)),
	)

	return out, nil
}

// upstreamError reads an OpenAI-style {"error":{"message","type"}} body,
// falling back to the raw text for anything else.
func upstreamError(status int, body []byte) *UpstreamError {
	e := &UpstreamError{StatusCode: status}
	if gjson.ValidBytes(body) {
		e.Message = gjson.GetBytes(body, "error.message").String()
		e.Type = gjson.GetBytes(body, "error.type").String()
	}
	if e.Message == "" {
		e.Message = truncate(string(body), 200)
	}
	return e
}

// truncate limits string length for logging
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
