// Package generator runs the generate and rewrite pipelines: anchors, cache,
// backend call, parse, enforce, redistribute and best-effort persistence.
package generator

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"notcringe/internal/apperr"
	"notcringe/internal/cache"
	"notcringe/internal/llm"
	"notcringe/internal/metrics"
	"notcringe/internal/prompt"
	"notcringe/internal/reply"
	"notcringe/internal/store"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	generateTemperature = 0.7
	rewriteTemperature  = 0.5
)

type Config struct {
	ModelID   string        // backend model (default: DefaultModel)
	VersionID string        // scopes cache keys to a deploy
	CacheTTL  time.Duration // default: cache.DefaultTTL
}

// Service is safe for concurrent use.
type Service struct {
	llm   llm.Client
	cache cache.ExactCache
	store store.Store
	cfg   Config

	group singleflight.Group
	now   func() time.Time
}

// New wires the pipeline. client may be nil when no API key is configured,
// in which case Generate and Rewrite fail with a configuration error. st may
// be nil to disable persistence. A nil cache disables caching.
func New(client llm.Client, c cache.ExactCache, st store.Store, cfg Config) *Service {
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModel
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	if c == nil {
		c = cache.NoopExactCache{}
	}
	return &Service{
		llm:   client,
		cache: c,
		store: st,
		cfg:   cfg,
		now:   time.Now,
	}
}

// ModelID returns the configured backend model.
func (s *Service) ModelID() string {
	return s.cfg.ModelID
}

func (s *Service) requireBackend() error {
	if s.llm == nil {
		return apperr.ConfigMissing("OPENAI_API_KEY is not configured.", 500)
	}
	return nil
}

// complete sends a single JSON-mode chat completion and returns the raw
// content plus the model that answered.
func (s *Service) complete(ctx context.Context, operation, userPrompt string, temperature float32) (string, string, error) {
	resp, err := s.llm.ChatCompletion(ctx, &llm.ChatRequest{
		Model: s.cfg.ModelID,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: prompt.SystemMessage},
			{Role: llm.RoleUser, Content: userPrompt},
		},
		Temperature:    temperature,
		ResponseFormat: &llm.ResponseFormat{Type: llm.ResponseFormatJSON},
	})
	if err != nil {
		metrics.BackendCallsTotal.WithLabelValues(operation, "error").Inc()
		return "", "", apperr.Backend(err)
	}

	model := resp.Model
	if model == "" {
		model = s.cfg.ModelID
	}
	return resp.Content(), model, nil
}

// parseFailed records and wraps a parser error.
func parseFailed(operation string, err error) error {
	metrics.BackendCallsTotal.WithLabelValues(operation, "parse_error").Inc()
	var pf *reply.ParseFailure
	if !errors.As(err, &pf) {
		pf = &reply.ParseFailure{Reason: "unexpected", Err: err}
	}
	return apperr.BackendParse(pf)
}
