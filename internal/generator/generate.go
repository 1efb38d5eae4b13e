package generator

import (
	"context"
	"encoding/json"
	"slices"

	"go.uber.org/zap"

	"notcringe/internal/anchor"
	"notcringe/internal/cache"
	"notcringe/internal/metrics"
	"notcringe/internal/prompt"
	"notcringe/internal/reply"
	"notcringe/internal/store"
	"notcringe/pkg/logging"
)

// Result is one served ladder.
type Result struct {
	Replies      []reply.Reply `json:"replies"`
	Anchors      []string      `json:"anchors"`
	GenerationID string        `json:"generationId,omitempty"`
	ModelID      string        `json:"modelId"`
	Cached       bool          `json:"cached"`
	LatencyMs    int64         `json:"latencyMs"`
}

// entry is the cached value for one settings hash.
type entry struct {
	Anchors []string      `json:"anchors"`
	Replies []reply.Reply `json:"replies"`
	ModelID string        `json:"modelId"`
}

func (e *entry) clone() *entry {
	return &entry{
		Anchors: slices.Clone(e.Anchors),
		Replies: cloneReplies(e.Replies),
		ModelID: e.ModelID,
	}
}

// Generate validates req and returns a ladder, from cache when an identical
// request was served within the TTL.
func (s *Service) Generate(ctx context.Context, req reply.GenerateRequest) (*Result, error) {
	start := s.now()

	settings, err := req.Settings()
	if err != nil {
		return nil, err
	}
	if err := s.requireBackend(); err != nil {
		return nil, err
	}

	anchors := anchor.Extract(settings.PostText)
	key, err := cache.BuildExactCacheKey(settings, s.cfg.ModelID, s.cfg.VersionID)
	if err != nil {
		return nil, err
	}
	logger := logging.L(ctx).With(zap.String("hash", key.Hash))

	lookupStart := s.now()
	cached, hit := s.lookup(ctx, key.String())
	lookupMs := s.now().Sub(lookupStart).Milliseconds()

	var backendMs int64
	var shared bool
	if !hit {
		backendStart := s.now()
		cached, shared, err = s.generateOnce(ctx, key.String(), settings, anchors)
		backendMs = s.now().Sub(backendStart).Milliseconds()
		if err != nil {
			logger.Warn("generation_failed", zap.Error(err), zap.Int64("backend_ms", backendMs))
			return nil, err
		}
	}

	res := &Result{
		Replies: cached.Replies,
		Anchors: cached.Anchors,
		ModelID: cached.ModelID,
		Cached:  hit,
	}
	res.LatencyMs = s.now().Sub(start).Milliseconds()

	if s.store != nil {
		s.persist(ctx, req.AnonID, settings, res)
	}

	logger.Info("cache_decision",
		zap.Bool("hit", hit),
		zap.Bool("shared", shared),
		zap.Int64("lookup_ms", lookupMs),
		zap.Int64("backend_ms", backendMs),
		zap.Int64("total_ms", s.now().Sub(start).Milliseconds()),
		zap.Int("replies", len(res.Replies)),
	)

	return res, nil
}

// lookup returns a private copy of the cached entry. Cache errors and
// undecodable entries count as misses.
func (s *Service) lookup(ctx context.Context, key string) (*entry, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || len(e.Replies) == 0 {
		logging.L(ctx).Warn("reply_cache_corrupt", zap.String("hash_key", key), zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	return &e, true
}

// generateOnce collapses concurrent misses for the same key into one backend
// call. The call is detached from the caller's cancellation so an abandoned
// request still fills the cache; it stays bounded by the client's upstream
// timeout.
func (s *Service) generateOnce(ctx context.Context, key string, settings reply.Settings, anchors []string) (*entry, bool, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.generate(detached, key, settings, anchors)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Shared, r.Err
		}
		return r.Val.(*entry).clone(), r.Shared, nil
	}
}

func (s *Service) generate(ctx context.Context, key string, settings reply.Settings, anchors []string) (*entry, error) {
	content, model, err := s.complete(ctx, "generate", prompt.Generate(settings, anchors), generateTemperature)
	if err != nil {
		return nil, err
	}

	raw, err := reply.ParseReplies(content)
	if err != nil {
		logging.L(ctx).Warn("backend_output_unparsable",
			zap.Error(err),
			zap.Int("content_bytes", len(content)),
		)
		return nil, parseFailed("generate", err)
	}
	metrics.BackendCallsTotal.WithLabelValues("generate", "ok").Inc()

	grounded, repaired := reply.Enforce(raw, anchors)
	if repaired > 0 {
		metrics.AnchorRepairsTotal.Add(float64(repaired))
	}

	e := &entry{
		Anchors: anchors,
		Replies: reply.Redistribute(grounded, settings.FallbackCategory()),
		ModelID: model,
	}

	if body, err := json.Marshal(e); err == nil {
		// Set failures are logged by the cache wrapper; the ladder is still served.
		_ = s.cache.Set(ctx, key, body, s.cfg.CacheTTL)
	}
	return e, nil
}

// persist records the served ladder and stamps ids onto res. Failures are
// logged and counted, never returned.
func (s *Service) persist(ctx context.Context, anonID string, settings reply.Settings, res *Result) {
	logger := logging.L(ctx)

	var visitorID string
	if anonID != "" {
		v, err := s.store.UpsertVisitor(ctx, anonID)
		if err != nil {
			metrics.PersistenceFailuresTotal.WithLabelValues("visitor").Inc()
			logger.Warn("visitor_upsert_failed", zap.Error(err))
		} else {
			visitorID = v.ID
		}
	}

	gen := &store.Generation{
		VisitorID: visitorID,
		Settings:  settings,
		Anchors:   res.Anchors,
		ModelID:   res.ModelID,
		LatencyMs: res.LatencyMs,
	}
	rows := make([]*store.Reply, len(res.Replies))
	for i, r := range res.Replies {
		rows[i] = &store.Reply{
			Category:    string(r.Category),
			Text:        r.Text,
			Tags:        r.Tags,
			LengthLabel: r.LengthLabel,
			Score:       r.Score,
			Anchor:      r.Anchor,
		}
	}

	if err := s.store.CreateGeneration(ctx, gen, rows); err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("generation").Inc()
		logger.Warn("generation_persist_failed", zap.Error(err))
		return
	}

	res.GenerationID = gen.ID
	for i := range res.Replies {
		res.Replies[i].ID = rows[i].ID
	}
}

func cloneReplies(in []reply.Reply) []reply.Reply {
	out := make([]reply.Reply, len(in))
	for i, r := range in {
		r.Tags = slices.Clone(r.Tags)
		out[i] = r
	}
	return out
}
