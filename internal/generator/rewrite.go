package generator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"notcringe/internal/metrics"
	"notcringe/internal/prompt"
	"notcringe/internal/reply"
	"notcringe/pkg/logging"
)

type RewriteResult struct {
	Text        string `json:"text"`
	LengthLabel string `json:"lengthLabel"`
}

// Rewrite applies one edit action to a reply. The result always quotes one
// of req.Anchors. Rewrites are never cached.
func (s *Service) Rewrite(ctx context.Context, req reply.RewriteRequest) (*RewriteResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireBackend(); err != nil {
		return nil, err
	}

	content, _, err := s.complete(ctx, "rewrite", prompt.Rewrite(req), rewriteTemperature)
	if err != nil {
		return nil, err
	}

	text, err := reply.ParseRewrite(content)
	if err != nil {
		logging.L(ctx).Warn("backend_output_unparsable", zap.String("action", req.Action), zap.Error(err))
		return nil, parseFailed("rewrite", err)
	}
	metrics.BackendCallsTotal.WithLabelValues("rewrite", "ok").Inc()

	guarded := reply.Guard(text, req.Anchors)
	if guarded != strings.TrimSpace(text) {
		metrics.AnchorRepairsTotal.Inc()
	}

	return &RewriteResult{
		Text:        guarded,
		LengthLabel: reply.LengthLabelFor(guarded),
	}, nil
}
