// Package feedback records visitor reactions to served replies.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"notcringe/internal/apperr"
	"notcringe/internal/store"
	"notcringe/pkg/logging"
)

// API feedback kinds and their persisted form.
var types = map[string]string{
	"worked":     store.FeedbackWorked,
	"too_cringe": store.FeedbackTooCringe,
	"too_long":   store.FeedbackTooLong,
}

type Request struct {
	AnonID       string `json:"anonId"`
	GenerationID string `json:"generationId,omitempty"`
	ReplyID      string `json:"replyId,omitempty"`
	Type         string `json:"type"`
}

func (r Request) validate() error {
	invalid := func(reason string) error {
		return apperr.Validation("Invalid request payload.", errors.New(reason))
	}
	if strings.TrimSpace(r.AnonID) == "" {
		return invalid("anonId is required")
	}
	if _, ok := types[r.Type]; !ok {
		return invalid(fmt.Sprintf("unknown feedback type %q", r.Type))
	}
	if r.GenerationID == "" && r.ReplyID == "" {
		return invalid("generationId or replyId is required")
	}
	return nil
}

type Service struct {
	store store.Store
}

// New returns a Service. st may be nil, in which case every valid
// submission fails with a 503 configuration error.
func New(st store.Store) *Service {
	return &Service{store: st}
}

// Submit links the event to the visitor and checks that the referenced
// reply and generation exist, agree with each other and are visible to the
// visitor. A generation owned by another visitor is reported as not found.
func (s *Service) Submit(ctx context.Context, req Request) error {
	if err := req.validate(); err != nil {
		return err
	}
	if s.store == nil {
		return apperr.ConfigMissing("Database not configured.", http.StatusServiceUnavailable)
	}

	visitor, err := s.store.UpsertVisitor(ctx, strings.TrimSpace(req.AnonID))
	if err != nil {
		return apperr.Unknown("Failed to save feedback.", err)
	}

	generationID := req.GenerationID
	if req.ReplyID != "" {
		r, err := s.store.GetReply(ctx, req.ReplyID)
		if err != nil {
			return lookupError("Reply not found.", err)
		}
		if generationID != "" && r.GenerationID != generationID {
			return apperr.Validation("Reply does not belong to generation.",
				fmt.Errorf("reply %s belongs to generation %s, not %s", r.ID, r.GenerationID, generationID))
		}
		generationID = r.GenerationID
	}

	gen, err := s.store.GetGeneration(ctx, generationID)
	if err != nil {
		return lookupError("Generation not found.", err)
	}
	if gen.VisitorID != "" && gen.VisitorID != visitor.ID {
		return apperr.NotFound("Generation not found.")
	}

	ev := &store.FeedbackEvent{
		VisitorID:    visitor.ID,
		GenerationID: generationID,
		ReplyID:      req.ReplyID,
		Type:         types[req.Type],
	}
	if err := s.store.CreateFeedback(ctx, ev); err != nil {
		return apperr.Unknown("Failed to save feedback.", err)
	}

	logging.L(ctx).Info("feedback_recorded",
		zap.String("feedback_id", ev.ID),
		zap.String("generation_id", ev.GenerationID),
		zap.String("reply_id", ev.ReplyID),
		zap.String("type", ev.Type),
	)
	return nil
}

func lookupError(notFound string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Unknown("Failed to save feedback.", err)
}
