package handlers

import (
	"context"
	"net/http"

	"notcringe/internal/feedback"
)

type FeedbackRecorder interface {
	Submit(ctx context.Context, req feedback.Request) error
}

// FeedbackHandler serves /api/feedback.
type FeedbackHandler struct {
	rec FeedbackRecorder
}

func NewFeedbackHandler(rec FeedbackRecorder) *FeedbackHandler {
	return &FeedbackHandler{rec: rec}
}

// Submit handles POST /api/feedback.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req feedback.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "Invalid request payload.")
		return
	}

	if err := h.rec.Submit(r.Context(), req); err != nil {
		writeError(w, r, err, "Failed to save feedback.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
