package handlers

import (
	"context"
	"net/http"

	"notcringe/internal/generator"
	"notcringe/internal/reply"
)

// Generator is the reply pipeline used by ReplyHandler.
type Generator interface {
	Generate(ctx context.Context, req reply.GenerateRequest) (*generator.Result, error)
	Rewrite(ctx context.Context, req reply.RewriteRequest) (*generator.RewriteResult, error)
}

// ReplyHandler serves /api/generate and /api/rewrite.
type ReplyHandler struct {
	gen Generator
}

func NewReplyHandler(gen Generator) *ReplyHandler {
	return &ReplyHandler{gen: gen}
}

// Generate handles POST /api/generate.
func (h *ReplyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req reply.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "Invalid request payload.")
		return
	}

	res, err := h.gen.Generate(r.Context(), req)
	if err != nil {
		writeError(w, r, err, "Failed to generate replies.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Rewrite handles POST /api/rewrite.
func (h *ReplyHandler) Rewrite(w http.ResponseWriter, r *http.Request) {
	var req reply.RewriteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "Invalid request payload.")
		return
	}

	res, err := h.gen.Rewrite(r.Context(), req)
	if err != nil {
		writeError(w, r, err, "Failed to rewrite reply.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
