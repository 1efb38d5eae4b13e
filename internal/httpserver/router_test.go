package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap/zaptest"

	"notcringe/internal/feedback"
	"notcringe/internal/generator"
	"notcringe/internal/handlers"
	"notcringe/internal/llm"
)

type stubLLM struct{}

func (stubLLM) ChatCompletion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{
		Model:   req.Model,
		Choices: []llm.ChatChoice{{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: `{"text":"ok","replies":[{"text":"ok"}]}`}}},
	}, nil
}

func newTestRouter(t *testing.T, opts Options) *chi.Mux {
	t.Helper()
	r := chi.NewRouter()
	SetupRouter(r, zaptest.NewLogger(t),
		handlers.NewReplyHandler(generator.New(stubLLM{}, nil, nil, generator.Config{})),
		handlers.NewFeedbackHandler(feedback.New(nil)),
		opts,
	)
	return r
}

func TestRouterRoutes(t *testing.T) {
	r := newTestRouter(t, Options{})

	cases := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodPost, "/api/generate", `{"postText":"Some post text here"}`, http.StatusOK},
		{http.MethodPost, "/api/rewrite", `{"text":"t","action":"safer","anchors":["post text"]}`, http.StatusOK},
		{http.MethodPost, "/api/feedback", `{"anonId":"a","generationId":"g","type":"worked"}`, http.StatusServiceUnavailable},
		{http.MethodGet, "/api/generate", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/v1/chat/completions", "{}", http.StatusNotFound},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d: %s", tc.method, tc.path, tc.status, rr.Code, rr.Body.String())
		}
		if tc.method == http.MethodPost && tc.status != http.StatusNotFound && rr.Header().Get("Content-Type") != "application/json" {
			t.Fatalf("%s %s: expected JSON content type, got %q", tc.method, tc.path, rr.Header().Get("Content-Type"))
		}
	}
}

func TestRouterRejectsOversizedBody(t *testing.T) {
	r := newTestRouter(t, Options{MaxBodyBytes: 64})

	body := `{"postText":"` + strings.Repeat("x", 200) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rr.Code, rr.Body.String())
	}
}
