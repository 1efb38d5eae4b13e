package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"notcringe/internal/handlers"
	"notcringe/internal/metrics"
	"notcringe/internal/middleware"
)

const (
	DefaultRequestTimeout = 90 * time.Second
	DefaultMaxBodyBytes   = 64 * 1024 // a 5000-char post is well under this
)

type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

func SetupRouter(
	r *chi.Mux,
	baseLogger *zap.Logger,
	replyHandler *handlers.ReplyHandler,
	feedbackHandler *handlers.FeedbackHandler,
	opts Options,
) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.MaxBodySize(opts.MaxBodyBytes))

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", replyHandler.Generate)
		r.Post("/rewrite", replyHandler.Rewrite)
		r.Post("/feedback", feedbackHandler.Submit)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
}
