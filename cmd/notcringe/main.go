package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notcringe/internal/cache"
	"notcringe/internal/feedback"
	"notcringe/internal/generator"
	"notcringe/internal/handlers"
	"notcringe/internal/httpserver"
	"notcringe/internal/llm"
	"notcringe/internal/metrics"
	"notcringe/internal/store"
	"notcringe/pkg/logging"
)

type Config struct {
	Port           string
	VersionID      string
	CacheBackend   string // "memory", "redis" or "none"
	CacheTTL       time.Duration
	RedisAddr      string
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	StoreBackend   string // "none", "memory", "sqlite" or "postgresql"
	SQLitePath     string
	DatabaseURL    string
	RequestTimeout time.Duration
}

func LoadConfig() Config {
	return Config{
		Port:           getenv("PORT", "8080"),
		VersionID:      getenv("APP_VERSION", "v1"),
		CacheBackend:   getenv("CACHE_BACKEND", cache.BackendMemory),
		CacheTTL:       getduration("CACHE_TTL", cache.DefaultTTL),
		RedisAddr:      getenv("REDIS_ADDR", "127.0.0.1:6379"),
		LLMBaseURL:     getenv("OPENAI_BASE_URL", llm.DefaultBaseURL),
		LLMAPIKey:      os.Getenv("OPENAI_API_KEY"),
		LLMModel:       getenv("OPENAI_MODEL", generator.DefaultModel),
		StoreBackend:   getenv("STORE_BACKEND", store.TypeNone),
		SQLitePath:     getenv("SQLITE_PATH", "data/notcringe.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RequestTimeout: getduration("REQUEST_TIMEOUT", httpserver.DefaultRequestTimeout),
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("notcringe exited with error: %v", err)
	}
}

func run() error {
	// ----- .env (optional, before the logger reads ENV/LOG_LEVEL) -----
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg := LoadConfig()

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("version_id", cfg.VersionID),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("llm_base_url", cfg.LLMBaseURL),
		zap.String("llm_model", cfg.LLMModel),
	)

	ctx := context.Background()

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.CacheBackend == cache.BackendRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer redisClient.Close()

		// Fail fast if Redis is misconfigured
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Result cache -----
	exactCache := cache.NewExactCache(cache.Config{
		Backend: cfg.CacheBackend,
		Prefix:  "notcringe",
	}, redisClient)

	// ----- LLM client (optional: requests fail with config_missing without it) -----
	var llmClient llm.Client
	if cfg.LLMAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; generate and rewrite will fail")
	} else {
		c, err := llm.NewClient(llm.Config{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.LLMAPIKey,
		}, logger)
		if err != nil {
			return err
		}
		if closer, ok := c.(interface{ Close() error }); ok {
			defer closer.Close()
		}
		llmClient = c
	}

	// ----- Persistence (optional) -----
	st, err := store.New(ctx, store.Config{
		Type:       cfg.StoreBackend,
		SQLite:     store.SQLiteConfig{Path: cfg.SQLitePath},
		PostgreSQL: store.PostgreSQLConfig{URL: cfg.DatabaseURL},
	})
	if err != nil {
		logger.Error("store initialization failed", zap.Error(err))
		return err
	}
	if st != nil {
		defer func() {
			if err := st.Close(); err != nil {
				logger.Error("store close error", zap.Error(err))
			}
		}()
	}

	// ----- Services + handlers -----
	gen := generator.New(llmClient, exactCache, st, generator.Config{
		ModelID:   cfg.LLMModel,
		VersionID: cfg.VersionID,
		CacheTTL:  cfg.CacheTTL,
	})
	replyHandler := handlers.NewReplyHandler(gen)
	feedbackHandler := handlers.NewFeedbackHandler(feedback.New(st))

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, replyHandler, feedbackHandler, httpserver.Options{
		RequestTimeout: cfg.RequestTimeout,
	})

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting notcringe",
		zap.String("addr", srv.Addr),
		zap.String("model_id", gen.ModelID()),
	)

	// Start server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}

// getenv returns the value of the environment variable key or def if not set.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getduration parses key as a time.Duration ("90s", "10m"), falling back to def.
func getduration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
