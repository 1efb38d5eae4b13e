package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS visitors (
		id TEXT PRIMARY KEY,
		anon_id TEXT NOT NULL UNIQUE,
		created_at BIGINT NOT NULL,
		last_seen_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS generations (
		id TEXT PRIMARY KEY,
		visitor_id TEXT REFERENCES visitors(id),
		settings JSONB NOT NULL,
		anchors JSONB NOT NULL,
		model_id TEXT NOT NULL,
		latency_ms BIGINT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_generations_visitor ON generations(visitor_id)`,
	`CREATE TABLE IF NOT EXISTS replies (
		id TEXT PRIMARY KEY,
		generation_id TEXT NOT NULL REFERENCES generations(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		category TEXT NOT NULL,
		text TEXT NOT NULL,
		tags JSONB NOT NULL,
		length_label TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		anchor TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_replies_generation ON replies(generation_id, position)`,
	`CREATE TABLE IF NOT EXISTS feedback_events (
		id TEXT PRIMARY KEY,
		visitor_id TEXT NOT NULL REFERENCES visitors(id),
		generation_id TEXT REFERENCES generations(id),
		reply_id TEXT REFERENCES replies(id),
		type TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_generation ON feedback_events(generation_id)`,
}

// OpenPostgreSQL creates a connection pool and verifies it with a ping.
func OpenPostgreSQL(ctx context.Context, cfg PostgreSQLConfig) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("PostgreSQL URL is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL URL: %w", err)
	}
	poolCfg.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	return pool, nil
}

// PostgreSQLStore persists records in PostgreSQL.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates the tables and indexes if needed.
func NewPostgreSQLStore(ctx context.Context, pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &PostgreSQLStore{pool: pool}, nil
}

func (s *PostgreSQLStore) UpsertVisitor(ctx context.Context, anonID string) (*Visitor, error) {
	if anonID == "" {
		return nil, fmt.Errorf("anon id is required")
	}
	now := time.Now().UnixMilli()

	var v Visitor
	var createdAt, lastSeenAt int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO visitors (id, anon_id, created_at, last_seen_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (anon_id) DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at
		RETURNING id, anon_id, created_at, last_seen_at
	`, uuid.NewString(), anonID, now).Scan(&v.ID, &v.AnonID, &createdAt, &lastSeenAt)
	if err != nil {
		return nil, fmt.Errorf("upsert visitor: %w", err)
	}
	v.CreatedAt = fromMillis(createdAt)
	v.LastSeenAt = fromMillis(lastSeenAt)
	return &v, nil
}

func (s *PostgreSQLStore) CreateGeneration(ctx context.Context, gen *Generation, replies []*Reply) error {
	if err := prepareGeneration(gen, replies, time.Now().UTC()); err != nil {
		return err
	}
	settings, err := encodeJSON(gen.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	anchors, err := encodeJSON(gen.Anchors)
	if err != nil {
		return fmt.Errorf("encode anchors: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO generations (id, visitor_id, settings, anchors, model_id, latency_ms, created_at)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5, $6, $7)
	`, gen.ID, nullable(gen.VisitorID), settings, anchors, gen.ModelID, gen.LatencyMs, gen.CreatedAt.UnixMilli())
	for _, r := range replies {
		tags, err := encodeJSON(r.Tags)
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		batch.Queue(`
			INSERT INTO replies (id, generation_id, position, category, text, tags, length_label, score, anchor, created_at)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10)
		`, r.ID, r.GenerationID, r.Position, r.Category, r.Text, tags, r.LengthLabel, r.Score, r.Anchor, r.CreatedAt.UnixMilli())
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

func (s *PostgreSQLStore) GetGeneration(ctx context.Context, id string) (*Generation, error) {
	var g Generation
	var visitorID *string
	var settings, anchors []byte
	var createdAt int64
	err := s.pool.QueryRow(ctx, `
		SELECT id, visitor_id, settings, anchors, model_id, latency_ms, created_at
		FROM generations WHERE id = $1
	`, id).Scan(&g.ID, &visitorID, &settings, &anchors, &g.ModelID, &g.LatencyMs, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query generation: %w", err)
	}
	if visitorID != nil {
		g.VisitorID = *visitorID
	}
	g.CreatedAt = fromMillis(createdAt)
	if err := decodeGenerationJSON(&g, settings, anchors); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *PostgreSQLStore) GetReply(ctx context.Context, id string) (*Reply, error) {
	var r Reply
	var tags []byte
	var createdAt int64
	err := s.pool.QueryRow(ctx, `
		SELECT id, generation_id, position, category, text, tags, length_label, score, anchor, created_at
		FROM replies WHERE id = $1
	`, id).Scan(&r.ID, &r.GenerationID, &r.Position, &r.Category, &r.Text, &tags, &r.LengthLabel, &r.Score, &r.Anchor, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query reply: %w", err)
	}
	r.CreatedAt = fromMillis(createdAt)
	if err := decodeTags(&r, tags); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgreSQLStore) CreateFeedback(ctx context.Context, ev *FeedbackEvent) error {
	if err := prepareFeedback(ev, time.Now().UTC()); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback_events (id, visitor_id, generation_id, reply_id, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ev.ID, ev.VisitorID, nullable(ev.GenerationID), nullable(ev.ReplyID), ev.Type, ev.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *PostgreSQLStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
