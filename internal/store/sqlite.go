package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS visitors (
	id TEXT PRIMARY KEY,
	anon_id TEXT NOT NULL UNIQUE,
	created_at INTEGER NOT NULL,
	last_seen_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS generations (
	id TEXT PRIMARY KEY,
	visitor_id TEXT REFERENCES visitors(id),
	settings TEXT NOT NULL,
	anchors TEXT NOT NULL,
	model_id TEXT NOT NULL,
	latency_ms INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generations_visitor ON generations(visitor_id);
CREATE TABLE IF NOT EXISTS replies (
	id TEXT PRIMARY KEY,
	generation_id TEXT NOT NULL REFERENCES generations(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	category TEXT NOT NULL,
	text TEXT NOT NULL,
	tags TEXT NOT NULL,
	length_label TEXT NOT NULL,
	score REAL NOT NULL,
	anchor TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_replies_generation ON replies(generation_id, position);
CREATE TABLE IF NOT EXISTS feedback_events (
	id TEXT PRIMARY KEY,
	visitor_id TEXT NOT NULL REFERENCES visitors(id),
	generation_id TEXT REFERENCES generations(id),
	reply_id TEXT REFERENCES replies(id),
	type TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_generation ON feedback_events(generation_id);
`

// OpenSQLite opens the database file with WAL, a busy timeout and foreign
// keys enabled, creating its directory if needed.
func OpenSQLite(cfg SQLiteConfig) (*sql.DB, error) {
	if cfg.Path == "" {
		cfg.Path = "data/notcringe.db"
	}

	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// one writer at a time; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}

// SQLiteStore persists records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the tables and indexes if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) UpsertVisitor(ctx context.Context, anonID string) (*Visitor, error) {
	if anonID == "" {
		return nil, fmt.Errorf("anon id is required")
	}
	now := time.Now().UnixMilli()

	var v Visitor
	var createdAt, lastSeenAt int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO visitors (id, anon_id, created_at, last_seen_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(anon_id) DO UPDATE SET last_seen_at = excluded.last_seen_at
		RETURNING id, anon_id, created_at, last_seen_at
	`, uuid.NewString(), anonID, now, now).Scan(&v.ID, &v.AnonID, &createdAt, &lastSeenAt)
	if err != nil {
		return nil, fmt.Errorf("upsert visitor: %w", err)
	}
	v.CreatedAt = fromMillis(createdAt)
	v.LastSeenAt = fromMillis(lastSeenAt)
	return &v, nil
}

func (s *SQLiteStore) CreateGeneration(ctx context.Context, gen *Generation, replies []*Reply) error {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO generations (id, visitor_id, settings, anchors, model_id, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, gen.ID, nullable(gen.VisitorID), settings, anchors, gen.ModelID, gen.LatencyMs, gen.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}

	for _, r := range replies {
		tags, err := encodeJSON(r.Tags)
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO replies (id, generation_id, position, category, text, tags, length_label, score, anchor, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID, r.GenerationID, r.Position, r.Category, r.Text, tags, r.LengthLabel, r.Score, r.Anchor, r.CreatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert reply %d: %w", r.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit generation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetGeneration(ctx context.Context, id string) (*Generation, error) {
	var g Generation
	var visitorID sql.NullString
	var settings, anchors string
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, visitor_id, settings, anchors, model_id, latency_ms, created_at
		FROM generations WHERE id = ?
	`, id).Scan(&g.ID, &visitorID, &settings, &anchors, &g.ModelID, &g.LatencyMs, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query generation: %w", err)
	}
	g.VisitorID = visitorID.String
	g.CreatedAt = fromMillis(createdAt)
	if err := decodeGenerationJSON(&g, []byte(settings), []byte(anchors)); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *SQLiteStore) GetReply(ctx context.Context, id string) (*Reply, error) {
	var r Reply
	var tags string
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, generation_id, position, category, text, tags, length_label, score, anchor, created_at
		FROM replies WHERE id = ?
	`, id).Scan(&r.ID, &r.GenerationID, &r.Position, &r.Category, &r.Text, &tags, &r.LengthLabel, &r.Score, &r.Anchor, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query reply: %w", err)
	}
	r.CreatedAt = fromMillis(createdAt)
	if err := decodeTags(&r, []byte(tags)); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) CreateFeedback(ctx context.Context, ev *FeedbackEvent) error {
	if err := prepareFeedback(ev, time.Now().UTC()); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback_events (id, visitor_id, generation_id, reply_id, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.VisitorID, nullable(ev.GenerationID), nullable(ev.ReplyID), ev.Type, ev.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
