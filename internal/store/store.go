// Package store persists visitors, generations, replies and feedback events.
// Persistence is optional: the generator treats write failures as non-fatal,
// while feedback requires a configured store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notcringe/internal/reply"
)

// ErrNotFound indicates a requested record was not found.
var ErrNotFound = errors.New("record not found")

// Feedback types as persisted.
const (
	FeedbackWorked    = "WORKED"
	FeedbackTooCringe = "TOO_CRINGE"
	FeedbackTooLong   = "TOO_LONG"
)

type Visitor struct {
	ID         string
	AnonID     string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

type Generation struct {
	ID        string
	VisitorID string // empty for anonymous generations
	Settings  reply.Settings
	Anchors   []string
	ModelID   string
	LatencyMs int64
	CreatedAt time.Time
}

type Reply struct {
	ID           string
	GenerationID string
	Position     int
	Category     string
	Text         string
	Tags         []string
	LengthLabel  string
	Score        float64
	Anchor       string
	CreatedAt    time.Time
}

type FeedbackEvent struct {
	ID           string
	VisitorID    string
	GenerationID string
	ReplyID      string
	Type         string
	CreatedAt    time.Time
}

// Store defines persistence operations. Implementations must be safe for
// concurrent use.
type Store interface {
	// UpsertVisitor returns the visitor for anonID, creating it on first
	// sight and bumping LastSeenAt otherwise.
	UpsertVisitor(ctx context.Context, anonID string) (*Visitor, error)
	// CreateGeneration inserts a generation and its replies atomically.
	// Missing ids and timestamps are filled in on the passed values.
	CreateGeneration(ctx context.Context, gen *Generation, replies []*Reply) error
	GetGeneration(ctx context.Context, id string) (*Generation, error)
	GetReply(ctx context.Context, id string) (*Reply, error)
	CreateFeedback(ctx context.Context, ev *FeedbackEvent) error
	Close() error
}

// prepareGeneration assigns ids and timestamps and links replies to gen.
func prepareGeneration(gen *Generation, replies []*Reply, now time.Time) error {
	if gen == nil {
		return fmt.Errorf("generation is nil")
	}
	if gen.ID == "" {
		gen.ID = uuid.NewString()
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = now
	}
	for i, r := range replies {
		if r == nil {
			return fmt.Errorf("reply %d is nil", i)
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = gen.CreatedAt
		}
		r.GenerationID = gen.ID
		r.Position = i
	}
	return nil
}

func prepareFeedback(ev *FeedbackEvent, now time.Time) error {
	if ev == nil {
		return fmt.Errorf("feedback event is nil")
	}
	if ev.VisitorID == "" {
		return fmt.Errorf("visitor id is required")
	}
	switch ev.Type {
	case FeedbackWorked, FeedbackTooCringe, FeedbackTooLong:
	default:
		return fmt.Errorf("unknown feedback type %q", ev.Type)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	return nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeGenerationJSON(gen *Generation, settings, anchors []byte) error {
	if err := json.Unmarshal(settings, &gen.Settings); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if err := json.Unmarshal(anchors, &gen.Anchors); err != nil {
		return fmt.Errorf("decode anchors: %w", err)
	}
	return nil
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func decodeTags(r *Reply, raw []byte) error {
	if err := json.Unmarshal(raw, &r.Tags); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	return nil
}
