package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notcringe/internal/reply"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := OpenSQLite(SQLiteConfig{Path: filepath.Join(t.TempDir(), "notcringe.db")})
	require.NoError(t, err)
	s, err := NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": newSQLiteStore,
	}
}

func sampleGeneration(visitorID string) (*Generation, []*Reply) {
	gen := &Generation{
		VisitorID: visitorID,
		Settings: reply.Settings{
			PostText: "Shipping fast removes hidden approval steps.",
			Vibe:     "direct",
			Risk:     "medium",
			Length:   "two-three",
			CTA:      "none",
			Persona:  "builder",
			NoCringe: true,
		},
		Anchors:   []string{"Shipping fast removes hidden approval steps"},
		ModelID:   "gpt-4o-mini",
		LatencyMs: 812,
	}
	replies := []*Reply{
		{Category: "SAFE", Text: "a", Tags: []string{"specific", "tone-fit"}, LengthLabel: "short", Score: 1, Anchor: "x"},
		{Category: "BOLD", Text: "b", Tags: []string{"hook"}, LengthLabel: "medium", Score: 0.96, Anchor: "x"},
	}
	return gen, replies
}

func TestStore_UpsertVisitor(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			first, err := s.UpsertVisitor(ctx, "anon-1")
			require.NoError(t, err)
			assert.NotEmpty(t, first.ID)
			assert.Equal(t, "anon-1", first.AnonID)

			time.Sleep(2 * time.Millisecond)
			second, err := s.UpsertVisitor(ctx, "anon-1")
			require.NoError(t, err)
			assert.Equal(t, first.ID, second.ID)
			assert.False(t, second.LastSeenAt.Before(first.LastSeenAt))

			other, err := s.UpsertVisitor(ctx, "anon-2")
			require.NoError(t, err)
			assert.NotEqual(t, first.ID, other.ID)

			_, err = s.UpsertVisitor(ctx, "")
			assert.Error(t, err)
		})
	}
}

func TestStore_GenerationRoundTrip(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			v, err := s.UpsertVisitor(ctx, "anon-1")
			require.NoError(t, err)

			gen, replies := sampleGeneration(v.ID)
			require.NoError(t, s.CreateGeneration(ctx, gen, replies))
			require.NotEmpty(t, gen.ID)

			got, err := s.GetGeneration(ctx, gen.ID)
			require.NoError(t, err)
			assert.Equal(t, v.ID, got.VisitorID)
			assert.Equal(t, gen.Settings, got.Settings)
			assert.Equal(t, gen.Anchors, got.Anchors)
			assert.Equal(t, int64(812), got.LatencyMs)
			assert.Equal(t, "gpt-4o-mini", got.ModelID)

			for i, r := range replies {
				assert.Equal(t, gen.ID, r.GenerationID)
				assert.Equal(t, i, r.Position)

				gotReply, err := s.GetReply(ctx, r.ID)
				require.NoError(t, err)
				assert.Equal(t, r.Text, gotReply.Text)
				assert.Equal(t, r.Tags, gotReply.Tags)
				assert.Equal(t, r.Category, gotReply.Category)
				assert.InDelta(t, r.Score, gotReply.Score, 1e-9)
				assert.Equal(t, i, gotReply.Position)
			}
		})
	}
}

func TestStore_AnonymousGeneration(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			gen, replies := sampleGeneration("")
			require.NoError(t, s.CreateGeneration(ctx, gen, replies))

			got, err := s.GetGeneration(ctx, gen.ID)
			require.NoError(t, err)
			assert.Empty(t, got.VisitorID)
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			_, err := s.GetGeneration(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.GetReply(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_Feedback(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			v, err := s.UpsertVisitor(ctx, "anon-1")
			require.NoError(t, err)
			gen, replies := sampleGeneration(v.ID)
			require.NoError(t, s.CreateGeneration(ctx, gen, replies))

			ev := &FeedbackEvent{VisitorID: v.ID, GenerationID: gen.ID, ReplyID: replies[0].ID, Type: FeedbackWorked}
			require.NoError(t, s.CreateFeedback(ctx, ev))
			assert.NotEmpty(t, ev.ID)

			genOnly := &FeedbackEvent{VisitorID: v.ID, GenerationID: gen.ID, Type: FeedbackTooLong}
			require.NoError(t, s.CreateFeedback(ctx, genOnly))

			bad := &FeedbackEvent{VisitorID: v.ID, GenerationID: gen.ID, Type: "MEH"}
			assert.Error(t, s.CreateFeedback(ctx, bad))
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	gen, replies := sampleGeneration("")
	require.NoError(t, s.CreateGeneration(ctx, gen, replies))

	got, err := s.GetReply(ctx, replies[0].ID)
	require.NoError(t, err)
	got.Tags[0] = "mutated"

	again, err := s.GetReply(ctx, replies[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "specific", again.Tags[0])
}

func TestNew_Types(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Config{Type: TypeNone})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = New(ctx, Config{Type: TypeMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(ctx, Config{Type: TypeSQLite, SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "x", "n.db")}})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(ctx, Config{Type: "mongodb"})
	assert.Error(t, err)

	_, err = New(ctx, Config{Type: TypePostgreSQL})
	assert.Error(t, err)
}
