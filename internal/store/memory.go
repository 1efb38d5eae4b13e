package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory.
// Data survives across requests but not process restarts.
type MemoryStore struct {
	mu          sync.RWMutex
	visitors    map[string]*Visitor // by anon id
	generations map[string]*Generation
	replies     map[string]*Reply
	feedback    []*FeedbackEvent
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		visitors:    make(map[string]*Visitor),
		generations: make(map[string]*Generation),
		replies:     make(map[string]*Reply),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) UpsertVisitor(_ context.Context, anonID string) (*Visitor, error) {
	if anonID == "" {
		return nil, fmt.Errorf("anon id is required")
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[anonID]
	if !ok {
		v = &Visitor{ID: uuid.NewString(), AnonID: anonID, CreatedAt: now}
		s.visitors[anonID] = v
	}
	v.LastSeenAt = now

	c := *v
	return &c, nil
}

func (s *MemoryStore) CreateGeneration(_ context.Context, gen *Generation, replies []*Reply) error {
	if err := prepareGeneration(gen, replies, s.now()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.generations[gen.ID]; exists {
		return fmt.Errorf("generation already exists: %s", gen.ID)
	}
	for _, r := range replies {
		if _, exists := s.replies[r.ID]; exists {
			return fmt.Errorf("reply already exists: %s", r.ID)
		}
	}

	s.generations[gen.ID] = cloneGeneration(gen)
	for _, r := range replies {
		s.replies[r.ID] = cloneReply(r)
	}
	return nil
}

func (s *MemoryStore) GetGeneration(_ context.Context, id string) (*Generation, error) {
	s.mu.RLock()
	g, ok := s.generations[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneGeneration(g), nil
}

func (s *MemoryStore) GetReply(_ context.Context, id string) (*Reply, error) {
	s.mu.RLock()
	r, ok := s.replies[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneReply(r), nil
}

func (s *MemoryStore) CreateFeedback(_ context.Context, ev *FeedbackEvent) error {
	if err := prepareFeedback(ev, s.now()); err != nil {
		return err
	}
	c := *ev

	s.mu.Lock()
	s.feedback = append(s.feedback, &c)
	s.mu.Unlock()
	return nil
}

// Feedback returns a snapshot of recorded feedback events in insertion order.
func (s *MemoryStore) Feedback() []FeedbackEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FeedbackEvent, 0, len(s.feedback))
	for _, ev := range s.feedback {
		out = append(out, *ev)
	}
	return out
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneGeneration(g *Generation) *Generation {
	c := *g
	c.Anchors = slices.Clone(g.Anchors)
	return &c
}

func cloneReply(r *Reply) *Reply {
	c := *r
	c.Tags = slices.Clone(r.Tags)
	return &c
}
