package registry

import (
	"context"
	"sync"
	"time"
)

// Call lifecycle statuses. A call is written as active by the call-started
// notification and flipped to completed by call-ended for the same ID; there
// are no concurrent writers for a single key in practice.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// ActiveCall tracks one in-flight call's lifecycle.
type ActiveCall struct {
	CustomerName string    `json:"customer_name"`
	Status       string    `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at,omitempty"`
}

// Store abstracts the active-call registry keyed by call ID, so the
// process-wide map can be swapped for Redis (or a fake) without touching
// the callers.
type Store interface {
	Get(ctx context.Context, callID string) (ActiveCall, bool, error)
	Set(ctx context.Context, callID string, call ActiveCall) error
	Delete(ctx context.Context, callID string) error
}

// MemoryStore is the in-process registry used when Redis is not configured.
type MemoryStore struct {
	mu    sync.Mutex
	calls map[string]ActiveCall
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{calls: map[string]ActiveCall{}}
}

func (s *MemoryStore) Get(_ context.Context, callID string) (ActiveCall, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.calls[callID]
	return call, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, callID string, call ActiveCall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[callID] = call
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.calls, callID)
	return nil
}
