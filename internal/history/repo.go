package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"callrelay/internal/callreport"
)

var ErrInvalidRecord = errors.New("history: invalid record")

// Record is one emitted call result kept for the operator dashboard.
// The spreadsheet sink stays the durable log of record; this is a local
// queryable copy, written best-effort alongside it.
type Record struct {
	ID         string                `json:"id"`
	ReceivedAt time.Time             `json:"received_at"`
	Result     callreport.CallResult `json:"result"`
}

// Repository abstracts call-result storage.
type Repository interface {
	Record(ctx context.Context, rec Record) error
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}

// MemoryRepo keeps records in memory for tests and Redis/DB-less deployments.
type MemoryRepo struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Record(_ context.Context, rec Record) error {
	if rec.ID == "" {
		return ErrInvalidRecord
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepo) ListRecent(_ context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}
