package sink

import (
	"context"
	"sync"
)

// Appender is the spreadsheet sink boundary: one fully-populated call-result
// row in, appended as-is. Append-only; no read-modify-write, no dedup.
// Writes are best-effort — callers on the webhook path log and swallow
// failures so the upstream delivery is never failed by a sink outage.
type Appender interface {
	Append(ctx context.Context, row []string) error
}

// MemoryAppender collects rows in memory for tests and local development.
type MemoryAppender struct {
	mu   sync.Mutex
	rows [][]string

	// Err, when set, is returned by every Append.
	Err error
}

func (m *MemoryAppender) Append(_ context.Context, row []string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]string, len(row))
	copy(copied, row)
	m.rows = append(m.rows, copied)
	return nil
}

func (m *MemoryAppender) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	copy(out, m.rows)
	return out
}
