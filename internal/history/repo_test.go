package history

import (
	"context"
	"testing"
	"time"

	"callrelay/internal/callreport"
)

func TestMemoryRepo_ListRecentNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	for i, name := range []string{"Ada", "Grace", "Edsger"} {
		err := repo.Record(ctx, Record{
			ID:         name,
			ReceivedAt: now.Add(time.Duration(i) * time.Minute),
			Result:     callreport.CallResult{CustomerName: name, CallbackAttempt: 1},
		})
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	got, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Result.CustomerName != "Edsger" || got[1].Result.CustomerName != "Grace" {
		t.Fatalf("expected newest first, got %q %q", got[0].Result.CustomerName, got[1].Result.CustomerName)
	}
}

func TestMemoryRepo_RejectsEmptyID(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Record(context.Background(), Record{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestMemoryRepo_DefaultLimit(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Record(context.Background(), Record{ID: "r1"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, err := repo.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
}
