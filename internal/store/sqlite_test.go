package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pbaille/tdconv/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordRunAssignsID(t *testing.T) {
	s := newTestStore(t)

	run, err := s.RecordRun(context.Background(), domain.Run{
		Source: "in.csv", Target: "in.md", Format: "md", Status: domain.RunStatusOK, Records: 3,
	})
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if run.ID == "" {
		t.Error("expected a generated id")
	}
	if run.CreatedAt.IsZero() {
		t.Error("expected a timestamp")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"a.csv", "b.csv", "c.csv"} {
		run := domain.Run{
			ID:        name,
			Source:    name,
			Target:    name + ".md",
			Format:    "md",
			Status:    domain.RunStatusOK,
			Records:   i,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if i == 1 {
			run.Status = domain.RunStatusFailed
			run.Error = "convert b.csv: boom"
		}
		if _, err := s.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "c.csv" || runs[1].ID != "b.csv" {
		t.Errorf("order = %s, %s", runs[0].ID, runs[1].ID)
	}
	if runs[1].Status != domain.RunStatusFailed || runs[1].Error != "convert b.csv: boom" || runs[1].Records != 1 {
		t.Errorf("failed run = %+v", runs[1])
	}
	if !runs[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("created_at = %v", runs[0].CreatedAt)
	}
}

func TestListRunsEmpty(t *testing.T) {
	runs, err := newTestStore(t).ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("runs = %+v", runs)
	}
}
