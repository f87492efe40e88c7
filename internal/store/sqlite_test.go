package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := OpenSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_CreateIfAbsent(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	state := domain.NewJobState(domain.JobRequest{JobID: "job-1", ContentType: "application/pdf"})

	if err := s.CreateIfAbsent(ctx, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := s.CreateIfAbsent(ctx, state)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	state := domain.NewJobState(domain.JobRequest{
		JobID:          "job-1",
		FilePath:       "storage/raw/job-1.pdf",
		ContentType:    "application/pdf",
		ChecksumSHA256: "cafef00d",
	})
	state.MarkRouted(domain.BranchPDF)
	state.AddResult("extract_text", map[string]any{"pages": float64(3)})

	if err := s.Set(ctx, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.JobID != state.JobID || got.Status != state.Status || got.Step != state.Step {
		t.Errorf("identity fields mismatch: got %+v", got)
	}
	if got.Branch != domain.BranchPDF {
		t.Errorf("expected pdf_branch, got %s", got.Branch)
	}
	result, ok := got.Result["extract_text"].(map[string]any)
	if !ok || result["pages"] != float64(3) {
		t.Errorf("result payload mismatch: %+v", got.Result)
	}
}

func TestSQLiteStore_Get_NotFound(t *testing.T) {
	s := openTestSQLite(t)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_ListUnfinished(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	active := domain.NewJobState(domain.JobRequest{JobID: "active"})
	done := domain.NewJobState(domain.JobRequest{JobID: "done"})
	done.MarkCompleted()

	_ = s.Set(ctx, active)
	_ = s.Set(ctx, done)

	unfinished, err := s.ListUnfinished(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unfinished) != 1 || unfinished[0].JobID != "active" {
		t.Errorf("expected only active job, got %+v", unfinished)
	}
}
