package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
)

func TestMemoryStore_CreateIfAbsent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	state := domain.NewJobState(domain.JobRequest{JobID: "job-1", ContentType: "image/png"})

	if err := s.CreateIfAbsent(ctx, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second create with the same job_id must fail
	err := s.CreateIfAbsent(ctx, state)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	state := domain.NewJobState(domain.JobRequest{
		JobID:          "job-1",
		FilePath:       "storage/raw/job-1.mp4",
		ContentType:    "video/mp4",
		ChecksumSHA256: "deadbeef",
		SubmittedBy:    "tester",
	})
	state.MarkRouted(domain.BranchVideo)
	state.AddResult("extract_audio", map[string]any{"audio_path": "tmp/job-1.wav"})
	state.MergeMetadata(map[string]any{"duration_sec": 42})

	if err := s.Set(ctx, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(got, state) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, state)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	state := domain.NewJobState(domain.JobRequest{JobID: "job-1"})
	state.MergeMetadata(map[string]any{"format": "png"})
	_ = s.Set(ctx, state)

	got, _ := s.Get(ctx, "job-1")
	got.Metadata["format"] = "jpeg"

	again, _ := s.Get(ctx, "job-1")
	if again.Metadata["format"] != "png" {
		t.Error("reads must not share mutable maps with the store")
	}
}

func TestMemoryStore_ListUnfinished(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	active := domain.NewJobState(domain.JobRequest{JobID: "active"})
	done := domain.NewJobState(domain.JobRequest{JobID: "done"})
	done.MarkCompleted()
	failed := domain.NewJobState(domain.JobRequest{JobID: "failed"})
	failed.MarkFailed("validate_file", "bad file")

	_ = s.Set(ctx, active)
	_ = s.Set(ctx, done)
	_ = s.Set(ctx, failed)

	unfinished, err := s.ListUnfinished(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unfinished) != 1 {
		t.Fatalf("expected 1 unfinished job, got %d", len(unfinished))
	}
	if unfinished[0].JobID != "active" {
		t.Errorf("expected active, got %s", unfinished[0].JobID)
	}
}
