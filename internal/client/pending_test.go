package client

import (
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
)

func TestPendingResolve(t *testing.T) {
	p := NewPending()

	ch := p.Register("job-1", "extract_audio")

	res := mq.TaskResult{
		JobID:    "job-1",
		TaskName: "extract_audio",
		Status:   domain.TaskStatusSuccess,
		Result:   map[string]any{"audio_path": "/tmp/a.wav"},
	}

	if !p.Resolve("job-1", "extract_audio", res) {
		t.Fatal("expected resolve to match registered waiter")
	}

	got := <-ch
	if got.JobID != "job-1" || got.TaskName != "extract_audio" {
		t.Errorf("unexpected result delivered: %+v", got)
	}

	if p.Len() != 0 {
		t.Errorf("expected empty registry after resolve, got %d", p.Len())
	}
}

func TestPendingResolveUnmatched(t *testing.T) {
	p := NewPending()

	if p.Resolve("job-unknown", "extract_audio", mq.TaskResult{}) {
		t.Error("expected unmatched resolve to return false")
	}
}

func TestPendingDuplicateResolve(t *testing.T) {
	p := NewPending()

	p.Register("job-1", "transcribe_audio")

	res := mq.TaskResult{JobID: "job-1", TaskName: "transcribe_audio"}
	if !p.Resolve("job-1", "transcribe_audio", res) {
		t.Fatal("first resolve should succeed")
	}

	// Повторная доставка того же callback'а отбрасывается.
	if p.Resolve("job-1", "transcribe_audio", res) {
		t.Error("duplicate resolve should return false")
	}
}

func TestPendingCancel(t *testing.T) {
	p := NewPending()

	p.Register("job-1", "validate_file")
	p.Cancel("job-1", "validate_file")

	if p.Len() != 0 {
		t.Errorf("expected empty registry after cancel, got %d", p.Len())
	}

	if p.Resolve("job-1", "validate_file", mq.TaskResult{}) {
		t.Error("resolve after cancel should return false")
	}
}

func TestPendingSeparateKeys(t *testing.T) {
	p := NewPending()

	p.Register("job-1", "validate_file")
	p.Register("job-1", "extract_metadata")
	p.Register("job-2", "validate_file")

	if p.Len() != 3 {
		t.Fatalf("expected 3 waiters, got %d", p.Len())
	}

	if !p.Resolve("job-2", "validate_file", mq.TaskResult{JobID: "job-2"}) {
		t.Error("expected resolve for job-2 to match")
	}
	if p.Len() != 2 {
		t.Errorf("expected 2 waiters left, got %d", p.Len())
	}
}
