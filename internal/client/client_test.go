package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
)

// fakePublisher резолвит callback прямо из публикации,
// имитируя мгновенный ответ воркера.
type fakePublisher struct {
	pending  *Pending
	result   mq.TaskResult
	silent   bool
	err      error
	requests []mq.TaskRequest
}

func (f *fakePublisher) PublishTaskRequest(_ context.Context, req mq.TaskRequest) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}
	if f.silent {
		return nil
	}

	res := f.result
	res.JobID = req.JobID
	res.TaskName = req.TaskName
	if !f.pending.Resolve(req.JobID, req.TaskName, res) {
		return errors.New("no waiter registered before publish")
	}
	return nil
}

func newTestState() *domain.JobState {
	return domain.NewJobState(domain.JobRequest{
		JobID:          "job-1",
		FilePath:       "/uploads/cat.jpg",
		ContentType:    "image/jpeg",
		ChecksumSHA256: "abc123",
	})
}

func TestWorkerClientProcess(t *testing.T) {
	pending := NewPending()
	pub := &fakePublisher{
		pending: pending,
		result: mq.TaskResult{
			Status:   domain.TaskStatusSuccess,
			Result:   map[string]any{"thumbnails": []any{"small.jpg"}},
			Metadata: map[string]any{"width": 800},
		},
	}

	c := New(Config{
		Task:      domain.NodeGenerateThumbs,
		Publisher: pub,
		Pending:   pending,
		Timeout:   time.Second,
	})

	state, err := c.Process(context.Background(), newTestState())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := state.Result[domain.NodeGenerateThumbs]; !ok {
		t.Errorf("expected task result merged into state, got %v", state.Result)
	}
	if state.Metadata["width"] != 800 {
		t.Errorf("expected metadata merged, got %v", state.Metadata)
	}

	if len(pub.requests) != 1 {
		t.Fatalf("expected 1 published request, got %d", len(pub.requests))
	}
	if pub.requests[0].TaskName != domain.NodeGenerateThumbs {
		t.Errorf("unexpected task name: %s", pub.requests[0].TaskName)
	}
}

func TestWorkerClientTaskFailure(t *testing.T) {
	pending := NewPending()
	pub := &fakePublisher{
		pending: pending,
		result: mq.TaskResult{
			Status: domain.TaskStatusFailed,
			Error:  "file is empty",
		},
	}

	c := New(Config{
		Task:      domain.NodeValidateFile,
		Publisher: pub,
		Pending:   pending,
		Timeout:   time.Second,
	})

	state, err := c.Process(context.Background(), newTestState())
	if err != nil {
		t.Fatalf("worker-reported failure must not be a transport error: %v", err)
	}

	if state.Status != domain.JobStatusFailed {
		t.Errorf("expected failed status, got %s", state.Status)
	}
	if state.Error != "file is empty" {
		t.Errorf("expected worker error recorded, got %q", state.Error)
	}
}

func TestWorkerClientTimeout(t *testing.T) {
	pending := NewPending()
	pub := &fakePublisher{pending: pending, silent: true}

	c := New(Config{
		Task:      domain.NodeTranscribeAudio,
		Publisher: pub,
		Pending:   pending,
		Timeout:   20 * time.Millisecond,
	})

	_, err := c.Process(context.Background(), newTestState())
	if !errors.Is(err, ErrTaskTimeout) {
		t.Fatalf("expected ErrTaskTimeout, got %v", err)
	}

	if pending.Len() != 0 {
		t.Errorf("expected waiter cleaned up after timeout, got %d", pending.Len())
	}
}

func TestWorkerClientPublishError(t *testing.T) {
	pending := NewPending()
	pub := &fakePublisher{pending: pending, err: errors.New("channel closed")}

	c := New(Config{
		Task:      domain.NodeExtractText,
		Publisher: pub,
		Pending:   pending,
		Timeout:   time.Second,
	})

	_, err := c.Process(context.Background(), newTestState())
	if err == nil {
		t.Fatal("expected publish error")
	}

	if pending.Len() != 0 {
		t.Errorf("expected waiter cleaned up after publish error, got %d", pending.Len())
	}
}

func TestWorkerClientContextCancel(t *testing.T) {
	pending := NewPending()
	pub := &fakePublisher{pending: pending, silent: true}

	c := New(Config{
		Task:      domain.NodeAnalyzeImage,
		Publisher: pub,
		Pending:   pending,
		Timeout:   time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.Process(ctx, newTestState())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
