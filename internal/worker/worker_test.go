package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
)

type capturePublisher struct {
	results []mq.TaskResult
	err     error
}

func (p *capturePublisher) PublishTaskResult(_ context.Context, res mq.TaskResult) error {
	if p.err != nil {
		return p.err
	}
	p.results = append(p.results, res)
	return nil
}

func taskDelivery(task string, payload map[string]any) *mq.Delivery {
	return &mq.Delivery{
		Message: mq.Message{
			ID:   "msg-1",
			Type: mq.MessageTypeTaskReq,
			Payload: mq.TaskRequest{
				JobID:    "job-1",
				TaskName: task,
				Payload:  payload,
			},
		},
	}
}

func imagePayload() map[string]any {
	return map[string]any{
		"file_path":       "/uploads/cat.jpg",
		"content_type":    "image/jpeg",
		"checksum_sha256": "abc123",
	}
}

func TestRegistryCoversAllTasks(t *testing.T) {
	r := NewRegistry()

	for _, task := range domain.DelegatedTasks() {
		if _, err := r.Get(task); err != nil {
			t.Errorf("no executor for %s: %v", task, err)
		}
	}

	if _, err := r.Get("unknown_task"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
}

func TestWorkerHandleTaskSuccess(t *testing.T) {
	pub := &capturePublisher{}
	w := New(Config{Publisher: pub})

	msg := taskDelivery(domain.NodeGenerateThumbs, imagePayload())
	if err := w.handleTask(context.Background(), domain.NodeGenerateThumbs, msg); err != nil {
		t.Fatalf("handle task: %v", err)
	}

	if len(pub.results) != 1 {
		t.Fatalf("expected 1 callback, got %d", len(pub.results))
	}

	res := pub.results[0]
	if res.Status != domain.TaskStatusSuccess {
		t.Errorf("expected success, got %s (%s)", res.Status, res.Error)
	}
	if res.JobID != "job-1" || res.TaskName != domain.NodeGenerateThumbs {
		t.Errorf("wrong correlation: %s/%s", res.JobID, res.TaskName)
	}
	if _, ok := res.Result["thumbnails"]; !ok {
		t.Errorf("expected thumbnails in result, got %v", res.Result)
	}
}

func TestWorkerValidateFileFailure(t *testing.T) {
	pub := &capturePublisher{}
	w := New(Config{Publisher: pub})

	payload := imagePayload()
	payload["file_path"] = ""

	msg := taskDelivery(domain.NodeValidateFile, payload)
	if err := w.handleTask(context.Background(), domain.NodeValidateFile, msg); err != nil {
		t.Fatalf("handle task: %v", err)
	}

	if len(pub.results) != 1 {
		t.Fatalf("expected 1 callback, got %d", len(pub.results))
	}

	res := pub.results[0]
	if res.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed, got %s", res.Status)
	}
	if res.Error == "" {
		t.Error("expected error message in failed callback")
	}
}

func TestWorkerValidateFileMissingChecksum(t *testing.T) {
	pub := &capturePublisher{}
	w := New(Config{Publisher: pub})

	payload := imagePayload()
	delete(payload, "checksum_sha256")

	msg := taskDelivery(domain.NodeValidateFile, payload)
	if err := w.handleTask(context.Background(), domain.NodeValidateFile, msg); err != nil {
		t.Fatalf("handle task: %v", err)
	}

	if pub.results[0].Status != domain.TaskStatusFailed {
		t.Errorf("expected failed, got %s", pub.results[0].Status)
	}
}

func TestWorkerExtractMetadataReportsMetadata(t *testing.T) {
	pub := &capturePublisher{}
	w := New(Config{Publisher: pub})

	msg := taskDelivery(domain.NodeExtractMetadata, imagePayload())
	if err := w.handleTask(context.Background(), domain.NodeExtractMetadata, msg); err != nil {
		t.Fatalf("handle task: %v", err)
	}

	res := pub.results[0]
	if res.Status != domain.TaskStatusSuccess {
		t.Fatalf("expected success, got %s (%s)", res.Status, res.Error)
	}
	if res.Metadata["filename"] != "cat.jpg" {
		t.Errorf("expected filename metadata, got %v", res.Metadata)
	}
	if res.Metadata["content_type"] != "image/jpeg" {
		t.Errorf("expected content_type metadata, got %v", res.Metadata)
	}
}

func TestWorkerDiscardsForeignTask(t *testing.T) {
	pub := &capturePublisher{}
	w := New(Config{Publisher: pub})

	// Запрос адресован другой задаче.
	msg := taskDelivery(domain.NodeExtractAudio, imagePayload())
	if err := w.handleTask(context.Background(), domain.NodeGenerateThumbs, msg); err != nil {
		t.Fatalf("foreign task must be discarded, got: %v", err)
	}

	if len(pub.results) != 0 {
		t.Errorf("expected no callback for foreign task, got %d", len(pub.results))
	}
}

func TestWorkerPublishFailureIsRetriable(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker unreachable")}
	w := New(Config{Publisher: pub})

	msg := taskDelivery(domain.NodeAnalyzeImage, imagePayload())
	if err := w.handleTask(context.Background(), domain.NodeAnalyzeImage, msg); err == nil {
		t.Fatal("expected error when callback cannot be published")
	}
}

func TestExecutorsDeterministicResults(t *testing.T) {
	req := mq.TaskRequest{
		JobID:    "job-1",
		TaskName: domain.NodeExtractAudio,
		Payload: map[string]any{
			"file_path": "/uploads/talk.mp4",
		},
	}

	out, err := extractAudio(context.Background(), req)
	if err != nil {
		t.Fatalf("extract audio: %v", err)
	}
	if out.Result["audio_path"] != "/uploads/talk.wav" {
		t.Errorf("unexpected audio path: %v", out.Result["audio_path"])
	}
}

func TestExecutorHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := transcribeAudio(ctx, mq.TaskRequest{JobID: "job-1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
