package worker

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
)

// ExecutorFunc адаптирует функцию к интерфейсу Executor.
type ExecutorFunc func(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error)

// Execute реализует Executor.
func (f ExecutorFunc) Execute(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error) {
	return f(ctx, req)
}

// mediaExecutors возвращает симулированные executor'ы пайплайна.
// Настоящая обработка файлов живёт вне системы; здесь детерминированные
// результаты с реалистичной задержкой.
func mediaExecutors() map[string]Executor {
	return map[string]Executor{
		domain.NodeValidateFile:      ExecutorFunc(validateFile),
		domain.NodeExtractMetadata:   ExecutorFunc(extractMetadata),
		domain.NodeGenerateThumbs:    ExecutorFunc(generateThumbnails),
		domain.NodeAnalyzeImage:      ExecutorFunc(analyzeImage),
		domain.NodeExtractAudio:      ExecutorFunc(extractAudio),
		domain.NodeTranscribeAudio:   ExecutorFunc(transcribeAudio),
		domain.NodeGenerateSummary:   ExecutorFunc(generateSummary),
		domain.NodeExtractText:       ExecutorFunc(extractText),
		domain.NodeSummarizeDocument: ExecutorFunc(summarizeDocument),
	}
}

// payloadString достаёт строковое поле из payload.
func payloadString(req mq.TaskRequest, key string) string {
	v, ok := req.Payload[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// simulate ждёт d, уважая отмену контекста.
func simulate(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validateFile(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error) {
	if err := simulate(ctx, 50*time.Millisecond); err != nil {
		return nil, err
	}

	filePath := payloadString(req, "file_path")
	if strings.TrimSpace(filePath) == "" {
		return nil, ErrMissingFilePath
	}
	if payloadString(req, "checksum_sha256") == "" {
		return nil, ErrMissingChecksum
	}

	return &ExecutionResult{
		Result: map[string]any{
			"valid":     true,
			"file_path": filePath,
		},
	}, nil
}

func extractMetadata(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error) {
	if err := simulate(ctx, 50*time.Millisecond); err != nil {
		return nil, err
	}

	filePath := payloadString(req, "file_path")

	return &ExecutionResult{
		Result: map[string]any{
			"extracted": true,
		},
		Metadata: map[string]any{
			"filename":     path.Base(filePath),
			"content_type": payloadString(req, "content_type"),
		},
	}, nil
}

func generateThumbnails(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error) {
	if err := simulate(ctx, 30*time.Millisecond); err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(payloadString(req, "file_path"), path.Ext(payloadString(req, "file_path")))

	return &ExecutionResult{
		Result: map[string]any{
			"thumbnails": []string{
				base + "_thumb_small.jpg",
				base + "_thumb_medium.jpg",
			},
		},
	}, nil
}

func analyzeImage(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error) {
	if err := simulate(ctx, 40*time.Millisecond); err != nil {
		return nil, err
	}

	return &ExecutionResult{
		Result: map[string]any{
			"labels": []string{"photo"},
		},
	}, nil
}

func extractAudio(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error) {
	if err := simulate(ctx, 30*time.Millisecond); err != nil {
		return nil, err
	}

	filePath := payloadString(req, "file_path")
	audioPath := strings.TrimSuffix(filePath, path.Ext(filePath)) + ".wav"

	return &ExecutionResult{
		Result: map[string]any{
			"audio_path": audioPath,
		},
	}, nil
}

func transcribeAudio(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error) {
	if err := simulate(ctx, 40*time.Millisecond); err != nil {
		return nil, err
	}

	return &ExecutionResult{
		Result: map[string]any{
			"transcript": fmt.Sprintf("transcript of %s", path.Base(payloadString(req, "file_path"))),
		},
	}, nil
}

func generateSummary(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error) {
	if err := simulate(ctx, 40*time.Millisecond); err != nil {
		return nil, err
	}

	return &ExecutionResult{
		Result: map[string]any{
			"summary": fmt.Sprintf("summary of %s", path.Base(payloadString(req, "file_path"))),
		},
	}, nil
}

func extractText(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error) {
	if err := simulate(ctx, 30*time.Millisecond); err != nil {
		return nil, err
	}

	return &ExecutionResult{
		Result: map[string]any{
			"text": fmt.Sprintf("text extracted from %s", path.Base(payloadString(req, "file_path"))),
		},
	}, nil
}

func summarizeDocument(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error) {
	if err := simulate(ctx, 40*time.Millisecond); err != nil {
		return nil, err
	}

	return &ExecutionResult{
		Result: map[string]any{
			"summary": fmt.Sprintf("document summary of %s", path.Base(payloadString(req, "file_path"))),
		},
	}, nil
}
