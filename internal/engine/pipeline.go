package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/Conveyor/internal/domain"
)

// TaskRunner выполняет делегированную задачу и возвращает
// обновлённое состояние. Реализуется worker client'ами.
type TaskRunner interface {
	Process(ctx context.Context, state *domain.JobState) (*domain.JobState, error)
}

// TaskRunners — runner на каждый тип делегированной задачи.
type TaskRunners map[string]TaskRunner

// RouteContentType выбирает ветку по content type.
//
// Неизвестный content type — ошибка валидации, а не молчаливый
// fallback в image-ветку.
func RouteContentType(contentType string) (domain.Branch, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))

	switch {
	case strings.HasPrefix(ct, "image"):
		return domain.BranchImage, nil
	case strings.HasPrefix(ct, "video"):
		return domain.BranchVideo, nil
	case ct == "application/pdf", strings.HasPrefix(ct, "pdf"), strings.HasPrefix(ct, "text/"):
		return domain.BranchPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}
}

// MediaPipeline строит граф media-пайплайна:
//
//	validate_file → extract_metadata → route_workflow
//	  route_workflow ─┬─ image_branch: generate_thumbnails → analyze_image
//	                  ├─ video_branch: extract_audio → transcribe_audio → generate_summary
//	                  └─ pdf_branch:   extract_text → summarize_document
//
// Все узлы, кроме route_workflow, делегируются воркерам; runners
// должен содержать runner на каждую делегированную задачу.
func MediaPipeline(runners TaskRunners) (*Graph, error) {
	b := NewBuilder()

	for _, task := range domain.DelegatedTasks() {
		runner, ok := runners[task]
		if !ok {
			return nil, fmt.Errorf("no task runner for %s", task)
		}
		b.AddNode(task, KindTask, runner.Process)
	}

	b.AddNode(domain.NodeRouteWorkflow, KindLocal, routeWorkflow)

	b.SetEntry(domain.NodeValidateFile)

	b.AddEdge(domain.NodeValidateFile, domain.NodeExtractMetadata)
	b.AddEdge(domain.NodeExtractMetadata, domain.NodeRouteWorkflow)

	b.AddConditionalEdge(domain.NodeRouteWorkflow, routeByBranch,
		domain.NodeGenerateThumbs,
		domain.NodeExtractAudio,
		domain.NodeExtractText,
	)

	// image branch
	b.AddEdge(domain.NodeGenerateThumbs, domain.NodeAnalyzeImage)
	b.AddEdge(domain.NodeAnalyzeImage, End)

	// video branch
	b.AddEdge(domain.NodeExtractAudio, domain.NodeTranscribeAudio)
	b.AddEdge(domain.NodeTranscribeAudio, domain.NodeGenerateSummary)
	b.AddEdge(domain.NodeGenerateSummary, End)

	// pdf branch
	b.AddEdge(domain.NodeExtractText, domain.NodeSummarizeDocument)
	b.AddEdge(domain.NodeSummarizeDocument, End)

	return b.Build()
}

// routeWorkflow — локальный узел маршрутизации.
// Выбирает ветку по content type и фиксирует её в состоянии;
// ветка устанавливается ровно один раз.
func routeWorkflow(_ context.Context, state *domain.JobState) (*domain.JobState, error) {
	branch, err := RouteContentType(state.ContentType)
	if err != nil {
		return nil, err
	}

	state.MarkRouted(branch)
	return state, nil
}

// routeByBranch — условное ребро после route_workflow.
func routeByBranch(state *domain.JobState) (string, error) {
	switch state.Branch {
	case domain.BranchImage:
		return domain.NodeGenerateThumbs, nil
	case domain.BranchVideo:
		return domain.NodeExtractAudio, nil
	case domain.BranchPDF:
		return domain.NodeExtractText, nil
	default:
		return "", fmt.Errorf("%w: branch %q", ErrBadRoute, state.Branch)
	}
}
