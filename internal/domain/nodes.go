package domain

// Имена узлов пайплайна.
//
// NodeRouteWorkflow — локальный узел маршрутизации; остальные узлы
// делегируются воркерам через task-каналы с теми же именами.
const (
	NodeValidateFile      = "validate_file"
	NodeExtractMetadata   = "extract_metadata"
	NodeRouteWorkflow     = "route_workflow"
	NodeGenerateThumbs    = "generate_thumbnails"
	NodeAnalyzeImage      = "analyze_image"
	NodeExtractAudio      = "extract_audio"
	NodeTranscribeAudio   = "transcribe_audio"
	NodeGenerateSummary   = "generate_summary"
	NodeExtractText       = "extract_text"
	NodeSummarizeDocument = "summarize_document"
)

// DelegatedTasks возвращает имена всех делегируемых задач.
// Для каждой задачи существует своя очередь tasks.<name>.
func DelegatedTasks() []string {
	return []string{
		NodeValidateFile,
		NodeExtractMetadata,
		NodeGenerateThumbs,
		NodeAnalyzeImage,
		NodeExtractAudio,
		NodeTranscribeAudio,
		NodeGenerateSummary,
		NodeExtractText,
		NodeSummarizeDocument,
	}
}
