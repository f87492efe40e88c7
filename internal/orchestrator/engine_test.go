package orchestrator

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/store"
)

// recordingRunner выполняет задачи локально и запоминает порядок вызовов.
type recordingRunner struct {
	mu    sync.Mutex
	calls []string

	// failTask — задача, сообщающая логическую ошибку (status=failed).
	failTask string

	// errTask — задача, возвращающая транспортную ошибку.
	errTask string

	// panicTask — задача, паникующая при выполнении.
	panicTask string
}

type taskRunnerFunc func(ctx context.Context, state *domain.JobState) (*domain.JobState, error)

func (f taskRunnerFunc) Process(ctx context.Context, state *domain.JobState) (*domain.JobState, error) {
	return f(ctx, state)
}

func (r *recordingRunner) runners() engine.TaskRunners {
	runners := make(engine.TaskRunners)
	for _, task := range domain.DelegatedTasks() {
		task := task
		runners[task] = taskRunnerFunc(func(_ context.Context, state *domain.JobState) (*domain.JobState, error) {
			r.mu.Lock()
			r.calls = append(r.calls, task)
			r.mu.Unlock()

			switch task {
			case r.panicTask:
				panic("executor crashed")
			case r.errTask:
				return nil, errors.New("broker unreachable")
			case r.failTask:
				state.Status = domain.JobStatusFailed
				state.Error = "worker rejected input"
				return state, nil
			}

			state.AddResult(task, map[string]any{"ok": true})
			return state, nil
		})
	}
	return runners
}

func (r *recordingRunner) visited() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func newTestEngine(t *testing.T, r *recordingRunner) (*Engine, *store.MemoryStore) {
	t.Helper()

	graph, err := engine.MediaPipeline(r.runners())
	if err != nil {
		t.Fatalf("build pipeline: %v", err)
	}

	st := store.NewMemoryStore()
	eng := New(Config{
		Store: st,
		Graph: graph,
		// Sweep в тестах не участвует.
		SweepInterval: time.Hour,
	})

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	t.Cleanup(eng.Stop)

	return eng, st
}

func imageRequest(jobID string) domain.JobRequest {
	return domain.JobRequest{
		JobID:          jobID,
		FilePath:       "/uploads/cat.jpg",
		ContentType:    "image/jpeg",
		ChecksumSHA256: "abc123",
	}
}

func waitJob(t *testing.T, h *JobHandle) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Wait(ctx); err != nil {
		t.Fatalf("job did not finish: %v", err)
	}
}

func TestEngineSubmitCompletesImageJob(t *testing.T) {
	r := &recordingRunner{}
	eng, _ := newTestEngine(t, r)

	h, err := eng.Submit(context.Background(), imageRequest("job-1"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitJob(t, h)

	state, err := eng.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}

	if state.Status != domain.JobStatusCompleted {
		t.Errorf("expected completed, got %s", state.Status)
	}
	if state.Step != domain.StepDone {
		t.Errorf("expected step done, got %s", state.Step)
	}
	if state.Branch != domain.BranchImage {
		t.Errorf("expected image branch, got %s", state.Branch)
	}

	want := []string{
		domain.NodeValidateFile,
		domain.NodeExtractMetadata,
		domain.NodeGenerateThumbs,
		domain.NodeAnalyzeImage,
	}
	got := r.visited()
	if len(got) != len(want) {
		t.Fatalf("expected nodes %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected nodes %v, got %v", want, got)
		}
	}
}

func TestEngineDuplicateSubmit(t *testing.T) {
	r := &recordingRunner{}
	eng, _ := newTestEngine(t, r)

	h, err := eng.Submit(context.Background(), imageRequest("job-1"))
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	waitJob(t, h)

	_, err = eng.Submit(context.Background(), imageRequest("job-1"))
	if !errors.Is(err, ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob, got %v", err)
	}

	// Состояние первого job не тронуто дубликатом.
	state, err := eng.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if state.Status != domain.JobStatusCompleted {
		t.Errorf("duplicate must not alter state, got %s", state.Status)
	}
}

func TestEngineInvalidRequest(t *testing.T) {
	eng, _ := newTestEngine(t, &recordingRunner{})

	_, err := eng.Submit(context.Background(), domain.JobRequest{})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestEngineWorkerFailureIsTerminal(t *testing.T) {
	r := &recordingRunner{failTask: domain.NodeValidateFile}
	eng, _ := newTestEngine(t, r)

	h, err := eng.Submit(context.Background(), imageRequest("job-1"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitJob(t, h)

	state, err := eng.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}

	if state.Status != domain.JobStatusFailed {
		t.Errorf("expected failed, got %s", state.Status)
	}
	if state.Step != "failed_at_validate_file" {
		t.Errorf("expected failed_at_validate_file, got %s", state.Step)
	}
	if state.Error != "worker rejected input" {
		t.Errorf("expected worker error preserved, got %q", state.Error)
	}

	// Следующий узел после упавшего не выполняется.
	for _, node := range r.visited() {
		if node == domain.NodeExtractMetadata {
			t.Error("extract_metadata must not run after validation failure")
		}
	}
}

func TestEngineNodeErrorIsTerminal(t *testing.T) {
	r := &recordingRunner{errTask: domain.NodeExtractMetadata}
	eng, _ := newTestEngine(t, r)

	h, err := eng.Submit(context.Background(), imageRequest("job-1"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitJob(t, h)

	state, err := eng.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}

	if state.Status != domain.JobStatusFailed {
		t.Errorf("expected failed, got %s", state.Status)
	}
	if state.Step != "failed_at_extract_metadata" {
		t.Errorf("expected failed_at_extract_metadata, got %s", state.Step)
	}
}

func TestEnginePanicIsContained(t *testing.T) {
	r := &recordingRunner{panicTask: domain.NodeGenerateThumbs}
	eng, _ := newTestEngine(t, r)

	h, err := eng.Submit(context.Background(), imageRequest("job-1"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitJob(t, h)

	state, err := eng.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}

	if state.Status != domain.JobStatusFailed {
		t.Errorf("expected failed, got %s", state.Status)
	}
	if state.Step != "failed_at_generate_thumbnails" {
		t.Errorf("expected failed_at_generate_thumbnails, got %s", state.Step)
	}

	// Упавший job не мешает следующим.
	h2, err := eng.Submit(context.Background(), imageRequest("job-2"))
	if err != nil {
		t.Fatalf("submit after panic: %v", err)
	}
	waitJob(t, h2)

	second, err := eng.GetJob(context.Background(), "job-2")
	if err != nil {
		t.Fatalf("get job-2: %v", err)
	}
	if second.Status != domain.JobStatusFailed {
		// generate_thumbnails паникует и для второго job.
		t.Errorf("expected failed for job-2 as well, got %s", second.Status)
	}
}

func TestEngineUnknownContentType(t *testing.T) {
	eng, _ := newTestEngine(t, &recordingRunner{})

	req := imageRequest("job-1")
	req.ContentType = "application/zip"

	h, err := eng.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitJob(t, h)

	state, err := eng.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}

	if state.Status != domain.JobStatusFailed {
		t.Errorf("expected failed, got %s", state.Status)
	}
	if state.Step != "failed_at_route_workflow" {
		t.Errorf("expected failed_at_route_workflow, got %s", state.Step)
	}
}

func TestEngineConcurrentJobsIsolated(t *testing.T) {
	r := &recordingRunner{}
	eng, _ := newTestEngine(t, r)

	kinds := []struct {
		contentType string
		filePath    string
		branch      domain.Branch
		nodes       []string
	}{
		{"image/jpeg", "/uploads/cat.jpg", domain.BranchImage, []string{
			domain.NodeValidateFile,
			domain.NodeExtractMetadata,
			domain.NodeGenerateThumbs,
			domain.NodeAnalyzeImage,
		}},
		{"video/mp4", "/uploads/talk.mp4", domain.BranchVideo, []string{
			domain.NodeValidateFile,
			domain.NodeExtractMetadata,
			domain.NodeExtractAudio,
			domain.NodeTranscribeAudio,
			domain.NodeGenerateSummary,
		}},
		{"application/pdf", "/uploads/report.pdf", domain.BranchPDF, []string{
			domain.NodeValidateFile,
			domain.NodeExtractMetadata,
			domain.NodeExtractText,
			domain.NodeSummarizeDocument,
		}},
	}

	const perKind = 10

	type submitted struct {
		jobID  string
		kind   int
		handle *JobHandle
	}
	jobs := make([]submitted, 0, len(kinds)*perKind)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for k := range kinds {
		for i := 0; i < perKind; i++ {
			k, i := k, i
			wg.Add(1)
			go func() {
				defer wg.Done()
				jobID := string(kinds[k].branch) + "-job-" + strconv.Itoa(i)
				h, err := eng.Submit(context.Background(), domain.JobRequest{
					JobID:          jobID,
					FilePath:       kinds[k].filePath,
					ContentType:    kinds[k].contentType,
					ChecksumSHA256: "abc123",
				})
				if err != nil {
					t.Errorf("submit %s: %v", jobID, err)
					return
				}
				mu.Lock()
				jobs = append(jobs, submitted{jobID, k, h})
				mu.Unlock()
			}()
		}
	}
	wg.Wait()

	if len(jobs) != len(kinds)*perKind {
		t.Fatalf("expected %d jobs submitted, got %d", len(kinds)*perKind, len(jobs))
	}
	for _, j := range jobs {
		waitJob(t, j.handle)
	}

	// Каждый job завершается в своей ветке, и его история результатов
	// содержит ровно узлы этой ветки — без примесей от соседних jobs.
	for _, j := range jobs {
		state, err := eng.GetJob(context.Background(), j.jobID)
		if err != nil {
			t.Fatalf("get %s: %v", j.jobID, err)
		}

		want := kinds[j.kind]
		if state.Status != domain.JobStatusCompleted {
			t.Errorf("%s: expected completed, got %s (%s)", j.jobID, state.Status, state.Error)
		}
		if state.Branch != want.branch {
			t.Errorf("%s: expected branch %s, got %s", j.jobID, want.branch, state.Branch)
		}
		if len(state.Result) != len(want.nodes) {
			t.Errorf("%s: expected %d node results, got %v", j.jobID, len(want.nodes), state.Result)
			continue
		}
		for _, node := range want.nodes {
			if _, ok := state.Result[node]; !ok {
				t.Errorf("%s: missing result for %s", j.jobID, node)
			}
		}
	}
}

func TestEngineGetJobNotFound(t *testing.T) {
	eng, _ := newTestEngine(t, &recordingRunner{})

	_, err := eng.GetJob(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestEngineRecoverResumesFromStep(t *testing.T) {
	r := &recordingRunner{}

	graph, err := engine.MediaPipeline(r.runners())
	if err != nil {
		t.Fatalf("build pipeline: %v", err)
	}

	st := store.NewMemoryStore()

	// Job, прерванный посреди video-ветки.
	state := domain.NewJobState(domain.JobRequest{
		JobID:       "job-1",
		FilePath:    "/uploads/talk.mp4",
		ContentType: "video/mp4",
	})
	state.MarkRouted(domain.BranchVideo)
	state.MarkStep(domain.NodeTranscribeAudio)
	if err := st.CreateIfAbsent(context.Background(), state); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	eng := New(Config{
		Store:         st,
		Graph:         graph,
		SweepInterval: time.Hour,
	})
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	defer eng.Stop()

	deadline := time.After(5 * time.Second)
	for {
		got, err := eng.GetJob(context.Background(), "job-1")
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if got.IsTerminal() {
			if got.Status != domain.JobStatusCompleted {
				t.Fatalf("expected completed after resume, got %s (%s)", got.Status, got.Error)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job not resumed, status %s step %s", got.Status, got.Step)
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Возобновление с прерванного шага, более ранние узлы не повторяются.
	visited := r.visited()
	if len(visited) == 0 || visited[0] != domain.NodeTranscribeAudio {
		t.Fatalf("expected resume from transcribe_audio, visited %v", visited)
	}
	for _, node := range visited {
		if node == domain.NodeValidateFile || node == domain.NodeExtractAudio {
			t.Errorf("node %s must not re-run on resume", node)
		}
	}
}
