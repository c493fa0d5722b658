package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/johnquangdev/meetmemo/internal/adapter/dto/task"
	"github.com/johnquangdev/meetmemo/internal/adapter/repository"
	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/domain/repositories"
	"github.com/johnquangdev/meetmemo/internal/infrastructure/storage"
	"github.com/johnquangdev/meetmemo/internal/usecase/scheduler"
	"github.com/johnquangdev/meetmemo/internal/usecase/stage"
	taskuse "github.com/johnquangdev/meetmemo/internal/usecase/task"
	"github.com/johnquangdev/meetmemo/pkg/config"
	pkgvalidator "github.com/johnquangdev/meetmemo/pkg/validator"
)

type stubStage struct {
	name entities.Stage
	band entities.Band
	run  func(ctx context.Context, ws *stage.Workspace, sink stage.ProgressSink) error
}

func (s *stubStage) Name() entities.Stage { return s.name }
func (s *stubStage) Band() entities.Band  { return s.band }
func (s *stubStage) Run(ctx context.Context, ws *stage.Workspace, sink stage.ProgressSink) error {
	return s.run(ctx, ws, sink)
}

func pipeline(gate <-chan struct{}) []stage.Stage {
	return []stage.Stage{
		&stubStage{name: entities.StageTranscribing, band: entities.TranscriptionBand, run: func(ctx context.Context, ws *stage.Workspace, sink stage.ProgressSink) error {
			if gate != nil {
				select {
				case <-gate:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err := sink.Report(50); err != nil {
				return err
			}
			ws.Transcript = &entities.TranscriptionResult{
				Text:     "Welcome everyone. We ship on Friday.",
				Language: "en",
				Duration: 600,
				Segments: []entities.Segment{
					{Start: 0, End: 2.5, Text: "Welcome everyone."},
					{Start: 3, End: 5, Text: "We ship on Friday."},
				},
			}
			return nil
		}},
		&stubStage{name: entities.StageSummarizing, band: entities.SummaryBand, run: func(ctx context.Context, ws *stage.Workspace, sink stage.ProgressSink) error {
			ws.Summary = &entities.SummaryResult{
				MeetingTitle: ws.Task.Settings().MeetingTitle,
				Summary:      "The team agreed to ship on Friday.",
				Language:     "en",
			}
			return nil
		}},
	}
}

type testServer struct {
	e     *echo.Echo
	tasks repositories.TaskRepository
	blobs *storage.MemoryBlobRepository
}

func newTestServer(t *testing.T, tasks repositories.TaskRepository, stages []stage.Stage) *testServer {
	t.Helper()
	if tasks == nil {
		tasks = repository.NewMemoryTaskRepository()
	}
	blobs := storage.NewMemoryBlobRepository()
	cfg := &config.Config{
		Server:    config.ServerConfig{Environment: "test", StoreTimeout: time.Second, CacheTTL: time.Minute},
		Upload:    config.UploadConfig{MaxFileSize: 1 << 20, SupportedFormats: []string{"mp3", "wav", "m4a", "flac", "ogg"}},
		Scheduler: config.SchedulerConfig{Workers: 1, QueueSize: 10},
	}

	sched := scheduler.NewScheduler(tasks, blobs, stages, cfg.Scheduler, nil)
	require.NoError(t, sched.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		sched.Stop(ctx)
	})

	svc := taskuse.NewTaskService(tasks, blobs, sched, cfg, nil)
	t.Cleanup(svc.Close)

	e := echo.New()
	e.Validator = pkgvalidator.New()
	NewRouter(cfg, NewUpload(svc, nil), NewTask(svc, nil, nil), NewHealth(svc, nil)).Setup(e)
	return &testServer{e: e, tasks: tasks, blobs: blobs}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, filename string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake audio bytes"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload/audio", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return s.do(req)
}

func (s *testServer) status(t *testing.T, taskID string) dto.TaskStatusResponse {
	t.Helper()
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tasks/"+taskID, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.TaskStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *testServer) waitStatus(t *testing.T, taskID string, want entities.TaskStatus) dto.TaskStatusResponse {
	t.Helper()
	var resp dto.TaskStatusResponse
	require.Eventually(t, func() bool {
		resp = s.status(t, taskID)
		return resp.Status == string(want)
	}, 3*time.Second, 10*time.Millisecond)
	return resp
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestUploadAndPollToCompletion(t *testing.T) {
	s := newTestServer(t, nil, pipeline(nil))

	rec := s.upload(t, "weekly.mp3", map[string]string{"meeting_title": "Weekly sync", "whisper_model": "base"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	up := decode[dto.UploadResponse](t, rec)
	assert.True(t, up.Success)
	assert.NotEmpty(t, up.TaskID)
	assert.Equal(t, "weekly.mp3", up.FileInfo.OriginalFilename)
	assert.Equal(t, int64(len("fake audio bytes")), up.FileInfo.FileSize)
	assert.Equal(t, "Weekly sync", up.FileInfo.MeetingTitle)
	assert.Equal(t, "auto", up.FileInfo.Language)

	done := s.waitStatus(t, up.TaskID, entities.TaskStatusCompleted)
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, entities.StepDone, done.StepIndex)
	assert.Empty(t, done.CurrentStage)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	require.NotNil(t, done.Result)
	assert.True(t, done.Result.Success)
	assert.Equal(t, up.FileInfo.FileID, done.Result.FileID)
	assert.InDelta(t, 600, done.Result.Transcription.Duration, 0.001)
	assert.NotEmpty(t, done.Result.Summary.Summary)
	assert.Equal(t, "Weekly sync", done.Result.Summary.MeetingTitle)
	assert.Empty(t, done.Error)
}

func TestUploadRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t, nil, pipeline(nil))

	tests := []struct {
		name     string
		filename string
		fields   map[string]string
		code     int
	}{
		{"unsupported extension", "notes.xyz", nil, http.StatusBadRequest},
		{"missing file", "", nil, http.StatusBadRequest},
		{"unknown whisper model", "a.mp3", map[string]string{"whisper_model": "huge"}, http.StatusBadRequest},
		{"invalid language", "a.mp3", map[string]string{"language": "English please"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.upload(t, tt.filename, tt.fields)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			body := decode[map[string]interface{}](t, rec)
			assert.NotEmpty(t, body["detail"])
		})
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tasks/stats/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[dto.StatsResponse](t, rec)
	var total int64
	for _, n := range stats.ByStatus {
		total += n
	}
	assert.Zero(t, total, "rejected uploads never create a task")
	assert.Zero(t, s.blobs.Len())
}

func TestGetStatusNotFound(t *testing.T) {
	s := newTestServer(t, nil, pipeline(nil))
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tasks/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "TASK_NOT_FOUND", body["code"])
	assert.Equal(t, "Task not found", body["detail"])
	assert.Equal(t, map[string]interface{}{"task_id": "does-not-exist"}, body["details"])
}

func TestCancelPendingIsIdempotent(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	s := newTestServer(t, nil, pipeline(gate))

	first := decode[dto.UploadResponse](t, s.upload(t, "a.mp3", nil))
	s.waitStatus(t, first.TaskID, entities.TaskStatusProcessing)
	second := decode[dto.UploadResponse](t, s.upload(t, "b.mp3", nil))

	pending := s.status(t, second.TaskID)
	assert.Equal(t, "pending", pending.Status)
	assert.Equal(t, entities.StepUploaded, pending.StepIndex)
	assert.Equal(t, 0, pending.Progress)

	for i := 0; i < 2; i++ {
		rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/tasks/"+second.TaskID, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[dto.CancelResponse](t, rec)
		assert.Equal(t, second.TaskID, resp.TaskID)
		assert.Equal(t, "cancelled", resp.Status)
		assert.NotEmpty(t, resp.Message)
	}

	got := s.status(t, second.TaskID)
	assert.Equal(t, "cancelled", got.Status)
	assert.Nil(t, got.Result)
}

func TestCancelProcessingSettlesCancelled(t *testing.T) {
	gate := make(chan struct{})
	s := newTestServer(t, nil, pipeline(gate))

	up := decode[dto.UploadResponse](t, s.upload(t, "a.mp3", nil))
	running := s.waitStatus(t, up.TaskID, entities.TaskStatusProcessing)
	assert.Equal(t, "transcribing", running.CurrentStage)
	assert.Equal(t, entities.StepTranscribing, running.StepIndex)
	assert.NotEmpty(t, running.CurrentStep)

	rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/tasks/"+up.TaskID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "processing", decode[dto.CancelResponse](t, rec).Status)
	assert.True(t, s.status(t, up.TaskID).CancelRequested)

	close(gate)
	got := s.waitStatus(t, up.TaskID, entities.TaskStatusCancelled)
	assert.Nil(t, got.Result)
}

func TestExportMinutes(t *testing.T) {
	s := newTestServer(t, nil, pipeline(nil))
	up := decode[dto.UploadResponse](t, s.upload(t, "a.mp3", map[string]string{"meeting_title": "Release planning"}))
	s.waitStatus(t, up.TaskID, entities.TaskStatusCompleted)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tasks/"+up.TaskID+"/export?format=md", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/markdown")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), up.TaskID+"_minutes.md")
	body := rec.Body.String()
	assert.Contains(t, body, "# Release planning")
	assert.Contains(t, body, "The team agreed to ship on Friday.")
	assert.Contains(t, body, "[00:03 - 00:05] We ship on Friday.")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/tasks/"+up.TaskID+"/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportRequiresCompletedTask(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	s := newTestServer(t, nil, pipeline(gate))
	up := decode[dto.UploadResponse](t, s.upload(t, "a.mp3", nil))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tasks/"+up.TaskID+"/export", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteFileRemovesTask(t *testing.T) {
	s := newTestServer(t, nil, pipeline(nil))
	up := decode[dto.UploadResponse](t, s.upload(t, "a.mp3", nil))
	s.waitStatus(t, up.TaskID, entities.TaskStatusCompleted)

	rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/upload/audio/"+up.FileInfo.FileID, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[dto.DeleteResponse](t, rec).Success)
	assert.Zero(t, s.blobs.Len())

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/tasks/"+up.TaskID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/upload/audio/"+up.FileInfo.FileID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteResult(t *testing.T) {
	s := newTestServer(t, nil, pipeline(nil))
	up := decode[dto.UploadResponse](t, s.upload(t, "a.mp3", nil))
	s.waitStatus(t, up.TaskID, entities.TaskStatusCompleted)

	for i := 0; i < 2; i++ {
		rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/tasks/"+up.TaskID+"/result", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[dto.DeleteResponse](t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, up.TaskID, resp.ID)
	}
	assert.Zero(t, s.blobs.Len())

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tasks/"+up.TaskID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListActiveTasks(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	s := newTestServer(t, nil, pipeline(gate))

	first := decode[dto.UploadResponse](t, s.upload(t, "a.mp3", nil))
	s.waitStatus(t, first.TaskID, entities.TaskStatusProcessing)
	second := decode[dto.UploadResponse](t, s.upload(t, "b.mp3", nil))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.ActiveTasksResponse](t, rec)
	require.Equal(t, 2, list.TotalCount)
	assert.Equal(t, first.TaskID, list.ActiveTasks[0].TaskID)
	require.NotNil(t, list.ActiveTasks[0].Worker)
	assert.Equal(t, 0, *list.ActiveTasks[0].Worker)
	assert.Equal(t, second.TaskID, list.ActiveTasks[1].TaskID)
	assert.Nil(t, list.ActiveTasks[1].Worker)
}

func TestFormats(t *testing.T) {
	s := newTestServer(t, nil, pipeline(nil))
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/upload/formats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	formats := decode[dto.FormatsResponse](t, rec)
	assert.Equal(t, []string{".mp3", ".wav", ".m4a", ".flac", ".ogg"}, formats.SupportedFormats)
	assert.Equal(t, int64(1<<20), formats.MaxFileSize)
	assert.InDelta(t, 1.0, formats.MaxFileSizeMB, 1e-9)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, pipeline(nil))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]interface{}](t, rec)["status"])

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/health/detailed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "healthy", body["status"])
	deps, ok := body["dependencies"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, deps, "task_store")
	assert.Contains(t, deps, "blob_store")
}

// slowStore answers reads like a task store whose backend stopped responding.
type slowStore struct {
	*repository.MemoryTaskRepository
}

func (slowStore) Get(ctx context.Context, id string) (*entities.Task, error) {
	return nil, fmt.Errorf("%w: %w", entities.ErrStoreUnavailable, context.DeadlineExceeded)
}

func TestGetStatusFailsFastWhenStoreIsDown(t *testing.T) {
	s := newTestServer(t, slowStore{repository.NewMemoryTaskRepository()}, pipeline(nil))

	start := time.Now()
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tasks/any", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, strings.Contains(rec.Body.String(), "detail"))
}
