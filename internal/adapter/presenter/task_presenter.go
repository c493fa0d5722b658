package presenter

import (
	dto "github.com/johnquangdev/meetmemo/internal/adapter/dto/task"
	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	taskuse "github.com/johnquangdev/meetmemo/internal/usecase/task"
)

var statusMessages = map[entities.TaskStatus]string{
	entities.TaskStatusPending:    "Task is waiting to be processed",
	entities.TaskStatusProcessing: "Task is being processed",
	entities.TaskStatusCompleted:  "Task completed",
	entities.TaskStatusFailed:     "Task failed",
	entities.TaskStatusCancelled:  "Task cancelled",
}

var stepLabels = map[int]string{
	entities.StepUploaded:     "Uploaded, waiting in queue",
	entities.StepTranscribing: "Transcribing audio",
	entities.StepSummarizing:  "Generating summary",
	entities.StepDone:         "Saving results",
}

// totalSteps counts the display steps after upload
const totalSteps = entities.StepDone

// ToUploadResponse converts an accepted upload to the client response
func ToUploadResponse(out *taskuse.SubmitOutput) *dto.UploadResponse {
	return &dto.UploadResponse{
		Success: true,
		Message: "File uploaded, processing started",
		TaskID:  out.TaskID,
		FileInfo: dto.UploadFileInfo{
			FileID:           out.FileInfo.FileID,
			OriginalFilename: out.FileInfo.OriginalName,
			FileSize:         out.FileInfo.FileSize,
			MeetingTitle:     out.MeetingTitle,
			Language:         out.Language,
			WhisperModel:     string(out.WhisperModel),
			UploadTime:       out.UploadTime,
		},
	}
}

// ToTaskStatusResponse converts a task snapshot to the polling response.
// Step labels derive from status and stage only.
func ToTaskStatusResponse(out *taskuse.StatusOutput) *dto.TaskStatusResponse {
	t := out.Task
	step := entities.DisplayStep(t.Status, t.CurrentStage, t.Progress)

	resp := &dto.TaskStatusResponse{
		TaskID:          t.ID,
		Status:          string(t.Status),
		Message:         statusMessages[t.Status],
		Progress:        t.Progress,
		CurrentStage:    string(t.CurrentStage),
		StepIndex:       step,
		TotalSteps:      totalSteps,
		CancelRequested: t.CancelRequested && !t.Status.IsTerminal(),
		StartedAt:       t.StartedAt,
		CompletedAt:     t.CompletedAt,
	}
	created := t.CreatedAt
	resp.CreatedAt = &created

	switch t.Status {
	case entities.TaskStatusPending, entities.TaskStatusProcessing:
		resp.CurrentStep = stepLabels[step]
		if resp.CancelRequested {
			resp.Message = "Cancellation requested"
		}
	case entities.TaskStatusFailed:
		if t.Error != nil {
			resp.Error = t.Error.Message
			resp.ErrorKind = string(t.Error.Kind)
		}
	}

	if r := out.Result; r != nil {
		resp.Result = &dto.ResultResponse{
			Success:               true,
			FileID:                r.FileID,
			Transcription:         r.Transcription,
			Summary:               r.Summary,
			FileInfo:              r.FileInfo,
			ProcessingCompletedAt: r.ProcessingCompletedAt,
		}
	}
	return resp
}

// ToCancelResponse converts a cancel outcome
func ToCancelResponse(out *taskuse.CancelOutput) *dto.CancelResponse {
	t := out.Task
	resp := &dto.CancelResponse{
		TaskID: t.ID,
		Status: string(t.Status),
	}
	switch {
	case out.AlreadyTerminal:
		resp.Message = "Task can no longer be cancelled, current status: " + string(t.Status)
	case t.Status == entities.TaskStatusCancelled:
		resp.Message = "Task cancelled"
	default:
		resp.Message = "Cancellation requested, the task stops at the next checkpoint"
	}
	return resp
}

// ToActiveTasksResponse converts the active task list
func ToActiveTasksResponse(tasks []taskuse.ActiveTask) *dto.ActiveTasksResponse {
	items := make([]dto.ActiveTaskResponse, 0, len(tasks))
	for _, a := range tasks {
		item := dto.ActiveTaskResponse{
			TaskID:       a.Task.ID,
			Status:       string(a.Task.Status),
			CurrentStage: string(a.Task.CurrentStage),
			Progress:     a.Task.Progress,
			MeetingTitle: a.Task.Settings().MeetingTitle,
			CreatedAt:    a.Task.CreatedAt,
			TimeStart:    a.Task.StartedAt,
		}
		if a.WorkerID >= 0 {
			worker := a.WorkerID
			item.Worker = &worker
		}
		items = append(items, item)
	}
	return &dto.ActiveTasksResponse{ActiveTasks: items, TotalCount: len(items)}
}

// ToStatsResponse flattens scheduler and store counters
func ToStatsResponse(out *taskuse.StatsOutput) *dto.StatsResponse {
	byStatus := make(map[string]int64, len(out.ByStatus))
	for status, n := range out.ByStatus {
		byStatus[string(status)] = n
	}
	return &dto.StatsResponse{
		Timestamp:      out.Timestamp,
		ActiveTasks:    out.ActiveTasks,
		QueuedTasks:    out.QueuedTasks,
		TotalPending:   out.TotalPending,
		Workers:        out.Scheduler.Workers,
		BusyWorkers:    out.Scheduler.BusyWorkers,
		QueueCapacity:  out.Scheduler.QueueCapacity,
		TasksProcessed: out.Scheduler.Processed,
		TasksSucceeded: out.Scheduler.Succeeded,
		TasksFailed:    out.Scheduler.Failed,
		TasksCancelled: out.Scheduler.Cancelled,
		ByStatus:       byStatus,
	}
}

// ToFormatsResponse converts the upload limits
func ToFormatsResponse(out taskuse.FormatsOutput) *dto.FormatsResponse {
	return &dto.FormatsResponse{
		SupportedFormats: out.SupportedFormats,
		MaxFileSize:      out.MaxFileSize,
		MaxFileSizeMB:    out.MaxFileSizeMB,
	}
}
