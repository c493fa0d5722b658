package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meetmemo/errors"
	dto "github.com/johnquangdev/meetmemo/internal/adapter/dto/task"
	"github.com/johnquangdev/meetmemo/internal/adapter/presenter"
	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	taskuse "github.com/johnquangdev/meetmemo/internal/usecase/task"
)

const keepAliveInterval = 15 * time.Second

// EventSubscriber streams task events
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan entities.TaskEvent, error)
}

// Task handles task status, cancellation and results
type Task struct {
	svc    taskuse.Service
	events EventSubscriber
	logger *zap.Logger
}

// NewTask creates a new task handler. events may be nil, in which case the
// event stream is not served.
func NewTask(svc taskuse.Service, events EventSubscriber, logger *zap.Logger) *Task {
	return &Task{svc: svc, events: events, logger: logger}
}

// GetStatus returns the current state of a task
// @Summary      Get task status
// @Description  Point-in-time snapshot of a task; completed tasks include transcription and summary
// @Tags         Tasks
// @Produce      json
// @Param        task_id  path      string  true  "Task ID"
// @Success      200      {object}  task.TaskStatusResponse
// @Failure      404      {object}  map[string]interface{}  "Task not found"
// @Failure      503      {object}  map[string]interface{}  "Task store unavailable"
// @Failure      504      {object}  map[string]interface{}  "Task store timed out"
// @Router       /tasks/{task_id} [get]
func (h *Task) GetStatus(c echo.Context) error {
	taskID := c.Param("task_id")
	out, err := h.svc.GetStatus(c.Request().Context(), taskID)
	if err != nil {
		return HandleError(h.logger, c, taskError(err, taskID))
	}
	return Respond(h.logger, c, http.StatusOK, presenter.ToTaskStatusResponse(out))
}

// Cancel cancels a task
// @Summary      Cancel task
// @Description  Cancels a pending or processing task; finished tasks are reported unchanged
// @Tags         Tasks
// @Produce      json
// @Param        task_id  path      string  true  "Task ID"
// @Success      200      {object}  task.CancelResponse
// @Failure      404      {object}  map[string]interface{}  "Task not found"
// @Router       /tasks/{task_id} [delete]
func (h *Task) Cancel(c echo.Context) error {
	taskID := c.Param("task_id")
	out, err := h.svc.Cancel(c.Request().Context(), taskID)
	if err != nil {
		return HandleError(h.logger, c, taskError(err, taskID))
	}
	return Respond(h.logger, c, http.StatusOK, presenter.ToCancelResponse(out))
}

// DeleteResult removes a task with its audio and artifacts
// @Summary      Delete task result
// @Tags         Tasks
// @Produce      json
// @Param        task_id  path      string  true  "Task ID"
// @Success      200      {object}  task.DeleteResponse
// @Failure      404      {object}  map[string]interface{}  "Task not found"
// @Router       /tasks/{task_id}/result [delete]
func (h *Task) DeleteResult(c echo.Context) error {
	taskID := c.Param("task_id")
	if err := h.svc.DeleteResult(c.Request().Context(), taskID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return Respond(h.logger, c, http.StatusOK, &dto.DeleteResponse{
		Success: true,
		Message: "Task result deleted",
		ID:      taskID,
	})
}

// List returns pending and processing tasks
// @Summary      List active tasks
// @Tags         Tasks
// @Produce      json
// @Success      200  {object}  task.ActiveTasksResponse
// @Router       /tasks [get]
func (h *Task) List(c echo.Context) error {
	tasks, err := h.svc.ListActive(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return Respond(h.logger, c, http.StatusOK, presenter.ToActiveTasksResponse(tasks))
}

// Stats summarizes scheduler activity
// @Summary      Task statistics
// @Tags         Tasks
// @Produce      json
// @Success      200  {object}  task.StatsResponse
// @Router       /tasks/stats/summary [get]
func (h *Task) Stats(c echo.Context) error {
	out, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return Respond(h.logger, c, http.StatusOK, presenter.ToStatsResponse(out))
}

// Export renders meeting minutes of a completed task
// @Summary      Export meeting minutes
// @Tags         Tasks
// @Produce      text/markdown
// @Produce      text/plain
// @Param        task_id  path      string  true   "Task ID"
// @Param        format   query     string  false  "Output format"  Enums(md, txt)  default(md)
// @Success      200      {string}  string  "Meeting minutes"
// @Failure      404      {object}  map[string]interface{}  "Task not found"
// @Failure      409      {object}  map[string]interface{}  "Task has not completed"
// @Router       /tasks/{task_id}/export [get]
func (h *Task) Export(c echo.Context) error {
	var req dto.ExportRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	taskID := c.Param("task_id")
	out, err := h.svc.GetStatus(c.Request().Context(), taskID)
	if err != nil {
		return HandleError(h.logger, c, taskError(err, taskID))
	}
	if out.Result == nil {
		return HandleError(h.logger, c, errors.ErrTaskNotCompleted().
			WithDetail("task_id", taskID).
			WithDetail("status", string(out.Task.Status)))
	}

	body, err := presenter.RenderMinutes(req.Format, out.Task, out.Result)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrReportExportFailed(req.Format, err))
	}
	format := req.Format
	if format == "" {
		format = presenter.MinutesMarkdown
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s_minutes.%s"`, taskID, format))
	return c.Blob(http.StatusOK, presenter.MinutesContentType(format), body)
}

// Events streams task transitions as server-sent events until the task
// reaches a terminal state
// @Summary      Stream task events
// @Tags         Tasks
// @Produce      text/event-stream
// @Param        task_id  path  string  true  "Task ID"
// @Success      200  {string}  string  "Event stream"
// @Failure      404  {object}  map[string]interface{}  "Task not found"
// @Router       /tasks/{task_id}/events [get]
func (h *Task) Events(c echo.Context) error {
	taskID := c.Param("task_id")
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Subscribe before reading the snapshot so no transition is missed.
	events, err := h.events.Subscribe(ctx)
	if err != nil {
		return HandleError(h.logger, c, fmt.Errorf("%w: %v", entities.ErrStoreUnavailable, err))
	}
	out, err := h.svc.GetStatus(ctx, taskID)
	if err != nil {
		return HandleError(h.logger, c, taskError(err, taskID))
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, entities.NewTaskEvent(entities.EventSnapshot, out.Task)); err != nil {
		return nil
	}
	if out.Task.Status.IsTerminal() {
		return nil
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.TaskID != taskID {
				continue
			}
			if err := writeEvent(w, ev); err != nil {
				return nil
			}
			if ev.Status.IsTerminal() {
				return nil
			}
		}
	}
}

func writeEvent(w *echo.Response, ev entities.TaskEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
