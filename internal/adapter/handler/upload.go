package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meetmemo/errors"
	dto "github.com/johnquangdev/meetmemo/internal/adapter/dto/task"
	"github.com/johnquangdev/meetmemo/internal/adapter/presenter"
	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	taskuse "github.com/johnquangdev/meetmemo/internal/usecase/task"
)

// Upload handles audio uploads
type Upload struct {
	svc    taskuse.Service
	logger *zap.Logger
}

// NewUpload creates a new upload handler
func NewUpload(svc taskuse.Service, logger *zap.Logger) *Upload {
	return &Upload{svc: svc, logger: logger}
}

// UploadAudio accepts an audio file and starts processing it
// @Summary      Upload meeting audio
// @Description  Stores the audio file, creates a pending task and queues it for transcription and summarization
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        file           formData  file    true   "Audio file"
// @Param        meeting_title  formData  string  false  "Meeting title"
// @Param        language       formData  string  false  "Spoken language or auto"  default(auto)
// @Param        whisper_model  formData  string  false  "Transcription model tier"  Enums(base, large, turbo)  default(base)
// @Success      200  {object}  task.UploadResponse
// @Failure      400  {object}  map[string]interface{}  "Invalid file or form field"
// @Failure      413  {object}  map[string]interface{}  "File too large"
// @Failure      503  {object}  map[string]interface{}  "Too many tasks waiting"
// @Router       /upload/audio [post]
func (h *Upload) UploadAudio(c echo.Context) error {
	var req dto.UploadAudioRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	header, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrEmptyFile())
	}
	file, err := header.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrUploadFailed(err))
	}
	defer file.Close()

	out, err := h.svc.Submit(c.Request().Context(), taskuse.SubmitInput{
		FileName:     header.Filename,
		Size:         header.Size,
		Body:         file,
		MeetingTitle: req.MeetingTitle,
		Language:     req.Language,
		WhisperModel: req.WhisperModel,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return Respond(h.logger, c, http.StatusOK, presenter.ToUploadResponse(out))
}

// Formats lists accepted upload formats
// @Summary      Supported upload formats
// @Tags         Upload
// @Produce      json
// @Success      200  {object}  task.FormatsResponse
// @Router       /upload/formats [get]
func (h *Upload) Formats(c echo.Context) error {
	return Respond(h.logger, c, http.StatusOK, presenter.ToFormatsResponse(h.svc.Formats()))
}

// DeleteFile removes an uploaded file together with its task
// @Summary      Delete uploaded audio
// @Description  Removes the stored audio, the dependent task and its artifacts
// @Tags         Upload
// @Produce      json
// @Param        file_id  path      string  true  "File ID"
// @Success      200      {object}  task.DeleteResponse
// @Failure      404      {object}  map[string]interface{}  "File not found"
// @Router       /upload/audio/{file_id} [delete]
func (h *Upload) DeleteFile(c echo.Context) error {
	fileID := c.Param("file_id")
	if err := h.svc.DeleteFile(c.Request().Context(), fileID); err != nil {
		if stdErrors.Is(err, entities.ErrNotFound) {
			return HandleError(h.logger, c, errors.ErrNotFound("File").WithDetail("file_id", fileID))
		}
		return HandleError(h.logger, c, err)
	}
	return Respond(h.logger, c, http.StatusOK, &dto.DeleteResponse{
		Success: true,
		Message: "File deleted",
		ID:      fileID,
	})
}
