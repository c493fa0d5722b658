package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		http int
		code ErrorCode
	}{
		{"too large", fmt.Errorf("upload: %w", entities.ErrFileTooLarge), http.StatusRequestEntityTooLarge, ErrorCode_UPLOAD_FILE_TOO_LARGE},
		{"format", entities.ErrUnsupportedFormat, http.StatusBadRequest, ErrorCode_UPLOAD_UNSUPPORTED_FORMAT},
		{"validation", entities.NewValidationError(stdErrors.New("bad")), http.StatusBadRequest, ErrorCode_INVALID_ARGUMENT},
		{"not found", fmt.Errorf("task x: %w", entities.ErrNotFound), http.StatusNotFound, ErrorCode_NOT_FOUND},
		{"terminal", entities.ErrAlreadyTerminal, http.StatusConflict, ErrorCode_TASK_ALREADY_TERMINAL},
		{"not completed", entities.ErrNotCompleted, http.StatusConflict, ErrorCode_TASK_NOT_COMPLETED},
		{"capacity", entities.ErrCapacityExceeded, http.StatusServiceUnavailable, ErrorCode_CAPACITY_EXCEEDED},
		{"store down", fmt.Errorf("%w: %w", entities.ErrStoreUnavailable, stdErrors.New("dial tcp")), http.StatusServiceUnavailable, ErrorCode_STORE_UNAVAILABLE},
		{"store slow", fmt.Errorf("%w: %w", entities.ErrStoreUnavailable, context.DeadlineExceeded), http.StatusGatewayTimeout, ErrorCode_TIMEOUT},
		{"unknown", stdErrors.New("boom"), http.StatusInternalServerError, ErrorCode_INTERNAL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomain(tt.err)
			assert.Equal(t, tt.http, appErr.HTTPCode)
			assert.Equal(t, tt.code, appErr.Code)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestFromDomainKeepsAppError(t *testing.T) {
	original := ErrTaskNotFound("abc")
	got := FromDomain(fmt.Errorf("wrapped: %w", original))
	assert.Equal(t, ErrorCode_TASK_NOT_FOUND, got.Code)
	assert.Equal(t, "abc", got.Details["task_id"])
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "CAPACITY_EXCEEDED", ErrorCode_CAPACITY_EXCEEDED.String())
	assert.Equal(t, "ErrorCode(9999)", ErrorCode(9999).String())
}

func TestFromDomainUsesConstructors(t *testing.T) {
	tooLarge := FromDomain(fmt.Errorf("%w: 2048 bytes exceeds the 1024 byte limit", entities.ErrFileTooLarge))
	assert.Equal(t, ErrFileTooLarge().Message, tooLarge.Message)
	assert.Contains(t, tooLarge.Raw.Error(), "1024 byte limit")

	assert.Equal(t, ErrUnsupportedFormat().Code, FromDomain(entities.ErrUnsupportedFormat).Code)
	assert.Equal(t, ErrTaskAlreadyTerminal().Message, FromDomain(entities.ErrAlreadyTerminal).Message)
	assert.Equal(t, ErrTaskNotCompleted().Message, FromDomain(entities.ErrNotCompleted).Message)
}
