package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meetmemo/internal/adapter/presenter"
	taskuse "github.com/johnquangdev/meetmemo/internal/usecase/task"
)

// Health reports service liveness and dependency status
type Health struct {
	svc    taskuse.Service
	logger *zap.Logger
}

// NewHealth creates a new health handler
func NewHealth(svc taskuse.Service, logger *zap.Logger) *Health {
	return &Health{svc: svc, logger: logger}
}

// Check returns liveness
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  health.HealthResponse
// @Router       /health [get]
func (h *Health) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, presenter.ToHealthResponse(time.Now()))
}

// Detailed checks every dependency. A degraded service still answers 200.
// @Summary      Detailed health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  health.DetailedHealthResponse
// @Router       /health/detailed [get]
func (h *Health) Detailed(c echo.Context) error {
	report := h.svc.DetailedHealth(c.Request().Context())
	if h.logger != nil && report.Status != taskuse.HealthHealthy {
		h.logger.Warn("⚠️ Service degraded", zap.Any("components", report.Components))
	}
	return c.JSON(http.StatusOK, presenter.ToDetailedHealthResponse(report))
}
