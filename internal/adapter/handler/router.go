package handler

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/johnquangdev/meetmemo/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg           *config.Config
	uploadHandler *Upload
	taskHandler   *Task
	healthHandler *Health
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, uploadHandler *Upload, taskHandler *Task, healthHandler *Health) *Router {
	return &Router{
		cfg:           cfg,
		uploadHandler: uploadHandler,
		taskHandler:   taskHandler,
		healthHandler: healthHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	if rt.cfg == nil || !rt.cfg.IsProduction() {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	api := e.Group("/api")

	rt.setupHealthRoutes(api)
	rt.setupUploadRoutes(api)
	rt.setupTaskRoutes(api)
}

// setupHealthRoutes configures liveness and dependency checks
func (rt *Router) setupHealthRoutes(g *echo.Group) {
	g.GET("/health", rt.healthHandler.Check)
	g.GET("/health/detailed", rt.healthHandler.Detailed)
}

// setupUploadRoutes configures audio upload routes
func (rt *Router) setupUploadRoutes(g *echo.Group) {
	uploadGroup := g.Group("/upload")
	uploadGroup.POST("/audio", rt.uploadHandler.UploadAudio)
	uploadGroup.DELETE("/audio/:file_id", rt.uploadHandler.DeleteFile)
	uploadGroup.GET("/formats", rt.uploadHandler.Formats)
}

// setupTaskRoutes configures task status routes
func (rt *Router) setupTaskRoutes(g *echo.Group) {
	taskGroup := g.Group("/tasks")
	taskGroup.GET("", rt.taskHandler.List)
	taskGroup.GET("/stats/summary", rt.taskHandler.Stats)
	taskGroup.GET("/:task_id", rt.taskHandler.GetStatus)
	taskGroup.DELETE("/:task_id", rt.taskHandler.Cancel)
	taskGroup.DELETE("/:task_id/result", rt.taskHandler.DeleteResult)
	taskGroup.GET("/:task_id/export", rt.taskHandler.Export)
	if rt.taskHandler.events != nil {
		taskGroup.GET("/:task_id/events", rt.taskHandler.Events)
	}
}
