package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	_ "github.com/johnquangdev/meetmemo/docs"
	"github.com/johnquangdev/meetmemo/internal/adapter/handler"
	"github.com/johnquangdev/meetmemo/internal/adapter/repository"
	"github.com/johnquangdev/meetmemo/internal/domain/repositories"
	"github.com/johnquangdev/meetmemo/internal/infrastructure/cache"
	"github.com/johnquangdev/meetmemo/internal/infrastructure/database"
	"github.com/johnquangdev/meetmemo/internal/infrastructure/events"
	"github.com/johnquangdev/meetmemo/internal/infrastructure/storage"
	"github.com/johnquangdev/meetmemo/internal/infrastructure/telemetry"
	"github.com/johnquangdev/meetmemo/internal/usecase/scheduler"
	"github.com/johnquangdev/meetmemo/internal/usecase/stage"
	taskuse "github.com/johnquangdev/meetmemo/internal/usecase/task"
	pkgai "github.com/johnquangdev/meetmemo/pkg/ai"
	"github.com/johnquangdev/meetmemo/pkg/config"
	pkgvalidator "github.com/johnquangdev/meetmemo/pkg/validator"
)

// @title           MeetMemo API
// @version         1.0
// @description     Upload meeting recordings, follow their transcription and summary tasks, and fetch the results.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /api

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// Uploads larger than the limit are rejected before the body is read
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.Upload.MaxFileSize+(1<<20), 10)))

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")
	ctx := context.Background()

	var tasks repositories.TaskRepository
	switch cfg.Database.Driver {
	case "memory":
		log.Println("⚠️  Task store running in MEMORY mode (state is lost on restart)")
		tasks = repository.NewMemoryTaskRepository()
	default:
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)

		// Production deployments manage schema with cmd/migrate.
		if cfg.Database.AutoMigrate {
			if cfg.IsProduction() {
				log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or run cmd/migrate.")
			}
			if err := database.AutoMigrate(db); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
		tasks = repository.NewTaskRepository(db)
	}

	var blobs repositories.BlobRepository
	switch cfg.Storage.Type {
	case "memory":
		log.Println("⚠️  Blob store running in MEMORY mode")
		blobs = storage.NewMemoryBlobRepository()
	default:
		log.Println("🪣 Connecting to MinIO...")
		minioBlobs, err := storage.NewMinIOBlobRepository(ctx, &cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}
		blobs = minioBlobs
	}

	var (
		publisher  scheduler.EventPublisher = events.Nop{}
		subscriber handler.EventSubscriber
		checks     []taskuse.HealthCheck
	)
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		redisEvents := events.NewRedisPublisher(redisClient, cfg.Redis.EventsChannel)
		publisher = redisEvents
		subscriber = redisEvents
		checks = append(checks, taskuse.HealthCheck{Name: "redis", Check: redisEvents.Ping})
	}

	log.Println("📈 Initializing metrics...")
	meterProvider, err := telemetry.Setup(cfg.Telemetry)
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}
	defer meterProvider.Shutdown(context.Background())
	metrics, err := telemetry.NewMetrics(meterProvider)
	if err != nil {
		log.Fatalf("Failed to create instruments: %v", err)
	}

	// Initialize AI clients and stages
	log.Println("🤖 Initializing AI components...")
	asmClient := pkgai.NewAssemblyAIClient(&cfg.AssemblyAI, logger)
	deepSeekClient := pkgai.NewDeepSeekClient(&cfg.DeepSeek, logger)
	checks = append(checks,
		taskuse.HealthCheck{Name: "assemblyai_api", Check: configured("ASSEMBLYAI_API_KEY", asmClient.Configured)},
		taskuse.HealthCheck{Name: "deepseek_api", Check: configured("DEEPSEEK_API_KEY", deepSeekClient.Configured)},
	)

	stages := []stage.Stage{
		stage.NewTranscriber(asmClient, blobs, stage.TranscriptionPolicy(cfg.Stage), metrics, logger),
		stage.NewSummarizer(deepSeekClient, stage.SummaryPolicy(cfg.Stage), metrics, logger),
	}

	log.Println("👷 Initializing task scheduler...")
	sched := scheduler.NewScheduler(tasks, blobs, stages, cfg.Scheduler, logger,
		scheduler.WithPublisher(publisher),
		scheduler.WithMetrics(metrics),
		scheduler.WithStoreTimeout(cfg.Server.StoreTimeout),
	)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	taskService := taskuse.NewTaskService(tasks, blobs, sched, cfg, logger,
		taskuse.WithPublisher(publisher),
		taskuse.WithHealthChecks(checks...),
	)
	defer taskService.Close()

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg,
		handler.NewUpload(taskService, logger),
		handler.NewTask(taskService, subscriber, logger),
		handler.NewHealth(taskService, logger),
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/api/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Printf("⚠️  Scheduler stopped with running tasks left for recovery: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Server.Environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// configured turns an API key check into a health probe
func configured(name string, ok func() bool) func(context.Context) error {
	return func(context.Context) error {
		if !ok() {
			return fmt.Errorf("%s is not configured", name)
		}
		return nil
	}
}
