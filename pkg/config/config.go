package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Upload     UploadConfig
	Scheduler  SchedulerConfig
	Stage      StageConfig
	AssemblyAI AssemblyAIConfig
	DeepSeek   DeepSeekConfig
	Telemetry  TelemetryConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000"`
	ShutdownTimeout int           `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	StoreTimeout    time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	CacheTTL        time.Duration `envconfig:"ARTIFACT_CACHE_TTL" default:"10m"`
}

// DatabaseConfig holds database configuration. Driver "memory" keeps tasks
// in process memory instead of PostgreSQL.
type DatabaseConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"postgres"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"meetmemo"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`

	// AutoMigrate applies migrations/ on startup. Refused in production.
	AutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled       bool   `envconfig:"REDIS_ENABLED" default:"true"`
	Host          string `envconfig:"REDIS_HOST" default:"localhost"`
	Port          string `envconfig:"REDIS_PORT" default:"6379"`
	Password      string `envconfig:"REDIS_PASSWORD"`
	DB            int    `envconfig:"REDIS_DB" default:"0"`
	EventsChannel string `envconfig:"REDIS_EVENTS_CHANNEL" default:"meetmemo:task-events"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type            string `envconfig:"STORAGE_TYPE" default:"minio"` // "minio" or "memory"
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"meetmemo"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// UploadConfig holds upload limits
type UploadConfig struct {
	MaxFileSize      int64    `envconfig:"MAX_FILE_SIZE" default:"524288000"`
	SupportedFormats []string `envconfig:"ALLOWED_AUDIO_FORMATS" default:"mp3,wav,m4a,flac,ogg"`
}

// SchedulerConfig holds worker pool settings
type SchedulerConfig struct {
	Workers        int  `envconfig:"SCHEDULER_WORKERS" default:"3"`
	QueueSize      int  `envconfig:"SCHEDULER_QUEUE_SIZE" default:"100"`
	RecoverOnStart bool `envconfig:"SCHEDULER_RECOVER_ON_START" default:"true"`
}

// StageConfig holds per-stage retry and timeout settings
type StageConfig struct {
	MaxRetries           int           `envconfig:"STAGE_MAX_RETRIES" default:"2"`
	TranscriptionTimeout time.Duration `envconfig:"TRANSCRIPTION_TIMEOUT" default:"30m"`
	SummaryTimeout       time.Duration `envconfig:"SUMMARY_TIMEOUT" default:"5m"`
	BackoffInitial       time.Duration `envconfig:"STAGE_BACKOFF_INITIAL" default:"2s"`
	BackoffMax           time.Duration `envconfig:"STAGE_BACKOFF_MAX" default:"30s"`
}

// AssemblyAIConfig holds transcription engine settings
type AssemblyAIConfig struct {
	APIKey       string        `envconfig:"ASSEMBLYAI_API_KEY"`
	PollInterval time.Duration `envconfig:"ASSEMBLYAI_POLL_INTERVAL" default:"3s"`
}

// DeepSeekConfig holds summary engine settings
type DeepSeekConfig struct {
	APIKey      string  `envconfig:"DEEPSEEK_API_KEY"`
	BaseURL     string  `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com/v1"`
	Model       string  `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
	MaxTokens   int     `envconfig:"DEEPSEEK_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"DEEPSEEK_TEMPERATURE" default:"0.3"`
	TopP        float32 `envconfig:"DEEPSEEK_TOP_P" default:"0.9"`
}

// TelemetryConfig holds metrics settings
type TelemetryConfig struct {
	StdoutMetrics  bool          `envconfig:"METRICS_STDOUT" default:"false"`
	ExportInterval time.Duration `envconfig:"METRICS_EXPORT_INTERVAL" default:"60s"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{}
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	config.Upload.SupportedFormats = normalizeFormats(config.Upload.SupportedFormats)

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Scheduler.Workers < 1 {
		return fmt.Errorf("SCHEDULER_WORKERS must be at least 1")
	}
	if c.Scheduler.QueueSize < 1 {
		return fmt.Errorf("SCHEDULER_QUEUE_SIZE must be at least 1")
	}
	if c.Stage.MaxRetries < 0 {
		return fmt.Errorf("STAGE_MAX_RETRIES must not be negative")
	}
	if c.Stage.TranscriptionTimeout <= 0 || c.Stage.SummaryTimeout <= 0 {
		return fmt.Errorf("stage timeouts must be positive")
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	if len(c.Upload.SupportedFormats) == 0 {
		return fmt.Errorf("ALLOWED_AUDIO_FORMATS must not be empty")
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or memory, got %q", c.Database.Driver)
	}
	switch c.Storage.Type {
	case "minio", "memory":
	default:
		return fmt.Errorf("STORAGE_TYPE must be minio or memory, got %q", c.Storage.Type)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsSupportedFormat reports whether ext (without dot) is an accepted upload format
func (u UploadConfig) IsSupportedFormat(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, f := range u.SupportedFormats {
		if f == ext {
			return true
		}
	}
	return false
}

func normalizeFormats(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
