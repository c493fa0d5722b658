package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Scheduler.Workers)
	assert.Equal(t, 100, cfg.Scheduler.QueueSize)
	assert.Equal(t, 2, cfg.Stage.MaxRetries)
	assert.Equal(t, 30*time.Minute, cfg.Stage.TranscriptionTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Stage.SummaryTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server.StoreTimeout)
	assert.EqualValues(t, 524288000, cfg.Upload.MaxFileSize)
	assert.Equal(t, []string{"mp3", "wav", "m4a", "flac", "ogg"}, cfg.Upload.SupportedFormats)
	assert.Equal(t, "deepseek-chat", cfg.DeepSeek.Model)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_WORKERS", "8")
	t.Setenv("STAGE_MAX_RETRIES", "0")
	t.Setenv("TRANSCRIPTION_TIMEOUT", "90s")
	t.Setenv("ALLOWED_AUDIO_FORMATS", "MP3, .wav")
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Scheduler.Workers)
	assert.Equal(t, 0, cfg.Stage.MaxRetries)
	assert.Equal(t, 90*time.Second, cfg.Stage.TranscriptionTimeout)
	assert.Equal(t, []string{"mp3", "wav"}, cfg.Upload.SupportedFormats)
	assert.True(t, cfg.Upload.IsSupportedFormat(".MP3"))
	assert.False(t, cfg.Upload.IsSupportedFormat("xyz"))
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"SCHEDULER_WORKERS":    "0",
		"SCHEDULER_QUEUE_SIZE": "0",
		"STAGE_MAX_RETRIES":    "-1",
		"DB_DRIVER":            "sqlite",
		"STORAGE_TYPE":         "s3",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
