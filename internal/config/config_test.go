package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumidecor/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("WEB_ADDR", "")
	t.Setenv("MAX_HISTORY_MESSAGES", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.GeminiAPIKey)
	assert.Equal(t, ":8080", cfg.WebAddr)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.GeminiImageModel)
	assert.Equal(t, 20, cfg.MaxHistoryMessages)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "  key-123 ")
	t.Setenv("MAX_HISTORY_MESSAGES", "0")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("SESSION_IDLE_MINUTES", "5")
	t.Setenv("METRICS_ADDR", ":9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "key-123", cfg.GeminiAPIKey)
	assert.Equal(t, 1, cfg.MaxHistoryMessages)
	assert.Equal(t, 240*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdle)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestRequireTelegram(t *testing.T) {
	assert.Error(t, config.Config{}.RequireTelegram())
	assert.NoError(t, config.Config{TelegramToken: "t"}.RequireTelegram())
}
