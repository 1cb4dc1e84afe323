package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, `
renderer: rod
run_once: true
govtjob:
  enabled: true
  base_url: https://example.com/jobs/
  max_pages: 5
  empty_pages: 2
  page_delay: 500ms
  next_controls: ["a.more"]
hotjobs:
  enabled: false
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "rod", cfg.Renderer)
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, "https://example.com/jobs/", cfg.GovtJob.BaseURL)
	assert.Equal(t, 5, cfg.GovtJob.MaxPages)
	assert.Equal(t, 2, cfg.GovtJob.EmptyPages)
	assert.Equal(t, 500*time.Millisecond, cfg.GovtJob.PageDelay)
	assert.Equal(t, []string{"a.more"}, cfg.GovtJob.NextControls)
	assert.Equal(t, "bdgovtjob_data.csv", cfg.GovtJob.CSVFile, "unset keys keep defaults")
	assert.False(t, cfg.HotJobs.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RENDERER", "static")
	t.Setenv("RUN_ONCE", "true")
	t.Setenv("SCRAPE_INTERVAL", "15m")
	t.Setenv("MAX_PAGES", "7")
	t.Setenv("API_URL", "http://localhost/api")
	t.Setenv("HOT_JOBS_API_URL", "http://localhost/hot")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(writeFile(t, "renderer: rod\n"))
	require.NoError(t, err)

	assert.Equal(t, "static", cfg.Renderer)
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, 15*time.Minute, cfg.Interval)
	assert.Equal(t, 7, cfg.GovtJob.MaxPages)
	assert.Equal(t, 1, cfg.HotJobs.MaxPages)
	assert.Equal(t, "http://localhost/api", cfg.GovtJob.APIURL)
	assert.Equal(t, "http://localhost/hot", cfg.HotJobs.APIURL)
	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.Equal(t, "postgres://localhost/jobs", cfg.DatabaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_BadEnv(t *testing.T) {
	tests := map[string]string{
		"MAX_PAGES":        "many",
		"SCRAPE_INTERVAL":  "hourly",
		"TELEGRAM_CHAT_ID": "chat",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			assert.ErrorContains(t, err, "invalid "+key)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "renderer: [oops"))
	assert.ErrorContains(t, err, "parse")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown renderer", func(c *Config) { c.Renderer = "selenium" }, "unknown renderer"},
		{"zero interval", func(c *Config) { c.Interval = 0 }, "interval"},
		{"zero interval run once", func(c *Config) { c.Interval = 0; c.RunOnce = true }, ""},
		{"no base url", func(c *Config) { c.GovtJob.BaseURL = "" }, "govtjob: base_url"},
		{"disabled source not checked", func(c *Config) { c.GovtJob.BaseURL = ""; c.GovtJob.Enabled = false }, ""},
		{"zero max pages", func(c *Config) { c.HotJobs.MaxPages = 0 }, "hotjobs: max_pages"},
		{"zero empty pages", func(c *Config) { c.GovtJob.EmptyPages = 0 }, "empty_pages"},
		{"token without chat", func(c *Config) { c.TelegramToken = "x" }, "telegram"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
