package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-jobboard-scraper/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFlagsOverrideConfig(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--once", "--renderer", "static", "--max-pages", "2", "--interval", "5m"}))

	cfg := config.Default()
	var f runFlags
	f.once, _ = cmd.Flags().GetBool("once")
	f.renderer, _ = cmd.Flags().GetString("renderer")
	f.maxPages, _ = cmd.Flags().GetInt("max-pages")
	f.interval, _ = cmd.Flags().GetDuration("interval")

	require.NoError(t, f.apply(cmd, cfg))
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, "static", cfg.Renderer)
	assert.Equal(t, 2, cfg.HotJobs.MaxPages)
	assert.Equal(t, 2, cfg.GovtJob.MaxPages)
	assert.Equal(t, 5*time.Minute, cfg.Interval)
}

func TestRunFlagsRejectUnknownRenderer(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--renderer", "selenium"}))

	err := runFlags{renderer: "selenium"}.apply(cmd, config.Default())
	assert.ErrorContains(t, err, `unknown renderer "selenium"`)
}

func TestRootCmdHasRun(t *testing.T) {
	root := newRootCmd()
	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, "run", run.Name())
	assert.Error(t, run.Args(run, []string{"a", "b", "c"}))
}

func TestProbeCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
<article class="post"><h2>Bank   Job</h2></article>
<article class="post"><h2>Police Job</h2></article>
</body></html>`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"probe", srv.URL, "--renderer", "static", "--config", filepath.Join(dir, "none.yaml"), "--snapshot-dir", dir})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), `2 elements match "article.post"`)
	assert.Contains(t, out.String(), "[1] Bank Job")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "html snapshot")
}

func TestConfigCmdMasksSecrets(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123456:ABCDEF")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "--config", filepath.Join(t.TempDir(), "none.yaml")})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "telegram_token: 123456***")
	assert.NotContains(t, out.String(), "ABCDEF")
	assert.Contains(t, out.String(), "interval: 1h0m0s")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "***", mask("abc"))
	assert.Equal(t, "postgr***", mask("postgres://u:p@h/db"))
}
