package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawingRenderer struct {
	*StaticRenderer
	shotErr error
}

func (r drawingRenderer) Screenshot(path string) error {
	if r.shotErr != nil {
		return r.shotErr
	}
	return os.WriteFile(path, []byte("png"), 0644)
}

func fixedSnapshots(dir string) *SnapshotDebugger {
	s := NewSnapshotDebugger(dir, nil)
	s.now = func() time.Time { return time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestSnapshotDebugger_SavesHTML(t *testing.T) {
	srv := newFixtureServer(t)
	r := NewStaticRenderer(Options{})
	require.NoError(t, r.Load(context.Background(), srv.URL+"/"))

	dir := filepath.Join(t.TempDir(), "snaps")
	files, err := fixedSnapshots(dir).Capture(r, "govtjob_page1")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "govtjob_page1_2025-03-12_09-30-00.html")}, files)

	html, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(html), "First   job")
}

func TestSnapshotDebugger_ScreenshotWhenSupported(t *testing.T) {
	srv := newFixtureServer(t)
	static := NewStaticRenderer(Options{})
	require.NoError(t, static.Load(context.Background(), srv.URL+"/"))

	files, err := fixedSnapshots(t.TempDir()).Capture(drawingRenderer{StaticRenderer: static}, "p")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = fixedSnapshots(t.TempDir()).Capture(drawingRenderer{StaticRenderer: static, shotErr: errors.New("no display")}, "p")
	assert.ErrorContains(t, err, "save screenshot: no display")
	assert.Len(t, files, 1, "html is still saved")
}

func TestSnapshotDebugger_NothingLoaded(t *testing.T) {
	_, err := fixedSnapshots(t.TempDir()).Capture(NewStaticRenderer(Options{}), "p")
	assert.ErrorContains(t, err, "no page loaded")
}
