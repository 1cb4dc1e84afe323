package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// HTMLSource is implemented by renderers that can dump the current DOM.
type HTMLSource interface {
	HTML() (string, error)
}

// Screenshotter is implemented by renderers that draw the page.
type Screenshotter interface {
	Screenshot(path string) error
}

// SnapshotDebugger saves the current page to disk so selector problems can
// be inspected after a run.
type SnapshotDebugger struct {
	outputDir string
	log       *zap.Logger
	now       func() time.Time
}

func NewSnapshotDebugger(dir string, log *zap.Logger) *SnapshotDebugger {
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotDebugger{outputDir: dir, log: log, now: time.Now}
}

// Capture writes <name>_<timestamp>.html and, when the renderer can draw,
// a matching .png. It returns the files written.
func (s *SnapshotDebugger) Capture(r Renderer, name string) ([]string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, err
	}
	base := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s", name, s.now().Format("2006-01-02_15-04-05")))

	var written []string
	var errs []error
	if src, ok := r.(HTMLSource); ok {
		html, err := src.HTML()
		if err == nil {
			err = os.WriteFile(base+".html", []byte(html), 0644)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("save html: %w", err))
		} else {
			written = append(written, base+".html")
		}
	}
	if shot, ok := r.(Screenshotter); ok {
		if err := shot.Screenshot(base + ".png"); err != nil {
			errs = append(errs, fmt.Errorf("save screenshot: %w", err))
		} else {
			written = append(written, base+".png")
		}
	}

	for _, f := range written {
		s.log.Info("📸 Snapshot saved", zap.String("file", f))
	}
	return written, errors.Join(errs...)
}
