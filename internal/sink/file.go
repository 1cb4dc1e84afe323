package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go-jobboard-scraper/internal/extract"
	"go-jobboard-scraper/internal/scraper"
)

// utf8BOM lets spreadsheet apps detect UTF-8.
const utf8BOM = "\ufeff"

// CSVSink writes one row per record, header first.
type CSVSink struct {
	Path string
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(ctx context.Context, c scraper.Collection) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	header := c.Fields()
	err := writeAtomic(s.Path, func(w io.Writer) error {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return err
		}
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		row := make([]string, len(header))
		for _, rec := range c.Records() {
			for i, name := range header {
				v, ok := rec.Get(name)
				if !ok {
					v = extract.NotAvailable
				}
				row[i] = v
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return "", fmt.Errorf("write csv %s: %w", s.Path, err)
	}
	return fmt.Sprintf("%d rows -> %s", c.Len(), absPath(s.Path)), nil
}

// JSONSink writes the collection as an indented JSON array.
type JSONSink struct {
	Path string
}

func (s *JSONSink) Name() string { return "json" }

func (s *JSONSink) Write(ctx context.Context, c scraper.Collection) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	err := writeAtomic(s.Path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	})
	if err != nil {
		return "", fmt.Errorf("write json %s: %w", s.Path, err)
	}
	return fmt.Sprintf("%d records -> %s", c.Len(), absPath(s.Path)), nil
}

// ReadJSON loads a collection written by JSONSink.
func ReadJSON(path string) (scraper.Collection, error) {
	var c scraper.Collection
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	err = json.Unmarshal(data, &c)
	return c, err
}

// writeAtomic writes to a temp file next to path and renames it into place,
// so an interrupted run never leaves a truncated output file.
func writeAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
