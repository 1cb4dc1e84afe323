package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go-jobboard-scraper/internal/browser"
	"go-jobboard-scraper/internal/extract"

	"go.uber.org/zap"
)

// TimestampLayout formats the capture time stamped on every record.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrSkip marks a section that produced no record. It is not a failure.
var ErrSkip = errors.New("section skipped")

// FieldSpec declares one record field.
type FieldSpec struct {
	Name string
	Rule extract.Rule
	// Critical fields must resolve or the whole record is skipped.
	Critical bool
	// URL values are resolved against the page address.
	URL bool
}

// Schema maps a section element to records.
type Schema struct {
	Fields []FieldSpec
	// ItemSelector splits a section into several records. Fields are then
	// read once per section and shared; ItemFields are read per item.
	ItemSelector   string
	ItemFields     []FieldSpec
	TimestampField string
}

// Section is a section element plus where it was found.
type Section struct {
	Element browser.Element
	Page    int
	Index   int
	Total   int
	PageURL string
}

type Builder struct {
	schema Schema
	now    func() time.Time
	log    *zap.Logger
}

func NewBuilder(schema Schema, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{schema: schema, now: time.Now, log: log}
}

// WithClock replaces the capture clock, for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build turns a section into exactly one record, or ErrSkip when a critical
// field is missing.
func (b *Builder) Build(s Section) (Record, error) {
	fields := make([]Field, 0, len(b.schema.Fields)+len(b.schema.ItemFields)+1)
	fields, err := b.appendFields(fields, s.Element, b.schema.Fields, s.PageURL)
	if err == nil {
		fields, err = b.appendFields(fields, s.Element, b.schema.ItemFields, s.PageURL)
	}
	if err != nil {
		b.log.Info(fmt.Sprintf("  ⚠ [%d/%d] Skipped", s.Index, s.Total), zap.Int("page", s.Page), zap.Error(err))
		return Record{}, err
	}
	rec := b.stamp(fields)
	b.logBuilt(s, rec)
	return rec, nil
}

// BuildAll returns one record per item of the section. Items missing a
// critical field are skipped individually; ErrSkip is returned only when
// the section yields nothing.
func (b *Builder) BuildAll(s Section) ([]Record, error) {
	if b.schema.ItemSelector == "" {
		rec, err := b.Build(s)
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	}

	shared, err := b.appendFields(nil, s.Element, b.schema.Fields, s.PageURL)
	if err != nil {
		b.log.Info(fmt.Sprintf("  ⚠ [%d/%d] Skipped", s.Index, s.Total), zap.Int("page", s.Page), zap.Error(err))
		return nil, err
	}

	items, err := s.Element.FindAll(b.schema.ItemSelector)
	if err != nil || len(items) == 0 {
		b.log.Info(fmt.Sprintf("  ⚠ [%d/%d] Skipped - no items", s.Index, s.Total), zap.Int("page", s.Page))
		return nil, fmt.Errorf("%w: no %q items", ErrSkip, b.schema.ItemSelector)
	}

	var records []Record
	for _, item := range items {
		fields := append(make([]Field, 0, len(shared)+len(b.schema.ItemFields)+1), shared...)
		fields, err := b.appendFields(fields, item, b.schema.ItemFields, s.PageURL)
		if err != nil {
			b.log.Debug("item skipped", zap.Int("page", s.Page), zap.Int("section", s.Index), zap.Error(err))
			continue
		}
		rec := b.stamp(fields)
		b.logBuilt(s, rec)
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: every item missing critical fields", ErrSkip)
	}
	return records, nil
}

func (b *Builder) appendFields(dst []Field, el browser.Element, specs []FieldSpec, pageURL string) ([]Field, error) {
	var missing []string
	for _, spec := range specs {
		v := extract.Extract(el, spec.Rule)
		if spec.URL && !extract.IsMissing(v) {
			v = resolveURL(pageURL, v)
		}
		if spec.Critical && extract.IsMissing(v) {
			missing = append(missing, spec.Name)
		}
		dst = append(dst, Field{Name: spec.Name, Value: v})
	}
	if len(missing) > 0 {
		return dst, fmt.Errorf("%w: missing %s", ErrSkip, strings.Join(missing, ", "))
	}
	return dst, nil
}

func (b *Builder) stamp(fields []Field) Record {
	if b.schema.TimestampField != "" {
		fields = append(fields, Field{Name: b.schema.TimestampField, Value: b.now().Format(TimestampLayout)})
	}
	return Record{fields: fields}
}

func (b *Builder) logBuilt(s Section, rec Record) {
	summary := make([]string, 0, rec.Len())
	for _, f := range rec.fields {
		if f.Name == b.schema.TimestampField {
			continue
		}
		summary = append(summary, truncate(f.Value, 40))
	}
	b.log.Info(fmt.Sprintf("  ✓ [%d/%d] %s", s.Index, s.Total, strings.Join(summary, " | ")), zap.Int("page", s.Page))
}

func resolveURL(base, ref string) string {
	if base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := b.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
