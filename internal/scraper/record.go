package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value string
}

// Record is a flat job listing: field values in declaration order.
// A Record is never modified after it is built; accessors return copies.
type Record struct {
	fields []Field
}

func NewRecord(fields ...Field) Record {
	return Record{fields: append([]Field(nil), fields...)}
}

// Get returns the value of name and whether the record has that field.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Value returns the value of name, or "" if absent.
func (r Record) Value(name string) string {
	v, _ := r.Get(name)
	return v
}

func (r Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

func (r Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

func (r Record) Len() int {
	return len(r.fields)
}

// MarshalJSON writes an object whose keys keep declaration order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, f.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON reads a flat object of scalars, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("record: expected JSON object")
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: unexpected key %v", tok)
		}
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		var value string
		switch v := tok.(type) {
		case string:
			value = v
		case json.Number:
			value = v.String()
		case bool:
			value = fmt.Sprint(v)
		case nil:
		default:
			return fmt.Errorf("record: field %q is not a scalar", name)
		}
		fields = append(fields, Field{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	r.fields = fields
	return nil
}

// Collection holds records in discovery order. Duplicates are kept.
type Collection struct {
	records []Record
}

func NewCollection(records ...Record) Collection {
	return Collection{records: append([]Record(nil), records...)}
}

func (c *Collection) Append(records ...Record) {
	c.records = append(c.records, records...)
}

func (c Collection) Len() int {
	return len(c.records)
}

func (c Collection) Records() []Record {
	return append([]Record(nil), c.records...)
}

// Fields is the union of field names across records in first-seen order.
func (c Collection) Fields() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range c.records {
		for _, f := range r.fields {
			if !seen[f.Name] {
				seen[f.Name] = true
				names = append(names, f.Name)
			}
		}
	}
	return names
}

func (c Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range c.records {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := r.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (c *Collection) UnmarshalJSON(data []byte) error {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	c.records = records
	return nil
}
