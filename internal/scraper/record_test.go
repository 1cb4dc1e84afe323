package scraper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_JSONKeepsOrder(t *testing.T) {
	rec := NewRecord(
		Field{Name: "job_title", Value: "Officer & Clerk <Grade-2>"},
		Field{Name: "job_url", Value: "https://bdgovtjob.net/a"},
		Field{Name: "vacancies", Value: "N/A"},
	)

	raw, err := rec.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"job_title":"Officer & Clerk <Grade-2>","job_url":"https://bdgovtjob.net/a","vacancies":"N/A"}`, string(raw))

	var back Record
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, rec.Fields(), back.Fields())
}

func TestRecord_UnmarshalScalars(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"z":"a","vacancies":12,"remote":true,"note":null}`), &rec))
	assert.Equal(t, []string{"z", "vacancies", "remote", "note"}, rec.Names())
	assert.Equal(t, "12", rec.Value("vacancies"))
	assert.Equal(t, "true", rec.Value("remote"))
	assert.Equal(t, "", rec.Value("note"))

	assert.Error(t, json.Unmarshal([]byte(`{"nested":{"a":1}}`), &rec))
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &rec))
}

func TestRecord_IsImmutable(t *testing.T) {
	fields := []Field{{Name: "position", Value: "Engineer"}}
	rec := NewRecord(fields...)
	fields[0].Value = "changed"
	got := rec.Fields()
	got[0].Value = "changed again"
	assert.Equal(t, "Engineer", rec.Value("position"))
}

func TestCollection(t *testing.T) {
	var c Collection
	assert.Equal(t, 0, c.Len())
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	c.Append(NewRecord(Field{"a", "1"}, Field{"b", "2"}))
	c.Append(NewRecord(Field{"a", "3"}, Field{"c", "4"}))
	c.Append(NewRecord(Field{"a", "1"}, Field{"b", "2"}))

	assert.Equal(t, 3, c.Len(), "duplicates are kept")
	assert.Equal(t, []string{"a", "b", "c"}, c.Fields())

	data, err = json.Marshal(c)
	require.NoError(t, err)
	var back Collection
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c.Records(), back.Records())
}
