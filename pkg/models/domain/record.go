package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Record is an untyped upstream record as returned by the Alma API.
// Attributes may be absent, null or of an unexpected type; every accessor
// reports those three cases the same way.
type Record map[string]any

// DecodeRecord reads a single JSON object, keeping numbers as json.Number so
// amounts and quantities are never routed through float64.
func DecodeRecord(r io.Reader) (Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var record Record
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return record, nil
}

// MustDecodeRecord is DecodeRecord for literals known to be valid.
func MustDecodeRecord(raw string) Record {
	record, err := DecodeRecord(bytes.NewBufferString(raw))
	if err != nil {
		panic(err)
	}
	return record
}

func (r Record) String(key string) (string, bool) {
	v, ok := r[key].(string)
	return v, ok
}

// Number returns a numeric attribute. Strings are not treated as numbers.
func (r Record) Number(key string) (json.Number, bool) {
	switch v := r[key].(type) {
	case json.Number:
		return v, true
	case float64:
		return json.Number(strconv.FormatFloat(v, 'f', -1, 64)), true
	case int:
		return json.Number(strconv.Itoa(v)), true
	}
	return "", false
}

// Object returns a nested structure. The result is nil, and still safe to
// read from, when the attribute is absent or not an object.
func (r Record) Object(key string) Record {
	switch v := r[key].(type) {
	case map[string]any:
		return v
	case Record:
		return v
	}
	return nil
}

// Records returns a nested list of structures, with non-object items kept as
// nil entries so list positions are preserved. The second return value is
// false when the attribute is absent or not a list.
func (r Record) Records(key string) ([]Record, bool) {
	switch v := r[key].(type) {
	case []Record:
		return v, true
	case []any:
		records := make([]Record, 0, len(v))
		for _, item := range v {
			switch obj := item.(type) {
			case map[string]any:
				records = append(records, obj)
			case Record:
				records = append(records, obj)
			default:
				records = append(records, nil)
			}
		}
		return records, true
	}
	return nil, false
}
