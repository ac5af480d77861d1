// Package records defines the loosely-typed record shape exchanged between
// parsers and the typed schema layer.
//
// A Record is a plain map decoded from one JSON object. Parsers decode with
// json.Decoder.UseNumber, so numeric values arrive as json.Number; the typed
// accessors here absorb that so callers never switch on the concrete type.
package records

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one parsed input record, keyed by source field name.
type Record map[string]any

// String returns the string value for key. Missing keys and nil values
// report ok=false; non-string scalars are not stringified.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float returns the float64 value for key, accepting json.Number, float64,
// int variants, and numeric strings.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// Int64 returns the int64 value for key. json.Number values that carry a
// fractional part do not qualify; numeric strings are accepted because the
// event logs serialize some identifiers as strings.
func (r Record) Int64(key string) (int64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		i, err := strconv.ParseInt(s, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// Int is Int64 narrowed to int.
func (r Record) Int(key string) (int, bool) {
	i, ok := r.Int64(key)
	return int(i), ok
}

// Has reports whether key is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}
