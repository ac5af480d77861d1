// Package json implements an NDJSON parser that turns JSON objects into
// records.Record maps.
//
// It is deliberately simple and conservative:
//
//   - Supports newline-delimited JSON objects:
//     {"song_id":"S1","title":"a"}
//     {"song_id":"S2","title":"b"}
//   - Also supports multiple JSON objects in a stream (same as NDJSON).
//   - Non-object top-level values are skipped rather than failing the
//     whole stream; a decode error is surfaced per line so the caller
//     can decide between skip and abort.
//
// This matches the shape of both input datasets: one JSON object per line,
// several objects per file.
package json

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sparkifyetl/pkg/records"
)

// Decoder wraps encoding/json.Decoder to provide a record-oriented API
// suitable for stream-based loading.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder constructs a Decoder from an io.Reader.
func NewDecoder(r io.Reader) *Decoder {
	d := json.NewDecoder(r)
	// UseNumber so the schema layer decides how to map numeric values.
	d.UseNumber()
	return &Decoder{dec: d}
}

// Next reads the next JSON object and converts it into a records.Record.
// Non-object top-level values (arrays, primitives) are skipped.
// EOF is returned when the stream is exhausted.
func (d *Decoder) Next() (records.Record, error) {
	for {
		var raw any
		if err := d.dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("json parser: decode: %w", err)
		}
		if m, ok := raw.(map[string]any); ok {
			return records.Record(m), nil
		}
	}
}

// Lines reads r line by line, decoding each non-empty line as one JSON
// object. Malformed lines are reported to onErr with their 1-based line
// number and do not stop the scan; when onErr returns false the scan
// aborts with the offending error.
//
// This is the lenient path used by the loaders: one corrupt line must not
// discard the rest of the file, but a strict caller can opt out.
func Lines(r io.Reader, onErr func(line int, err error) bool, emit func(line int, rec records.Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		rec, err := decodeObject(raw)
		if err == nil && rec == nil {
			// Valid JSON but not an object; treat like a malformed line.
			err = fmt.Errorf("json parser: line is not an object")
		}
		if err != nil {
			if onErr != nil && onErr(line, err) {
				continue
			}
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := emit(line, rec); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("json parser: scan: %w", err)
	}
	return nil
}

func decodeObject(s string) (records.Record, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("json parser: decode: %w", err)
	}
	if m, ok := raw.(map[string]any); ok {
		return records.Record(m), nil
	}
	return nil, nil
}

// DecodeAll is a helper for non-streaming use (tests, small inputs). It
// reads all objects from r and returns them as a slice of records.Record.
func DecodeAll(r io.Reader) ([]records.Record, error) {
	d := NewDecoder(r)
	var out []records.Record
	for {
		rec, err := d.Next()
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		out = append(out, rec)
	}
}
