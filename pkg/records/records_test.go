package records

import (
	"encoding/json"
	"testing"
)

func TestString(t *testing.T) {
	r := Record{"a": "x", "b": 1, "c": nil}
	if s, ok := r.String("a"); !ok || s != "x" {
		t.Fatalf("String(a) = %q, %v", s, ok)
	}
	if _, ok := r.String("b"); ok {
		t.Fatalf("String(b) should not be ok for non-string value")
	}
	if _, ok := r.String("c"); ok {
		t.Fatalf("String(c) should not be ok for nil value")
	}
	if _, ok := r.String("missing"); ok {
		t.Fatalf("String(missing) should not be ok")
	}
}

func TestFloat(t *testing.T) {
	r := Record{
		"num":   json.Number("200.5"),
		"f":     float64(3),
		"s":     "42.25",
		"empty": "",
		"junk":  "abc",
	}
	cases := []struct {
		key  string
		want float64
		ok   bool
	}{
		{"num", 200.5, true},
		{"f", 3, true},
		{"s", 42.25, true},
		{"empty", 0, false},
		{"junk", 0, false},
		{"missing", 0, false},
	}
	for _, c := range cases {
		got, ok := r.Float(c.key)
		if ok != c.ok || got != c.want {
			t.Errorf("Float(%s) = %v, %v; want %v, %v", c.key, got, ok, c.want, c.ok)
		}
	}
}

func TestInt64(t *testing.T) {
	r := Record{
		"n":     json.Number("1984"),
		"frac":  json.Number("19.84"),
		"s":     "10",
		"whole": float64(7),
		"half":  7.5,
	}
	cases := []struct {
		key  string
		want int64
		ok   bool
	}{
		{"n", 1984, true},
		{"frac", 0, false},
		{"s", 10, true},
		{"whole", 7, true},
		{"half", 0, false},
	}
	for _, c := range cases {
		got, ok := r.Int64(c.key)
		if ok != c.ok || got != c.want {
			t.Errorf("Int64(%s) = %v, %v; want %v, %v", c.key, got, ok, c.want, c.ok)
		}
	}
}

func TestHas(t *testing.T) {
	r := Record{"a": "x", "b": nil}
	if !r.Has("a") || r.Has("b") || r.Has("c") {
		t.Fatalf("Has: a=%v b=%v c=%v", r.Has("a"), r.Has("b"), r.Has("c"))
	}
}
