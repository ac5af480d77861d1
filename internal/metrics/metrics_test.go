package metrics

import (
	"errors"
	"testing"
	"time"
)

// recBackend captures calls for assertions.
type recBackend struct {
	counters   map[string]float64
	histograms map[string][]float64
	labels     map[string]Labels
	flushed    int
}

func newRecBackend() *recBackend {
	return &recBackend{
		counters:   map[string]float64{},
		histograms: map[string][]float64{},
		labels:     map[string]Labels{},
	}
}

func (r *recBackend) IncCounter(name string, delta float64, labels Labels) {
	r.counters[name] += delta
	r.labels[name] = labels
}

func (r *recBackend) ObserveHistogram(name string, value float64, labels Labels) {
	r.histograms[name] = append(r.histograms[name], value)
}

func (r *recBackend) Flush() error {
	r.flushed++
	return nil
}

func withBackend(t *testing.T, b Backend) {
	t.Helper()
	prev := backend
	SetBackend(b)
	t.Cleanup(func() { backend = prev })
}

func TestRecordStep(t *testing.T) {
	r := newRecBackend()
	withBackend(t, r)

	RecordStep("sparkify", "write_songs", nil, 120*time.Millisecond)
	if r.counters["etl_step_total"] != 1 {
		t.Errorf("step counter = %v", r.counters["etl_step_total"])
	}
	if got := r.labels["etl_step_total"]["status"]; got != "success" {
		t.Errorf("status = %q", got)
	}
	if len(r.histograms["etl_step_duration_seconds"]) != 1 {
		t.Errorf("duration not observed")
	}

	RecordStep("sparkify", "write_songs", errors.New("boom"), time.Second)
	if got := r.labels["etl_step_total"]["status"]; got != "failure" {
		t.Errorf("status = %q, want failure", got)
	}
}

func TestRecordRowsIgnoresNonPositive(t *testing.T) {
	r := newRecBackend()
	withBackend(t, r)

	RecordRows("sparkify", "skipped", 0)
	RecordRows("sparkify", "skipped", -3)
	if r.counters["etl_records_total"] != 0 {
		t.Errorf("non-positive deltas must be ignored: %v", r.counters)
	}
	RecordRows("sparkify", "skipped", 7)
	if r.counters["etl_records_total"] != 7 {
		t.Errorf("counter = %v, want 7", r.counters["etl_records_total"])
	}
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	r := newRecBackend()
	withBackend(t, r)
	SetBackend(nil)
	RecordFiles("sparkify", "songs", 2)
	if r.counters["etl_files_total"] != 2 {
		t.Errorf("nil SetBackend must keep the installed backend")
	}
}

func TestFlushDelegates(t *testing.T) {
	r := newRecBackend()
	withBackend(t, r)
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if r.flushed != 1 {
		t.Errorf("flushed = %d", r.flushed)
	}
}
