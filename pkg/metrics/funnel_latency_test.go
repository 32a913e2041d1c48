package metrics

import (
	"testing"
	"time"
)

func TestTracker_Stats(t *testing.T) {
	tr := NewTracker(100)
	for i := 1; i <= 100; i++ {
		tr.Record(time.Duration(i)*time.Millisecond, i%10 == 0)
	}

	s := tr.Stats()
	if s.Calls != 100 || s.Errors != 10 || s.Samples != 100 {
		t.Errorf("counts = %+v", s)
	}
	if s.P50Ms != 50 {
		t.Errorf("P50Ms = %v, want 50", s.P50Ms)
	}
	if s.MaxMs != 100 {
		t.Errorf("MaxMs = %v, want 100", s.MaxMs)
	}
}

func TestTracker_WindowWraps(t *testing.T) {
	tr := NewTracker(3)
	for _, d := range []time.Duration{100, 1, 2, 3} {
		tr.Record(d*time.Millisecond, false)
	}

	s := tr.Stats()
	if s.Samples != 3 || s.Calls != 4 {
		t.Errorf("Samples = %d Calls = %d, want 3 and 4", s.Samples, s.Calls)
	}
	if s.MaxMs != 3 {
		t.Errorf("MaxMs = %v, want 3 after the oldest sample is evicted", s.MaxMs)
	}
}

func TestTracker_Empty(t *testing.T) {
	if s := NewTracker(10).Stats(); s != (Stats{}) {
		t.Errorf("Stats() = %+v, want zero", s)
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry(10)
	r.Record("upstream:sendfox", 5*time.Millisecond, false)
	r.Record("upstream:sendfox", 7*time.Millisecond, true)
	r.Record("GET /api/v1/contacts", time.Millisecond, false)

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len(snapshot) = %d, want 2", len(snap))
	}
	if got := snap["upstream:sendfox"]; got.Calls != 2 || got.Errors != 1 {
		t.Errorf("sendfox = %+v", got)
	}
}
