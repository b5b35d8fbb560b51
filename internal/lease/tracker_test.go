package lease

import (
	"testing"
	"time"
)

func keys(ks ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ks))
	for _, k := range ks {
		m[k] = struct{}{}
	}
	return m
}

func TestObserveNewKeyStartsAllClocks(t *testing.T) {
	tr := NewTracker()
	t0 := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	ages := tr.Observe(keys("a"), t0)
	a := ages["a"]
	if a.Idle != 0 || a.Renew != 0 || a.Session != 0 {
		t.Fatalf("new key should have zero ages, got %+v", a)
	}
}

func TestIdleGrowsWithoutActivity(t *testing.T) {
	tr := NewTracker()
	t0 := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	tr.Observe(keys("a"), t0)
	ages := tr.Observe(keys("a"), t0.Add(30*time.Second))

	a := ages["a"]
	if a.Idle != 30*time.Second {
		t.Errorf("Idle = %s, want 30s", a.Idle)
	}
	if a.Renew != 30*time.Second {
		t.Errorf("Renew = %s, want 30s", a.Renew)
	}
	if a.Session != 30*time.Second {
		t.Errorf("Session = %s, want 30s", a.Session)
	}
}

func TestMarkActiveResetsIdleAndRenewNotSession(t *testing.T) {
	tr := NewTracker()
	t0 := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	tr.Observe(keys("a"), t0)
	tr.MarkActive("a", t0.Add(40*time.Second))
	ages := tr.Observe(keys("a"), t0.Add(time.Minute))

	a := ages["a"]
	if a.Idle != 20*time.Second {
		t.Errorf("Idle = %s, want 20s", a.Idle)
	}
	if a.Renew != 20*time.Second {
		t.Errorf("Renew = %s, want 20s", a.Renew)
	}
	if a.Session != time.Minute {
		t.Errorf("Session = %s, want 1m", a.Session)
	}
}

func TestMarkActiveUnknownKeyIsNoOp(t *testing.T) {
	tr := NewTracker()
	tr.MarkActive("ghost", time.Now())
	if tr.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tr.Len())
	}
}

func TestAbsentKeysArePruned(t *testing.T) {
	tr := NewTracker()
	t0 := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	tr.Observe(keys("a", "b"), t0)
	tr.Observe(keys("b"), t0.Add(10*time.Second))
	if tr.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after prune", tr.Len())
	}

	// A pruned key that reappears starts over.
	ages := tr.Observe(keys("a", "b"), t0.Add(time.Minute))
	if ages["a"].Session != 0 {
		t.Errorf("reappeared key Session = %s, want 0", ages["a"].Session)
	}
	if ages["b"].Session != time.Minute {
		t.Errorf("retained key Session = %s, want 1m", ages["b"].Session)
	}
}
