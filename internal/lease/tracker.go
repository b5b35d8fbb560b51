// Package lease tracks per-session timing state across poll cycles.
package lease

import "time"

// Ages summarizes how long a session has been tracked and how long since
// it last showed activity or was last seen.
type Ages struct {
	// Idle is the time since the last observed activity evidence.
	Idle time.Duration
	// Renew is the time since the session last renewed its lease.
	Renew time.Duration
	// Session is the time since the session was first seen.
	Session time.Duration
}

// Tracker records first-seen and last-activity timestamps per session
// key. It is owned by a single goroutine; callers pass the current time
// explicitly.
type Tracker struct {
	firstSeen map[string]time.Time
	lastAct   map[string]time.Time
	lastRenew map[string]time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		firstSeen: make(map[string]time.Time),
		lastAct:   make(map[string]time.Time),
		lastRenew: make(map[string]time.Time),
	}
}

// Observe registers the keys visible in the current poll. New keys start
// all clocks at now; keys absent from the poll are forgotten entirely, so
// a session that disappears and later reappears starts over. It returns
// the ages for every visible key.
func (t *Tracker) Observe(keys map[string]struct{}, now time.Time) map[string]Ages {
	for k := range keys {
		if _, ok := t.firstSeen[k]; !ok {
			t.firstSeen[k] = now
			t.lastAct[k] = now
			t.lastRenew[k] = now
		}
	}
	for k := range t.firstSeen {
		if _, ok := keys[k]; !ok {
			delete(t.firstSeen, k)
			delete(t.lastAct, k)
			delete(t.lastRenew, k)
		}
	}

	out := make(map[string]Ages, len(keys))
	for k := range keys {
		out[k] = Ages{
			Idle:    now.Sub(t.lastAct[k]),
			Renew:   now.Sub(t.lastRenew[k]),
			Session: now.Sub(t.firstSeen[k]),
		}
	}
	return out
}

// MarkActive resets the idle and renew clocks for a tracked key. The
// session clock is never reset; the hard lease measures total lifetime
// regardless of activity. Unknown keys are ignored.
func (t *Tracker) MarkActive(key string, now time.Time) {
	if _, ok := t.firstSeen[key]; !ok {
		return
	}
	t.lastAct[key] = now
	t.lastRenew[key] = now
}

// Len returns the number of tracked keys.
func (t *Tracker) Len() int {
	return len(t.firstSeen)
}
