// Package reaper implements the poll loop that finds stale Live TV
// sessions and stops their transcodes.
package reaper

import (
	"context"
	"sync"
	"time"

	"frameworks/api_reaper/internal/config"
	"frameworks/api_reaper/internal/evidence"
	"frameworks/api_reaper/internal/lease"
	"frameworks/api_reaper/internal/plex"
	"frameworks/api_reaper/pkg/logging"
)

// Sessions is the slice of the media server API the reaper needs.
type Sessions interface {
	ListLiveSessions(ctx context.Context) ([]plex.SessionRow, error)
	StopTranscode(ctx context.Context, transcodeID string) (int, error)
}

// EventFeed is the activity signal produced by the event listener.
type EventFeed interface {
	LastQualifying() time.Time
	Wake() <-chan struct{}
}

// SessionStatus is a point-in-time view of one tracked session, exposed
// on the ops surface.
type SessionStatus struct {
	plex.SessionRow

	IdleFor       string `json:"idle_for"`
	RenewFor      string `json:"renew_for"`
	SessionFor    string `json:"session_for"`
	Active        bool   `json:"active"`
	ReadyReason   string `json:"ready_reason,omitempty"`
	StopAttempted bool   `json:"stop_attempted"`
}

// Snapshot is the last completed cycle's view of the world.
type Snapshot struct {
	CycleAt  time.Time       `json:"cycle_at"`
	Sessions []SessionStatus `json:"sessions"`
}

// Reaper runs the poll loop.
type Reaper struct {
	cfg      config.Config
	sessions Sessions
	source   evidence.Source
	events   EventFeed
	tracker  *lease.Tracker
	logger   logging.Logger
	metrics  *Metrics

	now func() time.Time

	// stopAttempted records keys we already tried to stop. Entries live
	// until the key leaves the poll, so a session gets one stop attempt
	// per appearance.
	stopAttempted map[string]bool

	snapMu   sync.RWMutex
	snapshot Snapshot
}

// New creates a reaper. source and events may be nil when the matching
// evidence channel is disabled.
func New(cfg config.Config, sessions Sessions, source evidence.Source, events EventFeed, logger logging.Logger, metrics *Metrics) *Reaper {
	return &Reaper{
		cfg:           cfg,
		sessions:      sessions,
		source:        source,
		events:        events,
		tracker:       lease.NewTracker(),
		logger:        logger,
		metrics:       metrics,
		now:           time.Now,
		stopAttempted: make(map[string]bool),
	}
}

// Run polls until the context is cancelled or the configured watch
// runtime elapses. Event-stream wakes trigger an early cycle but never
// replace the regular cadence.
func (r *Reaper) Run(ctx context.Context) {
	if r.cfg.WatchRuntime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, r.now().Add(r.cfg.WatchRuntime))
		defer cancel()
	}

	var wake <-chan struct{}
	if r.events != nil {
		wake = r.events.Wake()
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reaper loop stopped")
			return
		case <-timer.C:
		case <-wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		r.RunCycle(ctx)
		timer.Reset(r.cfg.PollInterval)
	}
}

// RunCycle performs one full poll cycle. Every failure inside a cycle is
// recoverable; the worst outcome is that nothing gets stopped this round.
func (r *Reaper) RunCycle(ctx context.Context) {
	now := r.now()

	rows, err := r.sessions.ListLiveSessions(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to list sessions, skipping cycle")
		r.metrics.Cycles.WithLabelValues("error").Inc()
		return
	}

	rows = r.matchRows(rows)

	keys := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		keys[row.Key()] = struct{}{}
	}

	ages := r.tracker.Observe(keys, now)
	for k := range r.stopAttempted {
		if _, ok := keys[k]; !ok {
			delete(r.stopAttempted, k)
		}
	}
	r.metrics.Tracked.WithLabelValues().Set(float64(r.tracker.Len()))

	logText := ""
	needLogs := r.cfg.IdleTimeout > 0 || r.cfg.RenewLease > 0
	if needLogs && r.source != nil {
		logText, err = r.source.FetchRecent(ctx, r.cfg.LogWindow())
		if err != nil {
			// Treated as "no evidence this cycle". Idle and renew clocks
			// keep running; the next successful fetch catches up.
			logText = ""
		}
	}

	eventsFresh := false
	if r.events != nil {
		last := r.events.LastQualifying()
		if !last.IsZero() && now.Sub(last) <= r.cfg.EventFreshness() {
			eventsFresh = true
		}
	}

	stoppedThisCycle := make(map[string]bool)
	statuses := make([]SessionStatus, 0, len(rows))

	for _, row := range rows {
		key := row.Key()
		age := ages[key]

		active := false
		if logText != "" && evidence.SessionActivity(row, logText) {
			active = true
			r.metrics.Evidence.WithLabelValues("log").Inc()
		}
		if !active && eventsFresh {
			active = true
			r.metrics.Evidence.WithLabelValues("events").Inc()
		}
		if active {
			r.tracker.MarkActive(key, now)
			age.Idle = 0
			age.Renew = 0
		}

		reason := r.readyReason(age)

		status := SessionStatus{
			SessionRow:    row,
			IdleFor:       age.Idle.Round(time.Second).String(),
			RenewFor:      age.Renew.Round(time.Second).String(),
			SessionFor:    age.Session.Round(time.Second).String(),
			Active:        active,
			ReadyReason:   reason,
			StopAttempted: r.stopAttempted[key],
		}

		r.logger.WithFields(logging.Fields{
			"title":       row.Title,
			"key":         key,
			"player":      row.PlayerAddr,
			"state":       row.State,
			"idle_for":    status.IdleFor,
			"session_for": status.SessionFor,
			"active":      active,
			"ready":       reason,
		}).Debug("Session observed")

		if reason != "" && !r.stopAttempted[key] {
			r.stopSession(ctx, row, reason, stoppedThisCycle)
			r.stopAttempted[key] = true
			status.StopAttempted = true
		}

		statuses = append(statuses, status)
	}

	r.publish(Snapshot{CycleAt: now, Sessions: statuses})
	r.metrics.Cycles.WithLabelValues("ok").Inc()
}

func (r *Reaper) matchRows(rows []plex.SessionRow) []plex.SessionRow {
	if r.cfg.MachineID == "" && r.cfg.PlayerIP == "" {
		return rows
	}
	var out []plex.SessionRow
	for _, row := range rows {
		if r.cfg.MachineID != "" && row.MachineID != r.cfg.MachineID {
			continue
		}
		if r.cfg.PlayerIP != "" && row.PlayerAddr != r.cfg.PlayerIP {
			continue
		}
		out = append(out, row)
	}
	return out
}

// readyReason returns why a session is eligible to be stopped, or empty.
// The hard lease ignores activity entirely.
func (r *Reaper) readyReason(age lease.Ages) string {
	if r.cfg.HardLease > 0 && age.Session >= r.cfg.HardLease {
		return "hard_lease"
	}
	if r.cfg.IdleTimeout > 0 && age.Idle >= r.cfg.IdleTimeout {
		return "idle"
	}
	if r.cfg.RenewLease > 0 && age.Renew >= r.cfg.RenewLease {
		return "renew_lease"
	}
	return ""
}

func (r *Reaper) stopSession(ctx context.Context, row plex.SessionRow, reason string, stoppedThisCycle map[string]bool) {
	fields := logging.Fields{
		"title":        row.Title,
		"key":          row.Key(),
		"transcode_id": row.TranscodeID,
		"player":       row.PlayerAddr,
		"reason":       reason,
	}

	if row.TranscodeID == "" {
		r.logger.WithFields(fields).Warn("Session ready but has no transcode to stop")
		r.metrics.Stops.WithLabelValues(reason, "skipped", "no_transcode").Inc()
		return
	}
	if stoppedThisCycle[row.TranscodeID] {
		// Multiple rows can share a transcode; stop it once per cycle.
		return
	}
	stoppedThisCycle[row.TranscodeID] = true

	if r.cfg.DryRun {
		r.logger.WithFields(fields).Info("Would stop session (dry run)")
		r.metrics.Stops.WithLabelValues(reason, "dry_run", "ok").Inc()
		return
	}

	code, err := r.sessions.StopTranscode(ctx, row.TranscodeID)
	if err != nil {
		r.logger.WithFields(fields).WithError(err).Warn("Failed to stop session")
		r.metrics.Stops.WithLabelValues(reason, "live", "error").Inc()
		return
	}

	fields["status_code"] = code
	r.logger.WithFields(fields).Info("Stopped stale session")
	r.metrics.Stops.WithLabelValues(reason, "live", "ok").Inc()
}

func (r *Reaper) publish(s Snapshot) {
	r.snapMu.Lock()
	r.snapshot = s
	r.snapMu.Unlock()
}

// Snapshot returns the last completed cycle's session view.
func (r *Reaper) Snapshot() Snapshot {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.snapshot
}
