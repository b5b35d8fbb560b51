package reaper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"frameworks/api_reaper/internal/plex"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func opsRouter(r *Reaper) *gin.Engine {
	router := gin.New()
	r.RegisterRoutes(router)
	return router
}

func TestHandleListSessions(t *testing.T) {
	sessions := &fakeSessions{rows: []plex.SessionRow{liveRow("u1", "tid-1", "10.0.0.5")}}
	clock := &fakeClock{t: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)}
	r := newTestReaper(idleConfig(), sessions, &fakeSource{}, nil, clock)
	r.RunCycle(context.Background())

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET", "/sessions", nil)
	opsRouter(r).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var snap Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(snap.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(snap.Sessions))
	}
	if snap.Sessions[0].TranscodeID != "tid-1" {
		t.Errorf("TranscodeID = %q, want tid-1", snap.Sessions[0].TranscodeID)
	}
}

func TestHandleStopSession(t *testing.T) {
	sessions := &fakeSessions{}
	clock := &fakeClock{t: time.Now()}
	r := newTestReaper(idleConfig(), sessions, &fakeSource{}, nil, clock)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "POST", "/sessions/tid-77/stop", nil)
	opsRouter(r).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(sessions.stops) != 1 || sessions.stops[0] != "tid-77" {
		t.Fatalf("stops = %v, want [tid-77]", sessions.stops)
	}
}

func TestManualStopBypassesDryRun(t *testing.T) {
	cfg := idleConfig()
	cfg.DryRun = true

	sessions := &fakeSessions{}
	clock := &fakeClock{t: time.Now()}
	r := newTestReaper(cfg, sessions, &fakeSource{}, nil, clock)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "POST", "/sessions/tid-88/stop", nil)
	opsRouter(r).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(sessions.stops) != 1 {
		t.Fatalf("explicit stop should run even in dry-run mode, stops = %v", sessions.stops)
	}
}
