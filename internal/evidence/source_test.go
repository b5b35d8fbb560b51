package evidence

import (
	"context"
	"strings"
	"testing"
	"time"

	"frameworks/api_reaper/pkg/logging"
)

func TestCommandSourceFetchRecent(t *testing.T) {
	src := NewCommandSource(`echo "window={since}"`, logging.NewLogger())

	out, err := src.FetchRecent(context.Background(), 45*time.Second)
	if err != nil {
		t.Fatalf("FetchRecent failed: %v", err)
	}
	if strings.TrimSpace(out) != "window=45" {
		t.Errorf("output = %q, want window=45", strings.TrimSpace(out))
	}
}

func TestCommandSourceMinimumWindow(t *testing.T) {
	src := NewCommandSource(`echo {since}`, logging.NewLogger())

	out, err := src.FetchRecent(context.Background(), 200*time.Millisecond)
	if err != nil {
		t.Fatalf("FetchRecent failed: %v", err)
	}
	if strings.TrimSpace(out) != "1" {
		t.Errorf("output = %q, want 1 (window floor)", strings.TrimSpace(out))
	}
}

func TestCommandSourceFailure(t *testing.T) {
	src := NewCommandSource(`exit 3`, logging.NewLogger())

	if _, err := src.FetchRecent(context.Background(), time.Second); err == nil {
		t.Fatal("expected error from failing command")
	}
}
