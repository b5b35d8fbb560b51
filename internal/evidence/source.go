package evidence

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"frameworks/api_reaper/pkg/logging"
)

// Source fetches recent server log text covering a lookback window.
type Source interface {
	FetchRecent(ctx context.Context, window time.Duration) (string, error)
}

// CommandSource runs a configurable shell command to collect log text.
// The command template's {since} placeholder is replaced with the
// lookback in whole seconds.
type CommandSource struct {
	Template string
	Logger   logging.Logger
}

// NewCommandSource creates a log source backed by a shell command.
func NewCommandSource(template string, logger logging.Logger) *CommandSource {
	return &CommandSource{
		Template: template,
		Logger:   logger,
	}
}

// FetchRecent runs the command for the given window and returns its
// combined output. Failures are recoverable: the caller treats a failed
// fetch as "no evidence this cycle" and moves on.
func (s *CommandSource) FetchRecent(ctx context.Context, window time.Duration) (string, error) {
	secs := int(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	cmdStr := strings.ReplaceAll(s.Template, "{since}", fmt.Sprintf("%d", secs))

	runCtx, cancel := context.WithTimeout(ctx, window+5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", cmdStr)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.Logger.WithFields(logging.Fields{
			"command": cmdStr,
			"stderr":  strings.TrimSpace(stderr.String()),
		}).WithError(err).Warn("Log command failed")
		return "", fmt.Errorf("log command failed: %w", err)
	}

	return stdout.String(), nil
}
