package config

import (
	"fmt"
	"time"

	pkgconfig "frameworks/api_reaper/pkg/config"
)

// Config holds the full runtime configuration for the reaper service.
type Config struct {
	PlexURL   string
	PlexToken string

	PollInterval time.Duration
	LogLookback  time.Duration

	IdleTimeout time.Duration
	RenewLease  time.Duration
	HardLease   time.Duration

	// LogCommand is a shell command template producing recent server log
	// text. The literal {since} is replaced with a lookback in whole
	// seconds before execution.
	LogCommand string

	UseEventStream bool
	DryRun         bool

	// WatchRuntime bounds a single run; zero means run until signalled.
	WatchRuntime time.Duration

	// MachineID and PlayerIP narrow which sessions are considered at all.
	// Empty values disable the corresponding filter.
	MachineID string
	PlayerIP  string
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		PlexURL:   pkgconfig.GetEnv("PLEX_URL", "http://127.0.0.1:32400"),
		PlexToken: pkgconfig.GetEnv("PLEX_TOKEN", ""),

		PollInterval: pkgconfig.GetEnvDuration("BOATSWAIN_POLL_INTERVAL", time.Second),
		LogLookback:  pkgconfig.GetEnvDuration("BOATSWAIN_LOG_LOOKBACK", 10*time.Second),

		IdleTimeout: pkgconfig.GetEnvDuration("BOATSWAIN_IDLE_TIMEOUT", 0),
		RenewLease:  pkgconfig.GetEnvDuration("BOATSWAIN_RENEW_LEASE", 0),
		HardLease:   pkgconfig.GetEnvDuration("BOATSWAIN_HARD_LEASE", 0),

		LogCommand: pkgconfig.GetEnv("BOATSWAIN_LOG_CMD", ""),

		UseEventStream: pkgconfig.GetEnvBool("BOATSWAIN_SSE", true),
		DryRun:         pkgconfig.GetEnvBool("BOATSWAIN_DRY_RUN", false),

		WatchRuntime: pkgconfig.GetEnvDuration("BOATSWAIN_WATCH_RUNTIME", 0),

		MachineID: pkgconfig.GetEnv("BOATSWAIN_MACHINE_ID", ""),
		PlayerIP:  pkgconfig.GetEnv("BOATSWAIN_PLAYER_IP", ""),
	}
}

// Validate checks that the configuration is usable. Errors here are fatal
// at startup; nothing validated here is allowed to fail mid-run.
func (c Config) Validate() error {
	if c.PlexURL == "" {
		return fmt.Errorf("PLEX_URL is required")
	}
	if c.PlexToken == "" {
		return fmt.Errorf("PLEX_TOKEN is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("BOATSWAIN_POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.IdleTimeout < 0 || c.RenewLease < 0 || c.HardLease < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.IdleTimeout == 0 && c.RenewLease == 0 && c.HardLease == 0 {
		return fmt.Errorf("at least one of BOATSWAIN_IDLE_TIMEOUT, BOATSWAIN_RENEW_LEASE, BOATSWAIN_HARD_LEASE must be set")
	}
	if (c.IdleTimeout > 0 || c.RenewLease > 0) && c.LogCommand == "" {
		return fmt.Errorf("BOATSWAIN_LOG_CMD is required when BOATSWAIN_IDLE_TIMEOUT or BOATSWAIN_RENEW_LEASE is set")
	}
	return nil
}

// LogWindow returns how far back each evidence fetch looks. The window
// always covers at least one full poll interval plus slack so requests
// landing between cycles are never missed.
func (c Config) LogWindow() time.Duration {
	min := c.PollInterval + time.Second
	if c.LogLookback > min {
		return c.LogLookback
	}
	return min
}

// EventFreshness returns how recent an event-stream signal must be to
// count as activity for the current cycle.
func (c Config) EventFreshness() time.Duration {
	w := 2 * c.PollInterval
	if w < 3*time.Second {
		w = 3 * time.Second
	}
	return w
}
