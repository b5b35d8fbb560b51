package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		PlexURL:      "http://127.0.0.1:32400",
		PlexToken:    "token",
		PollInterval: 15 * time.Second,
		LogLookback:  60 * time.Second,
		IdleTimeout:  2 * time.Minute,
		LogCommand:   "journalctl -u plex --since '-{since} seconds' --no-pager -o cat",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.PlexToken = "" },
			wantErr: true,
		},
		{
			name:    "missing url",
			mutate:  func(c *Config) { c.PlexURL = "" },
			wantErr: true,
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.PollInterval = 0 },
			wantErr: true,
		},
		{
			name: "no timeouts at all",
			mutate: func(c *Config) {
				c.IdleTimeout = 0
				c.RenewLease = 0
				c.HardLease = 0
			},
			wantErr: true,
		},
		{
			name: "idle timeout without log command",
			mutate: func(c *Config) {
				c.LogCommand = ""
			},
			wantErr: true,
		},
		{
			name: "renew lease without log command",
			mutate: func(c *Config) {
				c.IdleTimeout = 0
				c.RenewLease = time.Minute
				c.LogCommand = ""
			},
			wantErr: true,
		},
		{
			name: "hard lease alone needs no log command",
			mutate: func(c *Config) {
				c.IdleTimeout = 0
				c.HardLease = 4 * time.Hour
				c.LogCommand = ""
			},
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.HardLease = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLogWindow(t *testing.T) {
	cfg := validConfig()

	// Lookback larger than poll interval wins.
	cfg.PollInterval = 15 * time.Second
	cfg.LogLookback = 60 * time.Second
	if got := cfg.LogWindow(); got != 60*time.Second {
		t.Fatalf("LogWindow() = %s, want 60s", got)
	}

	// Short lookback is widened to cover a full poll plus slack.
	cfg.LogLookback = 5 * time.Second
	if got := cfg.LogWindow(); got != 16*time.Second {
		t.Fatalf("LogWindow() = %s, want 16s", got)
	}
}

func TestEventFreshness(t *testing.T) {
	cfg := validConfig()

	cfg.PollInterval = 15 * time.Second
	if got := cfg.EventFreshness(); got != 30*time.Second {
		t.Fatalf("EventFreshness() = %s, want 30s", got)
	}

	// Never below the floor even with very tight polling.
	cfg.PollInterval = time.Second
	if got := cfg.EventFreshness(); got != 3*time.Second {
		t.Fatalf("EventFreshness() = %s, want 3s", got)
	}
}
