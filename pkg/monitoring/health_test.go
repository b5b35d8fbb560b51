package monitoring

import (
	"testing"
)

func TestCheckHealthAggregation(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult {
		return CheckResult{Status: StatusHealthy}
	})

	if got := hc.CheckHealth().Status; got != StatusHealthy {
		t.Fatalf("status = %s, want healthy", got)
	}

	hc.AddCheck("warn", func() CheckResult {
		return CheckResult{Status: StatusDegraded}
	})
	if got := hc.CheckHealth().Status; got != StatusDegraded {
		t.Fatalf("status = %s, want degraded", got)
	}

	hc.AddCheck("down", func() CheckResult {
		return CheckResult{Status: StatusUnhealthy}
	})
	if got := hc.CheckHealth().Status; got != StatusUnhealthy {
		t.Fatalf("status = %s, want unhealthy", got)
	}
}

func TestConfigurationHealthCheck(t *testing.T) {
	check := ConfigurationHealthCheck(map[string]string{"A": "set", "B": ""})
	if got := check().Status; got != StatusUnhealthy {
		t.Fatalf("status = %s, want unhealthy for missing config", got)
	}

	check = ConfigurationHealthCheck(map[string]string{"A": "set"})
	if got := check().Status; got != StatusHealthy {
		t.Fatalf("status = %s, want healthy", got)
	}
}

func TestEventStreamHealthCheck(t *testing.T) {
	connected := false
	check := EventStreamHealthCheck(func() bool { return connected })

	if got := check().Status; got != StatusDegraded {
		t.Fatalf("status = %s, want degraded while disconnected", got)
	}

	connected = true
	if got := check().Status; got != StatusHealthy {
		t.Fatalf("status = %s, want healthy while connected", got)
	}
}
