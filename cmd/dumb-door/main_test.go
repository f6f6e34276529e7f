package main

import (
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/dumb-door/internal/config"
	"github.com/sweeney/dumb-door/internal/logging"
	"github.com/sweeney/dumb-door/internal/metrics"
	"github.com/sweeney/dumb-door/internal/mqtt"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.WiFi.SSID = "HomeNet"
	cfg.WiFi.Password = "hunter2"
	cfg.WiFi.Address = config.AddressConfig{IP: "10.0.0.5", Netmask: "255.255.255.0", Gateway: "10.0.0.1", DNS: "10.0.0.1"}
	return cfg
}

func TestConnectivityConfigFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Connect.MaxAttempts = 12
	cfg.Connect.DegradedHold = time.Minute

	cc := connectivityConfig(cfg)

	if cc.Credentials.SSID != "HomeNet" || cc.Credentials.Password != "hunter2" {
		t.Errorf("Credentials: got %+v", cc.Credentials)
	}
	if cc.Address.IP != "10.0.0.5" || cc.Address.Gateway != "10.0.0.1" {
		t.Errorf("Address: got %+v", cc.Address)
	}
	if cc.Retry.MaxAttempts != 12 {
		t.Errorf("Retry.MaxAttempts: got %d, want 12", cc.Retry.MaxAttempts)
	}
	if cc.Retry.Initial != time.Second || cc.Retry.Max != 16*time.Second {
		t.Errorf("Retry intervals: got %v..%v", cc.Retry.Initial, cc.Retry.Max)
	}
	if cc.ConnectedStatus != 1 {
		t.Errorf("ConnectedStatus: got %d, want 1", cc.ConnectedStatus)
	}
	if cc.DegradedHold != time.Minute {
		t.Errorf("DegradedHold: got %v, want 1m", cc.DegradedHold)
	}
	if cc.Blink != 500*time.Millisecond {
		t.Errorf("Blink: got %v, want 500ms", cc.Blink)
	}
}

func TestStatusConfigHidesBrokerWhenDisabled(t *testing.T) {
	cfg := testConfig()

	sc := statusConfig(cfg)
	if sc.Broker != "" {
		t.Errorf("Broker with mqtt disabled: got %q, want empty", sc.Broker)
	}
	if sc.PollMs != 40 {
		t.Errorf("PollMs: got %d, want 40", sc.PollMs)
	}
	if sc.Policy != config.PolicyEdge {
		t.Errorf("Policy: got %q, want edge", sc.Policy)
	}
	if sc.SSID != "HomeNet" {
		t.Errorf("SSID: got %q, want HomeNet", sc.SSID)
	}

	cfg.MQTT.Enabled = true
	if sc := statusConfig(cfg); sc.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("Broker with mqtt enabled: got %q", sc.Broker)
	}
}

func TestNewMetricsDisabledIsNoop(t *testing.T) {
	cfg := testConfig()
	rec, closeFn := newMetrics(cfg, logging.New(io.Discard, zerolog.Disabled, nil))
	defer closeFn()

	if _, ok := rec.(metrics.Noop); !ok {
		t.Errorf("expected metrics.Noop, got %T", rec)
	}
}

func TestNewPublisherDisabledIsNop(t *testing.T) {
	cfg := testConfig()
	pub, err := newPublisher(cfg, logging.New(io.Discard, zerolog.Disabled, nil))
	if err != nil {
		t.Fatalf("newPublisher: %v", err)
	}
	if _, ok := pub.(mqtt.Nop); !ok {
		t.Errorf("expected mqtt.Nop, got %T", pub)
	}
}

func TestSignalName(t *testing.T) {
	tests := []struct {
		sig  syscall.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := signalName(tt.sig); got != tt.want {
			t.Errorf("signalName(%v): got %q, want %q", tt.sig, got, tt.want)
		}
	}
}

func TestButtonString(t *testing.T) {
	if got := buttonString(true); got != "PRESSED" {
		t.Errorf("buttonString(true): got %q", got)
	}
	if got := buttonString(false); got != "RELEASED" {
		t.Errorf("buttonString(false): got %q", got)
	}
}
