package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/backlight-controller/internal/gpio"
	"github.com/sweeney/backlight-controller/internal/logic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Timing() != logic.DefaultTiming() {
		t.Errorf("Timing: got %+v, want %+v", cfg.Timing(), logic.DefaultTiming())
	}
	if cfg.GPIOPins() != gpio.DefaultPins() {
		t.Errorf("GPIOPins: got %+v, want %+v", cfg.GPIOPins(), gpio.DefaultPins())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
poll: 20ms
long_hold: 30s
broker: tcp://10.0.0.5:1883
backend: periph
pins:
  motion: 4
  motion_active_low: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Poll != 20*time.Millisecond {
		t.Errorf("Poll: got %v, want 20ms", cfg.Poll)
	}
	if cfg.LongHold != 30*time.Second {
		t.Errorf("LongHold: got %v, want 30s", cfg.LongHold)
	}
	if cfg.Timing().LongHold != 30000 {
		t.Errorf("Timing().LongHold: got %d, want 30000", cfg.Timing().LongHold)
	}
	if cfg.Broker != "tcp://10.0.0.5:1883" {
		t.Errorf("Broker: got %q", cfg.Broker)
	}
	if cfg.Backend != BackendPeriph {
		t.Errorf("Backend: got %q, want periph", cfg.Backend)
	}

	pins := cfg.GPIOPins()
	if pins.Motion != 4 || !pins.MotionActiveLow {
		t.Errorf("motion pin: got %d activeLow=%v", pins.Motion, pins.MotionActiveLow)
	}
	// Keys absent from the file keep their defaults, including nested ones.
	if cfg.ShortHold != 500*time.Millisecond {
		t.Errorf("ShortHold: got %v, want 500ms", cfg.ShortHold)
	}
	if pins.Backlight != gpio.DefaultPinBacklight || !pins.ForceOnActiveLow {
		t.Errorf("unset pins changed: %+v", pins)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("empty file should yield defaults, got %+v", cfg)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "debounce: 250ms\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadValidates(t *testing.T) {
	_, err := Load(writeConfig(t, "short_hold: 0s\n"))
	if err == nil || !strings.Contains(err.Error(), "short_hold") {
		t.Fatalf("expected short_hold error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero poll", func(c *Config) { c.Poll = 0 }, "poll"},
		{"zero short hold", func(c *Config) { c.ShortHold = 0 }, "short_hold"},
		{"zero long hold", func(c *Config) { c.LongHold = 0 }, "long_hold"},
		{"negative reset wait", func(c *Config) { c.ResetWait = -time.Second }, "reset_wait"},
		{"zero reset pulse", func(c *Config) { c.ResetPulse = 0 }, "reset_pulse"},
		{"hold overflows clock", func(c *Config) { c.LongHold = 50 * 24 * time.Hour }, "overflows"},
		{"negative blink", func(c *Config) { c.BlinkIndicator = -time.Millisecond }, "blink_indicator"},
		{"negative heartbeat", func(c *Config) { c.Heartbeat = -time.Second }, "heartbeat"},
		{"unknown backend", func(c *Config) { c.Backend = "sysfs" }, "backend"},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAcceptsDisabledExtras(t *testing.T) {
	cfg := Default()
	cfg.Heartbeat = 0
	cfg.BlinkIndicator = 0
	cfg.HTTP = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
