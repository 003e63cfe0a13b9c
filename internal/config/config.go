// Package config loads the daemon configuration from an optional YAML file.
// Command-line flags that were set explicitly override the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/backlight-controller/internal/gpio"
	"github.com/sweeney/backlight-controller/internal/logger"
	"github.com/sweeney/backlight-controller/internal/logic"
)

// GPIO backends.
const (
	BackendCdev   = "cdev"
	BackendPeriph = "periph"
)

// Config is the full daemon configuration.
type Config struct {
	Poll       time.Duration `yaml:"poll"`
	ShortHold  time.Duration `yaml:"short_hold"`
	LongHold   time.Duration `yaml:"long_hold"`
	ResetWait  time.Duration `yaml:"reset_wait"`
	ResetPulse time.Duration `yaml:"reset_pulse"`

	// BlinkIndicator toggles the primary's indicator at this half-period
	// instead of following force-on. Zero disables.
	BlinkIndicator time.Duration `yaml:"blink_indicator"`

	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	HTTP      string        `yaml:"http"`
	LogLevel  string        `yaml:"log_level"`

	Backend string `yaml:"backend"`
	Pins    Pins   `yaml:"pins"`
}

// Pins is the YAML form of gpio.Pins.
type Pins struct {
	Chip      string `yaml:"chip"`
	Strap     int    `yaml:"strap"`
	Motion    int    `yaml:"motion"`
	ForceOn   int    `yaml:"force_on"`
	Indicator int    `yaml:"indicator"`
	Backlight int    `yaml:"backlight"`
	Mirror    int    `yaml:"mirror"`
	Reset     int    `yaml:"reset"`

	MotionActiveLow  bool `yaml:"motion_active_low"`
	ForceOnActiveLow bool `yaml:"force_on_active_low"`
	ResetActiveLow   bool `yaml:"reset_active_low"`
}

// Default returns the configuration of the deployed pair.
func Default() Config {
	t := logic.DefaultTiming()
	p := gpio.DefaultPins()
	return Config{
		Poll:       50 * time.Millisecond,
		ShortHold:  millis(t.ShortHold),
		LongHold:   millis(t.LongHold),
		ResetWait:  millis(t.ResetWait),
		ResetPulse: millis(t.ResetPulse),
		Broker:     "tcp://192.168.1.200:1883",
		Heartbeat:  15 * time.Minute,
		HTTP:       ":80",
		LogLevel:   "info",
		Backend:    BackendCdev,
		Pins: Pins{
			Chip:             p.Chip,
			Strap:            p.Strap,
			Motion:           p.Motion,
			ForceOn:          p.ForceOn,
			Indicator:        p.Indicator,
			Backlight:        p.Backlight,
			Mirror:           p.Mirror,
			Reset:            p.Reset,
			MotionActiveLow:  p.MotionActiveLow,
			ForceOnActiveLow: p.ForceOnActiveLow,
			ResetActiveLow:   p.ResetActiveLow,
		},
	}
}

// Load reads path over Default and validates the result.
// Keys missing from the file keep their default; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports the first setting the controller cannot run with.
func (c Config) Validate() error {
	if c.Poll <= 0 {
		return errors.New("poll must be positive")
	}
	holds := []struct {
		name string
		d    time.Duration
	}{
		{"short_hold", c.ShortHold},
		{"long_hold", c.LongHold},
		{"reset_wait", c.ResetWait},
		{"reset_pulse", c.ResetPulse},
	}
	for _, h := range holds {
		if h.d <= 0 {
			return fmt.Errorf("%s must be positive", h.name)
		}
		if h.d.Milliseconds() > math.MaxUint32 {
			return fmt.Errorf("%s %v overflows the millisecond clock", h.name, h.d)
		}
	}
	if c.BlinkIndicator < 0 {
		return errors.New("blink_indicator must not be negative")
	}
	if c.Heartbeat < 0 {
		return errors.New("heartbeat must not be negative")
	}
	switch c.Backend {
	case BackendCdev, BackendPeriph:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Timing converts the hold and reset durations to controller timing.
func (c Config) Timing() logic.Timing {
	return logic.Timing{
		ShortHold:  logic.Millis(c.ShortHold.Milliseconds()),
		LongHold:   logic.Millis(c.LongHold.Milliseconds()),
		ResetWait:  logic.Millis(c.ResetWait.Milliseconds()),
		ResetPulse: logic.Millis(c.ResetPulse.Milliseconds()),
	}
}

// GPIOPins converts the pin section to gpio.Pins.
func (c Config) GPIOPins() gpio.Pins {
	p := c.Pins
	return gpio.Pins{
		Chip:             p.Chip,
		Strap:            p.Strap,
		Motion:           p.Motion,
		ForceOn:          p.ForceOn,
		Indicator:        p.Indicator,
		Backlight:        p.Backlight,
		Mirror:           p.Mirror,
		Reset:            p.Reset,
		MotionActiveLow:  p.MotionActiveLow,
		ForceOnActiveLow: p.ForceOnActiveLow,
		ResetActiveLow:   p.ResetActiveLow,
	}
}

func millis(m logic.Millis) time.Duration {
	return time.Duration(m) * time.Millisecond
}
