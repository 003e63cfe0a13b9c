// Command backlight-controller drives the backlight of one display unit of a
// primary/secondary pair and publishes its transitions to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/backlight-controller/internal/config"
	"github.com/sweeney/backlight-controller/internal/device"
	"github.com/sweeney/backlight-controller/internal/gpio"
	"github.com/sweeney/backlight-controller/internal/logger"
	"github.com/sweeney/backlight-controller/internal/logic"
	"github.com/sweeney/backlight-controller/internal/metrics"
	"github.com/sweeney/backlight-controller/internal/mqtt"
	"github.com/sweeney/backlight-controller/internal/status"
	"github.com/sweeney/backlight-controller/internal/web"
)

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("fatal: %v", err)
	}

	level, _ := logger.ParseLevel(opts.cfg.LogLevel)
	l := logger.NewLogger(log.New(os.Stderr, "", log.LstdFlags), level)

	if err := run(opts.cfg, opts.printState, l); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type options struct {
	cfg        config.Config
	printState bool
}

// parseFlags loads the config file named by -config, then applies every flag
// that was set explicitly on the command line.
func parseFlags(args []string, output io.Writer) (options, error) {
	def := config.Default()
	fs := flag.NewFlagSet("backlight-controller", flag.ContinueOnError)
	fs.SetOutput(output)

	configPath := fs.String("config", "", "YAML config file (flags override it)")
	poll := fs.Duration("poll", def.Poll, "GPIO polling interval")
	shortHold := fs.Duration("short-hold", def.ShortHold, "Backlight hold after force-on")
	longHold := fs.Duration("long-hold", def.LongHold, "Backlight hold after motion")
	resetWait := fs.Duration("reset-wait", def.ResetWait, "Secondary: delay from boot to primary reset")
	resetPulse := fs.Duration("reset-pulse", def.ResetPulse, "Secondary: primary reset pulse width")
	broker := fs.String("broker", def.Broker, "MQTT broker address")
	clientID := fs.String("client-id", def.ClientID, "MQTT client ID and topic segment (default backlight-<hostname>)")
	heartbeat := fs.Duration("heartbeat", def.Heartbeat, "Heartbeat interval (0 to disable)")
	httpAddr := fs.String("http", def.HTTP, "HTTP status address (empty to disable)")
	backend := fs.String("backend", def.Backend, "GPIO backend: cdev or periph")
	chip := fs.String("chip", def.Pins.Chip, "GPIO chip for the cdev backend")
	logLevel := fs.String("log-level", def.LogLevel, "Log level: none, error, warn, info, debug")
	blink := fs.Duration("blink-indicator", def.BlinkIndicator, "Primary: blink the indicator at this half-period instead of following force-on (0 to disable)")
	printState := fs.Bool("print-state", false, "Print role and inputs and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	cfg := def
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return options{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "poll":
			cfg.Poll = *poll
		case "short-hold":
			cfg.ShortHold = *shortHold
		case "long-hold":
			cfg.LongHold = *longHold
		case "reset-wait":
			cfg.ResetWait = *resetWait
		case "reset-pulse":
			cfg.ResetPulse = *resetPulse
		case "broker":
			cfg.Broker = *broker
		case "client-id":
			cfg.ClientID = *clientID
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "http":
			cfg.HTTP = *httpAddr
		case "backend":
			cfg.Backend = *backend
		case "chip":
			cfg.Pins.Chip = *chip
		case "log-level":
			cfg.LogLevel = *logLevel
		case "blink-indicator":
			cfg.BlinkIndicator = *blink
		}
	})

	if err := cfg.Validate(); err != nil {
		return options{}, err
	}
	return options{cfg: cfg, printState: *printState}, nil
}

func openBoard(cfg config.Config) (gpio.Board, error) {
	switch cfg.Backend {
	case config.BackendPeriph:
		b, err := gpio.NewPeriphBoard(gpio.PeriphPinsFrom(cfg.GPIOPins()))
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		b, err := gpio.NewRealBoard(cfg.GPIOPins())
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

func run(cfg config.Config, printState bool, l *logger.Logger) error {
	// Initialize GPIO
	board, err := openBoard(cfg)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := board.Close(); err != nil {
			l.Errorf("release gpio: %v", err)
		}
	}()

	if printState {
		return printBoardState(board, os.Stdout)
	}

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	mx := metrics.New()

	devOpts := []device.Option{device.WithObserver(mx)}
	if cfg.BlinkIndicator > 0 {
		devOpts = append(devOpts, device.WithIndicatorBlink(logic.Millis(cfg.BlinkIndicator.Milliseconds())))
	}
	if l.Level() >= logger.LogLevelDebug {
		dl := l.WithTag("cycle")
		devOpts = append(devOpts, device.WithObserver(device.ObserverFunc(func(c logic.Cycle) {
			dl.Debugf("t=%d in=%+v out=%+v deadline=%d seq=%s", c.Now, c.Sample, c.Outputs, c.Deadline, c.Sequencer)
		})))
	}

	dev, err := device.Init(board, cfg.Timing(), device.MonotonicClock(), devOpts...)
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	tracker.SetRole(dev.Role())
	mx.SetRole(dev.Role())
	l.Infof("role %s", dev.Role())

	// Initialize MQTT
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = defaultClientID()
	}
	publisher, err := mqtt.NewRealPublisher(cfg.Broker, clientID, l.WithTag("mqtt"))
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		l.Warnf("failed to publish startup event: %v", err)
	} else {
		l.Infof("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker, mx.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				l.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		l.Infof("http status server listening on %s", cfg.HTTP)
	}

	l.Infof("started: poll=%v short_hold=%v long_hold=%v broker=%s heartbeat=%v backend=%s",
		cfg.Poll, cfg.ShortHold, cfg.LongHold, cfg.Broker, cfg.Heartbeat, cfg.Backend)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(dev, publisher, publisher, tracker, mx, cfg.Heartbeat, time.Now, ticker.C, sigCh, l)
}

// cycler is the part of device.Device the loop drives.
type cycler interface {
	Cycle() (logic.Cycle, error)
}

func runLoop(dev cycler, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, mx *metrics.Metrics, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, l *logger.Logger) error {
	watcher := logic.NewWatcher(now())

	for {
		select {
		case s := <-sig:
			l.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				l.Warnf("failed to publish shutdown event: %v", err)
			} else {
				l.Infof("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			c, err := dev.Cycle()
			if err != nil {
				if mx != nil {
					mx.CycleError()
				}
				l.Errorf("cycle: %v", err)
				if errors.Is(err, device.ErrRead) {
					continue
				}
				// A failed write still made a decision; report it.
			}

			events := watcher.Process(c, t)
			for _, event := range events {
				l.Infof("event: %s (backlight=%s)", event.Type, status.OnOff(event.Backlight))
				if err := publisher.Publish(event); err != nil {
					l.Warnf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}
			if mx != nil {
				mx.ObserveEvents(events)
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(c, watcher.EventCountsSnapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if hbData := watcher.CheckHeartbeat(t, heartbeat); hbData != nil {
				l.Infof("heartbeat: uptime=%v backlight_on=%d backlight_off=%d motion=%d force_on=%d reset_pulses=%d",
					hbData.Uptime, hbData.Counts.BacklightOn, hbData.Counts.BacklightOff,
					hbData.Counts.Motion, hbData.Counts.ForceOn, hbData.Counts.ResetPulses)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					l.Warnf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// printBoardState resolves the role and prints one sample of its inputs.
func printBoardState(board gpio.Board, w io.Writer) error {
	strap, err := board.Strap()
	if err != nil {
		return fmt.Errorf("read strap: %w", err)
	}
	role := logic.DetectRole(strap)
	if err := board.Configure(role); err != nil {
		return fmt.Errorf("configure %s board: %w", role, err)
	}
	s, err := board.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}

	switch role {
	case logic.RolePrimary:
		fmt.Fprintf(w, "role: %s, motion: %s, force-on: %s\n", role, status.OnOff(s.Motion), status.OnOff(s.ForceOn))
	default:
		fmt.Fprintf(w, "role: %s, mirror: %s\n", role, status.OnOff(s.Mirror))
	}
	return nil
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		PollMs:       cfg.Poll.Milliseconds(),
		ShortHoldMs:  cfg.ShortHold.Milliseconds(),
		LongHoldMs:   cfg.LongHold.Milliseconds(),
		ResetWaitMs:  cfg.ResetWait.Milliseconds(),
		ResetPulseMs: cfg.ResetPulse.Milliseconds(),
		HeartbeatMs:  cfg.Heartbeat.Milliseconds(),
		Broker:       cfg.Broker,
		HTTPPort:     cfg.HTTP,
		Backend:      cfg.Backend,
	}
}

func defaultClientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "backlight-controller"
	}
	return "backlight-" + host
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
