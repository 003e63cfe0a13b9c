// Package device binds a logic.Unit to a gpio.Board and implements the host
// contract: Init once at startup, then Cycle once per poll.
package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/backlight-controller/internal/gpio"
	"github.com/sweeney/backlight-controller/internal/logic"
)

// Cycle errors. A cycle failing with ErrRead made no decision; one failing
// with ErrWrite decided but could not drive every output.
var (
	ErrRead  = errors.New("read inputs")
	ErrWrite = errors.New("write outputs")
)

// Clock returns milliseconds since boot.
type Clock func() logic.Millis

// MonotonicClock returns a clock counting from the moment it is created.
// The count truncates to 32 bits, so it wraps like the device's millisecond
// counter does.
func MonotonicClock() Clock {
	boot := time.Now()
	return func() logic.Millis {
		return logic.Millis(time.Since(boot).Milliseconds())
	}
}

// Observer is notified after every decision. Observers must not block.
type Observer interface {
	Observe(c logic.Cycle)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(c logic.Cycle)

// Observe calls f(c).
func (f ObserverFunc) Observe(c logic.Cycle) { f(c) }

// Option configures a Device.
type Option func(*Device)

// WithObserver registers an observer. Observers run in registration order.
func WithObserver(o Observer) Option {
	return func(d *Device) {
		d.observers = append(d.observers, o)
	}
}

// WithIndicatorBlink replaces the force-on indicator with a square wave of
// the given half-period, for checking the indicator wiring. Primary only.
func WithIndicatorBlink(period logic.Millis) Option {
	return func(d *Device) {
		d.blinkPeriod = period
	}
}

// Device is one display unit: its board, its role's controller, and the hooks
// watching it.
type Device struct {
	board     gpio.Board
	unit      logic.Unit
	clock     Clock
	observers []Observer

	blinkPeriod logic.Millis
	blinker     *logic.Blinker

	cycles int
}

// Init reads the role strap once, configures the board for that role and
// seeds the controller's deadlines at the current clock value.
func Init(board gpio.Board, timing logic.Timing, clock Clock, opts ...Option) (*Device, error) {
	strap, err := board.Strap()
	if err != nil {
		return nil, fmt.Errorf("read role strap: %w", err)
	}
	role := logic.DetectRole(strap)

	if err := board.Configure(role); err != nil {
		return nil, fmt.Errorf("configure %s board: %w", role, err)
	}

	d := &Device{
		board: board,
		clock: clock,
	}
	for _, opt := range opts {
		opt(d)
	}

	now := clock()
	d.unit = logic.New(role, timing, now)
	if d.blinkPeriod > 0 && role == logic.RolePrimary {
		d.blinker = logic.NewBlinker(d.blinkPeriod, now)
	}
	return d, nil
}

// Role returns the role resolved at Init.
func (d *Device) Role() logic.Role {
	return d.unit.Role()
}

// Cycles returns the number of decisions made so far.
func (d *Device) Cycles() int {
	return d.cycles
}

// Cycle samples the inputs, runs one decision and drives the outputs.
// On a read error nothing is decided and the outputs keep their last level.
// A write error is returned after observers have seen the decision.
func (d *Device) Cycle() (logic.Cycle, error) {
	now := d.clock()

	sample, err := d.board.Read()
	if err != nil {
		return logic.Cycle{}, fmt.Errorf("%w: %w", ErrRead, err)
	}

	c := d.unit.Step(now, sample)
	if d.blinker != nil {
		c.Outputs.Indicator = d.blinker.Update(now)
	}
	d.cycles++

	werr := d.board.Write(c.Outputs)

	for _, o := range d.observers {
		o.Observe(c)
	}

	if werr != nil {
		return c, fmt.Errorf("%w: %w", ErrWrite, werr)
	}
	return c, nil
}
