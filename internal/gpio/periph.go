package gpio

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/sweeney/backlight-controller/internal/logic"
)

// PeriphPins names the pins for the periph.io backend ("GPIO17", "P1_11", ...).
type PeriphPins struct {
	Strap     string
	Motion    string
	ForceOn   string
	Indicator string
	Backlight string
	Mirror    string
	Reset     string

	MotionActiveLow  bool
	ForceOnActiveLow bool
	ResetActiveLow   bool
}

// PeriphPinsFrom names the BCM offsets in p the way periph registers them.
func PeriphPinsFrom(p Pins) PeriphPins {
	name := func(n int) string { return fmt.Sprintf("GPIO%d", n) }
	return PeriphPins{
		Strap:            name(p.Strap),
		Motion:           name(p.Motion),
		ForceOn:          name(p.ForceOn),
		Indicator:        name(p.Indicator),
		Backlight:        name(p.Backlight),
		Mirror:           name(p.Mirror),
		Reset:            name(p.Reset),
		MotionActiveLow:  p.MotionActiveLow,
		ForceOnActiveLow: p.ForceOnActiveLow,
		ResetActiveLow:   p.ResetActiveLow,
	}
}

type periphPin struct {
	pin       gpio.PinIO
	activeLow bool
}

func (p *periphPin) read() bool {
	if p == nil {
		return false
	}
	return (p.pin.Read() == gpio.High) != p.activeLow
}

func (p *periphPin) write(on bool) error {
	if p == nil {
		return nil
	}
	return p.pin.Out(gpio.Level(on != p.activeLow))
}

// PeriphBoard drives hardware through periph.io's pin registry.
type PeriphBoard struct {
	pins PeriphPins

	strap *periphPin

	motion   *periphPin
	forceOn  *periphPin
	mirrorIn *periphPin

	backlight *periphPin
	mirrorOut *periphPin
	indicator *periphPin
	reset     *periphPin
}

// NewPeriphBoard initializes the periph host drivers and the strap pin.
func NewPeriphBoard(pins PeriphPins) (*PeriphBoard, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	b := &PeriphBoard{pins: pins}
	strap, err := b.input("strap", pins.Strap, true)
	if err != nil {
		return nil, err
	}
	b.strap = strap
	return b, nil
}

func (b *PeriphBoard) lookup(role, name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%s pin %q not found", role, name)
	}
	return p, nil
}

func (b *PeriphBoard) input(role, name string, activeLow bool) (*periphPin, error) {
	p, err := b.lookup(role, name)
	if err != nil {
		return nil, err
	}
	pull := gpio.PullDown
	if activeLow {
		pull = gpio.PullUp
	}
	if err := p.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure %s pin %s: %w", role, name, err)
	}
	return &periphPin{pin: p, activeLow: activeLow}, nil
}

func (b *PeriphBoard) output(role, name string, activeLow, initial bool) (*periphPin, error) {
	p, err := b.lookup(role, name)
	if err != nil {
		return nil, err
	}
	pp := &periphPin{pin: p, activeLow: activeLow}
	if err := pp.write(initial); err != nil {
		return nil, fmt.Errorf("configure %s pin %s: %w", role, name, err)
	}
	return pp, nil
}

// Strap returns true when the strap is tied low.
func (b *PeriphBoard) Strap() (bool, error) {
	return b.strap.read(), nil
}

// Configure sets up the pins used by role.
func (b *PeriphBoard) Configure(role logic.Role) error {
	var err error
	if b.backlight, err = b.output("backlight", b.pins.Backlight, false, true); err != nil {
		return err
	}

	switch role {
	case logic.RolePrimary:
		if b.motion, err = b.input("motion", b.pins.Motion, b.pins.MotionActiveLow); err != nil {
			return err
		}
		if b.forceOn, err = b.input("force-on", b.pins.ForceOn, b.pins.ForceOnActiveLow); err != nil {
			return err
		}
		if b.mirrorOut, err = b.output("mirror", b.pins.Mirror, false, true); err != nil {
			return err
		}
		if b.indicator, err = b.output("indicator", b.pins.Indicator, false, false); err != nil {
			return err
		}
	case logic.RoleSecondary:
		if b.mirrorIn, err = b.input("mirror", b.pins.Mirror, false); err != nil {
			return err
		}
		if b.reset, err = b.output("reset", b.pins.Reset, b.pins.ResetActiveLow, false); err != nil {
			return err
		}
	default:
		return fmt.Errorf("configure: unknown role %d", role)
	}
	return nil
}

// Read samples the inputs configured for the role.
func (b *PeriphBoard) Read() (logic.Sample, error) {
	return logic.Sample{
		Motion:  b.motion.read(),
		ForceOn: b.forceOn.read(),
		Mirror:  b.mirrorIn.read(),
	}, nil
}

// Write drives the outputs configured for the role.
func (b *PeriphBoard) Write(out logic.Outputs) error {
	if err := b.backlight.write(out.Backlight); err != nil {
		return fmt.Errorf("write backlight pin: %w", err)
	}
	if err := b.mirrorOut.write(out.Mirror); err != nil {
		return fmt.Errorf("write mirror pin: %w", err)
	}
	if err := b.indicator.write(out.Indicator); err != nil {
		return fmt.Errorf("write indicator pin: %w", err)
	}
	if err := b.reset.write(out.Reset); err != nil {
		return fmt.Errorf("write reset pin: %w", err)
	}
	return nil
}

// Close returns driven pins to inputs. The reset pin is pulled to its
// released level.
func (b *PeriphBoard) Close() error {
	var errs []error
	release := func(p *periphPin, pull gpio.Pull) {
		if p == nil {
			return
		}
		if err := p.pin.In(pull, gpio.NoEdge); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", p.pin.Name(), err))
		}
	}
	release(b.backlight, gpio.PullDown)
	release(b.mirrorOut, gpio.PullDown)
	release(b.indicator, gpio.PullDown)
	if b.pins.ResetActiveLow {
		release(b.reset, gpio.PullUp)
	} else {
		release(b.reset, gpio.PullDown)
	}
	return errors.Join(errs...)
}
