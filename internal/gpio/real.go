//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/backlight-controller/internal/logic"
)

const consumer = "backlight-controller"

// RealBoard drives actual hardware using the Linux GPIO character device.
// Lines are requested with their polarity so Value and SetValue work on
// logical levels.
type RealBoard struct {
	pins Pins
	chip *gpiocdev.Chip

	strap *gpiocdev.Line

	// inputs
	motion   *gpiocdev.Line
	forceOn  *gpiocdev.Line
	mirrorIn *gpiocdev.Line

	// outputs
	backlight *gpiocdev.Line
	mirrorOut *gpiocdev.Line
	indicator *gpiocdev.Line
	reset     *gpiocdev.Line
}

// NewRealBoard opens the chip and requests the role-select strap.
// The strap has a pull-up; tying it to ground selects the secondary role.
func NewRealBoard(pins Pins) (*RealBoard, error) {
	chip, err := gpiocdev.NewChip(pins.Chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", pins.Chip, err)
	}

	strap, err := chip.RequestLine(pins.Strap, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request strap pin %d: %w", pins.Strap, err)
	}

	return &RealBoard{
		pins:  pins,
		chip:  chip,
		strap: strap,
	}, nil
}

// Strap returns true when the strap is tied low.
func (r *RealBoard) Strap() (bool, error) {
	v, err := r.strap.Value()
	if err != nil {
		return false, fmt.Errorf("read strap pin: %w", err)
	}
	return v == 1, nil
}

// Configure requests the lines used by role. The backlight starts on to match
// the controller's seeded deadline, and reset starts released.
func (r *RealBoard) Configure(role logic.Role) error {
	var err error
	if r.backlight, err = r.output("backlight", r.pins.Backlight, false, 1); err != nil {
		return err
	}

	switch role {
	case logic.RolePrimary:
		if r.motion, err = r.input("motion", r.pins.Motion, r.pins.MotionActiveLow); err != nil {
			return err
		}
		if r.forceOn, err = r.input("force-on", r.pins.ForceOn, r.pins.ForceOnActiveLow); err != nil {
			return err
		}
		if r.mirrorOut, err = r.output("mirror", r.pins.Mirror, false, 1); err != nil {
			return err
		}
		if r.indicator, err = r.output("indicator", r.pins.Indicator, false, 0); err != nil {
			return err
		}
	case logic.RoleSecondary:
		// Pull-down: with no primary attached the mirror reads as off.
		if r.mirrorIn, err = r.input("mirror", r.pins.Mirror, false); err != nil {
			return err
		}
		if r.reset, err = r.output("reset", r.pins.Reset, r.pins.ResetActiveLow, 0); err != nil {
			return err
		}
	default:
		return fmt.Errorf("configure: unknown role %d", role)
	}
	return nil
}

func (r *RealBoard) input(name string, offset int, activeLow bool) (*gpiocdev.Line, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullDown}
	if activeLow {
		opts = []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow}
	}
	l, err := r.chip.RequestLine(offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request %s pin %d: %w", name, offset, err)
	}
	return l, nil
}

func (r *RealBoard) output(name string, offset int, activeLow bool, initial int) (*gpiocdev.Line, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(initial)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	l, err := r.chip.RequestLine(offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request %s pin %d: %w", name, offset, err)
	}
	return l, nil
}

// Read samples the inputs requested for the role. Unrequested signals read false.
func (r *RealBoard) Read() (logic.Sample, error) {
	var s logic.Sample
	var err error
	if s.Motion, err = readLine(r.motion, "motion"); err != nil {
		return logic.Sample{}, err
	}
	if s.ForceOn, err = readLine(r.forceOn, "force-on"); err != nil {
		return logic.Sample{}, err
	}
	if s.Mirror, err = readLine(r.mirrorIn, "mirror"); err != nil {
		return logic.Sample{}, err
	}
	return s, nil
}

func readLine(l *gpiocdev.Line, name string) (bool, error) {
	if l == nil {
		return false, nil
	}
	v, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("read %s pin: %w", name, err)
	}
	return v == 1, nil
}

// Write drives the outputs requested for the role. Writing an unchanged
// level is harmless.
func (r *RealBoard) Write(out logic.Outputs) error {
	writes := []struct {
		line *gpiocdev.Line
		name string
		on   bool
	}{
		{r.backlight, "backlight", out.Backlight},
		{r.mirrorOut, "mirror", out.Mirror},
		{r.indicator, "indicator", out.Indicator},
		{r.reset, "reset", out.Reset},
	}
	for _, w := range writes {
		if w.line == nil {
			continue
		}
		if err := w.line.SetValue(boolToValue(w.on)); err != nil {
			return fmt.Errorf("write %s pin: %w", w.name, err)
		}
	}
	return nil
}

// Close releases GPIO resources.
// Lines are reconfigured to inputs before closing so nothing is driven across
// a restart. The reset line is left pulled to its released level.
func (r *RealBoard) Close() error {
	var errs []error

	release := func(l *gpiocdev.Line, name string, opts ...gpiocdev.LineConfigOption) {
		if l == nil {
			return
		}
		if err := l.Reconfigure(opts...); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}

	release(r.strap, "strap", gpiocdev.AsInput, gpiocdev.WithPullUp)
	release(r.motion, "motion", gpiocdev.AsInput, gpiocdev.WithPullDown)
	release(r.forceOn, "force-on", gpiocdev.AsInput, gpiocdev.WithPullDown)
	release(r.mirrorIn, "mirror", gpiocdev.AsInput, gpiocdev.WithPullDown)
	release(r.backlight, "backlight", gpiocdev.AsInput, gpiocdev.WithPullDown)
	release(r.mirrorOut, "mirror", gpiocdev.AsInput, gpiocdev.WithPullDown)
	release(r.indicator, "indicator", gpiocdev.AsInput, gpiocdev.WithPullDown)
	if r.pins.ResetActiveLow {
		release(r.reset, "reset", gpiocdev.AsInput, gpiocdev.WithPullUp)
	} else {
		release(r.reset, "reset", gpiocdev.AsInput, gpiocdev.WithPullDown)
	}

	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}
