// Package gpio provides the board I/O for one display unit with hardware
// abstraction. The real implementation uses the Linux GPIO character device,
// the periph implementation addresses pins by name, and the fake
// implementation allows testing without hardware.
package gpio

import "github.com/sweeney/backlight-controller/internal/logic"

// Board samples the unit's input signals and drives its outputs.
// All values crossing this interface are logical: true means asserted,
// whatever the wiring polarity.
type Board interface {
	// Strap reads the role-select strap. Called once at boot.
	// Returns true when the strap is pulled away from its default level.
	Strap() (bool, error)

	// Configure requests the lines used by role. Must be called once,
	// after Strap and before Read or Write.
	Configure(role logic.Role) error

	// Read samples the role's inputs.
	Read() (logic.Sample, error)

	// Write drives the role's outputs.
	Write(out logic.Outputs) error

	// Close releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinStrap     = 5
	DefaultPinMotion    = 17
	DefaultPinForceOn   = 27
	DefaultPinIndicator = 22
	DefaultPinBacklight = 18
	DefaultPinMirror    = 23 // output on the primary, input on the secondary
	DefaultPinReset     = 24
)

// Pins maps the logical signals to line offsets and wiring polarity.
type Pins struct {
	Chip      string
	Strap     int
	Motion    int
	ForceOn   int
	Indicator int
	Backlight int
	Mirror    int
	Reset     int

	// MotionActiveLow is set when the PIR pulls its output low on detection.
	MotionActiveLow bool
	// ForceOnActiveLow is set when the button shorts the input to ground.
	ForceOnActiveLow bool
	// ResetActiveLow is set when the primary's reset input is asserted low.
	ResetActiveLow bool
}

// DefaultPins returns the wiring of the reference build: PIR active high,
// force-on button to ground, reset asserted low.
func DefaultPins() Pins {
	return Pins{
		Chip:             "gpiochip0",
		Strap:            DefaultPinStrap,
		Motion:           DefaultPinMotion,
		ForceOn:          DefaultPinForceOn,
		Indicator:        DefaultPinIndicator,
		Backlight:        DefaultPinBacklight,
		Mirror:           DefaultPinMirror,
		Reset:            DefaultPinReset,
		ForceOnActiveLow: true,
		ResetActiveLow:   true,
	}
}

func boolToValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
