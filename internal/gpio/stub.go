//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/backlight-controller/internal/logic"
)

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(pins Pins) (*RealBoard, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Strap is not implemented on non-Linux platforms.
func (r *RealBoard) Strap() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Configure is not implemented on non-Linux platforms.
func (r *RealBoard) Configure(role logic.Role) error {
	return errors.New("gpio: not supported")
}

// Read is not implemented on non-Linux platforms.
func (r *RealBoard) Read() (logic.Sample, error) {
	return logic.Sample{}, errors.New("gpio: not supported")
}

// Write is not implemented on non-Linux platforms.
func (r *RealBoard) Write(out logic.Outputs) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealBoard) Close() error {
	return nil
}
