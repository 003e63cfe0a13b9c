package gpio

import (
	"errors"

	"github.com/sweeney/backlight-controller/internal/logic"
)

// FakeBoard is a test double that returns scripted samples and records writes.
type FakeBoard struct {
	// StrapActive is returned by Strap.
	StrapActive bool

	// Samples contains scripted input samples.
	// Each call to Read() consumes the next sample.
	Samples []logic.Sample

	// index tracks current position in Samples
	index int

	// Role is set by Configure.
	Role       logic.Role
	Configured bool

	// Writes records every Write call in order.
	Writes []logic.Outputs

	// StrapReads counts calls to Strap.
	StrapReads int

	// Closed tracks if Close was called
	Closed bool

	// StrapError, ConfigureError, ReadError and WriteError, if set, are
	// returned by the corresponding method.
	StrapError     error
	ConfigureError error
	ReadError      error
	WriteError     error
}

// NewFakeBoard creates a FakeBoard with the given strap level and samples.
func NewFakeBoard(strapActive bool, samples []logic.Sample) *FakeBoard {
	return &FakeBoard{StrapActive: strapActive, Samples: samples}
}

// Strap returns the scripted strap level.
func (f *FakeBoard) Strap() (bool, error) {
	f.StrapReads++
	if f.StrapError != nil {
		return false, f.StrapError
	}
	return f.StrapActive, nil
}

// Configure records the role.
func (f *FakeBoard) Configure(role logic.Role) error {
	if f.ConfigureError != nil {
		return f.ConfigureError
	}
	if f.Configured {
		return errors.New("already configured")
	}
	f.Role = role
	f.Configured = true
	return nil
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeBoard) Read() (logic.Sample, error) {
	if f.ReadError != nil {
		return logic.Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return logic.Sample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Write records the outputs.
func (f *FakeBoard) Write(out logic.Outputs) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, out)
	return nil
}

// LastWrite returns the most recent outputs, or the zero value if none.
func (f *FakeBoard) LastWrite() logic.Outputs {
	if len(f.Writes) == 0 {
		return logic.Outputs{}
	}
	return f.Writes[len(f.Writes)-1]
}

// Close marks the board as closed.
func (f *FakeBoard) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the board to the beginning of samples and clears recorded writes.
func (f *FakeBoard) Reset() {
	f.index = 0
	f.Writes = nil
	f.Closed = false
}
