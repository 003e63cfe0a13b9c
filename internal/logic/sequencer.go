package logic

// ResetSequencer schedules the single reset pulse the secondary sends to the
// primary after boot. It waits ResetWait, asserts for ResetPulse, then retires.
type ResetSequencer struct {
	state   SequencerState
	wait    Millis
	release Millis
}

// NewResetSequencer schedules the pulse relative to boot.
func NewResetSequencer(timing Timing, boot Millis) *ResetSequencer {
	wait := boot + timing.ResetWait
	return &ResetSequencer{
		state:   SequencerWaiting,
		wait:    wait,
		release: wait + timing.ResetPulse,
	}
}

// Update advances the schedule and returns whether reset is asserted.
// Once Done, now is ignored and reset stays released for good.
func (s *ResetSequencer) Update(now Millis) bool {
	switch s.state {
	case SequencerWaiting:
		if now < s.wait {
			return false
		}
		s.state = SequencerAsserting
		fallthrough
	case SequencerAsserting:
		if now < s.release {
			return true
		}
		s.state = SequencerDone
		s.wait, s.release = 0, 0
	}
	return false
}

// State returns the current sequencer state.
func (s *ResetSequencer) State() SequencerState {
	return s.state
}

// WaitDeadline returns when reset is asserted, or 0 once Done.
func (s *ResetSequencer) WaitDeadline() Millis {
	return s.wait
}

// ReleaseDeadline returns when reset is released, or 0 once Done.
func (s *ResetSequencer) ReleaseDeadline() Millis {
	return s.release
}
