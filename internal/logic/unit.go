package logic

// Unit is the per-role controller. The host calls New once at startup and
// Step once per polling cycle; Step never blocks.
type Unit interface {
	Role() Role
	Step(now Millis, in Sample) Cycle
}

// DetectRole classifies the unit from the role-select strap.
// A strap left at its pulled default level is the primary; a strap tied to the
// opposite level is the secondary.
func DetectRole(strapActive bool) Role {
	if strapActive {
		return RoleSecondary
	}
	return RolePrimary
}

// New builds the controller for role, seeding every deadline relative to now.
func New(role Role, timing Timing, now Millis) Unit {
	if role == RoleSecondary {
		return NewSecondary(timing, now)
	}
	return NewPrimary(timing, now)
}

// Primary owns motion and force-on sensing, drives the mirror line and the
// force-on indicator.
type Primary struct {
	timer *BacklightTimer
}

// NewPrimary creates the primary controller.
func NewPrimary(timing Timing, now Millis) *Primary {
	return &Primary{timer: NewBacklightTimer(timing, now)}
}

// Role returns RolePrimary.
func (p *Primary) Role() Role { return RolePrimary }

// Step runs the timeout controller, the mirror link output and the indicator.
// Outputs are written every cycle whether or not they changed.
func (p *Primary) Step(now Millis, in Sample) Cycle {
	on := p.timer.Update(now, in.ForceOn, in.Motion)
	return Cycle{
		Now:    now,
		Role:   RolePrimary,
		Sample: in,
		Outputs: Outputs{
			Backlight: on,
			Mirror:    on,
			Indicator: in.ForceOn,
		},
		Deadline: p.timer.Deadline(),
	}
}

// Deadline returns the backlight-off deadline.
func (p *Primary) Deadline() Millis { return p.timer.Deadline() }

// Secondary follows the mirrored decision and runs the boot reset pulse.
// It keeps no timeout state of its own.
type Secondary struct {
	seq *ResetSequencer
}

// NewSecondary creates the secondary controller with boot at now.
func NewSecondary(timing Timing, now Millis) *Secondary {
	return &Secondary{seq: NewResetSequencer(timing, now)}
}

// Role returns RoleSecondary.
func (s *Secondary) Role() Role { return RoleSecondary }

// Step mirrors the primary's decision onto the local backlight and advances
// the reset sequencer.
func (s *Secondary) Step(now Millis, in Sample) Cycle {
	reset := s.seq.Update(now)
	return Cycle{
		Now:    now,
		Role:   RoleSecondary,
		Sample: in,
		Outputs: Outputs{
			Backlight: in.Mirror,
			Reset:     reset,
		},
		Sequencer: s.seq.State(),
	}
}
