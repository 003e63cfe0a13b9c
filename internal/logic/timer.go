package logic

// BacklightTimer owns the primary's backlight-off deadline.
type BacklightTimer struct {
	timing   Timing
	deadline Millis
}

// NewBacklightTimer seeds the deadline at now+LongHold so the display starts lit.
func NewBacklightTimer(timing Timing, now Millis) *BacklightTimer {
	return &BacklightTimer{
		timing:   timing,
		deadline: now + timing.LongHold,
	}
}

// Update re-arms the deadline from this cycle's stimulus and returns whether
// the backlight should be on.
//
// Force-on always re-arms the short hold, even while motion is present, so the
// display goes dark quickly once the button is released and the PIR timeout
// takes over. Without stimulus the deadline is left alone; it is only ever
// assigned now+hold and never rewound.
func (b *BacklightTimer) Update(now Millis, forceOn, motion bool) bool {
	if forceOn {
		b.deadline = now + b.timing.ShortHold
	} else if motion {
		b.deadline = now + b.timing.LongHold
	}
	return now <= b.deadline
}

// Deadline returns the current backlight-off deadline.
func (b *BacklightTimer) Deadline() Millis {
	return b.deadline
}
