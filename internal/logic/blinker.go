package logic

// Blinker toggles a level every Period. It is used to check indicator wiring
// and is never part of the backlight decision.
type Blinker struct {
	period Millis
	next   Millis
	level  bool
}

// NewBlinker starts with the level on, first toggle at now+period.
func NewBlinker(period, now Millis) *Blinker {
	return &Blinker{period: period, next: now + period, level: true}
}

// Update returns the level for now.
func (b *Blinker) Update(now Millis) bool {
	if now >= b.next {
		b.level = !b.level
		b.next = now + b.period
	}
	return b.level
}
