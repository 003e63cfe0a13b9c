package logic

import "testing"

func TestNewBacklightTimerSeedsLongHold(t *testing.T) {
	b := NewBacklightTimer(DefaultTiming(), 1000)
	if b.Deadline() != 21000 {
		t.Errorf("expected deadline 21000, got %d", b.Deadline())
	}
}

func TestBacklightTimesOutWithoutStimulus(t *testing.T) {
	b := NewBacklightTimer(DefaultTiming(), 0)

	if !b.Update(19999, false, false) {
		t.Error("expected backlight on at 19999")
	}
	if !b.Update(20000, false, false) {
		t.Error("expected backlight on at exactly the deadline")
	}
	if b.Update(20001, false, false) {
		t.Error("expected backlight off at 20001")
	}
	if b.Deadline() != 20000 {
		t.Errorf("deadline should be unchanged without stimulus, got %d", b.Deadline())
	}
}

func TestMotionAfterTimeoutRelatches(t *testing.T) {
	b := NewBacklightTimer(DefaultTiming(), 0)
	if b.Update(20001, false, false) {
		t.Fatal("expected backlight off at 20001")
	}

	if !b.Update(20001, false, true) {
		t.Error("expected backlight on immediately after motion")
	}
	if b.Deadline() != 40001 {
		t.Errorf("expected deadline 40001, got %d", b.Deadline())
	}
}

func TestForceOnHeldThenReleased(t *testing.T) {
	b := NewBacklightTimer(DefaultTiming(), 0)

	// Let the boot hold expire so only the override keeps the display lit.
	b.Update(25000, false, false)

	for now := Millis(25100); now <= 25700; now += 50 {
		if !b.Update(now, true, false) {
			t.Errorf("t=%d: expected backlight on while force-on held", now)
		}
		if b.Deadline() != now+500 {
			t.Errorf("t=%d: expected deadline %d, got %d", now, now+500, b.Deadline())
		}
	}

	if !b.Update(26200, false, false) {
		t.Error("expected backlight on at release deadline 26200")
	}
	if b.Update(26201, false, false) {
		t.Error("expected backlight off at 26201")
	}
}

func TestForceOnScenarioFromBoot(t *testing.T) {
	b := NewBacklightTimer(DefaultTiming(), 0)

	for now := Millis(100); now <= 700; now += 100 {
		b.Update(now, true, false)
		if b.Deadline() != now+500 {
			t.Errorf("t=%d: expected deadline %d, got %d", now, now+500, b.Deadline())
		}
	}
	if b.Deadline() != 1200 {
		t.Fatalf("expected deadline 1200 at release, got %d", b.Deadline())
	}
	if !b.Update(1200, false, false) {
		t.Error("expected backlight on at 1200")
	}
	if b.Update(1201, false, false) {
		t.Error("expected backlight off at 1201")
	}
}

func TestForceOnTakesShortHoldEvenWithMotion(t *testing.T) {
	b := NewBacklightTimer(DefaultTiming(), 0)

	b.Update(3000, false, true)
	if b.Deadline() != 23000 {
		t.Fatalf("expected motion deadline 23000, got %d", b.Deadline())
	}

	// Override re-arms the short hold even though it moves the deadline earlier.
	b.Update(3100, true, true)
	if b.Deadline() != 3600 {
		t.Errorf("expected override deadline 3600, got %d", b.Deadline())
	}
}

func TestDecisionMatchesDeadline(t *testing.T) {
	b := NewBacklightTimer(DefaultTiming(), 0)
	inputs := []struct {
		now     Millis
		forceOn bool
		motion  bool
	}{
		{10, false, false},
		{15000, false, true},
		{34000, false, false},
		{35001, false, false},
		{35002, true, false},
		{35400, false, false},
		{35503, false, false},
		{40000, true, true},
	}

	for _, in := range inputs {
		on := b.Update(in.now, in.forceOn, in.motion)
		if want := in.now <= b.Deadline(); on != want {
			t.Errorf("t=%d: backlight=%v, want %v (deadline %d)", in.now, on, want, b.Deadline())
		}
	}
}
