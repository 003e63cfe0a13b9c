package logic

import "testing"

func TestBlinkerToggles(t *testing.T) {
	b := NewBlinker(2000, 0)

	if !b.Update(0) {
		t.Error("expected initial level on")
	}
	if !b.Update(1999) {
		t.Error("expected level on before first period")
	}
	if b.Update(2000) {
		t.Error("expected level off after first period")
	}
	if b.Update(3999) {
		t.Error("expected level off before second period")
	}
	if !b.Update(4000) {
		t.Error("expected level on after second period")
	}
}
