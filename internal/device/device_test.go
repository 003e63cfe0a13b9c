package device

import (
	"errors"
	"testing"

	"github.com/sweeney/backlight-controller/internal/gpio"
	"github.com/sweeney/backlight-controller/internal/logic"
)

// scriptedClock returns the given times in order, repeating the last one.
func scriptedClock(times ...logic.Millis) Clock {
	i := 0
	return func() logic.Millis {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestInitResolvesPrimary(t *testing.T) {
	board := gpio.NewFakeBoard(false, []logic.Sample{{}})
	d, err := Init(board, logic.DefaultTiming(), scriptedClock(0))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if d.Role() != logic.RolePrimary {
		t.Errorf("expected PRIMARY, got %s", d.Role())
	}
	if !board.Configured || board.Role != logic.RolePrimary {
		t.Errorf("board not configured for PRIMARY: %+v", board)
	}
	if board.StrapReads != 1 {
		t.Errorf("expected strap read once, got %d", board.StrapReads)
	}
}

func TestInitResolvesSecondary(t *testing.T) {
	board := gpio.NewFakeBoard(true, []logic.Sample{{}})
	d, err := Init(board, logic.DefaultTiming(), scriptedClock(0))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if d.Role() != logic.RoleSecondary {
		t.Errorf("expected SECONDARY, got %s", d.Role())
	}
}

func TestInitErrors(t *testing.T) {
	board := gpio.NewFakeBoard(false, nil)
	board.StrapError = errors.New("strap fault")
	if _, err := Init(board, logic.DefaultTiming(), scriptedClock(0)); err == nil {
		t.Error("expected strap error")
	}

	board = gpio.NewFakeBoard(false, nil)
	board.ConfigureError = errors.New("line busy")
	if _, err := Init(board, logic.DefaultTiming(), scriptedClock(0)); err == nil {
		t.Error("expected configure error")
	}
}

func TestStrapReadOnlyAtInit(t *testing.T) {
	board := gpio.NewFakeBoard(false, []logic.Sample{{}})
	d, _ := Init(board, logic.DefaultTiming(), scriptedClock(0, 50, 100, 150))

	board.StrapActive = true
	for i := 0; i < 3; i++ {
		if _, err := d.Cycle(); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}
	if d.Role() != logic.RolePrimary {
		t.Error("role must not change after Init")
	}
	if board.StrapReads != 1 {
		t.Errorf("expected strap read once, got %d", board.StrapReads)
	}
}

func TestPrimaryCycleWritesOutputs(t *testing.T) {
	board := gpio.NewFakeBoard(false, []logic.Sample{
		{},
		{},
		{ForceOn: true},
	})
	// Init reads the clock at 0; cycles at 19999, 20001, 20002.
	d, _ := Init(board, logic.DefaultTiming(), scriptedClock(0, 19999, 20001, 20002))

	want := []logic.Outputs{
		{Backlight: true, Mirror: true},
		{},
		{Backlight: true, Mirror: true, Indicator: true},
	}
	for i, w := range want {
		c, err := d.Cycle()
		if err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		if c.Outputs != w {
			t.Errorf("cycle %d: outputs %+v, want %+v", i, c.Outputs, w)
		}
		if board.LastWrite() != w {
			t.Errorf("cycle %d: written %+v, want %+v", i, board.LastWrite(), w)
		}
	}
	if d.Cycles() != 3 {
		t.Errorf("expected 3 cycles, got %d", d.Cycles())
	}
}

func TestSecondaryCycleFollowsMirrorAndPulsesReset(t *testing.T) {
	board := gpio.NewFakeBoard(true, []logic.Sample{
		{Mirror: true},
		{Mirror: false},
		{Mirror: true},
		{Mirror: true},
	})
	d, _ := Init(board, logic.DefaultTiming(), scriptedClock(0, 6999, 7000, 7299, 7300))

	want := []logic.Outputs{
		{Backlight: true},
		{Backlight: false, Reset: true},
		{Backlight: true, Reset: true},
		{Backlight: true},
	}
	for i, w := range want {
		c, err := d.Cycle()
		if err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		if c.Outputs != w {
			t.Errorf("cycle %d: outputs %+v, want %+v", i, c.Outputs, w)
		}
	}
}

func TestObserversSeeEveryDecision(t *testing.T) {
	board := gpio.NewFakeBoard(false, []logic.Sample{{}})
	var seen []logic.Millis
	var order []string
	d, _ := Init(board, logic.DefaultTiming(), scriptedClock(0, 10, 20),
		WithObserver(ObserverFunc(func(c logic.Cycle) {
			seen = append(seen, c.Now)
			order = append(order, "first")
		})),
		WithObserver(ObserverFunc(func(c logic.Cycle) {
			order = append(order, "second")
		})),
	)

	d.Cycle()
	d.Cycle()

	if len(seen) != 2 || seen[0] != 10 || seen[1] != 20 {
		t.Errorf("unexpected observed times: %v", seen)
	}
	if len(order) != 4 || order[0] != "first" || order[1] != "second" {
		t.Errorf("observers ran out of order: %v", order)
	}
}

func TestCycleReadErrorSkipsDecision(t *testing.T) {
	board := gpio.NewFakeBoard(false, []logic.Sample{{}})
	observed := 0
	d, _ := Init(board, logic.DefaultTiming(), scriptedClock(0, 10),
		WithObserver(ObserverFunc(func(logic.Cycle) { observed++ })))

	board.ReadError = errors.New("read fault")
	_, err := d.Cycle()
	if !errors.Is(err, ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}
	if !errors.Is(err, board.ReadError) {
		t.Error("read error should wrap the board error")
	}
	if len(board.Writes) != 0 {
		t.Errorf("expected no writes after read error, got %d", len(board.Writes))
	}
	if observed != 0 {
		t.Errorf("observers should not run without a decision, ran %d times", observed)
	}
	if d.Cycles() != 0 {
		t.Errorf("expected 0 cycles, got %d", d.Cycles())
	}
}

func TestCycleWriteErrorStillObserved(t *testing.T) {
	board := gpio.NewFakeBoard(false, []logic.Sample{{}})
	observed := 0
	d, _ := Init(board, logic.DefaultTiming(), scriptedClock(0, 10),
		WithObserver(ObserverFunc(func(logic.Cycle) { observed++ })))

	board.WriteError = errors.New("write fault")
	c, err := d.Cycle()
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	if !c.Outputs.Backlight {
		t.Error("cycle should still carry the decision")
	}
	if observed != 1 {
		t.Errorf("expected observer to run once, ran %d times", observed)
	}
}

func TestIndicatorBlink(t *testing.T) {
	board := gpio.NewFakeBoard(false, []logic.Sample{{ForceOn: false}})
	d, _ := Init(board, logic.DefaultTiming(), scriptedClock(0, 100, 2000, 4000),
		WithIndicatorBlink(2000))

	want := []bool{true, false, true}
	for i, w := range want {
		c, _ := d.Cycle()
		if c.Outputs.Indicator != w {
			t.Errorf("cycle %d: indicator=%v, want %v", i, c.Outputs.Indicator, w)
		}
		if !c.Outputs.Backlight {
			t.Errorf("cycle %d: blink must not affect the backlight decision", i)
		}
	}
}

func TestIndicatorBlinkIgnoredOnSecondary(t *testing.T) {
	board := gpio.NewFakeBoard(true, []logic.Sample{{Mirror: true}})
	d, _ := Init(board, logic.DefaultTiming(), scriptedClock(0, 100),
		WithIndicatorBlink(50))

	c, _ := d.Cycle()
	if c.Outputs.Indicator {
		t.Error("secondary has no indicator to blink")
	}
}
