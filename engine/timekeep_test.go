package engine_test

import (
	"testing"
	"time"

	"pbrview/engine"
)

type fakeClock struct {
	t time.Duration
}

func (c *fakeClock) now() time.Duration {
	return c.t
}

func TestTimekeeperGate(t *testing.T) {
	clock := &fakeClock{}
	tk := engine.NewTimekeeper(clock.now)

	clock.t = 10 * time.Millisecond
	if tk.Tick() {
		t.Errorf("tick after 10ms should not render")
	}

	clock.t = 20 * time.Millisecond
	if !tk.Tick() {
		t.Fatalf("tick after 20ms should render")
	}
	if tk.Delta != float32(20)/60 {
		t.Errorf("delta should be 20/60 but is %f", tk.Delta)
	}

	clock.t = 30 * time.Millisecond
	if tk.Tick() {
		t.Errorf("tick 10ms after the last frame should not render")
	}
	if rem := tk.Remaining(); rem <= 0 || rem > engine.FrameTime {
		t.Errorf("remaining time should be positive and below a frame but is %v", rem)
	}
}

func TestTimekeeperFPS(t *testing.T) {
	clock := &fakeClock{}
	tk := engine.NewTimekeeper(clock.now)

	rendered := 0
	for clock.t < 2*time.Second+5*time.Millisecond {
		clock.t += time.Millisecond
		if tk.Tick() {
			tk.FrameRendered()
			rendered++
		}
	}

	// frames are due every 17ms on a 1ms clock
	if tk.FPS < 58 || tk.FPS > 60 {
		t.Errorf("fps should be near 60 but is %d", tk.FPS)
	}
	if rendered < 110 {
		t.Errorf("expected about 120 frames in two seconds, got %d", rendered)
	}
}

func TestTimekeeperFPSOncePerSecond(t *testing.T) {
	clock := &fakeClock{}
	tk := engine.NewTimekeeper(clock.now)

	for i := 0; i < 10; i++ {
		clock.t += 50 * time.Millisecond
		if tk.Tick() {
			tk.FrameRendered()
		}
	}
	if tk.FPS != 0 {
		t.Errorf("fps should not update before a second has passed, got %d", tk.FPS)
	}

	clock.t = time.Second
	tk.Tick()
	if tk.FPS != 10 {
		t.Errorf("fps should count the 10 frames of the first second, got %d", tk.FPS)
	}
}
