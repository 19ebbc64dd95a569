package engine

import "time"

// FrameTime is the minimum time between two rendered frames.
const FrameTime = time.Second / 60

// Timekeeper gates the frame loop at 60 frames per second and counts frames per second.
// Delta is the elapsed time in milliseconds divided by 60, so one unit is 60 ms and a frame at
// exactly 60 fps has a delta of about 0.28.
type Timekeeper struct {
	Delta float32
	FPS   int

	now        func() time.Duration
	last       time.Duration
	lastSecond time.Duration
	frames     int
}

// NewTimekeeper uses now as its clock. A nil clock measures from the call.
func NewTimekeeper(now func() time.Duration) *Timekeeper {
	if now == nil {
		start := time.Now()
		now = func() time.Duration { return time.Since(start) }
	}
	t := now()
	return &Timekeeper{now: now, last: t, lastSecond: t}
}

// Tick reports whether enough time has passed to render the next frame.
func (tk *Timekeeper) Tick() bool {
	now := tk.now()
	elapsed := now - tk.last
	if elapsed < FrameTime {
		return false
	}
	tk.Delta = float32(elapsed.Milliseconds()) / 60
	tk.last = now

	if now-tk.lastSecond >= time.Second {
		tk.FPS = tk.frames
		tk.frames = 0
		tk.lastSecond += time.Second
	}
	return true
}

func (tk *Timekeeper) FrameRendered() {
	tk.frames++
}

// Remaining is the time until the next frame is due.
func (tk *Timekeeper) Remaining() time.Duration {
	return FrameTime - (tk.now() - tk.last)
}
