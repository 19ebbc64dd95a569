package engine

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// Input samples the keyboard and mouse once per frame so taps can be detected.
type Input struct {
	curr inputState
	prev inputState
	// CursorCaptured is true while the cursor is hidden and drives the camera.
	CursorCaptured bool
}

type inputState struct {
	cursorPos    mgl32.Vec2
	keys         []bool
	mousebuttons []bool
}

func newInputState() inputState {
	return inputState{
		keys:         make([]bool, glfw.KeyLast+1),
		mousebuttons: make([]bool, glfw.MouseButtonLast+1),
	}
}

func NewInput(ctx *glfw.Window) *Input {
	i := &Input{
		curr: newInputState(),
		prev: newInputState(),
	}

	i.Update(ctx)
	i.prev.cursorPos = i.curr.cursorPos
	copy(i.prev.keys, i.curr.keys)
	copy(i.prev.mousebuttons, i.curr.mousebuttons)

	return i
}

// CaptureCursor hides the cursor and switches to raw motion when supported.
func (i *Input) CaptureCursor(ctx *glfw.Window, capture bool) {
	i.CursorCaptured = capture
	if !capture {
		ctx.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		return
	}
	ctx.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	if glfw.RawMouseMotionSupported() {
		ctx.SetInputMode(glfw.RawMouseMotion, glfw.True)
	}
	// the jump to the disabled cursor position is not a movement
	x, y := ctx.GetCursorPos()
	i.curr.cursorPos = mgl32.Vec2{float32(x), float32(y)}
	i.prev.cursorPos = i.curr.cursorPos
}

func (i *Input) CursorDelta() mgl32.Vec2 {
	return i.curr.cursorPos.Sub(i.prev.cursorPos)
}

func (i *Input) IsKeyDown(key glfw.Key) bool {
	return i.curr.keys[key]
}

func (i *Input) IsKeyTap(key glfw.Key) bool {
	return i.curr.keys[key] && !i.prev.keys[key]
}

func (i *Input) IsMouseDown(button glfw.MouseButton) bool {
	return i.curr.mousebuttons[button]
}

// Movement is the camera space direction the movement keys point in. z points backwards.
func (i *Input) Movement(forward, backward, left, right, up, down glfw.Key) mgl32.Vec3 {
	var x, y, z float32
	if forward != 0 && i.IsKeyDown(forward) {
		z -= 1
	}
	if backward != 0 && i.IsKeyDown(backward) {
		z += 1
	}
	if left != 0 && i.IsKeyDown(left) {
		x -= 1
	}
	if right != 0 && i.IsKeyDown(right) {
		x += 1
	}
	if up != 0 && i.IsKeyDown(up) {
		y += 1
	}
	if down != 0 && i.IsKeyDown(down) {
		y -= 1
	}
	return mgl32.Vec3{x, y, z}
}

func (i *Input) Update(ctx *glfw.Window) {
	keys := i.prev.keys
	mousebuttons := i.prev.mousebuttons
	i.prev = i.curr
	cursorX, cursorY := ctx.GetCursorPos()

	for key := int(glfw.KeySpace); key <= int(glfw.KeyLast); key++ {
		keys[key] = ctx.GetKey(glfw.Key(key)) != glfw.Release
	}

	for button := 0; button <= int(glfw.MouseButtonLast); button++ {
		mousebuttons[button] = ctx.GetMouseButton(glfw.MouseButton(button)) != glfw.Release
	}

	i.curr = inputState{
		cursorPos:    mgl32.Vec2{float32(cursorX), float32(cursorY)},
		keys:         keys,
		mousebuttons: mousebuttons,
	}
}

// Controls applies one frame of input to the camera and the scene toggles.
type Controls struct {
	Input  *Input
	Camera *Camera
	Lights *Lights
	// ShowGui is flipped by F1.
	ShowGui bool
}

// Update polls input and moves the camera. It reports false when the window should close.
func (c *Controls) Update(ctx *glfw.Window, delta float32) bool {
	c.Input.Update(ctx)

	if c.Input.IsKeyDown(glfw.KeyEscape) {
		return false
	}
	if c.Input.IsKeyTap(glfw.KeyF1) {
		c.ShowGui = !c.ShowGui
	}
	if c.Input.IsKeyTap(glfw.KeyL) && c.Lights != nil {
		c.Lights.Toggle()
	}
	if c.Input.IsKeyTap(glfw.KeyTab) {
		c.Input.CaptureCursor(ctx, !c.Input.CursorCaptured)
	}

	if c.Input.CursorCaptured {
		cursor := c.Input.CursorDelta()
		if cursor.LenSqr() != 0 {
			c.Camera.ProcessMouse(cursor.X(), cursor.Y())
		}
	}
	c.Camera.Move(c.Input.Movement(glfw.KeyW, glfw.KeyS, glfw.KeyA, glfw.KeyD, glfw.KeySpace, glfw.KeyLeftShift), delta)
	return true
}
