package engine

import (
	"pbrview/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/inkyblackness/imgui-go/v4"
)

// Gui draws the imgui debug overlay.
type Gui struct {
	IO        imgui.IO
	context   *imgui.Context
	frameTime float32
	vao       uint32
	vbo       uint32
	vboSize   int
	ebo       uint32
	eboSize   int
	atlas     libgl.UnboundTexture
	pipeline  libgl.UnboundShaderPipeline
}

func NewGui(win *glfw.Window, pipeline libgl.UnboundShaderPipeline) *Gui {
	context := imgui.CreateContext(nil)

	io := imgui.CurrentIO()
	dispWidth, dispHeight := win.GetSize()
	io.SetDisplaySize(imgui.Vec2{X: float32(dispWidth), Y: float32(dispHeight)})
	imgui.StyleColorsDark()

	var vao uint32
	gl.CreateVertexArrays(1, &vao)

	_, vertexOffsetPos, vertexOffsetUv, vertexOffsetCol := imgui.VertexBufferLayout()
	gl.EnableVertexArrayAttrib(vao, 0)
	gl.VertexArrayAttribFormat(vao, 0, 2, gl.FLOAT, false, uint32(vertexOffsetPos))
	gl.VertexArrayAttribBinding(vao, 0, 0)
	gl.EnableVertexArrayAttrib(vao, 1)
	gl.VertexArrayAttribFormat(vao, 1, 2, gl.FLOAT, false, uint32(vertexOffsetUv))
	gl.VertexArrayAttribBinding(vao, 1, 0)
	gl.EnableVertexArrayAttrib(vao, 2)
	gl.VertexArrayAttribFormat(vao, 2, 4, gl.UNSIGNED_BYTE, true, uint32(vertexOffsetCol))
	gl.VertexArrayAttribBinding(vao, 2, 0)

	image := io.Fonts().TextureDataRGBA32()
	atlas := libgl.NewTexture(gl.TEXTURE_2D)
	atlas.Allocate(1, gl.RGBA8, image.Width, image.Height, 0)
	gl.TextureSubImage2D(atlas.Id(), 0, 0, 0, int32(image.Width), int32(image.Height), gl.RGBA, gl.UNSIGNED_BYTE, image.Pixels)
	atlas.FilterMode(gl.LINEAR, gl.LINEAR)
	atlas.SetDebugLabel("imgui font atlas")
	io.Fonts().SetTextureID(imgui.TextureID(atlas.Id()))

	win.SetScrollCallback(func(w *glfw.Window, x, y float64) {
		io.AddMouseWheelDelta(float32(x), float32(y))
	})
	win.SetCharCallback(func(w *glfw.Window, char rune) {
		io.AddInputCharacters(string(char))
	})

	io.KeyMap(imgui.KeyTab, int(glfw.KeyTab))
	io.KeyMap(imgui.KeyLeftArrow, int(glfw.KeyLeft))
	io.KeyMap(imgui.KeyRightArrow, int(glfw.KeyRight))
	io.KeyMap(imgui.KeyUpArrow, int(glfw.KeyUp))
	io.KeyMap(imgui.KeyDownArrow, int(glfw.KeyDown))
	io.KeyMap(imgui.KeyBackspace, int(glfw.KeyBackspace))
	io.KeyMap(imgui.KeyDelete, int(glfw.KeyDelete))
	io.KeyMap(imgui.KeyEnter, int(glfw.KeyEnter))
	io.KeyMap(imgui.KeyEscape, int(glfw.KeyEscape))

	return &Gui{
		IO:        io,
		context:   context,
		frameTime: float32(glfw.GetTime()),
		vao:       vao,
		atlas:     atlas,
		pipeline:  pipeline,
	}
}

// Update feeds the polled mouse state into imgui. A captured cursor is not forwarded.
func (gui *Gui) Update(win *glfw.Window, input *Input) {
	if input.CursorCaptured {
		gui.IO.SetMousePosition(imgui.Vec2{X: -1, Y: -1})
		for b := 0; b < 3; b++ {
			gui.IO.SetMouseButtonDown(b, false)
		}
		return
	}
	x, y := win.GetCursorPos()
	gui.IO.SetMousePosition(imgui.Vec2{X: float32(x), Y: float32(y)})
	for b := 0; b < 3; b++ {
		gui.IO.SetMouseButtonDown(b, input.IsMouseDown(glfw.MouseButton(b)))
	}
}

// Draw builds a frame with panel and renders it over the bound framebuffer.
func (gui *Gui) Draw(win *glfw.Window, panel func()) {
	libgl.PushDebugGroup("imgui")
	defer libgl.PopDebugGroup()

	dispWidth, dispHeight := win.GetSize()
	fbWidth, fbHeight := win.GetFramebufferSize()
	if dispWidth == 0 || dispHeight == 0 {
		return
	}
	gui.IO.SetDisplaySize(imgui.Vec2{X: float32(dispWidth), Y: float32(dispHeight)})

	time := float32(glfw.GetTime())
	if time > gui.frameTime {
		gui.IO.SetDeltaTime(time - gui.frameTime)
	}
	gui.frameTime = time

	imgui.NewFrame()
	panel()
	imgui.Render()

	libgl.State.Viewport(0, 0, fbWidth, fbHeight)
	ortho := mgl32.Ortho2D(0, float32(dispWidth), float32(dispHeight), 0)

	libgl.State.BindVertexArray(gui.vao)
	gui.pipeline.Bind()
	gui.pipeline.SetUniform("u_projection_mat", ortho)
	gui.pipeline.SetUniform("u_texture", 0)

	libgl.State.SetEnabled(libgl.Blend, libgl.ScissorTest)
	libgl.State.BlendEquation(libgl.BlendFuncAdd)
	libgl.State.BlendFunc(libgl.BlendSrcAlpha, libgl.BlendOneMinusSrcAlpha)
	libgl.State.BindSampler(0, 0)

	drawData := imgui.RenderedDrawData()
	drawData.ScaleClipRects(imgui.Vec2{
		X: float32(fbWidth) / float32(dispWidth),
		Y: float32(fbHeight) / float32(dispHeight),
	})

	for _, list := range drawData.CommandLists() {
		vertexBuffer, vertexBufferSize := list.VertexBuffer()
		if vertexBufferSize > gui.vboSize {
			vertexSize, _, _, _ := imgui.VertexBufferLayout()
			if gui.vbo != 0 {
				gl.DeleteBuffers(1, &gui.vbo)
			}
			gui.vboSize = vertexBufferSize
			gl.CreateBuffers(1, &gui.vbo)
			gl.NamedBufferStorage(gui.vbo, gui.vboSize, nil, gl.DYNAMIC_STORAGE_BIT)
			gl.VertexArrayVertexBuffer(gui.vao, 0, gui.vbo, 0, int32(vertexSize))
		}
		if vertexBufferSize > 0 {
			gl.NamedBufferSubData(gui.vbo, 0, vertexBufferSize, vertexBuffer)
		}

		indexBuffer, indexBufferSize := list.IndexBuffer()
		if indexBufferSize > gui.eboSize {
			if gui.ebo != 0 {
				gl.DeleteBuffers(1, &gui.ebo)
			}
			gui.eboSize = indexBufferSize
			gl.CreateBuffers(1, &gui.ebo)
			gl.NamedBufferStorage(gui.ebo, gui.eboSize, nil, gl.DYNAMIC_STORAGE_BIT)
			gl.VertexArrayElementBuffer(gui.vao, gui.ebo)
		}
		if indexBufferSize > 0 {
			gl.NamedBufferSubData(gui.ebo, 0, indexBufferSize, indexBuffer)
		}

		var indexType uint32
		indexSize := imgui.IndexBufferLayout()
		switch indexSize {
		case 1:
			indexType = gl.UNSIGNED_BYTE
		case 2:
			indexType = gl.UNSIGNED_SHORT
		case 4:
			indexType = gl.UNSIGNED_INT
		}

		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				cmd.CallUserCallback(list)
				continue
			}
			libgl.State.BindTextureUnit(0, uint32(cmd.TextureID()))
			clipRect := cmd.ClipRect()
			x, y := int(clipRect.X), fbHeight-int(clipRect.W)
			if y <= 0 {
				y = 0
			}
			libgl.State.Scissor(x, y, int(clipRect.Z-clipRect.X), int(clipRect.W-clipRect.Y))
			gl.DrawElementsBaseVertexWithOffset(gl.TRIANGLES, int32(cmd.ElementCount()), indexType, uintptr(cmd.IndexOffset()*indexSize), int32(cmd.VertexOffset()))
		}
	}

	libgl.State.Disable(libgl.ScissorTest)
}

func (gui *Gui) Delete() {
	gl.DeleteVertexArrays(1, &gui.vao)
	if gui.vbo != 0 {
		gl.DeleteBuffers(1, &gui.vbo)
	}
	if gui.ebo != 0 {
		gl.DeleteBuffers(1, &gui.ebo)
	}
	gui.atlas.Delete()
	gui.context.Destroy()
}
