package engine

import (
	"fmt"

	"pbrview/libgl"
	"pbrview/libscn"
	"pbrview/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/inkyblackness/imgui-go/v4"
)

const (
	GridSize     = 7
	GridSpacing  = 2.5
	MinRoughness = 0.05
)

// texture units of the pbr pipeline
const (
	UnitIrradiance = iota
	UnitPrefilter
	UnitBrdfLut
	UnitAlbedo
	UnitNormal
	UnitMetallic
	UnitRoughness
	UnitAo
)

// GridCell is the placement and material factors of one sphere.
type GridCell struct {
	Position  mgl32.Vec3
	Metallic  float32
	Roughness float32
}

// SphereGrid lays out the spheres. Metallic grows with the row and roughness with the column.
func SphereGrid() []GridCell {
	cells := make([]GridCell, 0, GridSize*GridSize)
	half := float32(GridSize-1) / 2
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			cells = append(cells, GridCell{
				Position: mgl32.Vec3{
					(float32(col) - half) * GridSpacing,
					(float32(row) - half) * GridSpacing,
					0,
				},
				Metallic:  float32(row) / float32(GridSize-1),
				Roughness: libutil.Clamp(float32(col)/float32(GridSize-1), MinRoughness, 1),
			})
		}
	}
	return cells
}

// Renderer draws frames of a Scene.
type Renderer struct {
	Window   *glfw.Window
	Exposure float32
	ShowGui  bool
	Gui      *Gui

	targets         *RenderTargets
	materialSampler libgl.UnboundSampler
	cubeSampler     libgl.UnboundSampler
	lutSampler      libgl.UnboundSampler
	grid            []GridCell
	inFrame         bool
}

func NewRenderer(win *glfw.Window, samples int) (*Renderer, error) {
	width, height := win.GetFramebufferSize()
	targets, err := NewRenderTargets(width, height, samples)
	if err != nil {
		return nil, err
	}

	materialSampler := libgl.NewSampler()
	materialSampler.FilterMode(gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR)
	materialSampler.WrapMode(gl.REPEAT, gl.REPEAT, 0)
	if libgl.Env != nil && libgl.Env.Features.MaxTextureMaxAnisotropy > 0 {
		materialSampler.AnisotropicFilter(libgl.Env.Features.MaxTextureMaxAnisotropy)
	}
	materialSampler.SetDebugLabel("material")

	cubeSampler := libgl.NewSampler()
	cubeSampler.FilterMode(gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR)
	cubeSampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
	cubeSampler.SetDebugLabel("environment")

	lutSampler := libgl.NewSampler()
	lutSampler.FilterMode(gl.LINEAR, gl.LINEAR)
	lutSampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, 0)
	lutSampler.SetDebugLabel("brdf lut")

	return &Renderer{
		Window:          win,
		Exposure:        1,
		targets:         targets,
		materialSampler: materialSampler,
		cubeSampler:     cubeSampler,
		lutSampler:      lutSampler,
		grid:            SphereGrid(),
	}, nil
}

func (r *Renderer) Delete() {
	r.targets.Delete()
	r.materialSampler.Delete()
	r.cubeSampler.Delete()
	r.lutSampler.Delete()
	if r.Gui != nil {
		r.Gui.Delete()
	}
}

func (r *Renderer) resize() error {
	width, height := r.Window.GetFramebufferSize()
	if width == 0 || height == 0 || (width == r.targets.Width && height == r.targets.Height) {
		return nil
	}
	return r.targets.Resize(width, height)
}

// Render draws exactly one frame. It is not reentrant.
func (r *Renderer) Render(scene *Scene, cam *Camera, tk *Timekeeper) error {
	if r.inFrame {
		panic("Render called while a frame is in progress")
	}
	r.inFrame = true
	defer func() { r.inFrame = false }()

	libgl.PushDebugGroup("frame")
	defer libgl.PopDebugGroup()

	if err := r.resize(); err != nil {
		return err
	}
	width, height := r.targets.Width, r.targets.Height
	// minimized
	if width == 0 || height == 0 {
		return nil
	}

	projection := cam.ProjectionMatrix(float32(width) / float32(height))
	view := cam.ViewMatrix()

	r.targets.Msaa.Bind(gl.DRAW_FRAMEBUFFER)
	libgl.State.Viewport(0, 0, width, height)
	libgl.State.SetEnabled(libgl.DepthTest, libgl.CullFace, libgl.TextureCubeMapSeamless, libgl.Multisample)
	libgl.State.CullBack()
	libgl.State.DepthFunc(libgl.DepthFuncLess)
	libgl.State.DepthMask(true)
	libgl.State.ClearColor(0.05, 0.05, 0.05, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)

	r.drawSpheres(scene, cam, projection, view)
	if scene.Lights.Enabled {
		r.drawLights(scene, projection, view)
	}
	r.drawSkybox(scene, projection, view)

	r.targets.ResolveMsaa()
	r.drawScreen(scene, width, height)
	r.drawOverlay(scene, tk, width, height)

	if r.ShowGui && r.Gui != nil {
		r.Gui.Draw(r.Window, func() { r.panel(scene, cam, tk) })
	}
	return nil
}

func (r *Renderer) drawSpheres(scene *Scene, cam *Camera, projection, view mgl32.Mat4) {
	libgl.PushDebugGroup("spheres")
	defer libgl.PopDebugGroup()

	pbr := scene.Shaders.MustGet("pbr")
	pbr.Bind()
	pbr.SetUniform("u_projection_mat", projection)
	pbr.SetUniform("u_view_mat", view)
	pbr.SetUniform("u_camera_position", cam.Position)
	scene.Lights.Apply(pbr)

	env := scene.Environment
	env.Irradiance.Bind(UnitIrradiance)
	r.cubeSampler.Bind(UnitIrradiance)
	env.Prefilter.Bind(UnitPrefilter)
	r.cubeSampler.Bind(UnitPrefilter)
	env.BrdfLut.Bind(UnitBrdfLut)
	r.lutSampler.Bind(UnitBrdfLut)
	pbr.SetUniform("u_irradiance", UnitIrradiance)
	pbr.SetUniform("u_prefilter", UnitPrefilter)
	pbr.SetUniform("u_brdf_lut", UnitBrdfLut)
	pbr.SetUniform("u_prefilter_levels", float32(env.Prefilter.Levels()))

	for i, tex := range scene.Material.Textures() {
		tex.Bind(UnitAlbedo + i)
		r.materialSampler.Bind(UnitAlbedo + i)
	}
	pbr.SetUniform("u_albedo", UnitAlbedo)
	pbr.SetUniform("u_normal", UnitNormal)
	pbr.SetUniform("u_metallic_map", UnitMetallic)
	pbr.SetUniform("u_roughness_map", UnitRoughness)
	pbr.SetUniform("u_ao", UnitAo)

	for _, cell := range r.grid {
		pbr.SetUniform("u_model_mat", mgl32.Translate3D(cell.Position.Elem()))
		pbr.SetUniform("u_metallic", cell.Metallic)
		pbr.SetUniform("u_roughness", cell.Roughness)
		scene.Sphere.Draw()
	}
}

func (r *Renderer) drawLights(scene *Scene, projection, view mgl32.Mat4) {
	libgl.PushDebugGroup("lights")
	defer libgl.PopDebugGroup()

	light := scene.Shaders.MustGet("light")
	light.Bind()
	light.SetUniform("u_projection_mat", projection)
	light.SetUniform("u_view_mat", view)
	for i := 0; i < scene.Lights.Count(); i++ {
		model := mgl32.Translate3D(scene.Lights.Positions[i].Elem()).Mul4(mgl32.Scale3D(0.5, 0.5, 0.5))
		light.SetUniform("u_model_mat", model)
		light.SetUniform("u_color", scene.Lights.Colors[i])
		scene.Sphere.Draw()
	}
}

func (r *Renderer) drawSkybox(scene *Scene, projection, view mgl32.Mat4) {
	libgl.PushDebugGroup("skybox")
	defer libgl.PopDebugGroup()

	// the skybox is drawn at the far plane
	libgl.State.DepthFunc(libgl.DepthFuncLEqual)
	libgl.State.Disable(libgl.CullFace)

	skybox := scene.Shaders.MustGet("skybox")
	skybox.Bind()
	skybox.SetUniform("u_projection_mat", projection)
	skybox.SetUniform("u_view_mat", view.Mat3().Mat4())
	skybox.SetUniform("u_environment", 0)
	scene.Environment.Skybox.Bind(0)
	r.cubeSampler.Bind(0)
	scene.Cube.Draw()

	libgl.State.Enable(libgl.CullFace)
	libgl.State.DepthFunc(libgl.DepthFuncLess)
}

func (r *Renderer) drawScreen(scene *Scene, width, height int) {
	libgl.PushDebugGroup("screen")
	defer libgl.PopDebugGroup()

	libgl.State.BindDrawFramebuffer(0)
	libgl.State.Viewport(0, 0, width, height)
	libgl.State.ClearColor(1, 1, 1, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	libgl.State.SetEnabled()

	screen := scene.Shaders.MustGet("screen")
	screen.Bind()
	screen.SetUniform("u_exposure", r.Exposure)
	screen.SetUniform("u_color", 0)
	r.targets.ResolveColor.Bind(0)
	libgl.State.BindSampler(0, 0)
	libscn.DrawQuad()
}

func (r *Renderer) drawOverlay(scene *Scene, tk *Timekeeper, width, height int) {
	libgl.PushDebugGroup("text")
	defer libgl.PopDebugGroup()

	libgl.State.SetEnabled(libgl.Blend)
	libgl.State.BlendEquation(libgl.BlendFuncAdd)
	libgl.State.BlendFunc(libgl.BlendSrcAlpha, libgl.BlendOneMinusSrcAlpha)
	libgl.State.BindSampler(0, 0)

	fps := 0
	if tk != nil {
		fps = tk.FPS
	}
	scene.Text.Draw(fmt.Sprintf("FPS: %d", fps), 0, 0, mgl32.Vec4{1, 1, 1, 1}, mgl32.Vec2{float32(width), float32(height)})
	libgl.State.Disable(libgl.Blend)
}

func (r *Renderer) panel(scene *Scene, cam *Camera, tk *Timekeeper) {
	imgui.Begin("pbrview")
	defer imgui.End()

	if tk != nil {
		imgui.Text(fmt.Sprintf("FPS: %d  delta: %.3f", tk.FPS, tk.Delta))
	}
	if libgl.Env != nil {
		imgui.Text(fmt.Sprintf("GL: %s, %s", libgl.Env.Renderer, libgl.Env.Version))
	}

	if imgui.CollapsingHeader("Camera") {
		imgui.DragFloat3("Position", (*[3]float32)(&cam.Position))
		imgui.Text(fmt.Sprintf("Yaw %.1f  Pitch %.1f", cam.Yaw, cam.Pitch))
		imgui.SliderFloat("Speed", &cam.Speed, 0.05, 2)
	}

	imgui.SliderFloat("Exposure", &r.Exposure, 0.1, 8)
	imgui.Checkbox("Point lights", &scene.Lights.Enabled)

	if imgui.CollapsingHeader("Environment") {
		imgui.Text(fmt.Sprintf("Scene loaded in %v", scene.LoadTime))
		for _, timing := range scene.Environment.Timings {
			imgui.Text(fmt.Sprintf("%-10s %v", timing.Name, timing.Duration))
		}
	}

	if imgui.CollapsingHeader("Shaders") {
		for _, name := range scene.Shaders.Names() {
			imgui.Text(name)
		}
	}
}
