package libgl

import (
	"github.com/go-gl/gl/v4.5-core/gl"
)

type GlCapability uint32

const (
	DepthTest              GlCapability = gl.DEPTH_TEST
	Blend                  GlCapability = gl.BLEND
	ScissorTest            GlCapability = gl.SCISSOR_TEST
	CullFace               GlCapability = gl.CULL_FACE
	Multisample            GlCapability = gl.MULTISAMPLE
	TextureCubeMapSeamless GlCapability = gl.TEXTURE_CUBE_MAP_SEAMLESS
	FramebufferSRGB        GlCapability = gl.FRAMEBUFFER_SRGB
)

type GlBlendFactor uint32

const (
	BlendZero             GlBlendFactor = gl.ZERO
	BlendOne              GlBlendFactor = gl.ONE
	BlendSrcAlpha         GlBlendFactor = gl.SRC_ALPHA
	BlendOneMinusSrcAlpha GlBlendFactor = gl.ONE_MINUS_SRC_ALPHA
	BlendDstAlpha         GlBlendFactor = gl.DST_ALPHA
	BlendOneMinusDstAlpha GlBlendFactor = gl.ONE_MINUS_DST_ALPHA
)

type GlBlendEquation uint32

const (
	BlendFuncAdd      GlBlendEquation = gl.FUNC_ADD
	BlendFuncSubtract GlBlendEquation = gl.FUNC_SUBTRACT
)

type GlDepthFunc uint32

const (
	DepthFuncNever  GlDepthFunc = gl.NEVER
	DepthFuncLess   GlDepthFunc = gl.LESS
	DepthFuncLEqual GlDepthFunc = gl.LEQUAL
	DepthFuncEqual  GlDepthFunc = gl.EQUAL
	DepthFuncAlways GlDepthFunc = gl.ALWAYS
)

// GlStateManager mirrors the bound GL state so redundant calls can be skipped.
// All calls must happen on the thread that owns the context.
type GlStateManager struct {
	Caps                                           map[GlCapability]bool
	TextureUnits, SamplerUnits                     []uint32
	DrawFramebuffer, ReadFramebuffer, Renderbuffer uint32
	ArrayBuffer, ElementArrayBuffer                uint32
	ProgramPipeline, VertexArray                   uint32
	ActiveTextureUnit                              int
	ViewportRect, ScissorRect                      [4]int
	BlendFactorSrc, BlendFactorDst                 GlBlendFactor
	BlendEquationMode                              GlBlendEquation
	DepthFuncFn                                    GlDepthFunc
	DepthWriteMask                                 bool
	CullFaceMask                                   uint32
	ClearColorRGBA                                 [4]float32
	PolygonModeFrontAndBack                        uint32
}

var State *GlStateManager

func NewGlStateManager() *GlStateManager {
	return &GlStateManager{
		Caps:           map[GlCapability]bool{},
		TextureUnits:   make([]uint32, 32),
		SamplerUnits:   make([]uint32, 32),
		DepthFuncFn:    DepthFuncLess,
		DepthWriteMask: true,
		CullFaceMask:   gl.BACK,
		// GL defaults
		BlendFactorSrc:          BlendOne,
		BlendFactorDst:          BlendZero,
		BlendEquationMode:       BlendFuncAdd,
		PolygonModeFrontAndBack: gl.FILL,
	}
}

// Init queries the environment and resets the state mirror. It must be called once the
// context is current.
func Init() {
	Env = GetGlEnv()
	State = NewGlStateManager()
}

func (s *GlStateManager) Enable(cap GlCapability) {
	if s.Caps[cap] {
		return
	}
	gl.Enable(uint32(cap))
	s.Caps[cap] = true
}

func (s *GlStateManager) Disable(cap GlCapability) {
	if enabled, known := s.Caps[cap]; known && !enabled {
		return
	}
	gl.Disable(uint32(cap))
	s.Caps[cap] = false
}

// Toggle enables or disables a single capability.
func (s *GlStateManager) Toggle(cap GlCapability, enabled bool) {
	if enabled {
		s.Enable(cap)
	} else {
		s.Disable(cap)
	}
}

// SetEnabled enables exactly the given capabilities and disables all others that are tracked.
func (s *GlStateManager) SetEnabled(caps ...GlCapability) {
	want := map[GlCapability]bool{}
	for _, c := range caps {
		want[c] = true
	}
	for c, v := range s.Caps {
		if v && !want[c] {
			s.Disable(c)
		}
	}
	for c := range want {
		s.Enable(c)
	}
}

func (s *GlStateManager) CullBack() {
	if s.CullFaceMask == gl.BACK {
		return
	}
	gl.CullFace(gl.BACK)
	s.CullFaceMask = gl.BACK
}

func (s *GlStateManager) CullFront() {
	if s.CullFaceMask == gl.FRONT {
		return
	}
	gl.CullFace(gl.FRONT)
	s.CullFaceMask = gl.FRONT
}

func (s *GlStateManager) BlendFunc(sfactor, dfactor GlBlendFactor) {
	if s.BlendFactorSrc == sfactor && s.BlendFactorDst == dfactor {
		return
	}
	gl.BlendFunc(uint32(sfactor), uint32(dfactor))
	s.BlendFactorSrc = sfactor
	s.BlendFactorDst = dfactor
}

func (s *GlStateManager) BlendEquation(mode GlBlendEquation) {
	if s.BlendEquationMode == mode {
		return
	}
	gl.BlendEquation(uint32(mode))
	s.BlendEquationMode = mode
}

func (s *GlStateManager) DepthFunc(fn GlDepthFunc) {
	if s.DepthFuncFn == fn {
		return
	}
	gl.DepthFunc(uint32(fn))
	s.DepthFuncFn = fn
}

func (s *GlStateManager) DepthMask(flag bool) {
	if s.DepthWriteMask == flag {
		return
	}
	gl.DepthMask(flag)
	s.DepthWriteMask = flag
}

func (s *GlStateManager) PolygonMode(mode uint32) {
	if s.PolygonModeFrontAndBack == mode {
		return
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, mode)
	s.PolygonModeFrontAndBack = mode
}

func (s *GlStateManager) BindTextureUnit(unit int, texture uint32) {
	if s.TextureUnits[unit] == texture {
		return
	}
	if Env.UseIntelTextureBindingFix {
		s.ActiveTexture(unit)
		if texture != 0 {
			gl.BindTexture(Env.IntelTextureBindingTargets[texture], texture)
		}
		s.TextureUnits[unit] = texture
		return
	}
	gl.BindTextureUnit(uint32(unit), texture)
	s.TextureUnits[unit] = texture
}

func (s *GlStateManager) BindTexture(target uint32, texture uint32) {
	if s.TextureUnits[s.ActiveTextureUnit] == texture {
		return
	}
	gl.BindTexture(target, texture)
	s.TextureUnits[s.ActiveTextureUnit] = texture
}

func (s *GlStateManager) ActiveTexture(unit int) {
	if s.ActiveTextureUnit == unit {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	s.ActiveTextureUnit = unit
}

func (s *GlStateManager) BindSampler(unit int, sampler uint32) {
	if s.SamplerUnits[unit] == sampler {
		return
	}
	gl.BindSampler(uint32(unit), sampler)
	s.SamplerUnits[unit] = sampler
}

// forgetTexture drops a deleted object's id from every binding slot so a recycled id is rebound.
func (s *GlStateManager) forgetTexture(texture uint32) {
	for i, t := range s.TextureUnits {
		if t == texture {
			s.TextureUnits[i] = 0
		}
	}
}

func (s *GlStateManager) forgetSampler(sampler uint32) {
	for i, v := range s.SamplerUnits {
		if v == sampler {
			s.SamplerUnits[i] = 0
		}
	}
}

func (s *GlStateManager) BindBuffer(target uint32, buffer uint32) {
	switch target {
	case gl.ARRAY_BUFFER:
		if s.ArrayBuffer == buffer {
			return
		}
		s.ArrayBuffer = buffer
	case gl.ELEMENT_ARRAY_BUFFER:
		if s.ElementArrayBuffer == buffer {
			return
		}
		s.ElementArrayBuffer = buffer
	}
	gl.BindBuffer(target, buffer)
}

func (s *GlStateManager) BindFramebuffer(target, framebuffer uint32) {
	switch target {
	case gl.DRAW_FRAMEBUFFER:
		s.BindDrawFramebuffer(framebuffer)
	case gl.READ_FRAMEBUFFER:
		s.BindReadFramebuffer(framebuffer)
	default:
		if framebuffer == s.DrawFramebuffer && framebuffer == s.ReadFramebuffer {
			return
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, framebuffer)
		s.DrawFramebuffer = framebuffer
		s.ReadFramebuffer = framebuffer
	}
}

func (s *GlStateManager) BindDrawFramebuffer(framebuffer uint32) {
	if s.DrawFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, framebuffer)
	s.DrawFramebuffer = framebuffer
}

func (s *GlStateManager) BindReadFramebuffer(framebuffer uint32) {
	if s.ReadFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, framebuffer)
	s.ReadFramebuffer = framebuffer
}

func (s *GlStateManager) BindRenderbuffer(renderbuffer uint32) {
	if s.Renderbuffer == renderbuffer {
		return
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, renderbuffer)
	s.Renderbuffer = renderbuffer
}

func (s *GlStateManager) BindProgramPipeline(pipeline uint32) {
	if s.ProgramPipeline == pipeline {
		return
	}
	gl.BindProgramPipeline(pipeline)
	s.ProgramPipeline = pipeline
}

func (s *GlStateManager) BindVertexArray(array uint32) {
	if s.VertexArray == array {
		return
	}
	gl.BindVertexArray(array)
	s.VertexArray = array
}

func (s *GlStateManager) Viewport(x, y, w, h int) {
	if s.ViewportRect == [4]int{x, y, w, h} {
		return
	}
	gl.Viewport(int32(x), int32(y), int32(w), int32(h))
	s.ViewportRect = [4]int{x, y, w, h}
}

func (s *GlStateManager) Scissor(x, y, w, h int) {
	if s.ScissorRect == [4]int{x, y, w, h} {
		return
	}
	gl.Scissor(int32(x), int32(y), int32(w), int32(h))
	s.ScissorRect = [4]int{x, y, w, h}
}

func (s *GlStateManager) ClearColor(r, g, b, a float32) {
	if s.ClearColorRGBA == [4]float32{r, g, b, a} {
		return
	}
	gl.ClearColor(r, g, b, a)
	s.ClearColorRGBA = [4]float32{r, g, b, a}
}
