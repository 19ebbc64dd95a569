package ibl

import (
	"pbrview/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

var captureProjection = mgl32.Perspective(mgl32.DegToRad(90.0), 1.0, 0.1, 10.0)

// one view per cube map face, in face order
var captureViews = [6]mgl32.Mat4{
	mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}),
	mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, -1, 0}),
	mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}),
	mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, -1}),
	mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, -1, 0}),
	mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, -1, 0}),
}

// captureTarget is the offscreen framebuffer faces are rendered into.
type captureTarget struct {
	fbo   libgl.UnboundFramebuffer
	depth libgl.UnboundRenderbuffer
	size  int
}

func newCaptureTarget() *captureTarget {
	fbo := libgl.NewFramebuffer()
	fbo.SetDebugLabel("ibl capture")
	depth := libgl.NewRenderbuffer()
	depth.SetDebugLabel("ibl capture depth")
	return &captureTarget{fbo: fbo, depth: depth}
}

// Resize reallocates the depth buffer and sets the viewport to size².
func (target *captureTarget) Resize(size int) {
	if target.size != size {
		target.depth.Allocate(gl.DEPTH_COMPONENT24, size, size)
		target.fbo.AttachRenderbuffer(gl.DEPTH_ATTACHMENT, target.depth)
		target.size = size
	}
	libgl.State.Viewport(0, 0, size, size)
}

// AttachFace makes one face level of a cube map the color target.
func (target *captureTarget) AttachFace(tex libgl.UnboundTexture, face, level int) error {
	target.fbo.AttachTextureLayerLevel(0, tex, face, level)
	return target.bind()
}

// AttachTexture makes a 2D texture the color target.
func (target *captureTarget) AttachTexture(tex libgl.UnboundTexture) error {
	target.fbo.AttachTexture(0, tex)
	return target.bind()
}

func (target *captureTarget) bind() error {
	target.fbo.BindTargets(0)
	if err := target.fbo.Check(gl.DRAW_FRAMEBUFFER); err != nil {
		return err
	}
	target.fbo.Bind(gl.DRAW_FRAMEBUFFER)
	return nil
}

func (target *captureTarget) Delete() {
	target.fbo.Delete()
	target.depth.Delete()
}
