package libgl

import (
	"fmt"

	"github.com/go-gl/gl/v4.5-core/gl"
)

const MaxAttachments = 8

type framebuffer struct {
	glId uint32
}

// Attachment indices up to MaxAttachments are color attachments, anything else is passed
// through as a GL attachment enum such as gl.DEPTH_STENCIL_ATTACHMENT.
type UnboundFramebuffer interface {
	LabeledGlObject
	Id() uint32
	// target must be GL_DRAW_FRAMEBUFFER, GL_READ_FRAMEBUFFER or GL_FRAMEBUFFER
	Bind(target uint32) BoundFramebuffer
	// target must be GL_DRAW_FRAMEBUFFER, GL_READ_FRAMEBUFFER or GL_FRAMEBUFFER
	Check(target uint32) error
	AttachTexture(index int, texture UnboundTexture)
	AttachTextureLevel(index int, texture UnboundTexture, level int)
	AttachTextureLayerLevel(index int, texture UnboundTexture, layer, level int)
	AttachRenderbuffer(index int, renderbuffer UnboundRenderbuffer)
	BindTargets(attachments ...int)
	Delete()
}

type BoundFramebuffer interface {
	UnboundFramebuffer
}

func NewFramebuffer() UnboundFramebuffer {
	var id uint32
	gl.CreateFramebuffers(1, &id)
	return &framebuffer{glId: id}
}

func (fb *framebuffer) Id() uint32 {
	return fb.glId
}

func (fb *framebuffer) SetDebugLabel(label string) {
	setObjectLabel(gl.FRAMEBUFFER, fb.glId, label)
}

func attachmentEnum(index int) uint32 {
	if index <= MaxAttachments {
		return uint32(gl.COLOR_ATTACHMENT0 + index)
	}
	return uint32(index)
}

func (fb *framebuffer) BindTargets(indices ...int) {
	attachments := make([]uint32, len(indices))
	for i, v := range indices {
		attachments[i] = attachmentEnum(v)
	}
	gl.NamedFramebufferDrawBuffers(fb.glId, int32(len(attachments)), &attachments[0])
}

func (fb *framebuffer) Check(target uint32) error {
	status := gl.CheckNamedFramebufferStatus(fb.glId, target)
	switch status {
	case gl.FRAMEBUFFER_COMPLETE:
		return nil
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return fmt.Errorf("an attachment is framebuffer incomplete (GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT)")
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return fmt.Errorf("the framebuffer has no attachments (GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT)")
	case gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER:
		return fmt.Errorf("the object type of a draw attachment is none (GL_FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER)")
	case gl.FRAMEBUFFER_INCOMPLETE_READ_BUFFER:
		return fmt.Errorf("the object type of the read attachment is none (GL_FRAMEBUFFER_INCOMPLETE_READ_BUFFER)")
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return fmt.Errorf("the combination of internal formats of the attachments is not supported (GL_FRAMEBUFFER_UNSUPPORTED)")
	case gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE:
		return fmt.Errorf("the attachments have different sampling (GL_FRAMEBUFFER_INCOMPLETE_MULTISAMPLE)")
	case gl.FRAMEBUFFER_INCOMPLETE_LAYER_TARGETS:
		return fmt.Errorf("the attachments are not all layered (GL_FRAMEBUFFER_INCOMPLETE_LAYER_TARGETS)")
	}
	return fmt.Errorf("unknown framebuffer status: %X", status)
}

func (fb *framebuffer) Bind(target uint32) BoundFramebuffer {
	State.BindFramebuffer(target, fb.glId)
	return BoundFramebuffer(fb)
}

func (fb *framebuffer) AttachTexture(index int, texture UnboundTexture) {
	fb.AttachTextureLevel(index, texture, 0)
}

func (fb *framebuffer) AttachTextureLevel(index int, texture UnboundTexture, level int) {
	gl.NamedFramebufferTexture(fb.glId, attachmentEnum(index), texture.Id(), int32(level))
}

func (fb *framebuffer) AttachTextureLayerLevel(index int, texture UnboundTexture, layer, level int) {
	attachment := attachmentEnum(index)
	// https://community.intel.com/t5/Graphics/glNamedFramebufferTextureLayer-rejects-cubemaps-of-any-kind/td-p/1167643
	if texture.Type() == gl.TEXTURE_CUBE_MAP && Env.UseIntelCubemapDsaFix {
		prevDraw := State.DrawFramebuffer
		prevRead := State.ReadFramebuffer
		fb.Bind(gl.FRAMEBUFFER)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X+layer), texture.Id(), int32(level))
		State.BindDrawFramebuffer(prevDraw)
		State.BindReadFramebuffer(prevRead)
		return
	}
	gl.NamedFramebufferTextureLayer(fb.glId, attachment, texture.Id(), int32(level), int32(layer))
}

func (fb *framebuffer) AttachRenderbuffer(index int, renderbuffer UnboundRenderbuffer) {
	gl.NamedFramebufferRenderbuffer(fb.glId, attachmentEnum(index), gl.RENDERBUFFER, renderbuffer.Id())
}

func (fb *framebuffer) Delete() {
	if State != nil {
		if State.DrawFramebuffer == fb.glId {
			State.DrawFramebuffer = 0
		}
		if State.ReadFramebuffer == fb.glId {
			State.ReadFramebuffer = 0
		}
	}
	gl.DeleteFramebuffers(1, &fb.glId)
	fb.glId = 0
}

// BlitFramebuffer copies src to dst, where either may be nil for the default framebuffer.
func BlitFramebuffer(src, dst UnboundFramebuffer, srcW, srcH, dstW, dstH int, mask uint32, filter uint32) {
	var srcId, dstId uint32
	if src != nil {
		srcId = src.Id()
	}
	if dst != nil {
		dstId = dst.Id()
	}
	gl.BlitNamedFramebuffer(srcId, dstId, 0, 0, int32(srcW), int32(srcH), 0, 0, int32(dstW), int32(dstH), mask, filter)
}

type renderbuffer struct {
	glId uint32
	// width, height, samples of the current storage
	dims [3]int
}

type UnboundRenderbuffer interface {
	LabeledGlObject
	Id() uint32
	Allocate(internalFormat uint32, width, height int)
	AllocateMS(internalFormat uint32, width, height, samples int)
	Delete()
}

func NewRenderbuffer() UnboundRenderbuffer {
	var id uint32
	gl.CreateRenderbuffers(1, &id)
	return &renderbuffer{
		glId: id,
	}
}

func (rb *renderbuffer) Id() uint32 {
	return rb.glId
}

func (rb *renderbuffer) SetDebugLabel(label string) {
	setObjectLabel(gl.RENDERBUFFER, rb.glId, label)
}

// Allocate respecifies the storage; renderbuffers, unlike textures, stay mutable.
func (rb *renderbuffer) Allocate(internalFormat uint32, width, height int) {
	if rb.dims == [3]int{width, height, 0} {
		return
	}
	gl.NamedRenderbufferStorage(rb.glId, internalFormat, int32(width), int32(height))
	rb.dims = [3]int{width, height, 0}
}

func (rb *renderbuffer) AllocateMS(internalFormat uint32, width, height, samples int) {
	gl.NamedRenderbufferStorageMultisample(rb.glId, int32(samples), internalFormat, int32(width), int32(height))
	rb.dims = [3]int{width, height, samples}
}

func (rb *renderbuffer) Delete() {
	gl.DeleteRenderbuffers(1, &rb.glId)
	rb.glId = 0
}
