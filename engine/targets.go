package engine

import (
	"fmt"

	"pbrview/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
)

// RenderTargets are the multisampled scene target and the single sample texture it resolves into.
type RenderTargets struct {
	Width, Height int
	Samples       int

	Msaa      libgl.UnboundFramebuffer
	msaaColor libgl.UnboundRenderbuffer
	msaaDepth libgl.UnboundRenderbuffer

	Resolve      libgl.UnboundFramebuffer
	ResolveColor libgl.UnboundTexture
}

func NewRenderTargets(width, height, samples int) (*RenderTargets, error) {
	if samples < 1 {
		samples = 1
	}
	if libgl.Env != nil && libgl.Env.Features.MaxSamples > 0 && int32(samples) > libgl.Env.Features.MaxSamples {
		samples = int(libgl.Env.Features.MaxSamples)
	}
	targets := &RenderTargets{Samples: samples}
	if err := targets.Resize(width, height); err != nil {
		targets.Delete()
		return nil, err
	}
	return targets, nil
}

// Resize recreates all attachments. Immutable storage cannot be reallocated in place.
func (targets *RenderTargets) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid render target size %dx%d", width, height)
	}
	targets.Delete()
	targets.Width, targets.Height = width, height

	targets.msaaColor = libgl.NewRenderbuffer()
	targets.msaaColor.AllocateMS(gl.RGBA16F, width, height, targets.Samples)
	targets.msaaColor.SetDebugLabel("scene msaa color")
	targets.msaaDepth = libgl.NewRenderbuffer()
	targets.msaaDepth.AllocateMS(gl.DEPTH24_STENCIL8, width, height, targets.Samples)
	targets.msaaDepth.SetDebugLabel("scene msaa depth")

	targets.Msaa = libgl.NewFramebuffer()
	targets.Msaa.SetDebugLabel("scene msaa")
	targets.Msaa.AttachRenderbuffer(0, targets.msaaColor)
	targets.Msaa.AttachRenderbuffer(gl.DEPTH_STENCIL_ATTACHMENT, targets.msaaDepth)
	targets.Msaa.BindTargets(0)
	if err := targets.Msaa.Check(gl.DRAW_FRAMEBUFFER); err != nil {
		return fmt.Errorf("could not create the multisampled render target: %w", err)
	}

	targets.ResolveColor = libgl.NewTexture(gl.TEXTURE_2D)
	targets.ResolveColor.Allocate(1, gl.RGBA16F, width, height, 0)
	targets.ResolveColor.FilterMode(gl.LINEAR, gl.LINEAR)
	targets.ResolveColor.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, 0)
	targets.ResolveColor.SetDebugLabel("scene resolved color")

	targets.Resolve = libgl.NewFramebuffer()
	targets.Resolve.SetDebugLabel("scene resolve")
	targets.Resolve.AttachTexture(0, targets.ResolveColor)
	targets.Resolve.BindTargets(0)
	if err := targets.Resolve.Check(gl.DRAW_FRAMEBUFFER); err != nil {
		return fmt.Errorf("could not create the resolve render target: %w", err)
	}
	return nil
}

// ResolveMsaa blits the multisampled color into the resolve texture.
func (targets *RenderTargets) ResolveMsaa() {
	libgl.BlitFramebuffer(targets.Msaa, targets.Resolve, targets.Width, targets.Height, targets.Width, targets.Height, gl.COLOR_BUFFER_BIT, gl.NEAREST)
}

func (targets *RenderTargets) Delete() {
	for _, obj := range []interface{ Delete() }{targets.Msaa, targets.msaaColor, targets.msaaDepth, targets.Resolve, targets.ResolveColor} {
		if obj != nil {
			obj.Delete()
		}
	}
	targets.Msaa, targets.msaaColor, targets.msaaDepth = nil, nil, nil
	targets.Resolve, targets.ResolveColor = nil, nil
}
