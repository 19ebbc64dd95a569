package libtext

import (
	"pbrview/libgl"
	"pbrview/libscn"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

const textureUnit = 0

type Renderer struct {
	Atlas    *Atlas
	texture  libgl.UnboundTexture
	pipeline libgl.UnboundShaderPipeline
}

func NewRenderer(atlas *Atlas, pipeline libgl.UnboundShaderPipeline) *Renderer {
	tex := libgl.NewTexture(gl.TEXTURE_2D)
	tex.Allocate(1, gl.R8, atlas.Width, atlas.Height, 0)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	tex.Load(0, atlas.Width, atlas.Height, 0, gl.RED, atlas.Image.Pix)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	tex.FilterMode(gl.NEAREST, gl.NEAREST)
	tex.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, 0)
	tex.SetDebugLabel("font atlas")

	pipeline.SetUniform("u_atlas_size", mgl32.Vec2{float32(atlas.Width), float32(atlas.Height)})
	pipeline.SetUniform("u_render_size", mgl32.Vec2{float32(atlas.CellWidth), float32(atlas.CellHeight)})
	pipeline.SetUniform("u_atlas", textureUnit)

	return &Renderer{
		Atlas:    atlas,
		texture:  tex,
		pipeline: pipeline,
	}
}

// Draw renders text with its top left corner at pixel (x, y) of a screen of the given size.
// The caller sets up blending.
func (r *Renderer) Draw(text string, x, y int, color mgl32.Vec4, screen mgl32.Vec2) {
	r.pipeline.Bind()
	r.texture.Bind(textureUnit)
	r.pipeline.SetUniform("u_font_color", color)
	r.pipeline.SetUniform("u_screen_size", screen)

	cx := x
	for _, ch := range text {
		if ch == '\n' {
			cx = x
			y += r.Atlas.CellHeight
			continue
		}
		offset, _ := r.Atlas.GlyphOffset(ch)
		if ch != ' ' {
			r.pipeline.SetUniform("u_render_coords", mgl32.Vec2{float32(cx), float32(y)})
			r.pipeline.SetUniform("u_texture_offset", float32(offset))
			libscn.DrawQuad()
		}
		cx += r.Atlas.CellWidth
	}
}

func (r *Renderer) Delete() {
	r.texture.Delete()
}
