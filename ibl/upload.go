package ibl

import (
	"fmt"

	"pbrview/libgl"
	"pbrview/libio"
	"pbrview/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
)

// uploadCube allocates levels mips, 0 meaning the full chain.
func uploadCube(name string, env *IblEnv, levels int) libgl.UnboundTexture {
	if levels == 0 {
		levels = libutil.MipLevels(env.BaseSize)
	}
	tex := libgl.NewTexture(gl.TEXTURE_CUBE_MAP)
	tex.Allocate(levels, gl.RGB16F, env.BaseSize, env.BaseSize, 0)
	tex.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
	if levels > 1 {
		tex.FilterMode(gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR)
	} else {
		tex.FilterMode(gl.LINEAR, gl.LINEAR)
	}
	tex.SetDebugLabel(name)

	for level := 0; level < env.Levels && level < levels; level++ {
		size := env.Size(level)
		tex.Load(level, size, size, 6, gl.RGB, env.Level(level))
	}
	if env.Levels < levels {
		tex.GenerateMipmap()
	}
	return tex
}

// Upload builds an Environment from prebaked cube maps and lookup table. A skybox
// without a full chain gets its missing levels generated.
func Upload(skybox, irradiance, prefilter *IblEnv, lut *libio.FloatImage) (*Environment, error) {
	for name, env := range map[string]*IblEnv{"skybox": skybox, "irradiance": irradiance, "prefilter": prefilter} {
		if env == nil || env.BaseSize == 0 {
			return nil, fmt.Errorf("prebaked %s: %w", name, ErrEmptyImage)
		}
	}
	if lut == nil || lut.Width == 0 || lut.Height == 0 {
		return nil, fmt.Errorf("prebaked brdf lut: %w", ErrEmptyImage)
	}
	if lut.Channels != 2 {
		return nil, fmt.Errorf("prebaked brdf lut has %d channels, expected 2", lut.Channels)
	}

	env := &Environment{
		Skybox:     uploadCube("skybox", skybox, 0),
		Irradiance: uploadCube("irradiance", irradiance, 1),
		Prefilter:  uploadCube("prefilter", prefilter, prefilter.Levels),
	}

	env.BrdfLut = libgl.NewTexture(gl.TEXTURE_2D)
	env.BrdfLut.Allocate(1, gl.RG16F, lut.Width, lut.Height, 0)
	env.BrdfLut.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, 0)
	env.BrdfLut.FilterMode(gl.LINEAR, gl.LINEAR)
	env.BrdfLut.Load(0, lut.Width, lut.Height, 0, gl.RG, lut.Pix)
	env.BrdfLut.SetDebugLabel("brdf lut")

	return env, nil
}
