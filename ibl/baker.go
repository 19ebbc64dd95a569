package ibl

import (
	"fmt"
	"time"

	"pbrview/libgl"
	"pbrview/libimg"
	"pbrview/libscn"
	"pbrview/libutil"
	"pbrview/logger"

	"github.com/go-gl/gl/v4.5-core/gl"
	"go.uber.org/zap"
)

const (
	SkyboxSize      = 512
	IrradianceSize  = 32
	PrefilterSize   = 128
	PrefilterLevels = 5
	BrdfLutSize     = 512
)

// ProgramSource resolves shader pipelines by name.
type ProgramSource interface {
	Get(name string) (libgl.UnboundShaderPipeline, bool)
}

type StageTiming struct {
	Name     string
	Duration time.Duration
}

// Environment holds the baked lighting textures. It owns all four.
type Environment struct {
	Skybox     libgl.UnboundTexture
	Irradiance libgl.UnboundTexture
	Prefilter  libgl.UnboundTexture
	BrdfLut    libgl.UnboundTexture
	Timings    []StageTiming
}

func (env *Environment) Delete() {
	libutil.DeleteAll([]libutil.Deleter{env.Skybox, env.Irradiance, env.Prefilter, env.BrdfLut})
}

type Baker struct {
	SkyboxSize      int
	IrradianceSize  int
	PrefilterSize   int
	PrefilterLevels int
	BrdfLutSize     int

	// CubeFormat is the internal format of the three cube maps.
	CubeFormat uint32

	convert    libgl.UnboundShaderPipeline
	irradiance libgl.UnboundShaderPipeline
	prefilter  libgl.UnboundShaderPipeline
	brdf       libgl.UnboundShaderPipeline

	cube          *libscn.GpuMesh
	flatSampler   libgl.UnboundSampler
	mipmapSampler libgl.UnboundSampler
}

func NewBaker(programs ProgramSource) (*Baker, error) {
	baker := &Baker{
		SkyboxSize:      SkyboxSize,
		IrradianceSize:  IrradianceSize,
		PrefilterSize:   PrefilterSize,
		PrefilterLevels: PrefilterLevels,
		BrdfLutSize:     BrdfLutSize,
		CubeFormat:      gl.RGB16F,
	}

	for name, dst := range map[string]*libgl.UnboundShaderPipeline{
		"cubemap":    &baker.convert,
		"irradiance": &baker.irradiance,
		"prefilter":  &baker.prefilter,
		"brdf":       &baker.brdf,
	} {
		pipeline, ok := programs.Get(name)
		if !ok {
			return nil, fmt.Errorf("shader pipeline %q is required for baking", name)
		}
		*dst = pipeline
	}

	baker.cube = libscn.Upload(libscn.NewUnitCube())

	baker.flatSampler = libgl.NewSampler()
	baker.flatSampler.FilterMode(gl.LINEAR, gl.LINEAR)
	baker.flatSampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
	baker.flatSampler.SetDebugLabel("ibl linear")

	baker.mipmapSampler = libgl.NewSampler()
	baker.mipmapSampler.FilterMode(gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR)
	baker.mipmapSampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
	baker.mipmapSampler.SetDebugLabel("ibl trilinear")

	return baker, nil
}

func (baker *Baker) Delete() {
	baker.cube.Delete()
	baker.flatSampler.Delete()
	baker.mipmapSampler.Delete()
}

// cubePass renders every level and face of a new cube map with one pipeline.
type cubePass struct {
	Name   string
	Size   int
	Levels int
	// Mipmaps allocates a full chain, captures level 0 and generates the rest.
	Mipmaps  bool
	Format   uint32
	Pipeline libgl.UnboundShaderPipeline
	Source   libgl.UnboundTexture
	Filter   libgl.UnboundSampler
	PerLevel func(level, size int)
}

func (baker *Baker) bakeCube(target *captureTarget, pass cubePass) (_ libgl.UnboundTexture, err error) {
	libgl.PushDebugGroup(pass.Name)
	defer libgl.PopDebugGroup()

	levels := pass.Levels
	captureLevels := pass.Levels
	if pass.Mipmaps {
		levels = libutil.MipLevels(pass.Size)
		captureLevels = 1
	}

	tex := libgl.NewTexture(gl.TEXTURE_CUBE_MAP)
	defer func() {
		if err != nil {
			tex.Delete()
		}
	}()
	tex.Allocate(levels, pass.Format, pass.Size, pass.Size, 0)
	tex.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
	if levels > 1 {
		tex.FilterMode(gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR)
	} else {
		tex.FilterMode(gl.LINEAR, gl.LINEAR)
	}
	tex.SetDebugLabel(pass.Name)

	pass.Pipeline.Bind()
	pass.Pipeline.SetUniform("u_projection_mat", captureProjection)
	pass.Pipeline.SetUniform("u_environment", 0)
	pass.Source.Bind(0)
	pass.Filter.Bind(0)
	baker.cube.VertexArray.Bind()

	for level := 0; level < captureLevels; level++ {
		size := levelSize(pass.Size, level)
		target.Resize(size)
		if pass.PerLevel != nil {
			pass.PerLevel(level, size)
		}
		for face := 0; face < 6; face++ {
			pass.Pipeline.SetUniform("u_view_mat", captureViews[face])
			if err := target.AttachFace(tex, face, level); err != nil {
				return nil, fmt.Errorf("could not attach %s face %d level %d: %w", pass.Name, face, level, err)
			}
			gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
			baker.cube.Draw()
		}
	}

	if pass.Mipmaps {
		tex.GenerateMipmap()
	}

	return tex, nil
}

func (baker *Baker) bakeBrdfLut(target *captureTarget) (_ libgl.UnboundTexture, err error) {
	libgl.PushDebugGroup("brdf lut")
	defer libgl.PopDebugGroup()

	lut := libgl.NewTexture(gl.TEXTURE_2D)
	defer func() {
		if err != nil {
			lut.Delete()
		}
	}()
	lut.Allocate(1, gl.RG16F, baker.BrdfLutSize, baker.BrdfLutSize, 0)
	lut.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, 0)
	lut.FilterMode(gl.LINEAR, gl.LINEAR)
	lut.SetDebugLabel("brdf lut")

	target.Resize(baker.BrdfLutSize)
	if err := target.AttachTexture(lut); err != nil {
		return nil, fmt.Errorf("could not attach brdf lut: %w", err)
	}
	baker.brdf.Bind()
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	libscn.DrawQuad()

	return lut, nil
}

// timed runs a stage to completion on the GPU and records how long it took.
func timed(timings *[]StageTiming, name string, stage func() error) error {
	start := time.Now()
	if err := stage(); err != nil {
		return err
	}
	gl.Finish()
	took := time.Since(start)
	*timings = append(*timings, StageTiming{Name: name, Duration: took})
	logger.Log.Info("Baked environment stage", zap.String("stage", name), zap.Duration("took", took))
	return nil
}

// Bake produces the skybox, irradiance, prefilter and BRDF textures from an
// equirectangular image, in that order. The capture state is released on return.
func (baker *Baker) Bake(hdr *libimg.Hdr) (_ *Environment, err error) {
	if hdr == nil || hdr.Width() == 0 || hdr.Height() == 0 {
		return nil, ErrEmptyImage
	}

	libgl.PushDebugGroup("ibl bake")
	defer libgl.PopDebugGroup()

	env := &Environment{}
	defer func() {
		if err != nil {
			env.Delete()
		}
	}()

	equirect := libgl.NewTexture(gl.TEXTURE_2D)
	defer equirect.Delete()
	equirect.Allocate(1, gl.RGB16F, hdr.Width(), hdr.Height(), 0)
	equirect.Load(0, hdr.Width(), hdr.Height(), 0, gl.RGB, hdr.Pix)
	equirect.SetDebugLabel("equirectangular environment")

	target := newCaptureTarget()
	defer target.Delete()

	depthTest, cullFace := libgl.State.Caps[libgl.DepthTest], libgl.State.Caps[libgl.CullFace]
	libgl.State.Disable(libgl.DepthTest)
	libgl.State.Disable(libgl.CullFace)
	libgl.State.Enable(libgl.TextureCubeMapSeamless)
	defer func() {
		libgl.State.Toggle(libgl.DepthTest, depthTest)
		libgl.State.Toggle(libgl.CullFace, cullFace)
		libgl.State.BindSampler(0, 0)
		libgl.State.BindDrawFramebuffer(0)
	}()

	err = timed(&env.Timings, "skybox", func() (err error) {
		env.Skybox, err = baker.bakeCube(target, cubePass{
			Name:     "skybox",
			Size:     baker.SkyboxSize,
			Mipmaps:  true,
			Format:   baker.CubeFormat,
			Pipeline: baker.convert,
			Source:   equirect,
			Filter:   baker.flatSampler,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	err = timed(&env.Timings, "irradiance", func() (err error) {
		env.Irradiance, err = baker.bakeCube(target, cubePass{
			Name:     "irradiance",
			Size:     baker.IrradianceSize,
			Levels:   1,
			Format:   baker.CubeFormat,
			Pipeline: baker.irradiance,
			Source:   env.Skybox,
			Filter:   baker.mipmapSampler,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	err = timed(&env.Timings, "prefilter", func() (err error) {
		env.Prefilter, err = baker.bakeCube(target, cubePass{
			Name:     "prefilter",
			Size:     baker.PrefilterSize,
			Levels:   baker.PrefilterLevels,
			Format:   baker.CubeFormat,
			Pipeline: baker.prefilter,
			Source:   env.Skybox,
			Filter:   baker.mipmapSampler,
			PerLevel: func(level, size int) {
				baker.prefilter.SetUniform("u_roughness", PrefilterRoughness(level, baker.PrefilterLevels))
				baker.prefilter.SetUniform("u_source_size", float32(baker.SkyboxSize))
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	err = timed(&env.Timings, "brdf lut", func() (err error) {
		env.BrdfLut, err = baker.bakeBrdfLut(target)
		return err
	})
	if err != nil {
		return nil, err
	}

	return env, nil
}
