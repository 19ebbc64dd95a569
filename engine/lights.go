package engine

import (
	"pbrview/libgl"

	"github.com/go-gl/mathgl/mgl32"
)

const LightCount = 4

// Lights are the optional point lights in front of the sphere grid.
type Lights struct {
	Enabled   bool
	Positions [LightCount]mgl32.Vec3
	Colors    [LightCount]mgl32.Vec3
}

func NewLights(enabled bool) *Lights {
	return &Lights{
		Enabled: enabled,
		Positions: [LightCount]mgl32.Vec3{
			{-10, 10, 10},
			{10, 10, 10},
			{-10, -10, 10},
			{10, -10, 10},
		},
		Colors: [LightCount]mgl32.Vec3{
			{300, 300, 300},
			{300, 300, 300},
			{300, 300, 300},
			{300, 300, 300},
		},
	}
}

// Count is the number of active lights.
func (lights *Lights) Count() int {
	if !lights.Enabled {
		return 0
	}
	return LightCount
}

func (lights *Lights) Toggle() {
	lights.Enabled = !lights.Enabled
}

// Apply sets the light uniforms of a pipeline.
func (lights *Lights) Apply(pipeline libgl.UnboundShaderPipeline) {
	pipeline.SetUniform("u_light_count", int32(lights.Count()))
	for i := 0; i < lights.Count(); i++ {
		pipeline.SetUniformIndexed("u_light_positions", i, lights.Positions[i])
		pipeline.SetUniformIndexed("u_light_colors", i, lights.Colors[i])
	}
}
