package libgl

import (
	"fmt"

	"pbrview/libutil"
	"pbrview/logger"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type texture struct {
	glId       uint32
	dimensions uint32
	levels     int
	width      int
	height     int
	depth      int
}

type UnboundTexture interface {
	LabeledGlObject
	Id() uint32
	Type() uint32
	Width() int
	Height() int
	Levels() int
	Bind(unit int) BoundTexture
	Allocate(levels int, internalFormat uint32, width, height, depth int)
	AllocateMS(internalFormat uint32, width, height, samples int, fixedSampleLocations bool)
	Load(level int, width, height, depth int, format uint32, data any)
	LoadLayer(level, layer int, width, height int, format uint32, data any)
	Download(level, layer int, format uint32, data any)
	FilterMode(min, mag int32)
	WrapMode(s, t, r int32)
	MipmapLevels(base, max int)
	GenerateMipmap()
	Delete()
}

type BoundTexture interface {
	UnboundTexture
}

func NewTexture(dimensions uint32) UnboundTexture {
	var id uint32
	gl.CreateTextures(dimensions, 1, &id)
	if Env.UseIntelTextureBindingFix {
		Env.IntelTextureBindingTargets[id] = dimensions
	}
	return &texture{
		glId:       id,
		dimensions: dimensions,
	}
}

func (tex *texture) storageDimensions() int {
	switch tex.dimensions {
	case gl.TEXTURE_1D:
		return 1
	case gl.TEXTURE_3D, gl.TEXTURE_2D_ARRAY:
		return 3
	case gl.TEXTURE_2D, gl.TEXTURE_2D_MULTISAMPLE, gl.TEXTURE_CUBE_MAP, gl.TEXTURE_1D_ARRAY:
		return 2
	default:
		gl.DebugMessageInsert(gl.DEBUG_SOURCE_APPLICATION, gl.DEBUG_TYPE_ERROR, 1, gl.DEBUG_SEVERITY_MEDIUM, -1, gl.Str(fmt.Sprintf("invalid texture dimension for texture %d: %04x\x00", tex.glId, tex.dimensions)))
		return 0
	}
}

func (tex *texture) Id() uint32 {
	return tex.glId
}

func (tex *texture) Type() uint32 {
	return tex.dimensions
}

func (tex *texture) Width() int {
	return tex.width
}

func (tex *texture) Height() int {
	return tex.height
}

func (tex *texture) Levels() int {
	return tex.levels
}

func (tex *texture) SetDebugLabel(label string) {
	setObjectLabel(gl.TEXTURE, tex.glId, label)
}

func (tex *texture) Bind(unit int) BoundTexture {
	State.BindTextureUnit(unit, tex.glId)
	return BoundTexture(tex)
}

func (tex *texture) Delete() {
	if State != nil {
		State.forgetTexture(tex.glId)
	}
	gl.DeleteTextures(1, &tex.glId)
	tex.glId = 0
}

// Allocate creates immutable storage. A levels value of 0 allocates the full mip chain.
// Cube maps are allocated as 2D storage with six implicit faces.
func (tex *texture) Allocate(levels int, internalFormat uint32, width, height, depth int) {
	if levels == 0 {
		levels = libutil.MipLevels(libutil.MaxI(libutil.MaxI(width, height), depth))
	}
	tex.levels = levels
	tex.width = width
	tex.height = height
	tex.depth = depth
	switch tex.storageDimensions() {
	case 1:
		gl.TextureStorage1D(tex.glId, int32(levels), internalFormat, int32(width))
	case 2:
		gl.TextureStorage2D(tex.glId, int32(levels), internalFormat, int32(width), int32(height))
	case 3:
		gl.TextureStorage3D(tex.glId, int32(levels), internalFormat, int32(width), int32(height), int32(depth))
	}
}

func (tex *texture) AllocateMS(internalFormat uint32, width, height, samples int, fixedSampleLocations bool) {
	tex.levels = 1
	tex.width = width
	tex.height = height
	gl.TextureStorage2DMultisample(tex.glId, int32(samples), internalFormat, int32(width), int32(height), fixedSampleLocations)
}

func (tex *texture) Load(level int, width, height, depth int, format uint32, data any) {
	dataType := getGlType(data)
	switch tex.storageDimensions() {
	case 1:
		gl.TextureSubImage1D(tex.glId, int32(level), 0, int32(width), format, dataType, Pointer(data))
	case 2:
		if tex.dimensions == gl.TEXTURE_CUBE_MAP {
			gl.TextureSubImage3D(tex.glId, int32(level), 0, 0, 0, int32(width), int32(height), 6, format, dataType, Pointer(data))
			return
		}
		gl.TextureSubImage2D(tex.glId, int32(level), 0, 0, int32(width), int32(height), format, dataType, Pointer(data))
	case 3:
		gl.TextureSubImage3D(tex.glId, int32(level), 0, 0, 0, int32(width), int32(height), int32(depth), format, dataType, Pointer(data))
	}
}

// LoadLayer uploads a single layer, or a single face for cube maps.
func (tex *texture) LoadLayer(level, layer int, width, height int, format uint32, data any) {
	gl.TextureSubImage3D(tex.glId, int32(level), 0, 0, int32(layer), int32(width), int32(height), 1, format, getGlType(data), Pointer(data))
}

// Download reads back one layer (or cube face) of a level into data.
func (tex *texture) Download(level, layer int, format uint32, data any) {
	w := libutil.MaxI(tex.width>>level, 1)
	h := libutil.MaxI(tex.height>>level, 1)
	size := byteSize(data)
	if tex.dimensions == gl.TEXTURE_2D {
		gl.GetTextureSubImage(tex.glId, int32(level), 0, 0, 0, int32(w), int32(h), 1, format, getGlType(data), int32(size), Pointer(data))
		return
	}
	gl.GetTextureSubImage(tex.glId, int32(level), 0, 0, int32(layer), int32(w), int32(h), 1, format, getGlType(data), int32(size), Pointer(data))
}

func (tex *texture) FilterMode(min, mag int32) {
	if min != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_MIN_FILTER, min)
	}
	if mag != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_MAG_FILTER, mag)
	}
}

func (tex *texture) WrapMode(s, t, r int32) {
	if s != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_WRAP_S, s)
	}
	if t != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_WRAP_T, t)
	}
	if r != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_WRAP_R, r)
	}
}

func (tex *texture) GenerateMipmap() {
	gl.GenerateTextureMipmap(tex.glId)
}

func (tex *texture) MipmapLevels(base, max int) {
	gl.TextureParameteri(tex.glId, gl.TEXTURE_BASE_LEVEL, int32(base))
	gl.TextureParameteri(tex.glId, gl.TEXTURE_MAX_LEVEL, int32(max))
}

func getGlType(data any) uint32 {
	switch data.(type) {
	case []byte, *byte:
		return gl.UNSIGNED_BYTE
	case []uint16, *uint16:
		return gl.UNSIGNED_SHORT
	case []float32, *float32, []mgl32.Vec2, []mgl32.Vec3, []mgl32.Vec4:
		return gl.FLOAT
	}
	logger.Log.Panic("Invalid pixel data type", zap.String("type", fmt.Sprintf("%T", data)))
	return 0
}

func byteSize(data any) int {
	switch d := data.(type) {
	case []byte:
		return len(d)
	case []uint16:
		return len(d) * 2
	case []float32:
		return len(d) * 4
	case []mgl32.Vec2:
		return len(d) * 8
	case []mgl32.Vec3:
		return len(d) * 12
	case []mgl32.Vec4:
		return len(d) * 16
	}
	logger.Log.Panic("Invalid pixel data type", zap.String("type", fmt.Sprintf("%T", data)))
	return 0
}

type sampler struct {
	glId uint32
}

type UnboundSampler interface {
	LabeledGlObject
	Id() uint32
	Bind(unit int) BoundSampler
	FilterMode(min, mag int32)
	WrapMode(s, t, r int32)
	AnisotropicFilter(quality float32)
	Delete()
}

type BoundSampler interface {
	UnboundSampler
}

func NewSampler() UnboundSampler {
	var id uint32
	gl.CreateSamplers(1, &id)
	return &sampler{
		glId: id,
	}
}

func (s *sampler) Id() uint32 {
	return s.glId
}

func (s *sampler) SetDebugLabel(label string) {
	setObjectLabel(gl.SAMPLER, s.glId, label)
}

func (s *sampler) Bind(unit int) BoundSampler {
	State.BindSampler(unit, s.glId)
	return BoundSampler(s)
}

func (s *sampler) FilterMode(min, mag int32) {
	if min != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MIN_FILTER, min)
	}
	if mag != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MAG_FILTER, mag)
	}
}

func (s *sampler) WrapMode(ws, wt, wr int32) {
	if ws != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_WRAP_S, ws)
	}
	if wt != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_WRAP_T, wt)
	}
	if wr != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_WRAP_R, wr)
	}
}

// AnisotropicFilter clamps quality to what the driver supports.
func (s *sampler) AnisotropicFilter(quality float32) {
	if max := Env.Features.MaxTextureMaxAnisotropy; quality > max {
		quality = max
	}
	if quality < 1 {
		return
	}
	gl.SamplerParameterf(s.glId, gl.TEXTURE_MAX_ANISOTROPY, quality)
}

func (s *sampler) Delete() {
	if State != nil {
		State.forgetSampler(s.glId)
	}
	gl.DeleteSamplers(1, &s.glId)
	s.glId = 0
}
