// Package ibl bakes image based lighting data from equirectangular HDR environments:
// a skybox cube map, a diffuse irradiance cube map, a specular prefilter cube map chain
// and the split-sum BRDF lookup table.
package ibl

import "errors"

const MagicNumberIBLENV = 0x78b85411

var ErrEmptyImage = errors.New("environment image is empty")

type CubeMapFace int

const (
	CubeMapPositiveX = CubeMapFace(iota)
	CubeMapNegativeX
	CubeMapPositiveY
	CubeMapNegativeY
	CubeMapPositiveZ
	CubeMapNegativeZ
)

var cubeMapFaceNames = [6]string{"+x", "-x", "+y", "-y", "+z", "-z"}

func (face CubeMapFace) String() string {
	return cubeMapFaceNames[face]
}

type IblEnvVersion uint32

const (
	IblEnvVersion1_001_000 = IblEnvVersion(1_001_000)
	// adds the level count
	IblEnvVersion1_002_000 = IblEnvVersion(1_002_000)
)

type IblEnvCompression uint32

const (
	IblEnvCompressionNone = IblEnvCompression(iota)
	IblEnvCompressionLZ4Fast
	IblEnvCompressionLZ4
)

type iblEnvHeader1_001_000 struct {
	Check       uint32
	Version     IblEnvVersion
	Compression IblEnvCompression
	Size        uint32
}

type IblEnvHeader struct {
	iblEnvHeader1_001_000
	Levels uint32
}

// IblEnv is an RGB float cube map with a chain of levels. Each level stores its six
// faces back to back in +x, -x, +y, -y, +z, -z order, rows top to bottom as GL expects.
type IblEnv struct {
	BaseSize int
	Levels   int
	data     []float32
	faces    [][6][]float32
}

func levelSize(base, level int) int {
	size := base >> level
	if size < 1 {
		return 1
	}
	return size
}

// calcCubeMapOffset returns the pixel range of a level within the concatenated data.
func calcCubeMapOffset(size, level int) (start, end int) {
	for l := 0; l < level; l++ {
		s := levelSize(size, l)
		start += 6 * s * s
	}
	s := levelSize(size, level)
	return start, start + 6*s*s
}

func calcCubeMapPixels(size, levels int) int {
	_, end := calcCubeMapOffset(size, levels-1)
	return end
}

func NewIblEnv(data []float32, size, levels int) *IblEnv {
	faces := make([][6][]float32, levels)
	for l := 0; l < levels; l++ {
		start, _ := calcCubeMapOffset(size, l)
		s := levelSize(size, l)
		o := s * s * 3
		for f := 0; f < 6; f++ {
			lo := start*3 + f*o
			faces[l][f] = data[lo : lo+o : lo+o]
		}
	}

	return &IblEnv{
		BaseSize: size,
		Levels:   levels,
		data:     data,
		faces:    faces,
	}
}

// NewEmptyIblEnv allocates a zeroed environment.
func NewEmptyIblEnv(size, levels int) *IblEnv {
	return NewIblEnv(make([]float32, calcCubeMapPixels(size, levels)*3), size, levels)
}

func (env *IblEnv) Size(level int) int {
	return levelSize(env.BaseSize, level)
}

func (env *IblEnv) Face(level, face int) []float32 {
	return env.faces[level][face]
}

// Level returns all six faces of a level as one slice.
func (env *IblEnv) Level(level int) []float32 {
	start, end := calcCubeMapOffset(env.BaseSize, level)
	return env.data[start*3 : end*3]
}

func (env *IblEnv) Concat() []float32 {
	return env.data
}
