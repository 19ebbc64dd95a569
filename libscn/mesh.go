package libscn

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type Mesh struct {
	Name     string
	Vertices []Vertex
	// Indices is empty for meshes drawn as plain triangle lists.
	Indices []uint32
}

type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Uv       mgl32.Vec2
}

const VertexSize = int(unsafe.Sizeof(Vertex{}))
const ElementIndexSize = int(unsafe.Sizeof(uint32(0)))

// NewUvSphere builds a unit sphere of (xSegments+1)*(ySegments+1) vertices.
// The seam and pole vertices are duplicated so every vertex has its own uv.
func NewUvSphere(xSegments, ySegments int) *Mesh {
	stride := xSegments + 1
	vertices := make([]Vertex, 0, stride*(ySegments+1))
	for y := 0; y <= ySegments; y++ {
		for x := 0; x <= xSegments; x++ {
			u := float32(x) / float32(xSegments)
			v := float32(y) / float32(ySegments)
			phi, theta := u*2*math32.Pi, v*math32.Pi
			pos := mgl32.Vec3{
				math32.Cos(phi) * math32.Sin(theta),
				math32.Cos(theta),
				math32.Sin(phi) * math32.Sin(theta),
			}
			vertices = append(vertices, Vertex{
				Position: pos,
				Normal:   pos.Normalize(),
				Uv:       mgl32.Vec2{u, v},
			})
		}
	}

	indices := make([]uint32, 0, 6*xSegments*ySegments)
	for y := 0; y < ySegments; y++ {
		for x := 0; x < xSegments; x++ {
			i0 := uint32(y*stride + x)
			i1 := i0 + uint32(stride)
			i2 := i0 + 1
			i3 := i1 + 1
			indices = append(indices, i0, i2, i1, i2, i3, i1)
		}
	}

	return &Mesh{Name: "sphere", Vertices: vertices, Indices: indices}
}

type cubeFace struct {
	normal, u, v mgl32.Vec3
}

// u cross v equals the normal, so corners are counter-clockwise from outside
var cubeFaces = [6]cubeFace{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
}

// NewUnitCube builds the [-1,1] cube as 36 unindexed vertices.
func NewUnitCube() *Mesh {
	corners := [6][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, -1}, {1, 1}, {-1, 1}}
	vertices := make([]Vertex, 0, 36)
	for _, face := range cubeFaces {
		for _, c := range corners {
			vertices = append(vertices, Vertex{
				Position: face.normal.Add(face.u.Mul(c[0])).Add(face.v.Mul(c[1])),
				Normal:   face.normal,
				Uv:       mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2},
			})
		}
	}
	return &Mesh{Name: "cube", Vertices: vertices}
}

// NewScreenQuad covers clip space with two triangles at z = 0.
func NewScreenQuad() *Mesh {
	corners := [6][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, -1}, {1, 1}, {-1, 1}}
	vertices := make([]Vertex, len(corners))
	for i, c := range corners {
		vertices[i] = Vertex{
			Position: mgl32.Vec3{c[0], c[1], 0},
			Normal:   mgl32.Vec3{0, 0, 1},
			Uv:       mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2},
		}
	}
	return &Mesh{Name: "quad", Vertices: vertices}
}
