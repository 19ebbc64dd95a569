package libscn

import (
	"unsafe"

	"pbrview/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
)

// GpuMesh is an uploaded Mesh. It is immutable after Upload.
type GpuMesh struct {
	Name          string
	VertexArray   libgl.UnboundVertexArray
	VertexBuffer  libgl.UnboundBuffer
	ElementBuffer libgl.UnboundBuffer
	VertexCount   int
	IndexCount    int
}

func Upload(mesh *Mesh) *GpuMesh {
	vbo := libgl.NewBuffer()
	vbo.Allocate(mesh.Vertices, 0)
	vbo.SetDebugLabel(mesh.Name + " vertices")

	vao := libgl.NewVertexArray()
	vao.Layout(0, 0, 3, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Position)))
	vao.Layout(0, 1, 3, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Normal)))
	vao.Layout(0, 2, 2, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Uv)))
	vao.BindBuffer(0, vbo, 0, VertexSize)
	vao.SetDebugLabel(mesh.Name)

	gpu := &GpuMesh{
		Name:         mesh.Name,
		VertexArray:  vao,
		VertexBuffer: vbo,
		VertexCount:  len(mesh.Vertices),
		IndexCount:   len(mesh.Indices),
	}

	if len(mesh.Indices) > 0 {
		ebo := libgl.NewBuffer()
		ebo.Allocate(mesh.Indices, 0)
		ebo.SetDebugLabel(mesh.Name + " indices")
		vao.BindElementBuffer(ebo)
		gpu.ElementBuffer = ebo
	}

	return gpu
}

// Draw issues an indexed draw when the mesh has indices and a plain triangle draw otherwise.
func (mesh *GpuMesh) Draw() {
	mesh.VertexArray.Bind()
	if mesh.ElementBuffer != nil {
		gl.DrawElements(gl.TRIANGLES, int32(mesh.IndexCount), gl.UNSIGNED_INT, nil)
		return
	}
	gl.DrawArrays(gl.TRIANGLES, 0, int32(mesh.VertexCount))
}

func (mesh *GpuMesh) Delete() {
	mesh.VertexArray.Delete()
	mesh.VertexBuffer.Delete()
	if mesh.ElementBuffer != nil {
		mesh.ElementBuffer.Delete()
	}
}
