package mesh

import (
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glscene/internal/d3"
)

// GeometryLoadError is returned when a mesh cannot be built from its
// source because the input is malformed, truncated or empty.
type GeometryLoadError struct {
	// Source names the input, usually a file path. May be empty.
	Source string
	Err    error
}

func (e *GeometryLoadError) Error() string {
	if e.Source == "" {
		return "mesh load: " + e.Err.Error()
	}
	return "mesh load " + e.Source + ": " + e.Err.Error()
}

func (e *GeometryLoadError) Unwrap() error { return e.Err }

// Mesh is a triangle soup. Every input vertex gets its own index,
// no vertex sharing is attempted.
type Mesh struct {
	vertices []float32
	indices  []uint32
	model    d3.Transform
}

// NewMesh flattens the triangles into vertex and index buffers.
// An empty triangle slice yields an empty mesh.
func NewMesh(triangles []ms3.Triangle, model d3.Transform) *Mesh {
	m := &Mesh{
		vertices: make([]float32, 0, 9*len(triangles)),
		indices:  make([]uint32, 0, 3*len(triangles)),
		model:    model,
	}
	for _, tri := range triangles {
		for _, v := range tri {
			m.indices = append(m.indices, uint32(len(m.vertices)/3))
			m.vertices = append(m.vertices, v.X, v.Y, v.Z)
		}
	}
	return m
}

// Vertices returns the mesh vertex buffer. Callers must not modify it.
func (m *Mesh) Vertices() []float32 { return m.vertices }

// Indices returns the mesh index buffer. Callers must not modify it.
func (m *Mesh) Indices() []uint32 { return m.indices }

func (m *Mesh) ModelTransform() d3.Transform { return m.model }

// SetModelTransform replaces the mesh's model transform.
func (m *Mesh) SetModelTransform(t d3.Transform) { m.model = t }

// Bake applies t to every vertex of the mesh in place. It is used to
// normalize ingested geometry before registration and leaves the model
// transform untouched.
func (m *Mesh) Bake(t d3.Transform) {
	for i := 0; i+2 < len(m.vertices); i += 3 {
		v := t.Apply(ms3.Vec{X: m.vertices[i], Y: m.vertices[i+1], Z: m.vertices[i+2]})
		m.vertices[i], m.vertices[i+1], m.vertices[i+2] = v.X, v.Y, v.Z
	}
}

// Triangles returns the number of triangles in the mesh.
func (m *Mesh) Triangles() int { return len(m.indices) / 3 }
