// Package mesh provides the geometry the render context draws: a
// parametric box, triangle meshes ingested from STL files and an
// animation wrapper that spins either of them.
package mesh

import (
	"errors"
	"fmt"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glscene/internal/d3"
)

// Drawable is geometry paired with a model transform, ready to be
// uploaded to the GPU.
type Drawable interface {
	// Vertices returns tightly packed vertex positions, 3 floats per vertex.
	Vertices() []float32
	// Indices returns triangle indices into Vertices, 3 per triangle.
	Indices() []uint32
	// ModelTransform returns the current model-to-world transform.
	// It may change between calls for animated drawables.
	ModelTransform() d3.Transform
}

// Animator is implemented by drawables whose model transform depends on time.
// ms is a monotonic timestamp in milliseconds.
type Animator interface {
	Animate(ms float64)
}

var errBadGeometry = errors.New("invalid drawable geometry")

// Validate checks the geometry invariants of d: vertices come in
// groups of 3, indices come in groups of 3 and every index
// references an existing vertex.
func Validate(d Drawable) error {
	verts := d.Vertices()
	if len(verts)%3 != 0 {
		return fmt.Errorf("%w: vertex buffer length %d not a multiple of 3", errBadGeometry, len(verts))
	}
	idx := d.Indices()
	if len(idx)%3 != 0 {
		return fmt.Errorf("%w: index buffer length %d not a multiple of 3", errBadGeometry, len(idx))
	}
	nv := uint32(len(verts) / 3)
	for i, v := range idx {
		if v >= nv {
			return fmt.Errorf("%w: index %d at position %d out of range for %d vertices", errBadGeometry, v, i, nv)
		}
	}
	return nil
}

// Bounds returns the bounding box of the drawable's vertices in model space.
// It returns the zero Box for a drawable with no vertices.
func Bounds(d Drawable) ms3.Box {
	verts := d.Vertices()
	if len(verts) < 3 {
		return ms3.Box{}
	}
	bb := ms3.Box{
		Min: ms3.Vec{X: verts[0], Y: verts[1], Z: verts[2]},
		Max: ms3.Vec{X: verts[0], Y: verts[1], Z: verts[2]},
	}
	for i := 3; i+2 < len(verts); i += 3 {
		v := ms3.Vec{X: verts[i], Y: verts[i+1], Z: verts[i+2]}
		bb.Min = ms3.MinElem(bb.Min, v)
		bb.Max = ms3.MaxElem(bb.Max, v)
	}
	return bb
}

// FitTransform returns a transform that centers bb on the origin and
// scales it uniformly so its longest side measures size.
// Boxes with no extent are only centered.
func FitTransform(bb ms3.Box, size float32) d3.Transform {
	center := bb.Center()
	toOrigin := d3.Translate(ms3.Scale(-1, center))
	sz := bb.Size()
	long := max(sz.X, sz.Y, sz.Z)
	if long <= 0 {
		return toOrigin
	}
	k := size / long
	return d3.Scale(ms3.Vec{X: k, Y: k, Z: k}).Mul(toOrigin)
}
