package mesh

import "github.com/soypat/glscene/internal/d3"

// Box is an axis aligned box drawn as 12 triangles over its 8 corners.
type Box struct {
	xmin, ymin, zmin float32
	xmax, ymax, zmax float32
	model            d3.Transform
}

// NewBox returns a box with the given bounds. Bounds where min >= max are
// accepted and produce a flat or inverted box.
func NewBox(xmin, ymin, zmin, xmax, ymax, zmax float32, model d3.Transform) *Box {
	return &Box{
		xmin: xmin, ymin: ymin, zmin: zmin,
		xmax: xmax, ymax: ymax, zmax: zmax,
		model: model,
	}
}

// Vertices returns the 8 box corners. B/T is bottom/top (y), L/R is
// left/right (x) and B/F is back/front (z).
func (b *Box) Vertices() []float32 {
	return []float32{
		b.xmin, b.ymin, b.zmin, // BLB 0
		b.xmin, b.ymin, b.zmax, // BLF 1
		b.xmin, b.ymax, b.zmin, // TLB 2
		b.xmin, b.ymax, b.zmax, // TLF 3
		b.xmax, b.ymin, b.zmin, // BRB 4
		b.xmax, b.ymin, b.zmax, // BRF 5
		b.xmax, b.ymax, b.zmin, // TRB 6
		b.xmax, b.ymax, b.zmax, // TRF 7
	}
}

// Indices returns two triangles for each of the 6 faces.
func (b *Box) Indices() []uint32 {
	return []uint32{
		1, 3, 7, 1, 5, 7, // front
		0, 2, 6, 0, 4, 6, // back
		2, 3, 7, 2, 6, 7, // top
		0, 1, 5, 0, 4, 5, // bottom
		4, 5, 7, 4, 6, 7, // right
		0, 1, 3, 0, 2, 3, // left
	}
}

func (b *Box) ModelTransform() d3.Transform { return b.model }

// SetModelTransform replaces the box's model transform.
func (b *Box) SetModelTransform(t d3.Transform) { b.model = t }
