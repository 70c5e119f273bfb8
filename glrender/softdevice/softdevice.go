// Package softdevice is a headless glrender.Device that rasterizes draw
// calls on the CPU with fauxgl. It is used to take PNG snapshots of a scene
// without a window or GPU.
//
// The scene fragment shader is not interpreted: shaded triangles are filled
// with Fill and line loops are drawn with Line.
package softdevice

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/glscene/glrender"
	"github.com/soypat/glscene/internal/d3"
)

// Uniform locations assigned to the names we know how to interpret.
var uniformNames = []string{"modelView", "projection", "width", "height"}

type vertexArray struct {
	array   glrender.Buffer // buffer bound when the attribute pointer was set.
	element glrender.Buffer
}

// Device rasterizes into an image of a fixed size. Rendering happens at
// Supersample times the output size and is downscaled on Image.
type Device struct {
	// Fill is the color of shaded triangles, Line the color of line loops.
	Fill, Line fauxgl.Color
	// LineWidth in output pixels.
	LineWidth float64

	width, height int
	supersample   int
	ctx           *fauxgl.Context
	clear         fauxgl.Color

	next       uint32
	programs   map[glrender.Program]bool
	arrays     map[glrender.Buffer][]float32
	elements   map[glrender.Buffer][]uint32
	vaos       map[glrender.VertexArray]*vertexArray
	boundVAO   *vertexArray
	boundArray glrender.Buffer
	modelView  d3.Transform
	projection d3.Transform
	draws      int
}

var _ glrender.Device = (*Device)(nil)

// New returns a Device producing images of width x height pixels.
// supersample values below 1 are treated as 1.
func New(width, height, supersample int) *Device {
	if supersample < 1 {
		supersample = 1
	}
	ctx := fauxgl.NewContext(width*supersample, height*supersample)
	ctx.Cull = fauxgl.CullNone // GL does not cull unless enabled.
	return &Device{
		Fill:        fauxgl.HexColor("#468966"),
		Line:        fauxgl.HexColor("#FFF8E3"),
		LineWidth:   1,
		width:       width,
		height:      height,
		supersample: supersample,
		ctx:         ctx,
		programs:    make(map[glrender.Program]bool),
		arrays:      make(map[glrender.Buffer][]float32),
		elements:    make(map[glrender.Buffer][]uint32),
		vaos:        make(map[glrender.VertexArray]*vertexArray),
		modelView:   d3.Identity(),
		projection:  d3.Identity(),
	}
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) CompileProgram(source string) (glrender.Program, error) {
	if !strings.Contains(source, "#shader vertex") || !strings.Contains(source, "#shader fragment") {
		return 0, errors.New("shader source requires a vertex and a fragment stage")
	}
	p := glrender.Program(d.handle())
	d.programs[p] = true
	return p, nil
}

func (d *Device) UseProgram(p glrender.Program) {}

func (d *Device) DeleteProgram(p glrender.Program) { delete(d.programs, p) }

func (d *Device) AttribLocation(p glrender.Program, name string) int32 {
	if name == "position" {
		return 0
	}
	return -1
}

func (d *Device) UniformLocation(p glrender.Program, name string) int32 {
	for i, n := range uniformNames {
		if n == name {
			return int32(i)
		}
	}
	return -1
}

func (d *Device) UniformMatrix4(location int32, m *[16]float32) {
	switch location {
	case 0:
		d.modelView = d3.Unflatten(*m)
	case 1:
		d.projection = d3.Unflatten(*m)
	}
}

func (d *Device) Uniform1f(location int32, v float32) {}

func (d *Device) NewVertexArray() glrender.VertexArray {
	va := glrender.VertexArray(d.handle())
	d.vaos[va] = &vertexArray{}
	return va
}

func (d *Device) BindVertexArray(va glrender.VertexArray) { d.boundVAO = d.vaos[va] }

func (d *Device) DeleteVertexArray(va glrender.VertexArray) { delete(d.vaos, va) }

func (d *Device) NewBuffer() glrender.Buffer { return glrender.Buffer(d.handle()) }

func (d *Device) DeleteBuffer(b glrender.Buffer) {
	delete(d.arrays, b)
	delete(d.elements, b)
}

func (d *Device) ArrayBufferData(b glrender.Buffer, data []float32) {
	d.arrays[b] = append([]float32(nil), data...)
	d.boundArray = b
}

func (d *Device) ElementBufferData(b glrender.Buffer, data []uint32) {
	d.elements[b] = append([]uint32(nil), data...)
	if d.boundVAO != nil {
		d.boundVAO.element = b
	}
}

func (d *Device) VertexAttribPointer(attrib uint32, size int) {
	if size != 3 {
		panic(fmt.Sprintf("softdevice: unsupported attribute size %d", size))
	}
	if d.boundVAO != nil {
		d.boundVAO.array = d.boundArray
	}
}

func (d *Device) Viewport(width, height int) {}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.clear = fauxgl.Color{R: float64(r), G: float64(g), B: float64(b), A: float64(a)}
}

func (d *Device) Clear() {
	d.ctx.ClearColorBufferWith(d.clear)
	d.ctx.ClearDepthBuffer()
	d.draws = 0
}

func (d *Device) DrawElements(mode glrender.Primitive, count, first int) {
	if d.boundVAO == nil {
		return
	}
	verts := d.arrays[d.boundVAO.array]
	indices := d.elements[d.boundVAO.element]
	if first+count > len(indices) {
		panic("softdevice: draw call exceeds element buffer")
	}
	indices = indices[first : first+count]
	point := func(i uint32) fauxgl.Vector {
		return fauxgl.V(float64(verts[3*i]), float64(verts[3*i+1]), float64(verts[3*i+2]))
	}
	d.draws++
	switch mode {
	case glrender.Triangles:
		d.ctx.Shader = fauxgl.NewSolidColorShader(d.matrix(), d.Fill)
		tris := make([]*fauxgl.Triangle, 0, len(indices)/3)
		for k := 0; k+2 < len(indices); k += 3 {
			tris = append(tris, fauxgl.NewTriangleForPoints(point(indices[k]), point(indices[k+1]), point(indices[k+2])))
		}
		d.ctx.DrawTriangles(tris)
	case glrender.LineLoop:
		d.ctx.Shader = fauxgl.NewSolidColorShader(d.matrix(), d.Line)
		d.ctx.LineWidth = d.LineWidth * float64(d.supersample)
		lines := make([]*fauxgl.Line, 0, len(indices))
		for k := range indices {
			next := indices[(k+1)%len(indices)]
			lines = append(lines, fauxgl.NewLineForPoints(point(indices[k]), point(next)))
		}
		d.ctx.DrawLines(lines)
	default:
		panic("softdevice: unsupported primitive " + mode.String())
	}
}

// matrix returns projection*modelView as a fauxgl matrix.
func (d *Device) matrix() fauxgl.Matrix {
	m := d.projection.Mul(d.modelView)
	at := func(r, c int) float64 { return float64(m.At(r, c)) }
	return fauxgl.Matrix{
		X00: at(0, 0), X01: at(0, 1), X02: at(0, 2), X03: at(0, 3),
		X10: at(1, 0), X11: at(1, 1), X12: at(1, 2), X13: at(1, 3),
		X20: at(2, 0), X21: at(2, 1), X22: at(2, 2), X23: at(2, 3),
		X30: at(3, 0), X31: at(3, 1), X32: at(3, 2), X33: at(3, 3),
	}
}

// Draws returns the number of draw calls issued since the last Clear.
func (d *Device) Draws() int { return d.draws }

// Image returns the current color buffer at the output size.
func (d *Device) Image() image.Image {
	img := d.ctx.Image()
	if d.supersample == 1 {
		return img
	}
	return resize.Resize(uint(d.width), uint(d.height), img, resize.Bilinear)
}

// SavePNG writes the current color buffer as a PNG file.
func (d *Device) SavePNG(path string) error {
	return fauxgl.SavePNG(path, d.Image())
}
