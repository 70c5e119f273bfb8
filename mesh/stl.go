package mesh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chewxy/math32"
	"github.com/hschendel/stl"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glscene/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNormalMismatch is returned alongside the triangles by ReadBinarySTL when
// a stored facet normal does not agree with the normal calculated from the
// facet vertices. The geometry is usually fine when this happens.
var ErrNormalMismatch = errors.New("STL triangle normal not approximately equal to normal calculated from vertices")

const (
	stlHeaderSize   = 84
	stlTriangleSize = 50
	// Sniffing window used to tell ASCII from binary STL.
	stlSniffSize = 512
)

// LoadSTL reads a binary or ASCII STL file from r and returns a Mesh with
// the given model transform. Any failure to produce a valid, non-empty
// triangle list is reported as a *GeometryLoadError and no Mesh is returned.
func LoadSTL(r io.ReadSeeker, model d3.Transform) (*Mesh, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, &GeometryLoadError{Err: err}
	}
	var sniff [stlSniffSize]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, &GeometryLoadError{Err: err}
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, &GeometryLoadError{Err: err}
	}
	var triangles []ms3.Triangle
	if isASCIISTL(sniff[:n]) {
		triangles, err = ReadASCIISTL(r)
	} else {
		triangles, err = ReadBinarySTL(r)
		if errors.Is(err, ErrNormalMismatch) {
			err = nil
		}
	}
	if err != nil {
		return nil, &GeometryLoadError{Err: err}
	}
	if len(triangles) == 0 {
		return nil, &GeometryLoadError{Err: errors.New("STL contains no triangles")}
	}
	return NewMesh(triangles, model), nil
}

// isASCIISTL reports whether the head of a file looks like ASCII STL.
// Some binary exporters also begin their header with "solid" so we
// look for a facet keyword as well.
func isASCIISTL(head []byte) bool {
	head = bytes.TrimLeft(head, " \t\r\n")
	if !bytes.HasPrefix(head, []byte("solid")) {
		return false
	}
	return bytes.Contains(head, []byte("facet")) || bytes.Contains(head, []byte("endsolid"))
}

// ReadASCIISTL reads an ASCII STL solid from r.
func ReadASCIISTL(r io.ReadSeeker) ([]ms3.Triangle, error) {
	solid, err := stl.ReadAll(r)
	if err != nil {
		return nil, err
	}
	output := make([]ms3.Triangle, 0, len(solid.Triangles))
	for i, t := range solid.Triangles {
		var d stlTriangle
		d.Normal = t.Normal
		d.Vertex1 = t.Vertices[0]
		d.Vertex2 = t.Vertices[1]
		d.Vertex3 = t.Vertices[2]
		if bad3F32(d.Vertex1) || bad3F32(d.Vertex2) || bad3F32(d.Vertex3) {
			return nil, fmt.Errorf("%d/%d STL triangles read: inf/NaN STL triangle vertex", i+1, len(solid.Triangles))
		}
		output = append(output, d.Triangle())
	}
	return output, nil
}

// ReadBinarySTL reads a binary STL file from r. A zero triangle count in the
// header is an error. If only ErrNormalMismatch is returned the triangles
// are returned as well.
func ReadBinarySTL(r io.Reader) (output []ms3.Triangle, readErr error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, errors.New("encountered EOF while reading STL header")
		}
		return nil, errors.New("STL header read failed: " + err.Error())
	}
	if header.Count == 0 {
		return nil, errors.New("STL header indicates 0 triangles present")
	}
	var (
		buf            [stlTriangleSize]byte
		d              stlTriangle
		i              int
		normMismatches int
	)
	defer func() {
		if readErr != nil && !errors.Is(readErr, ErrNormalMismatch) {
			readErr = fmt.Errorf("%d/%d STL triangles read: %w", i+1, header.Count, readErr)
		}
	}()
	output = make([]ms3.Triangle, 0, min(int(header.Count), 1<<16))
	for i = 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		d.get(buf[:])
		if err := d.validate(); err != nil {
			if !errors.Is(err, ErrNormalMismatch) {
				return nil, err
			}
			normMismatches++
			if normMismatches > 10_000 {
				// This may be valid output, so we return the triangles.
				return output, fmt.Errorf("got too many normal vector mismatches (%d)", normMismatches)
			}
			readErr = err
		}
		output = append(output, d.Triangle())
	}
	return output, readErr
}

// WriteBinarySTL writes model triangles to a writer in binary STL format.
func WriteBinarySTL(w io.Writer, model []ms3.Triangle) (int, error) {
	if len(model) == 0 {
		return 0, errors.New("empty triangle slice")
	}
	nt := int64(len(model)) // int64 cast so that next line works correctly on 32bit machines.
	if nt > math.MaxUint32 {
		return 0, errors.New("amount of triangles in model exceeds STL design limits")
	}
	header := stlHeader{Count: uint32(nt)}
	var buf [stlHeaderSize]byte
	header.put(buf[:])
	n, err := w.Write(buf[:])
	if err != nil {
		return n, err
	} else if n != len(buf) {
		return n, io.ErrShortWrite
	}
	var d stlTriangle
	for _, triangle := range model {
		norm := ms3.Unit(triangle.Normal())
		d.Normal = [3]float32{norm.X, norm.Y, norm.Z}
		d.Vertex1 = [3]float32{triangle[0].X, triangle[0].Y, triangle[0].Z}
		d.Vertex2 = [3]float32{triangle[1].X, triangle[1].Y, triangle[1].Z}
		d.Vertex3 = [3]float32{triangle[2].X, triangle[2].Y, triangle[2].Z}
		d.put(buf[:])
		ngot, err := w.Write(buf[:stlTriangleSize])
		n += ngot
		if err != nil {
			return n, err
		} else if ngot != stlTriangleSize {
			return n, io.ErrShortWrite
		}
	}
	return n, nil
}

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

func (h stlHeader) put(b []byte) {
	_ = b[83] // early bounds check
	binary.LittleEndian.PutUint32(b[80:], h.Count)
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // Attribute byte count
}

func (t stlTriangle) put(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0) // Zero out attributes.
}

func (t *stlTriangle) get(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to unmarshal stlTriangle")
	}
	get3F32(b, &t.Normal)
	get3F32(b[12:], &t.Vertex1)
	get3F32(b[24:], &t.Vertex2)
	get3F32(b[36:], &t.Vertex3)
	// no attributes supported yet.
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11] // early bounds check
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

func (t stlTriangle) validate() error {
	const epsilon = 1e-12
	const normTol = 5e-2
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN STL triangle vertex")
	}
	if t.degenerate(epsilon) {
		return errors.New("triangle is degenerate")
	}
	if t.Normal == [3]float32{} {
		// Many exporters leave the normal zeroed.
		return nil
	}
	calc := t.normalFromVertices()
	got := r3From3F32(t.Normal)
	if !r3EqualWithin(calc, got, normTol) && !r3EqualWithin(r3.Scale(-1, calc), got, normTol) {
		return ErrNormalMismatch // sometimes may fail
	}
	return nil
}

func r3From3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

func r3EqualWithin(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

// normalFromVertices calculates the facet normal in double precision.
func (t stlTriangle) normalFromVertices() r3.Vec {
	v1 := r3.Scale(10, r3From3F32(t.Vertex1))
	v2 := r3.Scale(10, r3From3F32(t.Vertex2))
	v3 := r3.Scale(10, r3From3F32(t.Vertex3))
	e1 := r3.Sub(v2, v1)
	e2 := r3.Sub(v3, v1)
	return r3.Unit(r3.Cross(e1, e2))
}

func vecFromArray(f [3]float32) ms3.Vec {
	return ms3.Vec{X: f[0], Y: f[1], Z: f[2]}
}

func (t stlTriangle) Triangle() ms3.Triangle {
	return ms3.Triangle{vecFromArray(t.Vertex1), vecFromArray(t.Vertex2), vecFromArray(t.Vertex3)}
}

// degenerate returns true if the triangle has coincident vertices.
func (t stlTriangle) degenerate(tol float32) bool {
	return t.Triangle().IsDegenerate(tol)
}
