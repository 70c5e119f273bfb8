package d3

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// Transform represents a 4x4 spatial transformation in single precision.
// Elements are stored in column-major order: row r, column c is found at
// index c*4+r. This is the layout OpenGL expects from glUniformMatrix4fv
// with transpose set to false, and is the only layout used in this module.
//
// Transform is a value type. Methods return new transforms and never
// modify the receiver. The zero value is the zero matrix, use Identity
// for the identity transform.
type Transform struct {
	m [16]float32
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{m: [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// NewTransform returns a new Transform populated with the 16 values in
// a given in row-major form, which is how matrices are usually written
// down in source code. If a is nil NewTransform returns the zero Transform.
func NewTransform(a []float32) Transform {
	if a == nil {
		return Transform{}
	}
	if len(a) != 16 {
		panic("Transform is initialized with 16 values")
	}
	var t Transform
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t.m[c*4+r] = a[r*4+c]
		}
	}
	return t
}

// At returns the element at row r and column c.
func (t Transform) At(r, c int) float32 {
	if r < 0 || r > 3 || c < 0 || c > 3 {
		panic("Transform index out of range")
	}
	return t.m[c*4+r]
}

// Mul multiplies the Transforms t and b and returns the result t*b.
// Applying the result to a vector is equivalent to applying b first and t second.
func (t Transform) Mul(b Transform) Transform {
	var m Transform
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += t.m[k*4+r] * b.m[c*4+k]
			}
			m.m[c*4+r] = sum
		}
	}
	return m
}

// Apply applies the Transform to the argument point, performs the
// perspective divide and returns the result.
func (t Transform) Apply(v ms3.Vec) ms3.Vec {
	m := &t.m
	w := m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]
	if w == 0 {
		w = 1
	}
	w = 1 / w
	return ms3.Vec{
		X: (m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]) * w,
		Y: (m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]) * w,
		Z: (m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]) * w,
	}
}

// Translate returns a translation transform.
func Translate(v ms3.Vec) Transform {
	t := Identity()
	t.m[12] = v.X
	t.m[13] = v.Y
	t.m[14] = v.Z
	return t
}

// Scale returns a scaling transform about the origin.
func Scale(factor ms3.Vec) Transform {
	var t Transform
	t.m[0] = factor.X
	t.m[5] = factor.Y
	t.m[10] = factor.Z
	t.m[15] = 1
	return t
}

// RotateX returns a rotation of angle radians about the X axis.
func RotateX(angle float32) Transform {
	s, c := math32.Sincos(angle)
	return NewTransform([]float32{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	})
}

// RotateY returns a rotation of angle radians about the Y axis.
func RotateY(angle float32) Transform {
	s, c := math32.Sincos(angle)
	return NewTransform([]float32{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	})
}

// RotateZ returns a rotation of angle radians about the Z axis.
func RotateZ(angle float32) Transform {
	s, c := math32.Sincos(angle)
	return NewTransform([]float32{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// Rotate returns a right-handed rotation of angle radians about axis.
// axis need not be normalized. A zero axis returns the identity.
func Rotate(axis ms3.Vec, angle float32) Transform {
	if ms3.Norm(axis) == 0 {
		return Identity()
	}
	a := ms3.Unit(axis)
	s, c := math32.Sincos(angle)
	k := 1 - c
	return NewTransform([]float32{
		a.X*a.X*k + c, a.X*a.Y*k - a.Z*s, a.X*a.Z*k + a.Y*s, 0,
		a.Y*a.X*k + a.Z*s, a.Y*a.Y*k + c, a.Y*a.Z*k - a.X*s, 0,
		a.Z*a.X*k - a.Y*s, a.Z*a.Y*k + a.X*s, a.Z*a.Z*k + c, 0,
		0, 0, 0, 1,
	})
}

// Perspective returns a right-handed perspective projection mapping camera
// space into OpenGL clip space. fovy is the vertical field of view in radians.
func Perspective(fovy, aspect, near, far float32) Transform {
	f := 1 / math32.Tan(fovy/2)
	nf := 1 / (near - far)
	return NewTransform([]float32{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, 2 * far * near * nf,
		0, 0, -1, 0,
	})
}

// LookAt returns a right-handed view transform placing the camera at eye
// looking towards target with the given up direction.
func LookAt(eye, target, up ms3.Vec) Transform {
	f := ms3.Unit(ms3.Sub(target, eye))
	s := ms3.Unit(ms3.Cross(f, up))
	u := ms3.Cross(s, f)
	return NewTransform([]float32{
		s.X, s.Y, s.Z, -dot(s, eye),
		u.X, u.Y, u.Z, -dot(u, eye),
		-f.X, -f.Y, -f.Z, dot(f, eye),
		0, 0, 0, 1,
	})
}

// EqualWithin tests the equality of the Transforms to within a tolerance.
func (t Transform) EqualWithin(b Transform, tol float32) bool {
	for i := range t.m {
		if math32.Abs(t.m[i]-b.m[i]) > tol {
			return false
		}
	}
	return true
}

func dot(a, b ms3.Vec) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}
