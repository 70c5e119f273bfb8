package d3

import (
	"math"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

func TestFlattenRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		var a [16]float32
		for j := range a {
			a[j] = math.Float32frombits(rng.Uint32())
		}
		got := Flatten(Unflatten(a))
		for j := range a {
			if math.Float32bits(got[j]) != math.Float32bits(a[j]) {
				t.Fatalf("element %d: got bits %#x, want %#x", j, math.Float32bits(got[j]), math.Float32bits(a[j]))
			}
		}
	}
}

func TestFlattenColumnMajor(t *testing.T) {
	rowMajor := []float32{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
		12, 13, 14, 15,
	}
	tf := NewTransform(rowMajor)
	flat := Flatten(tf)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			want := rowMajor[r*4+c]
			if flat[c*4+r] != want {
				t.Errorf("flat[%d] = %v, want %v", c*4+r, flat[c*4+r], want)
			}
			if tf.At(r, c) != want {
				t.Errorf("At(%d,%d) = %v, want %v", r, c, tf.At(r, c), want)
			}
		}
	}
	// Translation must land in the last column as per OpenGL convention.
	tr := Flatten(Translate(ms3.Vec{X: 1, Y: 2, Z: 3}))
	if tr[12] != 1 || tr[13] != 2 || tr[14] != 3 {
		t.Errorf("translation not in elements 12..14: %v", tr)
	}

	var dst [16]float32
	FlattenInto(dst[:], tf)
	if dst != flat {
		t.Error("FlattenInto mismatch with Flatten")
	}
}

func TestMulIdentity(t *testing.T) {
	a := RotateY(0.3).Mul(Translate(ms3.Vec{X: 1, Y: -2, Z: 5}))
	if !Identity().Mul(a).EqualWithin(a, 0) {
		t.Error("I*a != a")
	}
	if !a.Mul(Identity()).EqualWithin(a, 0) {
		t.Error("a*I != a")
	}
}

func TestMulOrder(t *testing.T) {
	// Scale then translate.
	m := Translate(ms3.Vec{X: 1}).Mul(Scale(ms3.Vec{X: 2, Y: 2, Z: 2}))
	got := m.Apply(ms3.Vec{X: 1, Y: 1, Z: 1})
	want := ms3.Vec{X: 3, Y: 2, Z: 2}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRotations(t *testing.T) {
	const tol = 1e-6
	for _, test := range []struct {
		name string
		tf   Transform
		in   ms3.Vec
		want ms3.Vec
	}{
		{"X", RotateX(math32.Pi / 2), ms3.Vec{Y: 1}, ms3.Vec{Z: 1}},
		{"Y", RotateY(math32.Pi / 2), ms3.Vec{Z: 1}, ms3.Vec{X: 1}},
		{"Z", RotateZ(math32.Pi / 2), ms3.Vec{X: 1}, ms3.Vec{Y: 1}},
		{"axisZ", Rotate(ms3.Vec{Z: 3}, math32.Pi/2), ms3.Vec{X: 1}, ms3.Vec{Y: 1}},
		{"zeroAxis", Rotate(ms3.Vec{}, 1), ms3.Vec{X: 1}, ms3.Vec{X: 1}},
	} {
		got := test.tf.Apply(test.in)
		if !equalVec(got, test.want, tol) {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}
	if !Rotate(ms3.Vec{Y: 1}, 0.7).EqualWithin(RotateY(0.7), 1e-6) {
		t.Error("Rotate about Y disagrees with RotateY")
	}
}

func TestPerspectiveLookAt(t *testing.T) {
	const tol = 1e-5
	eye := ms3.Vec{Y: 10, Z: 10}
	view := LookAt(eye, ms3.Vec{}, ms3.Vec{Y: 1})
	// Eye goes to camera origin.
	if got := view.Apply(eye); !equalVec(got, ms3.Vec{}, tol) {
		t.Errorf("eye in view space: %v", got)
	}
	// Target is straight ahead down -Z.
	got := view.Apply(ms3.Vec{})
	if math32.Abs(got.X) > tol || math32.Abs(got.Y) > tol || got.Z >= 0 {
		t.Errorf("target in view space: %v", got)
	}
	const near, far = 0.1, 100
	proj := Perspective(0.8, 1.5, near, far)
	if z := proj.Apply(ms3.Vec{Z: -near}).Z; math32.Abs(z+1) > tol {
		t.Errorf("near plane maps to z=%v, want -1", z)
	}
	if z := proj.Apply(ms3.Vec{Z: -far}).Z; math32.Abs(z-1) > 1e-3 {
		t.Errorf("far plane maps to z=%v, want 1", z)
	}
}

func TestNewTransformPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewTransform(make([]float32, 15))
}

func equalVec(a, b ms3.Vec, tol float32) bool {
	return math32.Abs(a.X-b.X) <= tol && math32.Abs(a.Y-b.Y) <= tol && math32.Abs(a.Z-b.Z) <= tol
}
