package d3

// Flatten returns the 16 elements of t in column-major order, the exact
// layout consumed by glUniformMatrix4fv with transpose=false. Element
// (row r, column c) is at index c*4+r. No arithmetic is performed so the
// result is bit-exact.
func Flatten(t Transform) [16]float32 {
	return t.m
}

// Unflatten is the inverse of Flatten. a must be in column-major order.
func Unflatten(a [16]float32) Transform {
	return Transform{m: a}
}

// FlattenInto writes the column-major elements of t into dst, which
// should be of length 16. It panics if dst is shorter.
func FlattenInto(dst []float32, t Transform) {
	if len(dst) < 16 {
		panic("FlattenInto requires 16 elements")
	}
	copy(dst, t.m[:])
}
