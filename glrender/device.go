package glrender

// Program is a linked shader program handle.
type Program uint32

// Buffer is a GPU buffer object handle.
type Buffer uint32

// VertexArray is a vertex array object handle. It records the element
// buffer binding and vertex attribute layout of one drawable.
type VertexArray uint32

// Primitive selects how DrawElements assembles indices.
type Primitive uint8

const (
	Triangles Primitive = iota + 1
	LineLoop
)

func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "triangles"
	case LineLoop:
		return "line-loop"
	}
	return "primitive(?)"
}

// Device is the subset of an OpenGL-like graphics API used by Context.
// All calls happen on the goroutine that owns the graphics context.
// Locations returned by AttribLocation and UniformLocation are -1 when
// the linked program does not declare the name.
type Device interface {
	// CompileProgram compiles and links a combined vertex+fragment shader
	// source where each stage is preceded by a "#shader vertex" or
	// "#shader fragment" line. The error carries the driver log.
	CompileProgram(source string) (Program, error)
	UseProgram(p Program)
	DeleteProgram(p Program)
	AttribLocation(p Program, name string) int32
	UniformLocation(p Program, name string) int32
	// UniformMatrix4 uploads a column-major 4x4 matrix to the active program.
	// m must not be retained after the call returns.
	UniformMatrix4(location int32, m *[16]float32)
	Uniform1f(location int32, v float32)

	NewVertexArray() VertexArray
	BindVertexArray(va VertexArray)
	DeleteVertexArray(va VertexArray)
	NewBuffer() Buffer
	DeleteBuffer(b Buffer)
	// ArrayBufferData binds b as the vertex array buffer and uploads data.
	ArrayBufferData(b Buffer, data []float32)
	// ElementBufferData binds b as the element buffer of the bound vertex
	// array and uploads data.
	ElementBufferData(b Buffer, data []uint32)
	// VertexAttribPointer describes the bound array buffer as tightly packed
	// float vectors of the given size and enables the attribute.
	VertexAttribPointer(attrib uint32, size int)

	Viewport(width, height int)
	ClearColor(r, g, b, a float32)
	// Clear clears the color buffer.
	Clear()
	// DrawElements draws count indices of the bound element buffer
	// starting at index first.
	DrawElements(mode Primitive, count, first int)
}

// Scheduler is the host's per-display-frame notification mechanism.
// RequestFrame registers a callback to be invoked once before the next
// repaint with a monotonic timestamp in milliseconds.
type Scheduler interface {
	RequestFrame(cb func(ms float64))
}
