// Package gldevice implements glrender.Device and glrender.Scheduler on an
// OpenGL 3.3 core context inside a GLFW window.
//
// All functions must be called from the thread that created the window.
// Programs using this package should call runtime.LockOSThread from an init
// function.
package gldevice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/all-core/gl"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/glscene/glrender"
)

// Device issues glrender.Device calls to the current OpenGL context.
type Device struct{}

var _ glrender.Device = Device{}

func (Device) CompileProgram(source string) (glrender.Program, error) {
	src, err := glgl.ParseCombined(strings.NewReader(source))
	if err != nil {
		return 0, err
	}
	vertexSrc, fragmentSrc := string(src.Vertex), string(src.Fragment)
	if vertexSrc == "" || fragmentSrc == "" {
		return 0, errors.New("shader source requires a vertex and a fragment stage")
	}
	vs, err := compileShader(gl.VERTEX_SHADER, vertexSrc)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(gl.FRAGMENT_SHADER, fragmentSrc)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fs)

	prog := gl.CreateProgram()
	if prog == 0 {
		return 0, errors.New("unable to create program object")
	}
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)
	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(prog, logLength, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("linking program: %s", strings.TrimRight(log, "\x00"))
	}
	return glrender.Program(prog), nil
}

func compileShader(kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	if shader == 0 {
		return 0, errors.New("unable to create shader object")
	}
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, errors.New(strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (Device) UseProgram(p glrender.Program)    { gl.UseProgram(uint32(p)) }
func (Device) DeleteProgram(p glrender.Program) { gl.DeleteProgram(uint32(p)) }

func (Device) AttribLocation(p glrender.Program, name string) int32 {
	return gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00"))
}

func (Device) UniformLocation(p glrender.Program, name string) int32 {
	return gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
}

func (Device) UniformMatrix4(location int32, m *[16]float32) {
	// Matrices are column-major so no transpose is needed.
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (Device) Uniform1f(location int32, v float32) { gl.Uniform1f(location, v) }

func (Device) NewVertexArray() glrender.VertexArray {
	var va uint32
	gl.GenVertexArrays(1, &va)
	return glrender.VertexArray(va)
}

func (Device) BindVertexArray(va glrender.VertexArray) { gl.BindVertexArray(uint32(va)) }

func (Device) DeleteVertexArray(va glrender.VertexArray) {
	h := uint32(va)
	gl.DeleteVertexArrays(1, &h)
}

func (Device) NewBuffer() glrender.Buffer {
	var b uint32
	gl.GenBuffers(1, &b)
	return glrender.Buffer(b)
}

func (Device) DeleteBuffer(b glrender.Buffer) {
	h := uint32(b)
	gl.DeleteBuffers(1, &h)
}

func (Device) ArrayBufferData(b glrender.Buffer, data []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	if len(data) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.STATIC_DRAW)
		return
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(data), gl.Ptr(data), gl.STATIC_DRAW)
}

func (Device) ElementBufferData(b glrender.Buffer, data []uint32) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(b))
	if len(data) == 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 0, nil, gl.STATIC_DRAW)
		return
	}
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(data), gl.Ptr(data), gl.STATIC_DRAW)
}

func (Device) VertexAttribPointer(attrib uint32, size int) {
	gl.VertexAttribPointer(attrib, int32(size), gl.FLOAT, false, 0, nil)
	gl.EnableVertexAttribArray(attrib)
}

func (Device) Viewport(width, height int) { gl.Viewport(0, 0, int32(width), int32(height)) }

func (Device) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (Device) Clear() { gl.Clear(gl.COLOR_BUFFER_BIT) }

func (Device) DrawElements(mode glrender.Primitive, count, first int) {
	var glmode uint32
	switch mode {
	case glrender.Triangles:
		glmode = gl.TRIANGLES
	case glrender.LineLoop:
		glmode = gl.LINE_LOOP
	default:
		panic("unsupported primitive " + mode.String())
	}
	gl.DrawElements(glmode, int32(count), gl.UNSIGNED_INT, gl.PtrOffset(4*first))
}
