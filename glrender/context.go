// Package glrender draws mesh.Drawable objects through a Device and drives
// the per-frame redraw loop.
package glrender

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/soypat/glscene/internal/d3"
	"github.com/soypat/glscene/mesh"
)

//go:embed shaders/scene.glsl
var sceneShader string

// Names declared by the scene shader.
const (
	attribPosition    = "position"
	uniformModelView  = "modelView"
	uniformProjection = "projection"
	uniformWidth      = "width"
	uniformHeight     = "height"
)

// ErrMoved is the panic value when a Context is used after it was handed
// to the frame loop with Start.
var ErrMoved = errors.New("glrender: context used after being moved into frame loop")

// Mode selects how registered objects are drawn.
type Mode uint8

const (
	// Shaded draws filled triangles.
	Shaded Mode = iota
	// Wireframe draws every triangle as a closed line loop. Edges shared
	// between triangles are drawn once per triangle.
	Wireframe
)

func (m Mode) String() string {
	switch m {
	case Shaded:
		return "shaded"
	case Wireframe:
		return "wireframe"
	}
	return "mode(?)"
}

// ParseMode parses the String form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "shaded", "":
		return Shaded, nil
	case "wireframe":
		return Wireframe, nil
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

// ObjectID identifies an object registered with a Context.
type ObjectID uint32

// Config holds the parameters of a new Context.
type Config struct {
	Width, Height int
	// Projection maps world space to clip space. It is usually the camera
	// perspective multiplied by the view transform and is uploaded once.
	Projection d3.Transform
	Mode       Mode
	ClearColor [4]float32
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

type object struct {
	id       ObjectID
	drawable mesh.Drawable
	va       VertexArray
	vbuf     Buffer
	ibuf     Buffer
	nindices int
}

// Context owns the shader program, the GPU buffers of every registered
// drawable and the camera projection. It is not safe for concurrent use.
type Context struct {
	dev        Device
	log        *slog.Logger
	prog       Program
	attrib     int32
	locModel   int32
	locProj    int32
	mode       Mode
	projection d3.Transform
	width      int
	height     int
	clear      [4]float32
	objects    []object
	lastID     ObjectID
	mat        [16]float32 // Upload scratch.
}

// NewContext compiles the scene shader on dev and uploads the projection
// and viewport size uniforms. Errors are fatal setup errors.
func NewContext(dev Device, cfg Config) (*Context, error) {
	if dev == nil {
		return nil, errors.New("nil device")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", cfg.Width, cfg.Height)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	prog, err := dev.CompileProgram(sceneShader)
	if err != nil {
		return nil, fmt.Errorf("building scene shader program: %w", err)
	}
	rc := &Context{
		dev:        dev,
		log:        log,
		prog:       prog,
		mode:       cfg.Mode,
		projection: cfg.Projection,
		width:      cfg.Width,
		height:     cfg.Height,
		clear:      cfg.ClearColor,
	}
	dev.UseProgram(prog)
	rc.attrib = dev.AttribLocation(prog, attribPosition)
	if rc.attrib < 0 {
		dev.DeleteProgram(prog)
		return nil, fmt.Errorf("scene shader does not declare attribute %q", attribPosition)
	}
	rc.locModel = rc.uniformLocation(uniformModelView)
	rc.locProj = rc.uniformLocation(uniformProjection)
	dev.Viewport(cfg.Width, cfg.Height)
	rc.uploadMatrix(rc.locProj, cfg.Projection)
	rc.uploadFloat(rc.uniformLocation(uniformWidth), float32(cfg.Width))
	rc.uploadFloat(rc.uniformLocation(uniformHeight), float32(cfg.Height))
	log.Debug("render context created", slog.Int("width", cfg.Width), slog.Int("height", cfg.Height), slog.String("mode", cfg.Mode.String()))
	return rc, nil
}

func (rc *Context) uniformLocation(name string) int32 {
	loc := rc.dev.UniformLocation(rc.prog, name)
	if loc < 0 {
		rc.log.Warn("uniform not declared by shader program, uploads will be skipped", slog.String("uniform", name))
	}
	return loc
}

func (rc *Context) uploadMatrix(loc int32, t d3.Transform) {
	if loc < 0 {
		return
	}
	d3.FlattenInto(rc.mat[:], t)
	rc.dev.UniformMatrix4(loc, &rc.mat)
}

func (rc *Context) uploadFloat(loc int32, v float32) {
	if loc < 0 {
		return
	}
	rc.dev.Uniform1f(loc, v)
}

func (rc *Context) mustOwn() {
	if rc.dev == nil {
		panic(ErrMoved)
	}
}

// AddObject uploads the geometry of d into a dedicated vertex and index
// buffer and makes d's current model transform the active model uniform.
// Objects are drawn in registration order. AddObject panics if d's
// geometry violates the index invariants.
func (rc *Context) AddObject(d mesh.Drawable) ObjectID {
	rc.mustOwn()
	if err := mesh.Validate(d); err != nil {
		panic(err)
	}
	verts := d.Vertices()
	indices := d.Indices()
	rc.lastID++
	obj := object{
		id:       rc.lastID,
		drawable: d,
		va:       rc.dev.NewVertexArray(),
		vbuf:     rc.dev.NewBuffer(),
		ibuf:     rc.dev.NewBuffer(),
		nindices: len(indices),
	}
	rc.dev.BindVertexArray(obj.va)
	rc.dev.ArrayBufferData(obj.vbuf, verts)
	rc.dev.VertexAttribPointer(uint32(rc.attrib), 3)
	rc.dev.ElementBufferData(obj.ibuf, indices)
	rc.uploadMatrix(rc.locModel, d.ModelTransform())
	rc.objects = append(rc.objects, obj)
	rc.log.Debug("object added", slog.Int("id", int(obj.id)), slog.Int("vertices", len(verts)/3), slog.Int("triangles", len(indices)/3))
	return obj.id
}

// RemoveObject releases the GPU buffers of the object and stops drawing it.
// It reports whether the object was registered.
func (rc *Context) RemoveObject(id ObjectID) bool {
	rc.mustOwn()
	for i := range rc.objects {
		if rc.objects[i].id != id {
			continue
		}
		rc.releaseObject(rc.objects[i])
		rc.objects = append(rc.objects[:i], rc.objects[i+1:]...)
		return true
	}
	return false
}

func (rc *Context) releaseObject(obj object) {
	rc.dev.DeleteBuffer(obj.vbuf)
	rc.dev.DeleteBuffer(obj.ibuf)
	rc.dev.DeleteVertexArray(obj.va)
}

// Len returns the number of registered objects.
func (rc *Context) Len() int {
	rc.mustOwn()
	return len(rc.objects)
}

// Mode returns the current render mode.
func (rc *Context) Mode() Mode {
	rc.mustOwn()
	return rc.mode
}

// SetMode sets the render mode used by following frames.
func (rc *Context) SetMode(m Mode) {
	rc.mustOwn()
	rc.mode = m
}

// Projection returns the projection transform set at construction.
func (rc *Context) Projection() d3.Transform {
	rc.mustOwn()
	return rc.projection
}

// Tick redraws the scene once: the color buffer is cleared and then every
// object, in registration order, has its current model transform uploaded
// followed by its draw calls.
func (rc *Context) Tick() {
	rc.mustOwn()
	dev := rc.dev
	dev.ClearColor(rc.clear[0], rc.clear[1], rc.clear[2], rc.clear[3])
	dev.Clear()
	for i := range rc.objects {
		obj := &rc.objects[i]
		dev.BindVertexArray(obj.va)
		rc.uploadMatrix(rc.locModel, obj.drawable.ModelTransform())
		switch rc.mode {
		case Wireframe:
			for first := 0; first+3 <= obj.nindices; first += 3 {
				dev.DrawElements(LineLoop, 3, first)
			}
		default:
			dev.DrawElements(Triangles, obj.nindices, 0)
		}
	}
}

// animate forwards the frame timestamp to animated drawables.
func (rc *Context) animate(ms float64) {
	for i := range rc.objects {
		if a, ok := rc.objects[i].drawable.(mesh.Animator); ok {
			a.Animate(ms)
		}
	}
}

// Close releases every object buffer and the shader program. The Context
// must not be used afterwards.
func (rc *Context) Close() {
	rc.mustOwn()
	for _, obj := range rc.objects {
		rc.releaseObject(obj)
	}
	rc.objects = nil
	rc.dev.DeleteProgram(rc.prog)
	rc.log.Debug("render context released")
	*rc = Context{}
}
