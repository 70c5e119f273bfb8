// Package scene reads YAML scene descriptions and builds their camera
// projection and drawables.
package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glscene/glrender"
	"github.com/soypat/glscene/internal/d3"
	"github.com/soypat/glscene/mesh"
	"gopkg.in/yaml.v3"
)

// Scene is the YAML scene description.
type Scene struct {
	Width   int      `yaml:"width"`
	Height  int      `yaml:"height"`
	Mode    string   `yaml:"mode"`
	Camera  Camera   `yaml:"camera"`
	Objects []Object `yaml:"objects"`
}

// Camera describes a perspective camera. Fovy is in degrees.
type Camera struct {
	Eye    [3]float32 `yaml:"eye"`
	Target [3]float32 `yaml:"target"`
	Up     [3]float32 `yaml:"up"`
	Fovy   float32    `yaml:"fovy"`
	Near   float32    `yaml:"near"`
	Far    float32    `yaml:"far"`
}

// Object is either a box or an STL file.
type Object struct {
	// Box bounds as xmin, ymin, zmin, xmax, ymax, zmax.
	Box *[6]float32 `yaml:"box"`
	STL string      `yaml:"stl"`
	// Fit scales an STL model so its longest side has this size and centers it.
	Fit       float32     `yaml:"fit"`
	Translate [3]float32  `yaml:"translate"`
	Spin      *[3]float32 `yaml:"spin"`
}

// Default is a single spinning box viewed from above and in front.
func Default() Scene {
	return Scene{
		Width:  600,
		Height: 400,
		Mode:   glrender.Shaded.String(),
		Camera: Camera{
			Eye:  [3]float32{0, 10, 10},
			Up:   [3]float32{0, 1, 0},
			Fovy: 23,
			Near: 0.1,
			Far:  10000,
		},
		Objects: []Object{
			{Box: &[6]float32{-0.3, -0.3, -0.3, 0.6, 0.8, 0.8}, Spin: &[3]float32{0, 1, 0}},
		},
	}
}

// Load reads a YAML scene file. See Parse.
func Load(path string) (Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML scene. Fields missing from data keep
// the Default values, except objects which are replaced.
func Parse(data []byte) (Scene, error) {
	sc := Default()
	sc.Objects = nil
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scene{}, fmt.Errorf("parsing scene: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return Scene{}, err
	}
	return sc, nil
}

// Validate reports the first invalid setting of the scene.
func (sc Scene) Validate() error {
	if sc.Width <= 0 || sc.Height <= 0 {
		return fmt.Errorf("invalid scene size %dx%d", sc.Width, sc.Height)
	}
	if _, err := glrender.ParseMode(sc.Mode); err != nil {
		return err
	}
	if err := sc.Camera.validate(); err != nil {
		return err
	}
	for i, obj := range sc.Objects {
		if (obj.Box == nil) == (obj.STL == "") {
			return fmt.Errorf("object %d: exactly one of box or stl must be set", i)
		}
	}
	return nil
}

func (c Camera) validate() error {
	if c.Fovy <= 0 || c.Fovy >= 180 {
		return fmt.Errorf("camera fovy %v out of range (0,180)", c.Fovy)
	}
	if c.Near <= 0 || c.Far <= c.Near {
		return fmt.Errorf("camera near/far planes %v/%v invalid", c.Near, c.Far)
	}
	if c.Eye == c.Target {
		return errors.New("camera eye and target coincide")
	}
	dir := ms3.Sub(vec(c.Target), vec(c.Eye))
	if ms3.Norm(ms3.Cross(dir, c.up())) == 0 {
		return errors.New("camera up direction is parallel to view direction")
	}
	return nil
}

// up defaults to +Y when unset.
func (c Camera) up() ms3.Vec {
	up := vec(c.Up)
	if up == (ms3.Vec{}) {
		up = ms3.Vec{Y: 1}
	}
	return up
}

// Projection returns the camera perspective multiplied by its view transform.
func (c Camera) Projection(width, height int) d3.Transform {
	fovy := c.Fovy * math32.Pi / 180
	persp := d3.Perspective(fovy, float32(width)/float32(height), c.Near, c.Far)
	return persp.Mul(d3.LookAt(vec(c.Eye), vec(c.Target), c.up()))
}

// Drawables builds the scene objects. STL files are read synchronously.
func (sc Scene) Drawables() ([]mesh.Drawable, error) {
	var drawables []mesh.Drawable
	for i, obj := range sc.Objects {
		d, err := obj.Drawable()
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		drawables = append(drawables, d)
	}
	return drawables, nil
}

// Drawable builds the object's geometry with its translation and spin.
func (obj Object) Drawable() (mesh.Drawable, error) {
	model := d3.Translate(vec(obj.Translate))
	var d mesh.Drawable
	if obj.Box != nil {
		b := obj.Box
		d = mesh.NewBox(b[0], b[1], b[2], b[3], b[4], b[5], model)
	} else {
		fp, err := os.Open(obj.STL)
		if err != nil {
			return nil, err
		}
		defer fp.Close()
		m, err := mesh.LoadSTL(fp, d3.Identity())
		if err != nil {
			var gerr *mesh.GeometryLoadError
			if errors.As(err, &gerr) {
				gerr.Source = obj.STL
			}
			return nil, err
		}
		if obj.Fit > 0 {
			m.Bake(mesh.FitTransform(mesh.Bounds(m), obj.Fit))
		}
		m.SetModelTransform(model)
		d = m
	}
	if obj.Spin != nil {
		d = mesh.Spin(d, vec(*obj.Spin))
	}
	return d, nil
}

func vec(a [3]float32) ms3.Vec {
	return ms3.Vec{X: a[0], Y: a[1], Z: a[2]}
}
