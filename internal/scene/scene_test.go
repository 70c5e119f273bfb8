package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glscene/mesh"
)

func TestParseSceneDefaults(t *testing.T) {
	sc, err := Parse([]byte("objects:\n  - box: [0, 0, 0, 1, 1, 1]\n"))
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if sc.Width != def.Width || sc.Height != def.Height || sc.Camera != def.Camera {
		t.Errorf("defaults not kept: %+v", sc)
	}
	if len(sc.Objects) != 1 || sc.Objects[0].Box == nil {
		t.Fatalf("objects not replaced: %+v", sc.Objects)
	}
}

func TestParseSceneOverrides(t *testing.T) {
	const doc = `
width: 320
height: 240
mode: wireframe
camera:
  eye: [1, 2, 3]
  fovy: 45
objects:
  - box: [-1, -1, -1, 1, 1, 1]
    translate: [2, 0, 0]
    spin: [0, 0, 1]
`
	sc, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Width != 320 || sc.Height != 240 || sc.Mode != "wireframe" {
		t.Errorf("got %dx%d %q", sc.Width, sc.Height, sc.Mode)
	}
	if sc.Camera.Eye != [3]float32{1, 2, 3} || sc.Camera.Fovy != 45 {
		t.Errorf("camera %+v", sc.Camera)
	}
	if sc.Camera.Near != Default().Camera.Near {
		t.Error("unset camera fields must keep defaults")
	}
	ds, err := sc.Drawables()
	if err != nil {
		t.Fatal(err)
	}
	s, ok := ds[0].(*mesh.Spinner)
	if !ok {
		t.Fatalf("want spinner, got %T", ds[0])
	}
	got := s.ModelTransform().Apply(ms3.Vec{})
	if !equalVec(got, ms3.Vec{X: 2}, 1e-6) {
		t.Errorf("origin maps to %v, want translation", got)
	}
}

func TestParseSceneInvalid(t *testing.T) {
	for _, doc := range []string{
		"width: 0",
		"mode: points",
		"camera: {fovy: 180}",
		"camera: {near: 2, far: 1}",
		"camera: {eye: [0, 0, 0]}",
		"camera: {eye: [0, 10, 0]}",
		"camera: {eye: [0, 0, 5], up: [0, 0, 2]}",
		"objects: [{}]",
		"objects: [{box: [0, 0, 0, 1, 1, 1], stl: a.stl}]",
		"width: [",
	} {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%q: expected error", doc)
		}
	}
}

func TestDrawablesSTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.stl")
	fp, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = mesh.WriteBinarySTL(fp, []ms3.Triangle{
		{{X: 10, Y: 10, Z: 10}, {X: 14, Y: 10, Z: 10}, {X: 10, Y: 12, Z: 10}},
	})
	fp.Close()
	if err != nil {
		t.Fatal(err)
	}
	sc := Default()
	sc.Objects = []Object{{STL: path, Fit: 2}}
	ds, err := sc.Drawables()
	if err != nil {
		t.Fatal(err)
	}
	bb := mesh.Bounds(ds[0])
	if !equalVec(bb.Min, ms3.Vec{X: -1, Y: -0.5}, 1e-6) || !equalVec(bb.Max, ms3.Vec{X: 1, Y: 0.5}, 1e-6) {
		t.Errorf("fitted bounds %v", bb)
	}
}

func TestDrawablesBadSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.stl")
	if err := os.WriteFile(path, []byte("not an stl"), 0o644); err != nil {
		t.Fatal(err)
	}
	sc := Default()
	sc.Objects = []Object{{STL: path}}
	_, err := sc.Drawables()
	var gerr *mesh.GeometryLoadError
	if !errors.As(err, &gerr) {
		t.Fatalf("want GeometryLoadError, got %v", err)
	}
	if gerr.Source != path {
		t.Errorf("source %q, want %q", gerr.Source, path)
	}
}

func TestCameraProjection(t *testing.T) {
	c := Default().Camera
	c.Target = [3]float32{}
	proj := c.Projection(600, 400)
	// Target lands in the viewport center.
	p := proj.Apply(ms3.Vec{})
	if !equalVec(ms3.Vec{X: p.X, Y: p.Y}, ms3.Vec{}, 1e-5) {
		t.Errorf("target projects to %v", p)
	}
	if p.Z <= -1 || p.Z >= 1 {
		t.Errorf("target depth %v outside clip range", p.Z)
	}
}

func TestCameraLookingDown(t *testing.T) {
	c := Default().Camera
	c.Eye = [3]float32{0, 10, 0}
	if err := c.validate(); err == nil {
		t.Fatal("up parallel to view direction must be rejected")
	}
	c.Up = [3]float32{0, 0, -1}
	if err := c.validate(); err != nil {
		t.Fatal(err)
	}
	p := c.Projection(600, 400).Apply(ms3.Vec{})
	if math32.IsNaN(p.X) || math32.IsNaN(p.Y) || math32.IsNaN(p.Z) {
		t.Fatalf("projection of target is %v", p)
	}
}

func equalVec(a, b ms3.Vec, tol float32) bool {
	return math32.Abs(a.X-b.X) <= tol && math32.Abs(a.Y-b.Y) <= tol && math32.Abs(a.Z-b.Z) <= tol
}
