package softdevice

import (
	"context"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/fogleman/fauxgl"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glscene/glrender"
	"github.com/soypat/glscene/internal/d3"
	"github.com/soypat/glscene/mesh"
)

const width, height = 60, 40

func newScene(t *testing.T, dev *Device, mode glrender.Mode) *glrender.Context {
	t.Helper()
	proj := d3.Perspective(0.8, float32(width)/height, 0.1, 100).
		Mul(d3.LookAt(ms3.Vec{Y: 2, Z: 4}, ms3.Vec{}, ms3.Vec{Y: 1}))
	rc, err := glrender.NewContext(dev, glrender.Config{
		Width:      width,
		Height:     height,
		Projection: proj,
		Mode:       mode,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	return rc
}

func TestShadedBoxCoversCenter(t *testing.T) {
	dev := New(width, height, 2)
	dev.Fill = fauxgl.HexColor("#FF0000")
	rc := newScene(t, dev, glrender.Shaded)
	rc.AddObject(mesh.NewBox(-0.5, -0.5, -0.5, 0.5, 0.5, 0.5, d3.Identity()))
	rc.Tick()
	if dev.Draws() != 1 {
		t.Fatalf("got %d draws, want 1", dev.Draws())
	}
	img := dev.Image()
	if img.Bounds() != image.Rect(0, 0, width, height) {
		t.Fatalf("image bounds %v", img.Bounds())
	}
	r, g, b, _ := img.At(width/2, height/2).RGBA()
	if r < 0xf000 || g > 0x1000 || b > 0x1000 {
		t.Errorf("center pixel is not box fill color: %x %x %x", r, g, b)
	}
	r, g, b, _ = img.At(0, 0).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("corner pixel is not background: %x %x %x", r, g, b)
	}
}

func TestWireframeDrawsPerTriangle(t *testing.T) {
	dev := New(width, height, 1)
	rc := newScene(t, dev, glrender.Wireframe)
	rc.AddObject(mesh.NewBox(-0.5, -0.5, -0.5, 0.5, 0.5, 0.5, d3.Identity()))
	rc.Tick()
	if dev.Draws() != 12 {
		t.Fatalf("got %d draws, want 12", dev.Draws())
	}
	lit := 0
	img := dev.Image()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Fatal("wireframe drew nothing")
	}
}

func TestSchedulerRunsLoop(t *testing.T) {
	dev := New(width, height, 1)
	rc := newScene(t, dev, glrender.Shaded)
	rc.AddObject(mesh.Spin(mesh.NewBox(-0.5, -0.5, -0.5, 0.5, 0.5, 0.5, d3.Identity()), ms3.Vec{Y: 1}))
	sched := &Scheduler{Step: 16}
	ctx, cancel := context.WithCancel(context.Background())
	loop := glrender.Start(ctx, rc, sched)
	if n := sched.Run(3); n != 3 {
		t.Fatalf("ran %d frames, want 3", n)
	}
	cancel()
	// One more frame observes cancellation and releases resources.
	sched.Run(10)
	select {
	case <-loop.Done():
	default:
		t.Fatal("loop did not stop")
	}
	if loop.Frames() != 3 {
		t.Errorf("drew %d frames, want 3", loop.Frames())
	}
	if len(dev.arrays) != 0 || len(dev.elements) != 0 || len(dev.vaos) != 0 || len(dev.programs) != 0 {
		t.Error("resources not released")
	}
}
