package glrender

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glscene/internal/d3"
	"github.com/soypat/glscene/mesh"
)

func TestLoopTicksAndReschedules(t *testing.T) {
	dev := newRecorder()
	rc := newTestContext(t, dev, Shaded)
	spin := mesh.Spin(mesh.NewBox(-1, -1, -1, 1, 1, 1, d3.Identity()), ms3.Vec{Y: 1})
	rc.AddObject(spin)

	var sched manualScheduler
	loop := Start(context.Background(), rc, &sched)
	if sched.requests != 1 {
		t.Fatalf("Start must request exactly one frame, got %d", sched.requests)
	}
	dev.reset()
	const frames = 5
	for i := 0; i < frames; i++ {
		if !sched.step(float64(i) * 1000) {
			t.Fatalf("frame %d was not scheduled", i)
		}
	}
	if loop.Frames() != frames {
		t.Errorf("Frames() = %d, want %d", loop.Frames(), frames)
	}
	if n := dev.count("clear"); n != frames {
		t.Errorf("%d clears, want %d", n, frames)
	}
	if sched.requests != frames+1 {
		t.Errorf("%d frame requests, want %d", sched.requests, frames+1)
	}
	// Animation tracks the last frame timestamp in seconds.
	if got := spin.Angle(); math.Abs(float64(got)-4) > 1e-6 {
		t.Errorf("spin angle %v, want 4", got)
	}
	last := dev.matrices[len(dev.matrices)-1]
	if last != d3.Flatten(spin.ModelTransform()) {
		t.Error("last model upload does not match animated transform")
	}
}

func TestLoopStopsOnContextCancel(t *testing.T) {
	dev := newRecorder()
	rc := newTestContext(t, dev, Wireframe)
	rc.AddObject(mesh.NewBox(0, 0, 0, 1, 1, 1, d3.Identity()))
	ctx, cancel := context.WithCancel(context.Background())
	var sched manualScheduler
	loop := Start(ctx, rc, &sched)
	sched.step(0)
	sched.step(16)
	cancel()
	sched.step(33)
	if sched.step(50) {
		t.Fatal("loop rescheduled after context cancellation")
	}
	select {
	case <-loop.Done():
	default:
		t.Fatal("Done not closed after cancellation")
	}
	if loop.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", loop.Frames())
	}
	if len(dev.live) != 0 {
		t.Errorf("resources leaked after stop: %v", dev.live)
	}
}

func TestLoopStop(t *testing.T) {
	dev := newRecorder()
	rc := newTestContext(t, dev, Shaded)
	rc.AddObject(mesh.NewBox(0, 0, 0, 1, 1, 1, d3.Identity()))
	var sched manualScheduler
	loop := Start(context.Background(), rc, &sched)
	sched.step(0)
	loop.Stop()
	loop.Stop()
	dev.reset()
	// The frame that was pending at Stop must not draw.
	sched.step(16)
	if len(dev.calls) != 0 {
		t.Errorf("pending frame drew after Stop: %v", dev.calls)
	}
	if len(dev.live) != 0 {
		t.Errorf("resources leaked after stop: %v", dev.live)
	}
}

func TestContextMovedByStart(t *testing.T) {
	dev := newRecorder()
	rc := newTestContext(t, dev, Shaded)
	var sched manualScheduler
	Start(context.Background(), rc, &sched)
	for name, use := range map[string]func(){
		"AddObject": func() { rc.AddObject(mesh.NewBox(0, 0, 0, 1, 1, 1, d3.Identity())) },
		"Tick":      func() { rc.Tick() },
		"SetMode":   func() { rc.SetMode(Wireframe) },
		"Start":     func() { Start(context.Background(), rc, &manualScheduler{}) },
	} {
		func() {
			defer func() {
				r := recover()
				err, _ := r.(error)
				if !errors.Is(err, ErrMoved) {
					t.Errorf("%s after Start: recovered %v, want ErrMoved", name, r)
				}
			}()
			use()
		}()
	}
}
