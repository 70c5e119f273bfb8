package gldevice

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/gl/all-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/glscene/glrender"
)

// Window is a GLFW window with a current OpenGL 3.3 core context.
// It implements glrender.Scheduler: frame callbacks run inside Run.
type Window struct {
	win       *glfw.Window
	terminate func()
	pending   func(ms float64)
}

var _ glrender.Scheduler = (*Window)(nil)

// NewWindow opens a window of the given size and makes its GL context current.
// Failure is a fatal setup error.
func NewWindow(title string, width, height int) (*Window, error) {
	win, terminate, err := glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   title,
		Version: [2]int{3, 3},
		Width:   width,
		Height:  height,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GL window: %w", err)
	}
	if err := gl.Init(); err != nil {
		terminate()
		return nil, fmt.Errorf("initializing GL: %w", err)
	}
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
	return &Window{win: win, terminate: terminate}, nil
}

// RequestFrame registers cb to run before the next buffer swap.
func (w *Window) RequestFrame(cb func(ms float64)) {
	w.pending = cb
}

// ErrWindowClosed is returned by Run when the user closes the window.
var ErrWindowClosed = errors.New("window closed")

// Run services frame callbacks until the window is closed or ctx is done.
// Before returning, the pending callback, if any, is run once more so
// the frame loop can observe cancellation of its own context.
func (w *Window) Run(ctx context.Context) error {
	for {
		if w.win.ShouldClose() {
			return ErrWindowClosed
		}
		if err := ctx.Err(); err != nil {
			w.flush()
			return err
		}
		w.flush()
		w.win.SwapBuffers()
		glfw.PollEvents()
	}
}

func (w *Window) flush() {
	cb := w.pending
	if cb == nil {
		return
	}
	w.pending = nil
	cb(glfw.GetTime() * 1000)
}

// Close destroys the window and terminates GLFW.
func (w *Window) Close() {
	if w.terminate != nil {
		w.terminate()
		w.terminate = nil
	}
}
