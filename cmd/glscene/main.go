// Command glscene renders boxes and STL meshes in an OpenGL window,
// spinning them every frame. With -png it renders headless to an image.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/soypat/glscene/glrender"
	"github.com/soypat/glscene/glrender/gldevice"
	"github.com/soypat/glscene/glrender/softdevice"
	"github.com/soypat/glscene/internal/scene"
	"github.com/soypat/glscene/mesh"
)

func init() {
	runtime.LockOSThread() // For GL.
}

type flags struct {
	scene   string
	stl     string
	mode    string
	png     string
	frames  int
	verbose bool
}

func main() {
	var f flags
	flag.StringVar(&f.scene, "scene", "", "YAML scene file. Defaults to a single spinning box")
	flag.StringVar(&f.stl, "stl", "", "STL file to view instead of the scene objects")
	flag.StringVar(&f.mode, "mode", "", "render mode override: shaded or wireframe")
	flag.StringVar(&f.png, "png", "", "render headless and write the last frame to this PNG file")
	flag.IntVar(&f.frames, "frames", 1, "number of frames to render with -png")
	flag.BoolVar(&f.verbose, "v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, f, log); err != nil {
		log.Error("glscene failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags, log *slog.Logger) error {
	sc, err := sceneFromFlags(f)
	if err != nil {
		return err
	}
	mode, err := glrender.ParseMode(sc.Mode)
	if err != nil {
		return err
	}
	drawables, err := sc.Drawables()
	if err != nil {
		return err
	}
	cfg := glrender.Config{
		Width:      sc.Width,
		Height:     sc.Height,
		Projection: sc.Camera.Projection(sc.Width, sc.Height),
		Mode:       mode,
		ClearColor: [4]float32{0.133, 0.133, 0.133, 1}, // #222
		Logger:     log,
	}
	if f.png != "" {
		return snapshot(ctx, cfg, drawables, f.png, f.frames)
	}

	win, err := gldevice.NewWindow("glscene", sc.Width, sc.Height)
	if err != nil {
		return err
	}
	defer win.Close()
	rc, err := glrender.NewContext(gldevice.Device{}, cfg)
	if err != nil {
		return err
	}
	for _, d := range drawables {
		rc.AddObject(d)
	}
	loop := glrender.Start(ctx, rc, win)
	err = win.Run(ctx)
	loop.Stop()
	log.Info("done", slog.Int("frames", loop.Frames()))
	if errors.Is(err, gldevice.ErrWindowClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func sceneFromFlags(f flags) (scene.Scene, error) {
	sc := scene.Default()
	if f.scene != "" {
		var err error
		sc, err = scene.Load(f.scene)
		if err != nil {
			return scene.Scene{}, err
		}
	}
	if f.stl != "" {
		// Frame the model in front of the camera.
		sc.Objects = []scene.Object{{STL: f.stl, Fit: 4, Spin: &[3]float32{0, 1, 0}}}
	}
	if f.mode != "" {
		sc.Mode = f.mode
	}
	return sc, sc.Validate()
}

// snapshot renders frames on the CPU and writes the last one to path.
func snapshot(ctx context.Context, cfg glrender.Config, drawables []mesh.Drawable, path string, frames int) error {
	if frames < 1 {
		return fmt.Errorf("invalid frame count %d", frames)
	}
	const supersample = 2
	dev := softdevice.New(cfg.Width, cfg.Height, supersample)
	rc, err := glrender.NewContext(dev, cfg)
	if err != nil {
		return err
	}
	for _, d := range drawables {
		rc.AddObject(d)
	}
	// 60 frames per second of simulated time.
	sched := &softdevice.Scheduler{Step: 1000.0 / 60}
	loop := glrender.Start(ctx, rc, sched)
	defer loop.Stop()
	sched.Run(frames)
	if loop.Frames() == 0 {
		return errors.New("no frames rendered")
	}
	return dev.SavePNG(path)
}
