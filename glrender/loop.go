package glrender

import (
	"context"
	"log/slog"
)

// Loop is the frame loop driver. It is the sole owner of the Context it
// was started with and re-registers itself with the Scheduler after every
// frame until ctx is done or Stop is called.
type Loop struct {
	ctx    context.Context
	rc     *Context
	sched  Scheduler
	log    *slog.Logger
	frames int
	done   chan struct{}
}

// Start moves rc into a new frame loop and requests the first frame from s.
// After Start returns every method called through rc panics with ErrMoved:
// the loop holds the only live reference to the render state.
//
// Frames run on whatever goroutine the Scheduler invokes callbacks on, which
// for GL hosts must be the thread owning the graphics context. The loop stops
// at the first frame after ctx is done and releases the Context's resources.
func Start(ctx context.Context, rc *Context, s Scheduler) *Loop {
	rc.mustOwn()
	owned := new(Context)
	*owned = *rc
	*rc = Context{}
	l := &Loop{
		ctx:   ctx,
		rc:    owned,
		sched: s,
		log:   owned.log,
		done:  make(chan struct{}),
	}
	l.log.Debug("frame loop started", slog.Int("objects", len(owned.objects)))
	s.RequestFrame(l.frame)
	return l
}

func (l *Loop) frame(ms float64) {
	if l.rc == nil {
		return // Stopped while this frame was pending.
	}
	if err := l.ctx.Err(); err != nil {
		l.log.Debug("frame loop context done", slog.String("err", err.Error()))
		l.Stop()
		return
	}
	l.rc.animate(ms)
	l.rc.Tick()
	l.frames++
	l.sched.RequestFrame(l.frame)
}

// Stop releases the render context and ends the loop. Any frame still
// pending with the Scheduler returns without drawing. Stop must be called from
// the goroutine that runs frames. Calling Stop more than once is a no-op.
func (l *Loop) Stop() {
	if l.rc == nil {
		return
	}
	l.rc.Close()
	l.rc = nil
	l.log.Debug("frame loop stopped", slog.Int("frames", l.frames))
	close(l.done)
}

// Done returns a channel that is closed once the loop has stopped and
// released its resources.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Frames returns the number of frames drawn so far.
func (l *Loop) Frames() int { return l.frames }
