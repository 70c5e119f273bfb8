package mesh

import (
	"math"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glscene/internal/d3"
)

// Spinner rotates a drawable about an axis through its model origin
// at one radian per second.
type Spinner struct {
	Drawable
	axis  ms3.Vec
	angle float32
}

var _ Animator = (*Spinner)(nil)

// Spin wraps d so that its model transform is rotated about axis
// as time passes. The wrapped drawable's own transform is applied after
// the rotation.
func Spin(d Drawable, axis ms3.Vec) *Spinner {
	return &Spinner{Drawable: d, axis: axis}
}

// Animate sets the rotation angle to the timestamp in seconds modulo 2π.
// The wrapped drawable is animated too if it is an Animator.
func (s *Spinner) Animate(ms float64) {
	s.angle = float32(math.Mod(ms/1000, 2*math.Pi))
	if a, ok := s.Drawable.(Animator); ok {
		a.Animate(ms)
	}
}

// Angle returns the current rotation angle in radians.
func (s *Spinner) Angle() float32 { return s.angle }

func (s *Spinner) ModelTransform() d3.Transform {
	return s.Drawable.ModelTransform().Mul(d3.Rotate(s.axis, s.angle))
}
