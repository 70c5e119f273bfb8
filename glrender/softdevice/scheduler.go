package softdevice

import "github.com/soypat/glscene/glrender"

// Scheduler runs frame callbacks synchronously with simulated timestamps.
type Scheduler struct {
	// Step is the simulated time between frames in milliseconds.
	Step    float64
	Start   float64
	pending func(ms float64)
	ran     int
}

var _ glrender.Scheduler = (*Scheduler)(nil)

func (s *Scheduler) RequestFrame(cb func(ms float64)) { s.pending = cb }

// Run invokes up to n pending frames and returns the number that ran.
// It returns early if no frame is pending.
func (s *Scheduler) Run(n int) int {
	ran := 0
	for ran < n && s.pending != nil {
		cb := s.pending
		s.pending = nil
		cb(s.Start + float64(s.ran)*s.Step)
		s.ran++
		ran++
	}
	return ran
}
