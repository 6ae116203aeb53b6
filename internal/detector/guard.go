package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/natya/internal/pose"
)

// Guard serializes access to a shared Detector. Only one detection runs at a
// time; the lock is released on every return path, including errors and panics.
type Guard struct {
	mu sync.Mutex
	d  Detector
}

// NewGuard wraps d for exclusive access.
func NewGuard(d Detector) *Guard {
	return &Guard{d: d}
}

// Detect runs the wrapped detector while holding the lock.
// A Guard with no detector reports no pose.
func (g *Guard) Detect(frame *gocv.Mat) (pose.Frame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.d == nil {
		return nil, nil
	}
	return g.d.Detect(frame)
}

// Swap replaces the wrapped detector and returns the previous one.
// The caller owns the returned detector and should close it.
func (g *Guard) Swap(d Detector) Detector {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.d
	g.d = d
	return prev
}

// Detector returns the wrapped detector.
func (g *Guard) Detector() Detector {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.d
}

// Close closes the wrapped detector. The Guard stays usable; detectors that
// start lazily, like MediaPipeDetector, restart on the next Detect.
func (g *Guard) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.d == nil {
		return nil
	}
	return g.d.Close()
}
