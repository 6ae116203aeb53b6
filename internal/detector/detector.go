// Package detector provides body pose detection for scoring dance frames.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/natya/internal/pose"
)

// Detector defines the interface for pose detection implementations.
// Implementations are stateful and need not be safe for concurrent use;
// wrap them in a Guard when they are shared.
type Detector interface {
	// Detect analyzes a video frame and returns the detected body joints.
	// Returns a nil frame and nil error if no pose is found.
	Detect(frame *gocv.Mat) (pose.Frame, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// ModelComplexity selects the MediaPipe pose model (0, 1 or 2).
	ModelComplexity int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// StaticImageMode treats every frame as unrelated instead of tracking between frames.
	StaticImageMode bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelComplexity: 1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		StaticImageMode: false,
	}
}
