package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/natya/internal/pose"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	frames []pose.Frame
	next   int
	err    error
	calls  int
	closed int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose makes Detect return p for every call. A nil p means no pose.
func (m *MockDetector) SetPose(p pose.Frame) {
	m.SetSequence(p)
}

// SetSequence makes Detect return the given frames in order, repeating the last one.
func (m *MockDetector) SetSequence(frames ...pose.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = frames
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured pose or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (pose.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.frames) == 0 {
		return nil, nil
	}

	f := m.frames[m.next]
	if m.next < len(m.frames)-1 {
		m.next++
	}
	return f, nil
}

// Calls returns the number of Detect calls.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close records the call; the mock has nothing to release.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// Closed returns how many times Close was called.
func (m *MockDetector) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// StandingPose returns a preset frame of a dancer standing upright, arms at the sides,
// in image-relative coordinates (y grows downwards).
func StandingPose() pose.Frame {
	return pose.Frame{
		pose.LeftShoulder:  {X: 0.60, Y: 0.30, Z: -0.10},
		pose.RightShoulder: {X: 0.40, Y: 0.30, Z: -0.10},
		pose.LeftElbow:     {X: 0.65, Y: 0.45, Z: -0.05},
		pose.RightElbow:    {X: 0.35, Y: 0.45, Z: -0.05},
		pose.LeftWrist:     {X: 0.66, Y: 0.58, Z: -0.08},
		pose.RightWrist:    {X: 0.34, Y: 0.58, Z: -0.08},
		pose.LeftHip:       {X: 0.56, Y: 0.60, Z: 0.00},
		pose.RightHip:      {X: 0.44, Y: 0.60, Z: 0.00},
		pose.LeftKnee:      {X: 0.57, Y: 0.78, Z: 0.02},
		pose.RightKnee:     {X: 0.43, Y: 0.78, Z: 0.02},
		pose.LeftAnkle:     {X: 0.57, Y: 0.95, Z: 0.05},
		pose.RightAnkle:    {X: 0.43, Y: 0.95, Z: 0.05},
	}
}

// ArmsRaisedPose returns a preset frame with both arms raised overhead.
func ArmsRaisedPose() pose.Frame {
	f := StandingPose()
	f[pose.LeftElbow] = pose.Point3D{X: 0.66, Y: 0.16, Z: -0.05}
	f[pose.RightElbow] = pose.Point3D{X: 0.34, Y: 0.16, Z: -0.05}
	f[pose.LeftWrist] = pose.Point3D{X: 0.68, Y: 0.03, Z: -0.08}
	f[pose.RightWrist] = pose.Point3D{X: 0.32, Y: 0.03, Z: -0.08}
	return f
}

// SquatPose returns a preset frame with knees bent and arms stretched forward.
func SquatPose() pose.Frame {
	return pose.Frame{
		pose.LeftShoulder:  {X: 0.60, Y: 0.42, Z: -0.10},
		pose.RightShoulder: {X: 0.40, Y: 0.42, Z: -0.10},
		pose.LeftElbow:     {X: 0.62, Y: 0.44, Z: -0.30},
		pose.RightElbow:    {X: 0.38, Y: 0.44, Z: -0.30},
		pose.LeftWrist:     {X: 0.62, Y: 0.45, Z: -0.50},
		pose.RightWrist:    {X: 0.38, Y: 0.45, Z: -0.50},
		pose.LeftHip:       {X: 0.56, Y: 0.70, Z: 0.05},
		pose.RightHip:      {X: 0.44, Y: 0.70, Z: 0.05},
		pose.LeftKnee:      {X: 0.62, Y: 0.72, Z: -0.15},
		pose.RightKnee:     {X: 0.38, Y: 0.72, Z: -0.15},
		pose.LeftAnkle:     {X: 0.58, Y: 0.95, Z: 0.05},
		pose.RightAnkle:    {X: 0.42, Y: 0.95, Z: 0.05},
	}
}
