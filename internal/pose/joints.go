// Package pose provides body keypoint normalization, pose similarity scoring
// and feedback classification for dance practice.
package pose

import "math"

// Joint names a body landmark.
type Joint string

// Body joints supplied by the pose detector.
const (
	LeftShoulder  Joint = "left_shoulder"
	RightShoulder Joint = "right_shoulder"
	LeftElbow     Joint = "left_elbow"
	RightElbow    Joint = "right_elbow"
	LeftWrist     Joint = "left_wrist"
	RightWrist    Joint = "right_wrist"
	LeftHip       Joint = "left_hip"
	RightHip      Joint = "right_hip"
	LeftKnee      Joint = "left_knee"
	RightKnee     Joint = "right_knee"
	LeftAnkle     Joint = "left_ankle"
	RightAnkle    Joint = "right_ankle"

	// MidHip is the synthetic anchor added by Normalize. It is always at the origin.
	MidHip Joint = "mid_hip"
)

// Joints is the fixed catalog of the 12 detected body joints.
var Joints = [...]Joint{
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
}

// IsCatalogJoint reports whether j is one of the 12 detected joints.
func IsCatalogJoint(j Joint) bool {
	for _, c := range Joints {
		if c == j {
			return true
		}
	}
	return false
}

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns p - q component-wise.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Dot returns the dot product of p and q.
func (p Point3D) Dot(q Point3D) float64 {
	return p.X*q.X + p.Y*q.Y + p.Z*q.Z
}

// Norm returns the Euclidean length of p.
func (p Point3D) Norm() float64 {
	return math.Sqrt(p.Dot(p))
}

// Frame is a raw pose as reported by the detector for one video frame,
// keyed by joint name. Joints the detector could not place are absent.
// A nil Frame means no pose was detected.
type Frame map[Joint]Point3D

// Scale returns a copy of f with every coordinate multiplied by k.
func (f Frame) Scale(k float64) Frame {
	if f == nil {
		return nil
	}
	out := make(Frame, len(f))
	for j, p := range f {
		out[j] = Point3D{X: p.X * k, Y: p.Y * k, Z: p.Z * k}
	}
	return out
}

// Canonical is a hip-centred, L2-normalized pose produced by Normalize.
// It is immutable; a nil *Canonical stands for "no usable pose".
type Canonical struct {
	points map[Joint]Point3D
}

// Point returns the normalized position of j and whether it is present.
func (c *Canonical) Point(j Joint) (Point3D, bool) {
	if c == nil {
		return Point3D{}, false
	}
	p, ok := c.points[j]
	return p, ok
}

// Len returns the number of joints in the pose, including MidHip.
func (c *Canonical) Len() int {
	if c == nil {
		return 0
	}
	return len(c.points)
}

// Frame returns a copy of the pose as a Frame, e.g. for serialization.
func (c *Canonical) Frame() Frame {
	if c == nil {
		return nil
	}
	out := make(Frame, len(c.points))
	for j, p := range c.points {
		out[j] = p
	}
	return out
}
