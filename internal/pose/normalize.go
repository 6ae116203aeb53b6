package pose

import (
	"errors"
	"fmt"
	"math"
)

// ErrMissingAnchorJoint is returned by Normalize when a hip joint is absent.
// Callers treat it as "no usable pose", never as a fatal error.
var ErrMissingAnchorJoint = errors.New("missing anchor joint")

// minNorm is the norm below which a pose is considered degenerate.
const minNorm = 1e-9

// Normalize re-centres a raw pose on the hip midpoint and scales it to unit L2 norm.
//
// The anchor is the midpoint of the hips in x and y; z is not re-centred.
// The norm is sqrt(Σ (x-ax)² + (y-ay)² + z²) over the catalog joints present in
// the frame, floored to 1.0 for degenerate input. Keys outside the 12-joint
// catalog are ignored, so normalizing an already canonical pose is a no-op.
// The returned pose carries MidHip at (0,0,0).
func Normalize(raw Frame) (*Canonical, error) {
	left, ok := raw[LeftHip]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingAnchorJoint, LeftHip)
	}
	right, ok := raw[RightHip]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingAnchorJoint, RightHip)
	}

	baseX := (left.X + right.X) / 2
	baseY := (left.Y + right.Y) / 2

	var normSq float64
	for _, j := range Joints {
		p, ok := raw[j]
		if !ok {
			continue
		}
		dx := p.X - baseX
		dy := p.Y - baseY
		normSq += dx*dx + dy*dy + p.Z*p.Z
	}

	norm := math.Sqrt(normSq)
	if norm < minNorm {
		norm = 1.0
	}

	points := make(map[Joint]Point3D, len(Joints)+1)
	for _, j := range Joints {
		p, ok := raw[j]
		if !ok {
			continue
		}
		points[j] = Point3D{
			X: (p.X - baseX) / norm,
			Y: (p.Y - baseY) / norm,
			Z: p.Z / norm,
		}
	}
	points[MidHip] = Point3D{}

	return &Canonical{points: points}, nil
}

// NormalizeOrNil is like Normalize but returns the nil "no pose" sentinel
// instead of an error.
func NormalizeOrNil(raw Frame) *Canonical {
	c, err := Normalize(raw)
	if err != nil {
		return nil
	}
	return c
}
