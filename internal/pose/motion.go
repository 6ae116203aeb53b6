package pose

import "math"

// MotionBreakdown is a double-frame score with its components.
type MotionBreakdown struct {
	// Base is the single-frame score of the current frames.
	Base float64
	// Motion is the mean limb motion similarity (0-100).
	Motion float64
	// LimbsUsed is the number of limbs with motion in both streams.
	LimbsUsed int
	Score     float64
}

// ScoreDouble scores the current and previous frames of both streams with the
// default parameters and the given blend coefficient.
func ScoreDouble(userNow, userPrev, refNow, refPrev *Canonical, beta float64) float64 {
	params := DefaultParams()
	params.Beta = beta
	return NewScorer(params).Double(userNow, userPrev, refNow, refPrev)
}

// Double blends the single-frame score of the current frames with the
// similarity of the frame-to-frame limb motion of both streams.
// It returns 0 if any of the four poses is nil.
func (s *Scorer) Double(userNow, userPrev, refNow, refPrev *Canonical) float64 {
	return s.DoubleBreakdown(userNow, userPrev, refNow, refPrev).Score
}

// DoubleBreakdown is Double with its components.
func (s *Scorer) DoubleBreakdown(userNow, userPrev, refNow, refPrev *Canonical) MotionBreakdown {
	if userNow == nil || userPrev == nil || refNow == nil || refPrev == nil {
		return MotionBreakdown{}
	}

	beta := math.Max(0, math.Min(1, s.params.Beta))
	base := s.Single(userNow, refNow)

	userMotion := motionDeltas(userNow, userPrev)
	refMotion := motionDeltas(refNow, refPrev)

	var total float64
	var used int
	for _, limb := range Limbs {
		userVec, okUser := motionVector(userMotion, limb)
		refVec, okRef := motionVector(refMotion, limb)
		if !okUser || !okRef {
			continue
		}

		errDist := userVec.Sub(refVec).Norm()
		limbScore := 0.0
		if s.params.MaxMotionError > 0 {
			limbScore = math.Max(0, (1-errDist/s.params.MaxMotionError)*100)
		}
		total += limbScore
		used++
	}

	var motion float64
	if used > 0 {
		motion = total / float64(used)
	}

	final := math.Min(100, (1-beta)*base+beta*motion)

	return MotionBreakdown{
		Base:      base,
		Motion:    motion,
		LimbsUsed: used,
		Score:     round2(final),
	}
}

// motionDeltas returns now - prev for every joint present in both poses.
func motionDeltas(now, prev *Canonical) map[Joint]Point3D {
	deltas := make(map[Joint]Point3D, len(now.points))
	for j, p := range now.points {
		q, ok := prev.points[j]
		if !ok {
			continue
		}
		deltas[j] = p.Sub(q)
	}
	return deltas
}

// motionVector returns the change of a limb vector between two frames.
func motionVector(deltas map[Joint]Point3D, limb Limb) (Point3D, bool) {
	from, ok := deltas[limb.From]
	if !ok {
		return Point3D{}, false
	}
	to, ok := deltas[limb.To]
	if !ok {
		return Point3D{}, false
	}
	return to.Sub(from), true
}
