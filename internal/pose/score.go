package pose

import "math"

// Params holds the tuning constants of the scorers.
type Params struct {
	// ClipThreshold is the angular difference in degrees tolerated without penalty.
	ClipThreshold float64
	// ToleranceScale divides the angle beyond ClipThreshold to give the penalty.
	ToleranceScale float64
	// LimbWeight is the weight of each limb score in the single-frame average.
	LimbWeight float64
	// DirectionWeight is the weight of the torso direction score.
	DirectionWeight float64
	// Beta is the weight of the motion term in the double-frame score (0-1).
	Beta float64
	// MaxMotionError is the motion vector error at which a limb's motion score reaches 0.
	MaxMotionError float64
}

// DefaultParams returns the parameters used by the live scoring path.
func DefaultParams() Params {
	return Params{
		ClipThreshold:   5.0,
		ToleranceScale:  2.0,
		LimbWeight:      0.1,
		DirectionWeight: 1.0,
		Beta:            0.1,
		MaxMotionError:  3.0,
	}
}

// TorsoDirection is the shoulder-to-shoulder segment used for the 2-D direction score.
var TorsoDirection = Limb{Name: "direction", From: LeftShoulder, To: RightShoulder}

// LimbStatus tells whether a limb could be scored.
type LimbStatus int

const (
	// LimbComputed means both joints were present in both poses.
	LimbComputed LimbStatus = iota
	// LimbMissingJoint means a joint was absent and the limb scored 0.
	LimbMissingJoint
)

func (s LimbStatus) String() string {
	switch s {
	case LimbComputed:
		return "computed"
	case LimbMissingJoint:
		return "missing_joint"
	default:
		return "unknown"
	}
}

// LimbResult is the score of one limb (or the torso direction).
type LimbResult struct {
	Limb   Limb
	Status LimbStatus
	// Angle is the angular difference in degrees. For the torso direction it is signed, in [-180, 180].
	Angle float64
	Score float64
}

// Breakdown is a single-frame score with its per-limb parts.
type Breakdown struct {
	Limbs     []LimbResult
	Direction LimbResult
	Score     float64
}

// Scorer compares canonical poses. The zero value is not useful; use NewScorer.
// A Scorer has no mutable state and is safe for concurrent use.
type Scorer struct {
	params Params
}

// NewScorer creates a Scorer with the given parameters.
func NewScorer(params Params) *Scorer {
	return &Scorer{params: params}
}

// Params returns the scorer's parameters.
func (s *Scorer) Params() Params {
	return s.params
}

var defaultScorer = NewScorer(DefaultParams())

// ScoreSingle scores subject against reference with the default parameters.
func ScoreSingle(subject, reference *Canonical) float64 {
	return defaultScorer.Single(subject, reference)
}

// Single returns the single-frame similarity of subject to reference in [0, 100].
// It returns 0 if either pose is nil.
func (s *Scorer) Single(subject, reference *Canonical) float64 {
	return s.SingleBreakdown(subject, reference).Score
}

// SingleBreakdown is Single with the per-limb results.
func (s *Scorer) SingleBreakdown(subject, reference *Canonical) Breakdown {
	if subject == nil || reference == nil {
		return Breakdown{}
	}

	var totalScore, totalWeight float64
	limbs := make([]LimbResult, 0, len(Limbs))

	for _, limb := range Limbs {
		res := LimbResult{Limb: limb, Status: LimbMissingJoint}
		userVec, okUser := limb.Vector(subject)
		refVec, okRef := limb.Vector(reference)
		if okUser && okRef {
			res.Status = LimbComputed
			res.Angle = angleDifference(userVec, refVec)
			res.Score = s.shape(res.Angle)
		}
		limbs = append(limbs, res)

		totalScore += s.params.LimbWeight * res.Score
		totalWeight += s.params.LimbWeight
	}

	direction := s.direction(subject, reference)
	totalScore += s.params.DirectionWeight * direction.Score
	totalWeight += s.params.DirectionWeight

	var score float64
	if totalWeight > 0 {
		score = round2(totalScore / totalWeight)
	}

	return Breakdown{Limbs: limbs, Direction: direction, Score: score}
}

// direction scores the 2-D heading of the shoulder line.
func (s *Scorer) direction(subject, reference *Canonical) LimbResult {
	res := LimbResult{Limb: TorsoDirection, Status: LimbMissingJoint}

	userVec, okUser := TorsoDirection.Vector(subject)
	refVec, okRef := TorsoDirection.Vector(reference)
	if !okUser || !okRef {
		return res
	}

	userAngle := math.Atan2(userVec.Y, userVec.X) * 180 / math.Pi
	refAngle := math.Atan2(refVec.Y, refVec.X) * 180 / math.Pi

	res.Status = LimbComputed
	res.Angle = wrapDegrees(userAngle - refAngle)
	res.Score = s.shape(math.Abs(res.Angle))
	return res
}

// shape maps an angular difference in degrees to a 0-100 score.
func (s *Scorer) shape(angle float64) float64 {
	penalty := 0.0
	if s.params.ToleranceScale > 0 {
		penalty = math.Max(0, (angle-s.params.ClipThreshold)/s.params.ToleranceScale)
	}
	return math.Max(0, 100-penalty)
}

// angleDifference returns the angle between a and b in degrees.
// Near-zero vectors are treated as having no angular difference.
func angleDifference(a, b Point3D) float64 {
	const epsilon = 1e-6

	normA := a.Norm()
	normB := b.Norm()
	if normA < epsilon || normB < epsilon {
		return 0
	}

	cos := a.Dot(b) / (normA * normB)
	if math.IsNaN(cos) {
		return 0
	}
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// wrapDegrees maps an angle in degrees into [-180, 180).
func wrapDegrees(deg float64) float64 {
	wrapped := math.Mod(deg+180, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	return wrapped - 180
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
