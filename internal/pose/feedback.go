package pose

// Feedback is the qualitative bucket a score falls into.
type Feedback string

// Feedback labels from best to worst.
const (
	Perfect Feedback = "Perfect"
	Good    Feedback = "Good"
	Normal  Feedback = "Normal"
	Bad     Feedback = "Bad"
	Worst   Feedback = "Worst"
)

// Classify maps a score to its feedback label. Thresholds are inclusive lower bounds.
func Classify(score float64) Feedback {
	switch {
	case score >= 90:
		return Perfect
	case score >= 80:
		return Good
	case score >= 75:
		return Normal
	case score >= 60:
		return Bad
	default:
		return Worst
	}
}

// Result is a scored frame.
type Result struct {
	Score    float64  `json:"score"`
	Feedback Feedback `json:"feedback"`
	// Detected is false when no usable user pose was found and scoring was skipped.
	Detected bool `json:"detected"`
}

// Evaluate classifies score into a Result for a detected pose.
func Evaluate(score float64) Result {
	return Result{Score: score, Feedback: Classify(score), Detected: true}
}

// NoPose is the result for a frame without a usable pose.
func NoPose() Result {
	return Result{Score: 0, Feedback: Worst, Detected: false}
}
