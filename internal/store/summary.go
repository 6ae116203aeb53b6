package store

import "fmt"

// Summary levels, from best to worst.
const (
	LevelPerfect = "Perfect"
	LevelGood    = "Good"
	LevelNormal  = "Normal"
	LevelBad     = "Bad"
	LevelMiss    = "Miss"
)

// Summary is the result of one practice session.
type Summary struct {
	SessionID    string  `json:"session_id"`
	Frames       int     `json:"frames"`
	AverageScore float64 `json:"average_score"`
	Perfect      int     `json:"perfect"`
	Good         int     `json:"good"`
	Normal       int     `json:"normal"`
	Bad          int     `json:"bad"`
	// Miss counts every other frame, including frames without a pose.
	Miss int `json:"miss"`
	// Accuracy weighs the feedback counts 4/3/2/1/0 against 3 points per
	// frame, so it can exceed 100 when most frames are Perfect.
	Accuracy float64 `json:"accuracy"`
	Level    string  `json:"level"`
}

// SummaryLevel maps an accuracy percentage to a session level.
func SummaryLevel(accuracy float64) string {
	switch {
	case accuracy >= 80:
		return LevelPerfect
	case accuracy >= 60:
		return LevelGood
	case accuracy >= 50:
		return LevelNormal
	case accuracy >= 40:
		return LevelBad
	default:
		return LevelMiss
	}
}

// SummaryBySession aggregates the evaluations of a session.
// It returns ErrNotFound if the session has no evaluations.
func (r *EvaluationRepository) SummaryBySession(sessionID string) (*Summary, error) {
	sum := &Summary{SessionID: sessionID}

	err := r.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(AVG(score), 0),
		        COALESCE(SUM(CASE WHEN LOWER(feedback) = 'perfect' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN LOWER(feedback) = 'good' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN LOWER(feedback) = 'normal' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN LOWER(feedback) = 'bad' THEN 1 ELSE 0 END), 0)
		 FROM evaluations
		 WHERE session_id = ?`,
		sessionID,
	).Scan(&sum.Frames, &sum.AverageScore, &sum.Perfect, &sum.Good, &sum.Normal, &sum.Bad)
	if err != nil {
		return nil, fmt.Errorf("summarize session %q: %w", sessionID, err)
	}
	if sum.Frames == 0 {
		return nil, ErrNotFound
	}

	sum.Miss = sum.Frames - sum.Perfect - sum.Good - sum.Normal - sum.Bad
	points := 4*sum.Perfect + 3*sum.Good + 2*sum.Normal + sum.Bad
	sum.Accuracy = float64(points) / float64(3*sum.Frames) * 100
	sum.Level = SummaryLevel(sum.Accuracy)
	return sum, nil
}
