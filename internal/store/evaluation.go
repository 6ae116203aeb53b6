package store

import (
	"database/sql"
	"time"
)

// Evaluation is one scored practice frame.
type Evaluation struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	ChoreographyID string    `json:"choreography_id"`
	FrameIndex     int       `json:"frame_index"`
	Score          float64   `json:"score"`
	Feedback       string    `json:"feedback"`
	Mode           string    `json:"mode"`
	Detected       bool      `json:"detected"`
	CreatedAt      time.Time `json:"created_at"`
}

// EvaluationRepository logs evaluations per session.
type EvaluationRepository struct {
	db *sql.DB
}

// Evaluations returns the evaluation repository for this store.
func (s *Store) Evaluations() *EvaluationRepository {
	return &EvaluationRepository{db: s.db}
}

// Create inserts an evaluation and sets its ID and CreatedAt.
func (r *EvaluationRepository) Create(e *Evaluation) error {
	e.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO evaluations (session_id, choreography_id, frame_index, score, feedback, mode, detected, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.ChoreographyID, e.FrameIndex, e.Score, e.Feedback, e.Mode, e.Detected, e.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// ListBySession returns the evaluations of a session in the order they were recorded.
func (r *EvaluationRepository) ListBySession(sessionID string) ([]Evaluation, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, choreography_id, frame_index, score, feedback, mode, detected, created_at
		 FROM evaluations
		 WHERE session_id = ?
		 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvaluations(rows)
}

// LowestBySession returns up to n evaluations of a session with the lowest
// scores, lowest first. Ties keep the order they were recorded in.
func (r *EvaluationRepository) LowestBySession(sessionID string, n int) ([]Evaluation, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, choreography_id, frame_index, score, feedback, mode, detected, created_at
		 FROM evaluations
		 WHERE session_id = ?
		 ORDER BY score ASC, id ASC
		 LIMIT ?`,
		sessionID, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvaluations(rows)
}

func scanEvaluations(rows *sql.Rows) ([]Evaluation, error) {
	var evaluations []Evaluation
	for rows.Next() {
		var e Evaluation
		err := rows.Scan(&e.ID, &e.SessionID, &e.ChoreographyID, &e.FrameIndex,
			&e.Score, &e.Feedback, &e.Mode, &e.Detected, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return evaluations, nil
}

// DeleteBySession removes all evaluations of a session and returns how many were removed.
func (r *EvaluationRepository) DeleteBySession(sessionID string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM evaluations WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
