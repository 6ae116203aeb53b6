package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/ayusman/natya/internal/pose"
)

// ErrInvalidFrames is returned when imported reference frames cannot be parsed.
var ErrInvalidFrames = errors.New("invalid reference frames")

// ReferenceRepository stores the reference pose of each choreography frame.
type ReferenceRepository struct {
	db *sql.DB
}

// References returns the reference frame repository for this store.
func (s *Store) References() *ReferenceRepository {
	return &ReferenceRepository{db: s.db}
}

// PutFrames inserts or replaces reference frames of a choreography in a single
// transaction and updates its frame count.
func (r *ReferenceRepository) PutFrames(choreographyID string, frames map[int]pose.Frame) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM choreographies WHERE id = ?`, choreographyID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO reference_frames (choreography_id, frame_index, joints) VALUES (?, ?, ?)
		 ON CONFLICT(choreography_id, frame_index) DO UPDATE SET joints = excluded.joints`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, index := range sortedIndexes(frames) {
		if index < 0 {
			return fmt.Errorf("%w: negative frame index %d", ErrInvalidFrames, index)
		}
		data, err := json.Marshal(frames[index])
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", index, err)
		}
		if _, err := stmt.Exec(choreographyID, index, string(data)); err != nil {
			return err
		}
	}

	_, err = tx.Exec(
		`UPDATE choreographies
		 SET frames = (SELECT COUNT(*) FROM reference_frames WHERE choreography_id = ?), updated_at = ?
		 WHERE id = ?`,
		choreographyID, time.Now(), choreographyID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Get returns the reference pose of one frame, or ErrNotFound if the
// choreography has no pose at that index.
func (r *ReferenceRepository) Get(choreographyID string, index int) (pose.Frame, error) {
	var data string
	err := r.db.QueryRow(
		`SELECT joints FROM reference_frames WHERE choreography_id = ? AND frame_index = ?`,
		choreographyID, index,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var frame pose.Frame
	if err := json.Unmarshal([]byte(data), &frame); err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", index, err)
	}
	return frame, nil
}

// Load returns every reference frame of a choreography keyed by frame index.
func (r *ReferenceRepository) Load(choreographyID string) (map[int]pose.Frame, error) {
	rows, err := r.db.Query(
		`SELECT frame_index, joints FROM reference_frames
		 WHERE choreography_id = ?
		 ORDER BY frame_index`,
		choreographyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	frames := make(map[int]pose.Frame)
	for rows.Next() {
		var index int
		var data string
		if err := rows.Scan(&index, &data); err != nil {
			return nil, err
		}
		var frame pose.Frame
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", index, err)
		}
		frames[index] = frame
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// DeleteByChoreographyID removes all reference frames of a choreography.
func (r *ReferenceRepository) DeleteByChoreographyID(choreographyID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM reference_frames WHERE choreography_id = ?`, choreographyID); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`UPDATE choreographies SET frames = 0, updated_at = ? WHERE id = ?`,
		time.Now(), choreographyID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// ParseFrames decodes reference frames in the import format
// {"<frame index>": {"<joint>": {"x": .., "y": .., "z": ..}}}.
func ParseFrames(data []byte) (map[int]pose.Frame, error) {
	var raw map[string]pose.Frame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrames, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrInvalidFrames)
	}

	frames := make(map[int]pose.Frame, len(raw))
	for key, frame := range raw {
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 {
			return nil, fmt.Errorf("%w: frame key %q is not a non-negative integer", ErrInvalidFrames, key)
		}
		frames[index] = frame
	}
	return frames, nil
}

func sortedIndexes(frames map[int]pose.Frame) []int {
	indexes := make([]int, 0, len(frames))
	for i := range frames {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	return indexes
}
