package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// DefaultIntervalMS is the reference frame spacing used when none is given.
const DefaultIntervalMS = 500

// Choreography is a reference routine whose poses are stored frame by frame.
type Choreography struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	IntervalMS int       `json:"interval_ms"`
	Frames     int       `json:"frames"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ChoreographyRepository provides CRUD operations for choreographies.
type ChoreographyRepository struct {
	db *sql.DB
}

// Choreographies returns the choreography repository for this store.
func (s *Store) Choreographies() *ChoreographyRepository {
	return &ChoreographyRepository{db: s.db}
}

// Create inserts a new choreography into the database.
func (r *ChoreographyRepository) Create(c *Choreography) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.IntervalMS <= 0 {
		c.IntervalMS = DefaultIntervalMS
	}

	_, err := r.db.Exec(
		`INSERT INTO choreographies (id, title, interval_ms, frames, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.IntervalMS, c.Frames, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// GetByID retrieves a choreography by its ID.
func (r *ChoreographyRepository) GetByID(id string) (*Choreography, error) {
	return r.scanOne(
		`SELECT id, title, interval_ms, frames, created_at, updated_at
		 FROM choreographies WHERE id = ?`,
		id,
	)
}

// GetByTitle retrieves a choreography by its title.
func (r *ChoreographyRepository) GetByTitle(title string) (*Choreography, error) {
	return r.scanOne(
		`SELECT id, title, interval_ms, frames, created_at, updated_at
		 FROM choreographies WHERE title = ?`,
		title,
	)
}

func (r *ChoreographyRepository) scanOne(query string, arg string) (*Choreography, error) {
	c := &Choreography{}
	err := r.db.QueryRow(query, arg).
		Scan(&c.ID, &c.Title, &c.IntervalMS, &c.Frames, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// List retrieves all choreographies, newest first.
func (r *ChoreographyRepository) List() ([]*Choreography, error) {
	rows, err := r.db.Query(
		`SELECT id, title, interval_ms, frames, created_at, updated_at
		 FROM choreographies ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var choreographies []*Choreography
	for rows.Next() {
		c := &Choreography{}
		if err := rows.Scan(&c.ID, &c.Title, &c.IntervalMS, &c.Frames, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		choreographies = append(choreographies, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return choreographies, nil
}

// Update updates the title and interval of an existing choreography.
func (r *ChoreographyRepository) Update(c *Choreography) error {
	c.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE choreographies SET title = ?, interval_ms = ?, updated_at = ?
		 WHERE id = ?`,
		c.Title, c.IntervalMS, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a choreography and its reference frames.
func (r *ChoreographyRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM choreographies WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
