package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Choreographies table - one row per imported routine
		`CREATE TABLE IF NOT EXISTS choreographies (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL UNIQUE,
			interval_ms INTEGER NOT NULL DEFAULT 500 CHECK(interval_ms > 0),
			frames INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Reference frames table - raw joint positions keyed by frame index
		`CREATE TABLE IF NOT EXISTS reference_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			choreography_id TEXT NOT NULL REFERENCES choreographies(id) ON DELETE CASCADE,
			frame_index INTEGER NOT NULL CHECK(frame_index >= 0),
			joints TEXT NOT NULL,
			UNIQUE(choreography_id, frame_index)
		)`,

		// Evaluations table - scored frames per practice session
		`CREATE TABLE IF NOT EXISTS evaluations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			choreography_id TEXT NOT NULL,
			frame_index INTEGER NOT NULL,
			score REAL NOT NULL,
			feedback TEXT NOT NULL,
			mode TEXT NOT NULL CHECK(mode IN ('single', 'double')),
			detected INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_reference_frames_choreography_id ON reference_frames(choreography_id)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_session_id ON evaluations(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
