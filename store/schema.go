package store

import (
	"context"
	"fmt"
)

// schema is the bootstrap DDL. Statements are idempotent so bootstrap can run
// on every start when database.bootstrapSchema is enabled.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		clinic_name VARCHAR(255),
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(50) DEFAULT 'BCBA',
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS learners (
		id SERIAL PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		dob DATE NOT NULL,
		assigned_bcba_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		status VARCHAR(50) DEFAULT 'Active',
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_learners_bcba ON learners(assigned_bcba_id)`,
	`CREATE TABLE IF NOT EXISTS programs (
		id SERIAL PRIMARY KEY,
		learner_id INTEGER REFERENCES learners(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		target_type VARCHAR(50) NOT NULL,
		is_active BOOLEAN DEFAULT true,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_programs_learner ON programs(learner_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id SERIAL PRIMARY KEY,
		learner_id INTEGER REFERENCES learners(id) ON DELETE CASCADE,
		clinician_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		start_time TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		end_time TIMESTAMPTZ,
		ai_summary_note TEXT,
		status VARCHAR(50) DEFAULT 'In Progress',
		CHECK (end_time IS NULL OR end_time >= start_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_learner ON sessions(learner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_clinician ON sessions(clinician_id)`,
	`CREATE TABLE IF NOT EXISTS trials (
		id SERIAL PRIMARY KEY,
		session_id INTEGER REFERENCES sessions(id) ON DELETE CASCADE,
		program_id INTEGER REFERENCES programs(id) ON DELETE CASCADE,
		timestamp TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		value NUMERIC DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trials_session ON trials(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trials_program ON trials(program_id)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id SERIAL PRIMARY KEY,
		learner_id INTEGER REFERENCES learners(id) ON DELETE CASCADE,
		clinician_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
		appointment_date DATE NOT NULL,
		start_time TIME NOT NULL,
		end_time TIME NOT NULL,
		status VARCHAR(50) DEFAULT 'Scheduled',
		CHECK (end_time > start_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_clinician_date ON appointments(clinician_id, appointment_date)`,
	`CREATE TABLE IF NOT EXISTS action_items (
		id SERIAL PRIMARY KEY,
		assigned_to INTEGER REFERENCES users(id) ON DELETE CASCADE,
		task_type VARCHAR(100) NOT NULL,
		description TEXT,
		urgency VARCHAR(50) DEFAULT 'Medium',
		is_completed BOOLEAN DEFAULT false,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_action_items_assigned ON action_items(assigned_to)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id SERIAL PRIMARY KEY,
		sender_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
		receiver_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		is_read BOOLEAN DEFAULT false,
		sent_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id)`,
}

// Bootstrap creates the schema if it does not exist yet.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}
