package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// StartSession opens a new in-progress therapy session. Ownership of the
// learner must be checked by the caller beforehand.
func (s *Store) StartSession(ctx context.Context, learnerID, clinicianID int64) (*TherapySession, error) {
	var ts TherapySession
	err := s.db.QueryRow(ctx,
		`INSERT INTO sessions (learner_id, clinician_id, status)
		 VALUES ($1, $2, 'In Progress')
		 RETURNING id, learner_id, clinician_id, start_time, status`,
		learnerID, clinicianID,
	).Scan(&ts.ID, &ts.LearnerID, &ts.ClinicianID, &ts.StartTime, &ts.Status)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &ts, nil
}

// SessionOwnedBy returns ErrNotFound unless the session belongs to the
// clinician.
func (s *Store) SessionOwnedBy(ctx context.Context, sessionID, clinicianID int64) error {
	var id int64
	err := s.db.QueryRow(ctx,
		`SELECT id FROM sessions WHERE id = $1 AND clinician_id = $2`,
		sessionID, clinicianID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("session ownership check: %w", err)
	}
	return nil
}

// CompleteSessionWithNote stores the generated clinical note, stamps the end
// time, and marks the session completed.
func (s *Store) CompleteSessionWithNote(ctx context.Context, sessionID int64, note string) (*TherapySession, error) {
	var ts TherapySession
	err := s.db.QueryRow(ctx,
		`UPDATE sessions
		 SET ai_summary_note = $1, end_time = CURRENT_TIMESTAMP, status = 'Completed'
		 WHERE id = $2
		 RETURNING id, learner_id, clinician_id, start_time, end_time, ai_summary_note, status`,
		note, sessionID,
	).Scan(&ts.ID, &ts.LearnerID, &ts.ClinicianID, &ts.StartTime, &ts.EndTime, &ts.AISummaryNote, &ts.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("complete session: %w", err)
	}
	return &ts, nil
}

// LogTrial records a discrete data point against a session and program.
func (s *Store) LogTrial(ctx context.Context, sessionID, programID int64, value float64) (*Trial, error) {
	var t Trial
	err := s.db.QueryRow(ctx,
		`INSERT INTO trials (session_id, program_id, value)
		 VALUES ($1, $2, $3)
		 RETURNING id, session_id, program_id, timestamp, value`,
		sessionID, programID, value,
	).Scan(&t.ID, &t.SessionID, &t.ProgramID, &t.Timestamp, &t.Value)
	if err != nil {
		return nil, fmt.Errorf("log trial: %w", err)
	}
	return &t, nil
}
