package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// LearnersByClinician lists the caseload of one clinician, newest first.
func (s *Store) LearnersByClinician(ctx context.Context, clinicianID int64) ([]Learner, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, first_name, last_name, dob, status, created_at
		 FROM learners WHERE assigned_bcba_id = $1 ORDER BY created_at DESC`,
		clinicianID,
	)
	if err != nil {
		return nil, fmt.Errorf("learners by clinician: %w", err)
	}
	defer rows.Close()

	learners := []Learner{}
	for rows.Next() {
		var l Learner
		if err := rows.Scan(&l.ID, &l.FirstName, &l.LastName, &l.DOB, &l.Status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("learners scan: %w", err)
		}
		learners = append(learners, l)
	}
	return learners, rows.Err()
}

// CreateLearner adds a learner to the clinician's caseload.
func (s *Store) CreateLearner(ctx context.Context, clinicianID int64, firstName, lastName string, dob time.Time) (*Learner, error) {
	var l Learner
	err := s.db.QueryRow(ctx,
		`INSERT INTO learners (first_name, last_name, dob, assigned_bcba_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, first_name, last_name, dob, status, created_at`,
		firstName, lastName, dob, clinicianID,
	).Scan(&l.ID, &l.FirstName, &l.LastName, &l.DOB, &l.Status, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create learner: %w", err)
	}
	return &l, nil
}

// LearnerByID fetches one learner.
func (s *Store) LearnerByID(ctx context.Context, learnerID int64) (*Learner, error) {
	var l Learner
	err := s.db.QueryRow(ctx,
		`SELECT id, first_name, last_name, dob, status, created_at
		 FROM learners WHERE id = $1`,
		learnerID,
	).Scan(&l.ID, &l.FirstName, &l.LastName, &l.DOB, &l.Status, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("learner by id: %w", err)
	}
	return &l, nil
}

// LearnerOwnedBy returns the learner's display name when they are assigned
// to the given clinician, or ErrNotFound otherwise. Handlers use it as the
// ownership gate before touching a learner's programs or sessions.
func (s *Store) LearnerOwnedBy(ctx context.Context, learnerID, clinicianID int64) (string, error) {
	var name string
	err := s.db.QueryRow(ctx,
		`SELECT first_name || ' ' || last_name
		 FROM learners WHERE id = $1 AND assigned_bcba_id = $2`,
		learnerID, clinicianID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("learner ownership check: %w", err)
	}
	return name, nil
}

// SessionNote is a completed session's AI note shown on the learner profile.
type SessionNote struct {
	ID   int64  `json:"id"`
	Date string `json:"date"`
	Note string `json:"note"`
}

// CompletedSessionNotes lists the AI notes of a learner's completed sessions,
// newest first.
func (s *Store) CompletedSessionNotes(ctx context.Context, learnerID int64) ([]SessionNote, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, start_time, COALESCE(ai_summary_note, '')
		 FROM sessions
		 WHERE learner_id = $1 AND status = 'Completed'
		 ORDER BY start_time DESC`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("completed session notes: %w", err)
	}
	defer rows.Close()

	notes := []SessionNote{}
	for rows.Next() {
		var n SessionNote
		var startTime time.Time
		if err := rows.Scan(&n.ID, &startTime, &n.Note); err != nil {
			return nil, fmt.Errorf("session notes scan: %w", err)
		}
		n.Date = startTime.Format("Jan 02, 2006 - 03:04PM")
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// TrialTotal is a day's summed trial value for one program, the raw series
// behind the learner progress graph.
type TrialTotal struct {
	Date    string
	Program string
	Total   float64
}

// TrialTotalsByProgram aggregates trial values per day and program for one
// learner, in chronological order.
func (s *Store) TrialTotalsByProgram(ctx context.Context, learnerID int64) ([]TrialTotal, error) {
	rows, err := s.db.Query(ctx,
		`SELECT TO_CHAR(t.timestamp, 'Mon DD') as date,
		        p.title as program,
		        SUM(t.value) as total
		 FROM trials t
		 JOIN programs p ON t.program_id = p.id
		 WHERE p.learner_id = $1
		 GROUP BY TO_CHAR(t.timestamp, 'Mon DD'), p.title
		 ORDER BY MIN(t.timestamp) ASC`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("trial totals: %w", err)
	}
	defer rows.Close()

	totals := []TrialTotal{}
	for rows.Next() {
		var t TrialTotal
		if err := rows.Scan(&t.Date, &t.Program, &t.Total); err != nil {
			return nil, fmt.Errorf("trial totals scan: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
