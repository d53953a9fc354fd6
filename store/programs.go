package store

import (
	"context"
	"fmt"
)

// ProgramsByClinician lists every program across the clinician's caseload,
// newest first, with the learner's name attached.
func (s *Store) ProgramsByClinician(ctx context.Context, clinicianID int64) ([]Program, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p.id, p.learner_id, p.title, p.target_type, p.is_active,
		        l.first_name || ' ' || l.last_name AS learner_name
		 FROM programs p
		 JOIN learners l ON p.learner_id = l.id
		 WHERE l.assigned_bcba_id = $1
		 ORDER BY p.created_at DESC`,
		clinicianID,
	)
	if err != nil {
		return nil, fmt.Errorf("programs by clinician: %w", err)
	}
	defer rows.Close()

	programs := []Program{}
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.LearnerID, &p.Title, &p.TargetType, &p.IsActive, &p.LearnerName); err != nil {
			return nil, fmt.Errorf("programs scan: %w", err)
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// CreateProgram adds an active behavior target for a learner. Ownership of
// the learner must be checked by the caller beforehand.
func (s *Store) CreateProgram(ctx context.Context, learnerID int64, title, targetType string) (*Program, error) {
	var p Program
	err := s.db.QueryRow(ctx,
		`INSERT INTO programs (learner_id, title, target_type, is_active)
		 VALUES ($1, $2, $3, true)
		 RETURNING id, learner_id, title, target_type, is_active`,
		learnerID, title, targetType,
	).Scan(&p.ID, &p.LearnerID, &p.Title, &p.TargetType, &p.IsActive)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}
	return &p, nil
}

// ActiveProgramsByLearner lists the learner's active targets, the set shown
// in the live data-collection view.
func (s *Store) ActiveProgramsByLearner(ctx context.Context, learnerID int64) ([]Program, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, learner_id, title, target_type, is_active
		 FROM programs WHERE learner_id = $1 AND is_active = true`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("active programs: %w", err)
	}
	defer rows.Close()

	programs := []Program{}
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.LearnerID, &p.Title, &p.TargetType, &p.IsActive); err != nil {
			return nil, fmt.Errorf("active programs scan: %w", err)
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// MasteredTargetsCount counts deactivated programs across the clinician's
// caseload. A program taken out of rotation is a mastered target.
func (s *Store) MasteredTargetsCount(ctx context.Context, clinicianID int64) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM programs p
		 JOIN learners l ON p.learner_id = l.id
		 WHERE l.assigned_bcba_id = $1 AND p.is_active = false`,
		clinicianID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("mastered targets count: %w", err)
	}
	return count, nil
}
