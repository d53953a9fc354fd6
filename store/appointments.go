package store

import (
	"context"
	"fmt"
	"time"
)

// CreateAppointment schedules a slot between the clinician and a learner.
func (s *Store) CreateAppointment(ctx context.Context, learnerID, clinicianID int64, date, startTime, endTime string) (*Appointment, error) {
	var a Appointment
	var d time.Time
	err := s.db.QueryRow(ctx,
		`INSERT INTO appointments (learner_id, clinician_id, appointment_date, start_time, end_time)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, learner_id, clinician_id, appointment_date, start_time::text, end_time::text, status`,
		learnerID, clinicianID, date, startTime, endTime,
	).Scan(&a.ID, &a.LearnerID, &a.ClinicianID, &d, &a.StartTime, &a.EndTime, &a.Status)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	a.Date = d.Format("2006-01-02")
	return &a, nil
}

// ScheduleEntry is one row of the clinician's daily schedule.
type ScheduleEntry struct {
	ID        int64  `json:"id"`
	Learner   string `json:"learner"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// AppointmentsToday lists the clinician's appointments for the current date,
// in start order, with display-formatted times.
func (s *Store) AppointmentsToday(ctx context.Context, clinicianID int64) ([]ScheduleEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT a.id, l.first_name || ' ' || l.last_name as learner,
		        TO_CHAR(a.start_time, 'HH12:MI PM') as start_time,
		        TO_CHAR(a.end_time, 'HH12:MI PM') as end_time,
		        a.status
		 FROM appointments a
		 JOIN learners l ON a.learner_id = l.id
		 WHERE a.clinician_id = $1 AND a.appointment_date = CURRENT_DATE
		 ORDER BY a.start_time ASC`,
		clinicianID,
	)
	if err != nil {
		return nil, fmt.Errorf("appointments today: %w", err)
	}
	defer rows.Close()

	entries := []ScheduleEntry{}
	for rows.Next() {
		var e ScheduleEntry
		if err := rows.Scan(&e.ID, &e.Learner, &e.StartTime, &e.EndTime, &e.Status); err != nil {
			return nil, fmt.Errorf("appointments scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// OpenActionItems lists the clinician's uncompleted tasks, most urgent first.
func (s *Store) OpenActionItems(ctx context.Context, clinicianID int64) ([]ActionItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, task_type, COALESCE(description, ''), urgency
		 FROM action_items WHERE assigned_to = $1 AND is_completed = false
		 ORDER BY urgency DESC`,
		clinicianID,
	)
	if err != nil {
		return nil, fmt.Errorf("open action items: %w", err)
	}
	defer rows.Close()

	items := []ActionItem{}
	for rows.Next() {
		var a ActionItem
		if err := rows.Scan(&a.ID, &a.TaskType, &a.Description, &a.Urgency); err != nil {
			return nil, fmt.Errorf("action items scan: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
