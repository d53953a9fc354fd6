// Package store is the relational persistence layer. Queries are written
// against PostgreSQL through pgx; every read is scoped to the requesting
// clinician so one practice can never see another's learners or data.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to
	// the requesting clinician.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a registration reuses an email.
	ErrDuplicateEmail = errors.New("email already exists")
)

// DB is the subset of *pgxpool.Pool the store uses. Transactions and test
// doubles satisfy it too.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store provides access to all clinic data.
type Store struct {
	db DB
}

// New creates a store over the given database handle.
func New(db DB) *Store {
	return &Store{db: db}
}

// User is a clinician account.
type User struct {
	ID           int64     `json:"id"`
	ClinicName   string    `json:"clinic_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Learner is a client receiving therapy, assigned to one clinician.
type Learner struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	DOB       time.Time `json:"dob"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Program is a behavior target tracked for a learner.
type Program struct {
	ID          int64  `json:"id"`
	LearnerID   int64  `json:"learner_id"`
	Title       string `json:"title"`
	TargetType  string `json:"target_type"`
	IsActive    bool   `json:"is_active"`
	LearnerName string `json:"learner_name,omitempty"`
}

// TherapySession is one recorded therapy session for a learner.
type TherapySession struct {
	ID            int64      `json:"id"`
	LearnerID     int64      `json:"learner_id"`
	ClinicianID   int64      `json:"clinician_id"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	AISummaryNote *string    `json:"ai_summary_note,omitempty"`
	Status        string     `json:"status"`
}

// Trial is one discrete behavioral data point logged during a session.
type Trial struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	ProgramID int64     `json:"program_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Appointment is a scheduled slot between a clinician and a learner.
type Appointment struct {
	ID          int64  `json:"id"`
	LearnerID   int64  `json:"learner_id"`
	ClinicianID int64  `json:"clinician_id"`
	Date        string `json:"appointment_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
}

// ActionItem is an open task on a clinician's to-do list.
type ActionItem struct {
	ID          int64  `json:"id"`
	TaskType    string `json:"task_type"`
	Description string `json:"description"`
	Urgency     string `json:"urgency"`
}

// Message is one persisted chat message between two clinicians.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	SentAt     time.Time `json:"-"`
	Time       string    `json:"time"` // formatted send time, e.g. "02:41 PM"
}

// Contact is another clinician in the clinic available for chat.
type Contact struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// ClockTime is the display format used for schedule and chat timestamps.
const ClockTime = "03:04 PM"

// isDuplicateKey checks if the error is a PostgreSQL unique violation.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
