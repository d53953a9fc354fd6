package api

import (
	"context"
	"time"

	"github.com/menprac-cloud/menPrac-backend/store"
)

// DataStore is everything the REST handlers need from persistence.
// *store.Store satisfies it; handler tests substitute a stub.
type DataStore interface {
	CreateUser(ctx context.Context, clinicName, email, passwordHash, role string) (*store.User, error)
	UserByEmail(ctx context.Context, email string) (*store.User, error)
	UserByID(ctx context.Context, id int64) (*store.User, error)
	UpdateUserProfile(ctx context.Context, id int64, clinicName, email string) (*store.User, error)
	Contacts(ctx context.Context, excludeID int64) ([]store.Contact, error)

	LearnersByClinician(ctx context.Context, clinicianID int64) ([]store.Learner, error)
	CreateLearner(ctx context.Context, clinicianID int64, firstName, lastName string, dob time.Time) (*store.Learner, error)
	LearnerByID(ctx context.Context, learnerID int64) (*store.Learner, error)
	LearnerOwnedBy(ctx context.Context, learnerID, clinicianID int64) (string, error)
	CompletedSessionNotes(ctx context.Context, learnerID int64) ([]store.SessionNote, error)
	TrialTotalsByProgram(ctx context.Context, learnerID int64) ([]store.TrialTotal, error)

	ProgramsByClinician(ctx context.Context, clinicianID int64) ([]store.Program, error)
	CreateProgram(ctx context.Context, learnerID int64, title, targetType string) (*store.Program, error)
	ActiveProgramsByLearner(ctx context.Context, learnerID int64) ([]store.Program, error)
	MasteredTargetsCount(ctx context.Context, clinicianID int64) (int, error)

	StartSession(ctx context.Context, learnerID, clinicianID int64) (*store.TherapySession, error)
	SessionOwnedBy(ctx context.Context, sessionID, clinicianID int64) error
	CompleteSessionWithNote(ctx context.Context, sessionID int64, note string) (*store.TherapySession, error)
	LogTrial(ctx context.Context, sessionID, programID int64, value float64) (*store.Trial, error)

	CreateAppointment(ctx context.Context, learnerID, clinicianID int64, date, startTime, endTime string) (*store.Appointment, error)
	AppointmentsToday(ctx context.Context, clinicianID int64) ([]store.ScheduleEntry, error)
	OpenActionItems(ctx context.Context, clinicianID int64) ([]store.ActionItem, error)

	MessagesBetween(ctx context.Context, myID, contactID int64) ([]store.Message, error)
	CreateMessage(ctx context.Context, senderID, receiverID int64, content string) (*store.Message, error)
}
