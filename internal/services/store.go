package services

import (
	"context"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateUserProfile(ctx context.Context, id primitive.ObjectID, upd models.UserProfileUpdate) (*models.User, error)
}

// TherapistFilter narrows ListTherapists. Zero value lists everything.
type TherapistFilter struct {
	OnboardedOnly bool
	VerifiedOnly  bool
	// SpecializationMatch is a case-insensitive substring of any specialization.
	SpecializationMatch string
	// SpecializationsIn matches therapists having any of these specializations.
	SpecializationsIn []string
	Limit             int64
}

type TherapistStore interface {
	CreateTherapist(ctx context.Context, t *models.Therapist) error
	GetTherapistByID(ctx context.Context, id primitive.ObjectID) (*models.Therapist, error)
	GetTherapistByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Therapist, error)
	SaveTherapist(ctx context.Context, t *models.Therapist) error
	// ListTherapists sorts verified first, then newest.
	ListTherapists(ctx context.Context, f TherapistFilter) ([]models.Therapist, error)
}

type AssessmentStore interface {
	// CreateAssessment inserts a and appends its id to the owner's assessment list.
	CreateAssessment(ctx context.Context, a *models.Assessment) error
	GetAssessmentByID(ctx context.Context, id primitive.ObjectID) (*models.Assessment, error)
	// ListAssessments returns assessments of the given users, newest first. limit <= 0 means no limit.
	ListAssessments(ctx context.Context, userIDs []primitive.ObjectID, limit int64) ([]models.Assessment, error)
}

// AppointmentFilter narrows ListAppointments. Nil fields are ignored.
type AppointmentFilter struct {
	ClientID    *primitive.ObjectID
	TherapistID *primitive.ObjectID
	Day         *time.Time // exact session day (midnight UTC)
	From        *time.Time // sessions on or after this day
	Statuses    []models.AppointmentStatus
	ExcludeID   *primitive.ObjectID
	// Ascending sorts soonest first; default is latest first.
	Ascending bool
	Limit     int64
}

type AppointmentStore interface {
	// CreateAppointment returns ErrSlotTaken when the slot index rejects the insert.
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	GetAppointmentByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error)
	UpdateAppointment(ctx context.Context, a *models.Appointment) error
}

// Store is the full persistence surface used by the handlers.
type Store interface {
	UserStore
	TherapistStore
	AssessmentStore
	AppointmentStore
}
