package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

// AppointmentStatuses lists every known status.
var AppointmentStatuses = []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusRescheduled}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

// HoldsSlot reports whether an appointment in this status occupies its time slot.
func (s AppointmentStatus) HoldsSlot() bool {
	return s != StatusCancelled
}

// Terminal statuses accept no further transitions.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type SessionType string

const (
	SessionIndividual SessionType = "individual"
	SessionCouples    SessionType = "couples"
	SessionFamily     SessionType = "family"
	SessionGroup      SessionType = "group"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionIndividual, SessionCouples, SessionFamily, SessionGroup:
		return true
	}
	return false
}

type Appointment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`

	ClientID    primitive.ObjectID `bson:"client_id" json:"clientId"`
	TherapistID primitive.ObjectID `bson:"therapist_id" json:"therapistId"`

	// Date is midnight UTC of the session day.
	Date      time.Time `bson:"date" json:"date"`
	Time      string    `bson:"time" json:"time"`
	StartTime string    `bson:"start_time,omitempty" json:"startTime,omitempty"`
	EndTime   string    `bson:"end_time,omitempty" json:"endTime,omitempty"`

	Type   SessionType       `bson:"type" json:"type"`
	Status AppointmentStatus `bson:"status" json:"status"`
	Notes  string            `bson:"notes,omitempty" json:"notes,omitempty"`

	// SlotHeld is false once cancelled; backs the unique slot index.
	SlotHeld bool `bson:"slot_held" json:"-"`
}

// AppointmentView is an appointment with both parties resolved for display.
type AppointmentView struct {
	Appointment `bson:",inline"`
	Client      *PublicUser `json:"client,omitempty"`
	Therapist   *PublicUser `json:"therapist,omitempty"`
}
