package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxBioLength = 1000

// Weekdays accepted in a therapist's availability list.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// IsWeekday reports whether day is one of Weekdays.
func IsWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

type Therapist struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`

	UserID primitive.ObjectID `bson:"user_id" json:"userId"`

	// Professional info
	Specialization  []string `bson:"specialization" json:"specialization"`
	Bio             string   `bson:"bio" json:"bio"`
	Location        string   `bson:"location" json:"location"`
	Availability    []string `bson:"availability" json:"availability"`
	LicenseNumber   string   `bson:"license_number" json:"licenseNumber"`
	Education       string   `bson:"education" json:"education"`
	YearsOfPractice string   `bson:"years_of_practice" json:"yearsOfPractice"`

	Rating    float64 `bson:"rating" json:"rating"`
	Verified  bool    `bson:"verified" json:"verified"`
	Onboarded bool    `bson:"onboarded" json:"onboarded"`
}

// AvailableOn reports whether the therapist works on the given weekday.
// An empty availability list means no weekday restriction.
func (t *Therapist) AvailableOn(day time.Weekday) bool {
	if len(t.Availability) == 0 {
		return true
	}
	name := day.String()
	for _, d := range t.Availability {
		if d == name {
			return true
		}
	}
	return false
}

// TherapistProfileInput is the editable part of a therapist profile.
type TherapistProfileInput struct {
	Specialization  []string `json:"specialization"`
	Bio             *string  `json:"bio" validate:"omitempty,max=1000"`
	Location        *string  `json:"location"`
	Availability    []string `json:"availability" validate:"omitempty,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	LicenseNumber   *string  `json:"licenseNumber"`
	Education       *string  `json:"education"`
	YearsOfPractice *string  `json:"yearsOfPractice"`
}

// Apply copies the non-nil fields of in onto t.
func (in *TherapistProfileInput) Apply(t *Therapist) {
	if in.Specialization != nil {
		t.Specialization = in.Specialization
	}
	if in.Bio != nil {
		t.Bio = *in.Bio
	}
	if in.Location != nil {
		t.Location = *in.Location
	}
	if in.Availability != nil {
		t.Availability = in.Availability
	}
	if in.LicenseNumber != nil {
		t.LicenseNumber = *in.LicenseNumber
	}
	if in.Education != nil {
		t.Education = *in.Education
	}
	if in.YearsOfPractice != nil {
		t.YearsOfPractice = *in.YearsOfPractice
	}
}

// TherapistListing is a therapist joined with its user account.
type TherapistListing struct {
	Therapist `bson:",inline"`
	User      PublicUser `bson:"user" json:"user"`
}
