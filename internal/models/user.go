package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the account type chosen at signup.
type Role string

const (
	RoleClient    Role = "client"
	RoleTherapist Role = "therapist"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleTherapist
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`

	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"` // Don't return password in JSON
	Role     Role   `bson:"role" json:"role"`

	ProfilePicture string               `bson:"profile_picture,omitempty" json:"profilePicture"`
	Assessments    []primitive.ObjectID `bson:"assessments" json:"assessments"`
}

// UserProfileUpdate holds the optional fields of a profile edit.
type UserProfileUpdate struct {
	Name           *string
	Email          *string
	ProfilePicture *string
}

// PublicUser is the subset of a user embedded in therapist listings.
type PublicUser struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	ProfilePicture string             `bson:"profile_picture,omitempty" json:"profilePicture"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePicture: u.ProfilePicture}
}
