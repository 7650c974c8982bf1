package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	UsersCollection        = "users"
	TherapistsCollection   = "therapists"
	AssessmentsCollection  = "assessments"
	AppointmentsCollection = "appointments"
)

// EnsureIndexes creates the indexes the application relies on. Safe to run repeatedly.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	}); err != nil {
		return err
	}

	if _, err := db.Collection(TherapistsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "onboarded", Value: 1}, {Key: "verified", Value: -1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("listing_order"),
		},
	}); err != nil {
		return err
	}

	if _, err := db.Collection(AssessmentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("user_created_at"),
	}); err != nil {
		return err
	}

	// At most one live appointment per therapist slot.
	_, err := db.Collection(AppointmentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "therapist_id", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().
				SetName("therapist_slot_held_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"slot_held": true}),
		},
		{
			Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("client_date"),
		},
	})
	return err
}
