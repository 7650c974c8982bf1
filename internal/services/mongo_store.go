package services

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/database"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on the four MindNest collections.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) users() *mongo.Collection {
	return s.db.Collection(database.UsersCollection)
}

func (s *MongoStore) therapists() *mongo.Collection {
	return s.db.Collection(database.TherapistsCollection)
}

func (s *MongoStore) assessments() *mongo.Collection {
	return s.db.Collection(database.AssessmentsCollection)
}

func (s *MongoStore) appointments() *mongo.Collection {
	return s.db.Collection(database.AppointmentsCollection)
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter interface{}) (*T, error) {
	var out T
	err := col.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts *options.FindOptions) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- users ---

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Assessments == nil {
		u.Assessments = []primitive.ObjectID{}
	}
	_, err := s.users().InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *MongoStore) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, s.users(), bson.M{"_id": id})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.users(), bson.M{"email": email})
}

func (s *MongoStore) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return findAll[models.User](ctx, s.users(), bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (s *MongoStore) UpdateUserProfile(ctx context.Context, id primitive.ObjectID, upd models.UserProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.ProfilePicture != nil {
		set["profile_picture"] = *upd.ProfilePicture
	}

	var out models.User
	err := s.users().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrDuplicateEmail
	case err != nil:
		return nil, err
	}
	return &out, nil
}

// --- therapists ---

func (s *MongoStore) CreateTherapist(ctx context.Context, t *models.Therapist) error {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.CreatedAt, t.UpdatedAt = now, now
	normalizeTherapist(t)
	_, err := s.therapists().InsertOne(ctx, t)
	if mongo.IsDuplicateKeyError(err) {
		return ErrTherapistExists
	}
	return err
}

func (s *MongoStore) GetTherapistByID(ctx context.Context, id primitive.ObjectID) (*models.Therapist, error) {
	return findOne[models.Therapist](ctx, s.therapists(), bson.M{"_id": id})
}

func (s *MongoStore) GetTherapistByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Therapist, error) {
	return findOne[models.Therapist](ctx, s.therapists(), bson.M{"user_id": userID})
}

func (s *MongoStore) SaveTherapist(ctx context.Context, t *models.Therapist) error {
	t.UpdatedAt = time.Now().UTC()
	normalizeTherapist(t)
	res, err := s.therapists().ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListTherapists(ctx context.Context, f TherapistFilter) ([]models.Therapist, error) {
	filter := bson.M{}
	if f.OnboardedOnly {
		filter["onboarded"] = true
	}
	if f.VerifiedOnly {
		filter["verified"] = true
	}
	if f.SpecializationMatch != "" {
		filter["specialization"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.SpecializationMatch), Options: "i"}
	} else if len(f.SpecializationsIn) > 0 {
		filter["specialization"] = bson.M{"$in": f.SpecializationsIn}
	}

	opts := options.Find().SetSort(bson.D{{Key: "verified", Value: -1}, {Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return findAll[models.Therapist](ctx, s.therapists(), filter, opts)
}

func normalizeTherapist(t *models.Therapist) {
	if t.Specialization == nil {
		t.Specialization = []string{}
	}
	if t.Availability == nil {
		t.Availability = []string{}
	}
}

// --- assessments ---

func (s *MongoStore) CreateAssessment(ctx context.Context, a *models.Assessment) error {
	a.ID = primitive.NewObjectID()
	a.CreatedAt = time.Now().UTC()
	if _, err := s.assessments().InsertOne(ctx, a); err != nil {
		return err
	}
	_, err := s.users().UpdateOne(ctx,
		bson.M{"_id": a.UserID},
		bson.M{"$push": bson.M{"assessments": a.ID}, "$set": bson.M{"updated_at": a.CreatedAt}},
	)
	return err
}

func (s *MongoStore) GetAssessmentByID(ctx context.Context, id primitive.ObjectID) (*models.Assessment, error) {
	return findOne[models.Assessment](ctx, s.assessments(), bson.M{"_id": id})
}

func (s *MongoStore) ListAssessments(ctx context.Context, userIDs []primitive.ObjectID, limit int64) ([]models.Assessment, error) {
	if len(userIDs) == 0 {
		return []models.Assessment{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return findAll[models.Assessment](ctx, s.assessments(), bson.M{"user_id": bson.M{"$in": userIDs}}, opts)
}

// --- appointments ---

func (s *MongoStore) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.CreatedAt, a.UpdatedAt = now, now
	a.SlotHeld = a.Status.HoldsSlot()
	_, err := s.appointments().InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return ErrSlotTaken
	}
	return err
}

func (s *MongoStore) GetAppointmentByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	return findOne[models.Appointment](ctx, s.appointments(), bson.M{"_id": id})
}

func (s *MongoStore) ListAppointments(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	filter := bson.M{}
	if f.ClientID != nil {
		filter["client_id"] = *f.ClientID
	}
	if f.TherapistID != nil {
		filter["therapist_id"] = *f.TherapistID
	}
	if f.Day != nil {
		filter["date"] = *f.Day
	} else if f.From != nil {
		filter["date"] = bson.M{"$gte": *f.From}
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.ExcludeID != nil {
		filter["_id"] = bson.M{"$ne": *f.ExcludeID}
	}

	dir := -1
	if f.Ascending {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: dir}, {Key: "time", Value: dir}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return findAll[models.Appointment](ctx, s.appointments(), filter, opts)
}

func (s *MongoStore) UpdateAppointment(ctx context.Context, a *models.Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	a.SlotHeld = a.Status.HoldsSlot()
	res, err := s.appointments().ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if mongo.IsDuplicateKeyError(err) {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
