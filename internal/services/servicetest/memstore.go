// Package servicetest provides in-memory implementations of the services
// interfaces for tests.
package servicetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is an in-memory services.Store. It enforces the same unique
// constraints as the Mongo indexes.
type MemStore struct {
	mu           sync.Mutex
	users        map[primitive.ObjectID]models.User
	therapists   map[primitive.ObjectID]models.Therapist
	assessments  map[primitive.ObjectID]models.Assessment
	appointments map[primitive.ObjectID]models.Appointment
	seq          int
}

var _ services.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		users:        map[primitive.ObjectID]models.User{},
		therapists:   map[primitive.ObjectID]models.Therapist{},
		assessments:  map[primitive.ObjectID]models.Assessment{},
		appointments: map[primitive.ObjectID]models.Appointment{},
	}
}

// now returns strictly increasing timestamps so newest-first ordering is stable.
func (s *MemStore) now() time.Time {
	s.seq++
	return time.Now().UTC().Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *MemStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return services.ErrDuplicateEmail
		}
	}
	now := s.now()
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Assessments == nil {
		u.Assessments = []primitive.ObjectID{}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *MemStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &u, nil
}

func (s *MemStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, services.ErrNotFound
}

func (s *MemStore) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MemStore) UpdateUserProfile(_ context.Context, id primitive.ObjectID, upd models.UserProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	if upd.Email != nil {
		for otherID, other := range s.users {
			if otherID != id && other.Email == *upd.Email {
				return nil, services.ErrDuplicateEmail
			}
		}
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.ProfilePicture != nil {
		u.ProfilePicture = *upd.ProfilePicture
	}
	u.UpdatedAt = s.now()
	s.users[id] = u
	return &u, nil
}

func (s *MemStore) CreateTherapist(_ context.Context, t *models.Therapist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.therapists {
		if existing.UserID == t.UserID {
			return services.ErrTherapistExists
		}
	}
	now := s.now()
	t.ID = primitive.NewObjectID()
	t.CreatedAt, t.UpdatedAt = now, now
	s.therapists[t.ID] = *t
	return nil
}

func (s *MemStore) GetTherapistByID(_ context.Context, id primitive.ObjectID) (*models.Therapist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.therapists[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &t, nil
}

func (s *MemStore) GetTherapistByUserID(_ context.Context, userID primitive.ObjectID) (*models.Therapist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.therapists {
		if t.UserID == userID {
			return &t, nil
		}
	}
	return nil, services.ErrNotFound
}

func (s *MemStore) SaveTherapist(_ context.Context, t *models.Therapist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.therapists[t.ID]; !ok {
		return services.ErrNotFound
	}
	t.UpdatedAt = s.now()
	s.therapists[t.ID] = *t
	return nil
}

func (s *MemStore) ListTherapists(_ context.Context, f services.TherapistFilter) ([]models.Therapist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Therapist{}
	for _, t := range s.therapists {
		if f.OnboardedOnly && !t.Onboarded {
			continue
		}
		if f.VerifiedOnly && !t.Verified {
			continue
		}
		if f.SpecializationMatch != "" && !anyContainsFold(t.Specialization, f.SpecializationMatch) {
			continue
		}
		if f.SpecializationMatch == "" && len(f.SpecializationsIn) > 0 && !anyIn(t.Specialization, f.SpecializationsIn) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Verified != out[j].Verified {
			return out[i].Verified
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemStore) CreateAssessment(_ context.Context, a *models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = primitive.NewObjectID()
	a.CreatedAt = s.now()
	s.assessments[a.ID] = *a
	if u, ok := s.users[a.UserID]; ok {
		u.Assessments = append(u.Assessments, a.ID)
		s.users[a.UserID] = u
	}
	return nil
}

func (s *MemStore) GetAssessmentByID(_ context.Context, id primitive.ObjectID) (*models.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &a, nil
}

func (s *MemStore) ListAssessments(_ context.Context, userIDs []primitive.ObjectID, limit int64) ([]models.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Assessment{}
	for _, a := range s.assessments {
		for _, id := range userIDs {
			if a.UserID == id {
				out = append(out, a)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) CreateAppointment(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.SlotHeld = a.Status.HoldsSlot()
	if s.slotClashLocked(a) {
		return services.ErrSlotTaken
	}
	now := s.now()
	a.ID = primitive.NewObjectID()
	a.CreatedAt, a.UpdatedAt = now, now
	s.appointments[a.ID] = *a
	return nil
}

func (s *MemStore) GetAppointmentByID(_ context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &a, nil
}

func (s *MemStore) ListAppointments(_ context.Context, f services.AppointmentFilter) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Appointment{}
	for _, a := range s.appointments {
		if f.ClientID != nil && a.ClientID != *f.ClientID {
			continue
		}
		if f.TherapistID != nil && a.TherapistID != *f.TherapistID {
			continue
		}
		if f.Day != nil && !a.Date.Equal(*f.Day) {
			continue
		}
		if f.Day == nil && f.From != nil && a.Date.Before(*f.From) {
			continue
		}
		if len(f.Statuses) > 0 && !statusIn(a.Status, f.Statuses) {
			continue
		}
		if f.ExcludeID != nil && a.ID == *f.ExcludeID {
			continue
		}
		out = append(out, a)
	}
	sooner := func(a, b models.Appointment) bool {
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Time < b.Time
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Ascending {
			return sooner(out[i], out[j])
		}
		return sooner(out[j], out[i])
	})
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemStore) UpdateAppointment(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[a.ID]; !ok {
		return services.ErrNotFound
	}
	a.SlotHeld = a.Status.HoldsSlot()
	if s.slotClashLocked(a) {
		return services.ErrSlotTaken
	}
	a.UpdatedAt = s.now()
	s.appointments[a.ID] = *a
	return nil
}

// slotClashLocked mirrors the partial unique index on (therapist, date, time).
func (s *MemStore) slotClashLocked(a *models.Appointment) bool {
	if !a.SlotHeld {
		return false
	}
	for id, other := range s.appointments {
		if id == a.ID || !other.SlotHeld {
			continue
		}
		if other.TherapistID == a.TherapistID && other.Date.Equal(a.Date) && other.Time == a.Time {
			return true
		}
	}
	return false
}

func statusIn(s models.AppointmentStatus, list []models.AppointmentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func anyContainsFold(values []string, sub string) bool {
	sub = strings.ToLower(sub)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), sub) {
			return true
		}
	}
	return false
}

func anyIn(values, set []string) bool {
	for _, v := range values {
		for _, w := range set {
			if v == w {
				return true
			}
		}
	}
	return false
}
