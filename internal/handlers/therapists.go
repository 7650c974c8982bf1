package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const therapistListTTL = 5 * time.Minute

var therapistListKey = services.CacheKey("therapists", "onboarded")

// Hourly session slots offered on an available day.
var defaultSlots = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}

// joinUsers attaches each therapist's public user fields.
func joinUsers(ctx context.Context, list []models.Therapist) ([]models.TherapistListing, error) {
	ids := make([]primitive.ObjectID, 0, len(list))
	for _, t := range list {
		ids = append(ids, t.UserID)
	}
	users, err := store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]models.TherapistListing, 0, len(list))
	for _, t := range list {
		l := models.TherapistListing{Therapist: t}
		if u, ok := byID[t.UserID]; ok {
			l.User = u.Public()
		}
		out = append(out, l)
	}
	return out, nil
}

func invalidateTherapistList(ctx context.Context) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, therapistListKey); err != nil {
		logger.WarnContext(ctx, "failed to invalidate therapist cache", slog.Any("error", err))
	}
}

// myTherapist loads the therapist profile of the calling user.
func myTherapist(ctx context.Context, userID primitive.ObjectID) (*models.Therapist, error) {
	return store.GetTherapistByUserID(ctx, userID)
}

// ListTherapists returns onboarded therapists, verified first.
func ListTherapists(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	if cache != nil {
		var cached []models.TherapistListing
		if hit, err := cache.Get(ctx, therapistListKey, &cached); err == nil && hit {
			writeJSON(w, http.StatusOK, map[string]interface{}{"therapists": cached})
			return
		}
	}

	list, err := store.ListTherapists(ctx, services.TherapistFilter{OnboardedOnly: true})
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	listings, err := joinUsers(ctx, list)
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}

	if cache != nil {
		if err := cache.Set(ctx, therapistListKey, listings, therapistListTTL); err != nil {
			logger.WarnContext(ctx, "failed to cache therapist list", slog.Any("error", err))
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"therapists": listings})
}

// SearchTherapists finds verified therapists by specialization.
func SearchTherapists(w http.ResponseWriter, r *http.Request) {
	spec := strings.TrimSpace(chi.URLParam(r, "specialization"))
	if spec == "" {
		writeError(w, http.StatusBadRequest, "Specialization is required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	list, err := store.ListTherapists(ctx, services.TherapistFilter{VerifiedOnly: true, SpecializationMatch: spec})
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	listings, err := joinUsers(ctx, list)
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"therapists": listings})
}

// GetTherapist returns one therapist with its user fields.
func GetTherapist(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "therapist")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	t, err := store.GetTherapistByID(ctx, id)
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	listings, err := joinUsers(ctx, []models.Therapist{*t})
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"therapist": listings[0]})
}

// GetTherapistAvailability lists working days and, for ?date=, the free slots of that day.
func GetTherapistAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "therapist")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	t, err := store.GetTherapistByID(ctx, id)
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}

	slots := defaultSlots
	if date := r.URL.Query().Get("date"); date != "" {
		day, err := services.ParseSessionDate(date)
		if err != nil {
			writeServiceError(w, r, err, "Therapist")
			return
		}
		slots, err = freeSlots(ctx, t, day)
		if err != nil {
			writeServiceError(w, r, err, "Therapist")
			return
		}
	}

	availability := t.Availability
	if availability == nil {
		availability = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"availability":   availability,
		"location":       t.Location,
		"availableSlots": slots,
	})
}

// freeSlots returns the default slots of day that no appointment holds.
func freeSlots(ctx context.Context, t *models.Therapist, day time.Time) ([]string, error) {
	if day.Before(today()) || !t.AvailableOn(day.Weekday()) {
		return []string{}, nil
	}
	booked, err := store.ListAppointments(ctx, services.AppointmentFilter{TherapistID: &t.ID, Day: &day, Statuses: slotStatuses})
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, a := range booked {
		taken[a.Time] = true
	}
	free := []string{}
	for _, s := range defaultSlots {
		if !taken[s] {
			free = append(free, s)
		}
	}
	return free, nil
}

// CreateTherapist creates the caller's therapist profile.
func CreateTherapist(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.TherapistProfileInput
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	t := &models.Therapist{UserID: userID, Specialization: []string{}, Availability: []string{}}
	req.Apply(t)
	if err := store.CreateTherapist(ctx, t); err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	invalidateTherapistList(ctx)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"therapist": t})
}

// UpdateTherapist edits a therapist profile. Only its owner may do so.
func UpdateTherapist(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"), "therapist")
	if !ok {
		return
	}

	var req models.TherapistProfileInput
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	t, err := store.GetTherapistByID(ctx, id)
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	if t.UserID != userID {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	req.Apply(t)
	if t.Onboarded && !onboardingComplete(t) {
		writeError(w, http.StatusBadRequest, "Specialization and license number are required for an onboarded profile")
		return
	}
	if err := store.SaveTherapist(ctx, t); err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	invalidateTherapistList(ctx)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Therapist profile updated",
		"therapist": t,
	})
}

// onboardingComplete reports whether t has what a listed profile needs.
func onboardingComplete(t *models.Therapist) bool {
	return len(t.Specialization) > 0 && strings.TrimSpace(t.LicenseNumber) != ""
}

// getOrCreateTherapist returns the caller's profile, creating an empty one
// if needed. created reports whether it was just made.
func getOrCreateTherapist(ctx context.Context, userID primitive.ObjectID) (t *models.Therapist, created bool, err error) {
	t, err = myTherapist(ctx, userID)
	if err == nil {
		return t, false, nil
	}
	if !errors.Is(err, services.ErrNotFound) {
		return nil, false, err
	}

	t = &models.Therapist{UserID: userID, Specialization: []string{}, Availability: []string{}}
	err = store.CreateTherapist(ctx, t)
	if errors.Is(err, services.ErrTherapistExists) {
		// lost a race with a concurrent request
		t, err = myTherapist(ctx, userID)
		return t, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// EnsureTherapistProfile makes sure the caller has a therapist profile.
func EnsureTherapistProfile(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	t, created, err := getOrCreateTherapist(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{"therapist": t})
}

// OnboardTherapist fills in the professional details and lists the therapist.
func OnboardTherapist(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.TherapistProfileInput
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	t, _, err := getOrCreateTherapist(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	req.Apply(t)
	if !onboardingComplete(t) {
		writeError(w, http.StatusBadRequest, "Specialization and license number are required to complete onboarding")
		return
	}
	t.Onboarded = true
	if err := store.SaveTherapist(ctx, t); err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	invalidateTherapistList(ctx)

	logger.InfoContext(ctx, "✅ therapist onboarded", slog.String("therapist_id", t.ID.Hex()))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Onboarding completed",
		"therapist": t,
	})
}

// GetMyTherapistProfile returns the caller's therapist profile.
func GetMyTherapistProfile(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	t, err := myTherapist(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err, "Therapist profile")
		return
	}
	listings, err := joinUsers(ctx, []models.Therapist{*t})
	if err != nil {
		writeServiceError(w, r, err, "Therapist profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"therapist": listings[0]})
}

type TherapistStats struct {
	TotalAppointments    int     `json:"totalAppointments"`
	UpcomingAppointments int     `json:"upcomingAppointments"`
	CompletedSessions    int     `json:"completedSessions"`
	CancelledSessions    int     `json:"cancelledSessions"`
	TotalClients         int     `json:"totalClients"`
	Rating               float64 `json:"rating"`
}

// GetTherapistStats summarises the caller's caseload.
func GetTherapistStats(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	t, err := myTherapist(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err, "Therapist profile")
		return
	}
	appts, err := store.ListAppointments(ctx, services.AppointmentFilter{TherapistID: &t.ID})
	if err != nil {
		writeServiceError(w, r, err, "Therapist profile")
		return
	}

	stats := TherapistStats{TotalAppointments: len(appts), Rating: t.Rating}
	clients := map[primitive.ObjectID]bool{}
	start := today()
	for _, a := range appts {
		clients[a.ClientID] = true
		switch {
		case a.Status == models.StatusCompleted:
			stats.CompletedSessions++
		case a.Status == models.StatusCancelled:
			stats.CancelledSessions++
		case !a.Date.Before(start):
			stats.UpcomingAppointments++
		}
	}
	stats.TotalClients = len(clients)
	writeJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

// clientIDsOf returns the distinct clients who booked with therapist t.
func clientIDsOf(ctx context.Context, t *models.Therapist) ([]primitive.ObjectID, error) {
	appts, err := store.ListAppointments(ctx, services.AppointmentFilter{TherapistID: &t.ID})
	if err != nil {
		return nil, err
	}
	seen := map[primitive.ObjectID]bool{}
	ids := []primitive.ObjectID{}
	for _, a := range appts {
		if !seen[a.ClientID] {
			seen[a.ClientID] = true
			ids = append(ids, a.ClientID)
		}
	}
	return ids, nil
}

// GetTherapistClients lists the clients who have booked with the caller.
func GetTherapistClients(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	t, err := myTherapist(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err, "Therapist profile")
		return
	}
	ids, err := clientIDsOf(ctx, t)
	if err != nil {
		writeServiceError(w, r, err, "Therapist profile")
		return
	}
	users, err := store.GetUsersByIDs(ctx, ids)
	if err != nil {
		writeServiceError(w, r, err, "Therapist profile")
		return
	}
	clients := make([]models.PublicUser, 0, len(users))
	for i := range users {
		clients = append(clients, users[i].Public())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"clients": clients})
}

// ClientAssessment is an assessment shown to the client's therapist.
type ClientAssessment struct {
	models.Assessment
	Client models.PublicUser `json:"client"`
}

const clientAssessmentsLimit = 50

// GetTherapistClientAssessments lists recent assessments of the caller's clients.
func GetTherapistClientAssessments(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	t, err := myTherapist(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err, "Therapist profile")
		return
	}
	ids, err := clientIDsOf(ctx, t)
	if err != nil {
		writeServiceError(w, r, err, "Therapist profile")
		return
	}
	out := []ClientAssessment{}
	if len(ids) > 0 {
		list, err := store.ListAssessments(ctx, ids, clientAssessmentsLimit)
		if err != nil {
			writeServiceError(w, r, err, "Therapist profile")
			return
		}
		users, err := store.GetUsersByIDs(ctx, ids)
		if err != nil {
			writeServiceError(w, r, err, "Therapist profile")
			return
		}
		byID := make(map[primitive.ObjectID]models.PublicUser, len(users))
		for i := range users {
			byID[users[i].ID] = users[i].Public()
		}
		for _, a := range list {
			out = append(out, ClientAssessment{Assessment: a, Client: byID[a.UserID]})
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assessments": out})
}
