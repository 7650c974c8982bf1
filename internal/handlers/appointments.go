package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookAppointmentRequest struct {
	TherapistID string `json:"therapistId"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Type        string `json:"type"`
	SessionType string `json:"sessionType"`
	Notes       string `json:"notes" validate:"max=2000"`
}

type StatusRequest struct {
	Status models.AppointmentStatus `json:"status" validate:"required"`
}

type RescheduleRequest struct {
	Date string `json:"date" validate:"required"`
	Time string `json:"time" validate:"required"`
}

// buildViews resolves both parties of each appointment and opens its notes.
func buildViews(ctx context.Context, appts []models.Appointment) ([]models.AppointmentView, error) {
	therapistUsers := map[primitive.ObjectID]primitive.ObjectID{}
	userIDs := []primitive.ObjectID{}
	for _, a := range appts {
		userIDs = append(userIDs, a.ClientID)
		if _, done := therapistUsers[a.TherapistID]; done {
			continue
		}
		t, err := store.GetTherapistByID(ctx, a.TherapistID)
		if errors.Is(err, services.ErrNotFound) {
			therapistUsers[a.TherapistID] = primitive.NilObjectID
			continue
		}
		if err != nil {
			return nil, err
		}
		therapistUsers[a.TherapistID] = t.UserID
		userIDs = append(userIDs, t.UserID)
	}

	users := map[primitive.ObjectID]models.PublicUser{}
	if len(userIDs) > 0 {
		list, err := store.GetUsersByIDs(ctx, userIDs)
		if err != nil {
			return nil, err
		}
		for i := range list {
			users[list[i].ID] = list[i].Public()
		}
	}

	views := make([]models.AppointmentView, 0, len(appts))
	for _, a := range appts {
		booking.OpenNotes(&a)
		v := models.AppointmentView{Appointment: a}
		if u, ok := users[a.ClientID]; ok {
			v.Client = &u
		}
		if u, ok := users[therapistUsers[a.TherapistID]]; ok {
			v.Therapist = &u
		}
		views = append(views, v)
	}
	return views, nil
}

func buildView(ctx context.Context, a *models.Appointment) (models.AppointmentView, error) {
	views, err := buildViews(ctx, []models.Appointment{*a})
	if err != nil {
		return models.AppointmentView{}, err
	}
	return views[0], nil
}

// roleFilter scopes a listing to the caller: their own bookings as a client,
// or their profile's bookings as a therapist.
func roleFilter(ctx context.Context, claims *services.Claims, userID primitive.ObjectID) (services.AppointmentFilter, error) {
	if claims.Role == models.RoleTherapist {
		t, err := myTherapist(ctx, userID)
		if err != nil {
			return services.AppointmentFilter{}, err
		}
		return services.AppointmentFilter{TherapistID: &t.ID}, nil
	}
	return services.AppointmentFilter{ClientID: &userID}, nil
}

func listAppointments(w http.ResponseWriter, r *http.Request, upcomingOnly bool) {
	claims, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	filter, err := roleFilter(ctx, claims, userID)
	if err != nil {
		writeServiceError(w, r, err, "Therapist profile")
		return
	}
	if upcomingOnly {
		start := today()
		filter.From = &start
		filter.Statuses = liveStatuses
		filter.Ascending = true
	}

	appts, err := store.ListAppointments(ctx, filter)
	if err != nil {
		writeServiceError(w, r, err, "Appointment")
		return
	}
	views, err := buildViews(ctx, appts)
	if err != nil {
		writeServiceError(w, r, err, "Appointment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"appointments": views})
}

// ListAppointments returns all of the caller's appointments, latest first.
func ListAppointments(w http.ResponseWriter, r *http.Request) {
	listAppointments(w, r, false)
}

// ListUpcomingAppointments returns the caller's live appointments from today on, soonest first.
// The client and therapist variants are the same listing behind a role check.
func ListUpcomingAppointments(w http.ResponseWriter, r *http.Request) {
	listAppointments(w, r, true)
}

// GetTherapistSchedule returns a therapist's booked slots for ?date=. The
// owning therapist gets the full appointments, with or without a date.
func GetTherapistSchedule(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	therapistID, ok := parseID(w, chi.URLParam(r, "therapistId"), "therapist")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	t, err := store.GetTherapistByID(ctx, therapistID)
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	owner := claims.Role == models.RoleTherapist && t.UserID == userID

	filter := services.AppointmentFilter{TherapistID: &t.ID, Statuses: slotStatuses, Ascending: true}
	date := r.URL.Query().Get("date")
	if date != "" {
		day, err := services.ParseSessionDate(date)
		if err != nil {
			writeServiceError(w, r, err, "Therapist")
			return
		}
		filter.Day = &day
	} else if !owner {
		writeError(w, http.StatusBadRequest, "Date is required")
		return
	}

	appts, err := store.ListAppointments(ctx, filter)
	if err != nil {
		writeServiceError(w, r, err, "Appointment")
		return
	}

	booked := make([]string, 0, len(appts))
	for _, a := range appts {
		booked = append(booked, a.Time)
	}
	resp := map[string]interface{}{"date": date, "bookedSlots": booked}
	if owner {
		views, err := buildViews(ctx, appts)
		if err != nil {
			writeServiceError(w, r, err, "Appointment")
			return
		}
		resp["appointments"] = views
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAppointment returns one appointment to either of its parties.
func GetAppointment(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"), "appointment")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	a, err := booking.Get(ctx, actorOf(claims, userID), id)
	if err != nil {
		writeServiceError(w, r, err, "Appointment")
		return
	}
	view, err := buildView(ctx, a)
	if err != nil {
		writeServiceError(w, r, err, "Appointment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"appointment": view})
}

// BookAppointment books a session for the calling client.
func BookAppointment(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req BookAppointmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	slot := strings.TrimSpace(req.Time)
	if slot == "" {
		slot = strings.TrimSpace(req.StartTime)
	}
	sessionType := req.Type
	if sessionType == "" {
		sessionType = req.SessionType
	}
	if strings.TrimSpace(req.TherapistID) == "" || strings.TrimSpace(req.Date) == "" || slot == "" {
		writeError(w, http.StatusBadRequest, "Therapist, date, and time are required")
		return
	}
	therapistID, ok := parseID(w, req.TherapistID, "therapist")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	appt, err := booking.Book(ctx, services.BookingRequest{
		ClientID:    userID,
		TherapistID: therapistID,
		Date:        req.Date,
		Time:        slot,
		EndTime:     req.EndTime,
		Type:        models.SessionType(strings.ToLower(strings.TrimSpace(sessionType))),
		Notes:       req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}

	view, err := buildView(ctx, appt)
	if err != nil {
		writeServiceError(w, r, err, "Appointment")
		return
	}
	if t, err := store.GetTherapistByID(ctx, appt.TherapistID); err == nil {
		notifier.AppointmentBooked(view.Appointment, t.UserID)
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Appointment booked successfully",
		"appointment": view,
	})
}

// changeStatus applies status for the caller and emails the client when it changed.
func changeStatus(w http.ResponseWriter, r *http.Request, status models.AppointmentStatus) {
	claims, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"), "appointment")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	actor := actorOf(claims, userID)
	before, err := booking.Get(ctx, actor, id)
	if err != nil {
		writeServiceError(w, r, err, "Appointment")
		return
	}
	prev := before.Status

	a, err := booking.ChangeStatus(ctx, actor, id, status)
	if err != nil {
		writeServiceError(w, r, err, "Appointment")
		return
	}
	view, err := buildView(ctx, a)
	if err != nil {
		writeServiceError(w, r, err, "Appointment")
		return
	}
	if prev != a.Status {
		notifier.StatusChanged(view.Appointment)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Appointment " + string(a.Status),
		"appointment": view,
	})
}

// UpdateAppointmentStatus sets the status given in the body.
func UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	changeStatus(w, r, models.AppointmentStatus(strings.ToLower(strings.TrimSpace(string(req.Status)))))
}

func ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	changeStatus(w, r, models.StatusConfirmed)
}

func CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	changeStatus(w, r, models.StatusCompleted)
}

// CancelAppointment cancels; it also serves DELETE since appointments are never removed.
func CancelAppointment(w http.ResponseWriter, r *http.Request) {
	changeStatus(w, r, models.StatusCancelled)
}

// RescheduleAppointment moves an appointment to a new date and time.
func RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"), "appointment")
	if !ok {
		return
	}

	var req RescheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	a, err := booking.Reschedule(ctx, actorOf(claims, userID), id, req.Date, req.Time)
	if err != nil {
		writeServiceError(w, r, err, "Appointment")
		return
	}
	view, err := buildView(ctx, a)
	if err != nil {
		writeServiceError(w, r, err, "Appointment")
		return
	}
	notifier.StatusChanged(view.Appointment)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Appointment rescheduled",
		"appointment": view,
	})
}
