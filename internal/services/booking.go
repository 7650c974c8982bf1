package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/metrics"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	dateLayout  = "2006-01-02"
	slotLockTTL = 10 * time.Second
)

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID primitive.ObjectID
	Role   models.Role
}

// BookingRequest is a client's request for a session.
type BookingRequest struct {
	ClientID    primitive.ObjectID
	TherapistID primitive.ObjectID
	Date        string
	Time        string
	EndTime     string
	Type        models.SessionType
	Notes       string
}

type bookingStore interface {
	TherapistStore
	AppointmentStore
}

// BookingService owns appointment creation and status changes.
type BookingService struct {
	store    bookingStore
	locker   SlotLocker // nil skips cross-instance locking
	notesKey []byte     // nil stores notes unencrypted
	logger   *slog.Logger
	now      func() time.Time
}

func NewBookingService(store bookingStore, locker SlotLocker, notesKey []byte, logger *slog.Logger) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{store: store, locker: locker, notesKey: notesKey, logger: logger, now: time.Now}
}

// ParseSessionDate accepts YYYY-MM-DD or RFC 3339 and returns midnight UTC of that day.
func ParseSessionDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &utils.ValidationError{Field: "date", Message: "Invalid date, expected YYYY-MM-DD"}
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (b *BookingService) today() time.Time {
	n := b.now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// Book creates an appointment after checking the therapist, the day and the slot.
func (b *BookingService) Book(ctx context.Context, req BookingRequest) (*models.Appointment, error) {
	req.Time = strings.TrimSpace(req.Time)
	if req.TherapistID.IsZero() || strings.TrimSpace(req.Date) == "" || req.Time == "" {
		return nil, &utils.ValidationError{Field: "therapistId", Message: "Therapist, date, and time are required"}
	}
	if req.Type == "" {
		req.Type = models.SessionIndividual
	}
	if !req.Type.Valid() {
		return nil, &utils.ValidationError{Field: "type", Message: "Invalid session type"}
	}

	therapist, err := b.store.GetTherapistByID(ctx, req.TherapistID)
	if err != nil {
		return nil, err
	}
	if !therapist.Onboarded {
		return nil, ErrNotOnboarded
	}

	day, err := b.checkDay(therapist, req.Date)
	if err != nil {
		return nil, err
	}

	notes, err := b.sealNotes(req.Notes)
	if err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		ClientID:    req.ClientID,
		TherapistID: therapist.ID,
		Date:        day,
		Time:        req.Time,
		StartTime:   req.Time,
		EndTime:     strings.TrimSpace(req.EndTime),
		Type:        req.Type,
		Status:      models.StatusScheduled,
		Notes:       notes,
	}

	err = b.withSlot(ctx, therapist.ID, day, req.Time, primitive.NilObjectID, func() error {
		return b.store.CreateAppointment(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	metrics.AppointmentsBooked.Inc()
	b.logger.InfoContext(ctx, "appointment booked",
		slog.String("appointment_id", appt.ID.Hex()),
		slog.String("therapist_id", therapist.ID.Hex()),
		slog.String("date", day.Format(dateLayout)),
		slog.String("time", appt.Time),
	)
	return appt, nil
}

// checkDay parses date and rejects past days and days outside the therapist's availability.
func (b *BookingService) checkDay(t *models.Therapist, date string) (time.Time, error) {
	day, err := ParseSessionDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if day.Before(b.today()) {
		return time.Time{}, ErrPastDate
	}
	if !t.AvailableOn(day.Weekday()) {
		return time.Time{}, ErrUnavailableDay
	}
	return day, nil
}

// withSlot runs write while holding the slot lock, after verifying no other
// live appointment (other than exclude) already has the slot.
func (b *BookingService) withSlot(ctx context.Context, therapistID primitive.ObjectID, day time.Time, slot string, exclude primitive.ObjectID, write func() error) error {
	if b.locker != nil {
		key := therapistID.Hex() + ":" + day.Format(dateLayout) + ":" + slot
		release, ok, err := b.locker.Acquire(ctx, key, slotLockTTL)
		if err != nil {
			return err
		}
		if !ok {
			metrics.BookingConflicts.WithLabelValues("busy").Inc()
			return ErrSlotBusy
		}
		defer release()
	}

	filter := AppointmentFilter{TherapistID: &therapistID, Day: &day}
	if !exclude.IsZero() {
		filter.ExcludeID = &exclude
	}
	existing, err := b.store.ListAppointments(ctx, filter)
	if err != nil {
		return err
	}
	for _, a := range existing {
		if a.Status.HoldsSlot() && a.Time == slot {
			metrics.BookingConflicts.WithLabelValues("taken").Inc()
			return ErrSlotTaken
		}
	}

	if err := write(); err != nil {
		if err == ErrSlotTaken {
			metrics.BookingConflicts.WithLabelValues("taken").Inc()
		}
		return err
	}
	return nil
}

// party is the caller's relation to an appointment.
type party int

const (
	partyNone party = iota
	partyClient
	partyTherapist
)

var allowedStatuses = map[party][]models.AppointmentStatus{
	partyClient:    {models.StatusCancelled, models.StatusRescheduled},
	partyTherapist: {models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled, models.StatusScheduled},
}

func (b *BookingService) relation(ctx context.Context, actor Actor, a *models.Appointment) (party, error) {
	switch actor.Role {
	case models.RoleClient:
		if a.ClientID == actor.UserID {
			return partyClient, nil
		}
	case models.RoleTherapist:
		t, err := b.store.GetTherapistByUserID(ctx, actor.UserID)
		if err == ErrNotFound {
			return partyNone, nil
		}
		if err != nil {
			return partyNone, err
		}
		if a.TherapistID == t.ID {
			return partyTherapist, nil
		}
	}
	return partyNone, nil
}

// Get returns an appointment visible to actor.
func (b *BookingService) Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Appointment, error) {
	a, err := b.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := b.relation(ctx, actor, a)
	if err != nil {
		return nil, err
	}
	if p == partyNone {
		return nil, ErrForbidden
	}
	return a, nil
}

// ChangeStatus moves an appointment to status. Completed and cancelled are
// terminal; asking for the current status again is a no-op.
func (b *BookingService) ChangeStatus(ctx context.Context, actor Actor, id primitive.ObjectID, status models.AppointmentStatus) (*models.Appointment, error) {
	if !status.Valid() {
		return nil, &utils.ValidationError{Field: "status", Message: "Invalid status"}
	}
	a, err := b.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := b.relation(ctx, actor, a)
	if err != nil {
		return nil, err
	}
	if p == partyNone || !statusAllowed(p, status) {
		return nil, ErrForbidden
	}

	if a.Status == status {
		return a, nil
	}
	if a.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	a.Status = status
	if err := b.store.UpdateAppointment(ctx, a); err != nil {
		return nil, err
	}
	b.logger.InfoContext(ctx, "appointment status changed",
		slog.String("appointment_id", a.ID.Hex()),
		slog.String("status", string(status)),
	)
	return a, nil
}

// Reschedule moves a live appointment to a new day and slot.
func (b *BookingService) Reschedule(ctx context.Context, actor Actor, id primitive.ObjectID, date, slot string) (*models.Appointment, error) {
	slot = strings.TrimSpace(slot)
	if strings.TrimSpace(date) == "" || slot == "" {
		return nil, &utils.ValidationError{Field: "date", Message: "Date and time are required"}
	}

	a, err := b.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := b.relation(ctx, actor, a)
	if err != nil {
		return nil, err
	}
	if p == partyNone {
		return nil, ErrForbidden
	}
	if a.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	therapist, err := b.store.GetTherapistByID(ctx, a.TherapistID)
	if err != nil {
		return nil, err
	}
	day, err := b.checkDay(therapist, date)
	if err != nil {
		return nil, err
	}

	err = b.withSlot(ctx, a.TherapistID, day, slot, a.ID, func() error {
		a.Date = day
		a.Time = slot
		a.StartTime = slot
		a.Status = models.StatusRescheduled
		return b.store.UpdateAppointment(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func statusAllowed(p party, s models.AppointmentStatus) bool {
	for _, v := range allowedStatuses[p] {
		if v == s {
			return true
		}
	}
	return false
}

func (b *BookingService) sealNotes(notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if b.notesKey == nil || notes == "" {
		return notes, nil
	}
	return utils.Encrypt(notes, b.notesKey)
}

// OpenNotes decrypts a.Notes in place. Notes written before a key was
// configured are left as they are.
func (b *BookingService) OpenNotes(a *models.Appointment) {
	if b.notesKey == nil || a.Notes == "" {
		return
	}
	if plain, err := utils.Decrypt(a.Notes, b.notesKey); err == nil {
		a.Notes = plain
	}
}
