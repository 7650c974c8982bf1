package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/middleware"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/AnshRaj112/mindnest-backend/pkg/utils"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const requestTimeout = 5 * time.Second

// Deps are the services the handlers run against. Optional ones may be nil.
type Deps struct {
	Store    services.Store
	Tokens   *services.TokenService
	Scorer   *services.Scorer
	Booking  *services.BookingService
	Notifier *services.Notifier
	Chatbot  *services.Chatbot
	Uploader services.Uploader     // nil disables picture uploads
	Cache    services.Cache        // nil disables the therapist list cache
	Contacts services.ContactStore // nil disables the contact form
	Logger   *slog.Logger
}

var (
	store    services.Store
	tokens   *services.TokenService
	scorer   *services.Scorer
	booking  *services.BookingService
	notifier *services.Notifier
	chatbot  *services.Chatbot
	uploader services.Uploader
	cache    services.Cache
	contacts services.ContactStore
	logger   = slog.Default()
)

// Init wires the handlers to their services. Call once before serving.
func Init(d Deps) {
	store = d.Store
	tokens = d.Tokens
	scorer = d.Scorer
	booking = d.Booking
	notifier = d.Notifier
	chatbot = d.Chatbot
	uploader = d.Uploader
	cache = d.Cache
	contacts = d.Contacts
	logger = d.Logger
	if logger == nil {
		logger = slog.Default()
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage turns the first validator failure into a user-facing message.
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "Invalid request"
	}
	fe := errs[0]
	field := fe.Field()
	if field != "" {
		field = strings.ToUpper(field[:1]) + field[1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return "Invalid " + strings.ToLower(field)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// requestContext bounds a handler's storage calls.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

// currentUser returns the caller's claims and user id, writing 401 when absent.
func currentUser(w http.ResponseWriter, r *http.Request) (*services.Claims, primitive.ObjectID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token required")
		return nil, primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil, primitive.NilObjectID, false
	}
	return claims, id, true
}

func actorOf(claims *services.Claims, id primitive.ObjectID) services.Actor {
	return services.Actor{UserID: id, Role: claims.Role}
}

// parseID reads a hex object id from the named URL parameter value.
func parseID(w http.ResponseWriter, raw, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+what+" ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

// writeServiceError maps service errors onto HTTP responses. resource names
// the thing that was looked up, for 404 messages.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	var verr *utils.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, services.ErrSlotTaken):
		writeError(w, http.StatusBadRequest, "Time slot not available")
	case errors.Is(err, services.ErrSlotBusy):
		writeError(w, http.StatusConflict, "Slot is being booked, please retry")
	case errors.Is(err, services.ErrNotOnboarded):
		writeError(w, http.StatusBadRequest, "Therapist is not accepting bookings yet")
	case errors.Is(err, services.ErrUnavailableDay):
		writeError(w, http.StatusBadRequest, "Therapist is not available on this day")
	case errors.Is(err, services.ErrPastDate):
		writeError(w, http.StatusBadRequest, "Cannot book an appointment in the past")
	case errors.Is(err, services.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "Cannot change the status of a completed or cancelled appointment")
	case errors.Is(err, services.ErrNoScorableAnswers):
		writeError(w, http.StatusBadRequest, "No scorable answers provided")
	case errors.Is(err, services.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, services.ErrTherapistExists):
		writeError(w, http.StatusBadRequest, "Therapist profile already exists")
	case errors.Is(err, services.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Service not available")
	default:
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// today is midnight UTC of the current day.
func today() time.Time {
	n := time.Now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

var liveStatuses = []models.AppointmentStatus{models.StatusScheduled, models.StatusConfirmed, models.StatusRescheduled}

// slotStatuses are the statuses that keep a therapist slot taken. Booking
// checks conflicts with the same predicate.
var slotStatuses = func() []models.AppointmentStatus {
	var out []models.AppointmentStatus
	for _, s := range models.AppointmentStatuses {
		if s.HoldsSlot() {
			out = append(out, s)
		}
	}
	return out
}()

// Health reports that the API is up.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "MindNest API is running",
	})
}
