package handlers

import (
	"net/http"
	"strconv"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 50
	recommendedLimit   = 6
)

// Specializations suggested for each severity band.
var recommendedSpecializations = map[models.Severity][]string{
	models.SeverityHigh:     {"Crisis Intervention", "Depression", "Trauma", "PTSD"},
	models.SeverityModerate: {"Anxiety", "Depression", "Stress Management", "CBT"},
	models.SeverityMild:     {"Stress Management", "Anxiety", "Mindfulness"},
	models.SeverityLow:      {"Mindfulness", "Wellness", "Personal Growth", "Life Coaching"},
}

type ClientStats struct {
	TotalAssessments     int             `json:"totalAssessments"`
	LatestSeverity       models.Severity `json:"latestSeverity,omitempty"`
	TotalAppointments    int             `json:"totalAppointments"`
	UpcomingAppointments int             `json:"upcomingAppointments"`
	CompletedSessions    int             `json:"completedSessions"`
}

// GetClientStats summarises the caller's assessments and sessions.
func GetClientStats(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	assessments, err := store.ListAssessments(ctx, []primitive.ObjectID{userID}, 0)
	if err != nil {
		writeServiceError(w, r, err, "Client")
		return
	}
	appts, err := store.ListAppointments(ctx, services.AppointmentFilter{ClientID: &userID})
	if err != nil {
		writeServiceError(w, r, err, "Client")
		return
	}

	stats := ClientStats{TotalAssessments: len(assessments), TotalAppointments: len(appts)}
	if len(assessments) > 0 {
		stats.LatestSeverity = assessments[0].Result.Severity
	}
	start := today()
	for _, a := range appts {
		if a.Status == models.StatusCompleted {
			stats.CompletedSessions++
		} else if a.Status.HoldsSlot() && !a.Date.Before(start) {
			stats.UpcomingAppointments++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

// GetRecentAssessments returns the caller's latest assessments (?limit=, default 5).
func GetRecentAssessments(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxRecentLimit)
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	list, err := store.ListAssessments(ctx, []primitive.ObjectID{userID}, int64(limit))
	if err != nil {
		writeServiceError(w, r, err, "Assessment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assessments": list})
}

// GetRecommendedTherapists picks therapists suited to the caller's latest
// severity, or any verified therapists when none match.
func GetRecommendedTherapists(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	latest, err := store.ListAssessments(ctx, []primitive.ObjectID{userID}, 1)
	if err != nil {
		writeServiceError(w, r, err, "Assessment")
		return
	}

	var severity models.Severity
	var list []models.Therapist
	if len(latest) > 0 {
		severity = latest[0].Result.Severity
		if specs := recommendedSpecializations[severity]; len(specs) > 0 {
			list, err = store.ListTherapists(ctx, services.TherapistFilter{
				OnboardedOnly:     true,
				VerifiedOnly:      true,
				SpecializationsIn: specs,
				Limit:             recommendedLimit,
			})
			if err != nil {
				writeServiceError(w, r, err, "Therapist")
				return
			}
		}
	}
	if len(list) == 0 {
		list, err = store.ListTherapists(ctx, services.TherapistFilter{
			OnboardedOnly: true,
			VerifiedOnly:  true,
			Limit:         recommendedLimit,
		})
		if err != nil {
			writeServiceError(w, r, err, "Therapist")
			return
		}
	}

	listings, err := joinUsers(ctx, list)
	if err != nil {
		writeServiceError(w, r, err, "Therapist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"therapists": listings,
		"severity":   severity,
	})
}
