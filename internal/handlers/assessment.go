package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scoring may wait on the remote model before falling back.
var scoringTimeout = 15 * time.Second

type CreateAssessmentRequest struct {
	Answers map[string]interface{}   `json:"answers" validate:"required,min=1"`
	Result  *models.AssessmentResult `json:"result" validate:"required"`
}

type DynamicAssessmentRequest struct {
	Answers map[string]interface{} `json:"answers" validate:"required,min=1"`
}

// GetAssessmentMetadata returns the dynamic questionnaire.
func GetAssessmentMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": services.Questionnaire()})
}

// ListAssessments returns the caller's assessments, newest first.
func ListAssessments(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	list, err := store.ListAssessments(ctx, []primitive.ObjectID{userID}, 0)
	if err != nil {
		writeServiceError(w, r, err, "Assessment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assessments": list})
}

// GetAssessment returns one of the caller's assessments.
func GetAssessment(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"), "assessment")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	a, err := store.GetAssessmentByID(ctx, id)
	if err != nil {
		writeServiceError(w, r, err, "Assessment")
		return
	}
	if a.UserID != userID {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assessment": a})
}

// CreateAssessment stores a result computed by the client.
func CreateAssessment(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateAssessmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result := *req.Result
	if result.Severity != "" {
		sev, ok := models.ParseSeverity(string(result.Severity))
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid severity")
			return
		}
		result.Severity = sev
	}
	result.Source = models.SourceClient

	ctx, cancel := requestContext(r)
	defer cancel()

	a := &models.Assessment{UserID: userID, Answers: req.Answers, Result: result}
	if err := store.CreateAssessment(ctx, a); err != nil {
		writeServiceError(w, r, err, "Assessment")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"assessment": a})
}

// SubmitDynamicAssessment scores answers, remotely when possible, and stores the result.
func SubmitDynamicAssessment(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req DynamicAssessmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	scoreCtx, cancelScore := context.WithTimeout(r.Context(), scoringTimeout)
	answers := services.NormalizeAnswers(req.Answers)
	result, err := scorer.Score(scoreCtx, answers)
	cancelScore()
	if err != nil {
		writeServiceError(w, r, err, "Assessment")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	a := &models.Assessment{UserID: userID, Answers: answers, Result: result}
	if err := store.CreateAssessment(ctx, a); err != nil {
		writeServiceError(w, r, err, "Assessment")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"assessment": a,
		"prediction": result,
	})
}
