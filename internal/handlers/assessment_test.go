package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/handlers"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/AnshRaj112/mindnest-backend/internal/services/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowAnswers() map[string]interface{} {
	return map[string]interface{}{
		"age":          29,
		"gender":       "Female",
		"anxiety_1":    "Not at all",
		"anxiety_2":    0,
		"depression_1": "not at all",
		"stress_1":     "Never",
		"general_1":    "Strongly disagree",
	}
}

func highAnswers() map[string]interface{} {
	return map[string]interface{}{
		"anxiety_1":    4,
		"anxiety_2":    "4",
		"depression_1": 4,
		"depression_2": 4,
		"stress_1":     "Always",
		"general_1":    "Strongly agree",
	}
}

func TestAssessmentMetadataIsPublic(t *testing.T) {
	env := newEnv(t)

	rec := env.do(http.MethodGet, "/api/assessment/metadata", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	questions := decode(t, rec)["questions"].(map[string]interface{})
	for _, group := range []string{"demographics", "anxiety", "depression", "stress", "general"} {
		assert.Contains(t, questions, group)
	}
	anxiety := questions["anxiety"].(map[string]interface{})
	assert.Len(t, anxiety, 4)
}

func TestDynamicAssessmentUsesFallback(t *testing.T) {
	env := newEnv(t)
	ana := env.signup("Ana", "ana@example.com", models.RoleClient)

	rec := env.do(http.MethodPost, "/api/assessment/dynamic", map[string]interface{}{"answers": lowAnswers()}, ana.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	prediction := body["prediction"].(map[string]interface{})
	assert.Equal(t, "Low", prediction["severity"])
	assert.Equal(t, "Low Risk", prediction["prediction"])
	assert.Equal(t, models.SourceFallback, prediction["source"])

	assessment := body["assessment"].(map[string]interface{})
	answers := assessment["answers"].(map[string]interface{})
	assert.Equal(t, float64(0), answers["anxiety_1"], "text answers are stored as numbers")
	assert.Equal(t, "Female", answers["gender"])

	rec = env.do(http.MethodPost, "/api/assessment/submit", map[string]interface{}{"answers": highAnswers()}, ana.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "High", decode(t, rec)["prediction"].(map[string]interface{})["severity"])

	rec = env.do(http.MethodGet, "/api/assessment", nil, ana.token)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["assessments"].([]interface{})
	require.Len(t, list, 2)
	newest := list[0].(map[string]interface{})
	assert.Equal(t, "High", newest["result"].(map[string]interface{})["severity"])

	rec = env.do(http.MethodGet, "/api/profile", nil, ana.token)
	user := decode(t, rec)["user"].(map[string]interface{})
	assert.Len(t, user["assessments"], 2)
}

func TestDynamicAssessmentRejectsUnscorableAnswers(t *testing.T) {
	env := newEnv(t)
	ana := env.signup("Ana", "ana@example.com", models.RoleClient)

	rec := env.do(http.MethodPost, "/api/assessment/dynamic", map[string]interface{}{
		"answers": map[string]interface{}{"age": 40, "gender": "Male"},
	}, ana.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No scorable answers provided", errorOf(t, rec))

	rec = env.do(http.MethodPost, "/api/assessment/dynamic", map[string]interface{}{}, ana.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Answers is required", errorOf(t, rec))
}

func TestDynamicAssessmentFallsBackWhenModelFails(t *testing.T) {
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer model.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := newEnv(t, func(d *handlers.Deps) {
		d.Scorer = services.NewScorer(services.NewRemotePredictor(model.URL, time.Second), logger)
	})
	ana := env.signup("Ana", "ana@example.com", models.RoleClient)

	rec := env.do(http.MethodPost, "/api/assessment/dynamic", map[string]interface{}{"answers": highAnswers()}, ana.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	prediction := decode(t, rec)["prediction"].(map[string]interface{})
	assert.Equal(t, models.SourceFallback, prediction["source"])
	assert.Equal(t, "High", prediction["severity"])
}

// hangingPredictor never answers before the caller gives up.
type hangingPredictor struct{}

func (hangingPredictor) Predict(ctx context.Context, _ map[string]interface{}) (models.AssessmentResult, error) {
	<-ctx.Done()
	return models.AssessmentResult{}, ctx.Err()
}

// deadlineStore fails writes whose context is already done, like a real driver.
type deadlineStore struct {
	*servicetest.MemStore
}

func (s deadlineStore) CreateAssessment(ctx context.Context, a *models.Assessment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemStore.CreateAssessment(ctx, a)
}

func TestDynamicAssessmentSavedAfterScoringTimeout(t *testing.T) {
	defer handlers.SetScoringTimeout(20 * time.Millisecond)()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := newEnv(t, func(d *handlers.Deps) {
		d.Store = deadlineStore{MemStore: d.Store.(*servicetest.MemStore)}
		d.Scorer = services.NewScorer(hangingPredictor{}, logger)
	})
	ana := env.signup("Ana", "ana@example.com", models.RoleClient)

	rec := env.do(http.MethodPost, "/api/assessment/dynamic", map[string]interface{}{"answers": highAnswers()}, ana.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	prediction := decode(t, rec)["prediction"].(map[string]interface{})
	assert.Equal(t, models.SourceFallback, prediction["source"])
	assert.Equal(t, "High", prediction["severity"])
}

func TestDynamicAssessmentKeepsNonFiniteAnswersAsText(t *testing.T) {
	env := newEnv(t)
	ana := env.signup("Ana", "ana@example.com", models.RoleClient)

	rec := env.do(http.MethodPost, "/api/assessment/dynamic", map[string]interface{}{
		"answers": map[string]interface{}{"anxiety_1": 0, "anxiety_2": "NaN", "age": "Infinity"},
	}, ana.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Low", body["prediction"].(map[string]interface{})["severity"])
	answers := body["assessment"].(map[string]interface{})["answers"].(map[string]interface{})
	assert.Equal(t, "NaN", answers["anxiety_2"])
	assert.Equal(t, "Infinity", answers["age"])

	rec = env.do(http.MethodGet, "/api/assessment", nil, ana.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["assessments"], 1)

	rec = env.do(http.MethodPost, "/api/assessment/dynamic", map[string]interface{}{
		"answers": map[string]interface{}{"anxiety_1": "nan"},
	}, ana.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No scorable answers provided", errorOf(t, rec))
}

func TestDynamicAssessmentUsesModel(t *testing.T) {
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prediction":"Moderate Risk","severity":"moderate","confidence":0.91,"recommendations":["Talk to someone"],"risk_factors":["Stress"]}`))
	}))
	defer model.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := newEnv(t, func(d *handlers.Deps) {
		d.Scorer = services.NewScorer(services.NewRemotePredictor(model.URL, time.Second), logger)
	})
	ana := env.signup("Ana", "ana@example.com", models.RoleClient)

	rec := env.do(http.MethodPost, "/api/assessment/dynamic", map[string]interface{}{"answers": lowAnswers()}, ana.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	prediction := decode(t, rec)["prediction"].(map[string]interface{})
	assert.Equal(t, models.SourceModel, prediction["source"])
	assert.Equal(t, "Moderate", prediction["severity"])
}

func TestCreateAssessmentWithClientResult(t *testing.T) {
	env := newEnv(t)
	ana := env.signup("Ana", "ana@example.com", models.RoleClient)

	rec := env.do(http.MethodPost, "/api/assessment", map[string]interface{}{"answers": lowAnswers()}, ana.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Result is required", errorOf(t, rec))

	rec = env.do(http.MethodPost, "/api/assessment", map[string]interface{}{
		"answers": lowAnswers(),
		"result":  map[string]interface{}{"prediction": "Mild Risk", "severity": "mild", "confidence": 70},
	}, ana.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode(t, rec)["assessment"].(map[string]interface{})["result"].(map[string]interface{})
	assert.Equal(t, "Mild", result["severity"])
	assert.Equal(t, models.SourceClient, result["source"])

	rec = env.do(http.MethodPost, "/api/assessment", map[string]interface{}{
		"answers": lowAnswers(),
		"result":  map[string]interface{}{"severity": "extreme"},
	}, ana.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAssessmentOwnerOnly(t *testing.T) {
	env := newEnv(t)
	ana := env.signup("Ana", "ana@example.com", models.RoleClient)
	bo := env.signup("Bo", "bo@example.com", models.RoleClient)

	rec := env.do(http.MethodPost, "/api/assessment/dynamic", map[string]interface{}{"answers": lowAnswers()}, ana.token)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["assessment"].(map[string]interface{})["_id"].(string)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/assessment/"+id, nil, ana.token).Code)

	rec = env.do(http.MethodGet, "/api/assessment/"+id, nil, bo.token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/assessment/not-an-id", nil, ana.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/assessment/64b7f0c2a1b2c3d4e5f60718", nil, ana.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Assessment not found", errorOf(t, rec))
}
