package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRemotePredictorParsesResponse(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prediction":"Moderate Risk","severity":"moderate","confidence":0.72,
			"recommendations":["Consider therapy or counseling"],
			"risk_factors":["Elevated anxiety levels affecting daily functioning"]}`))
	}))
	defer srv.Close()

	p := NewRemotePredictor(srv.URL, time.Second)
	res, err := p.Predict(context.Background(), map[string]interface{}{"anxiety_1": 3.0})
	require.NoError(t, err)

	assert.Equal(t, "ensemble", got["model_type"])
	assert.Equal(t, models.SeverityModerate, res.Severity)
	assert.Equal(t, "Moderate Risk", res.Prediction)
	assert.InDelta(t, 72, res.Confidence, 0.001)
	assert.Equal(t, []string{"Consider therapy or counseling"}, res.Recommendations)
	assert.Equal(t, []string{"Elevated anxiety levels affecting daily functioning"}, res.RiskFactors)
	assert.Equal(t, models.SourceModel, res.Source)
}

func TestRemotePredictorTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewRemotePredictor(srv.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := p.Predict(context.Background(), map[string]interface{}{"anxiety_1": 1.0})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestParsePredictionRejectsUnknownSeverity(t *testing.T) {
	_, err := parsePrediction([]byte(`{"prediction":"???","severity":"extreme"}`))
	assert.Error(t, err)

	_, err = parsePrediction([]byte(`not json`))
	assert.Error(t, err)
}

func TestParsePredictionUsesRiskLevel(t *testing.T) {
	res, err := parsePrediction([]byte(`{"risk_level":"Low Risk","severity":"Low","confidence":91}`))
	require.NoError(t, err)
	assert.Equal(t, "Low Risk", res.Prediction)
	assert.Equal(t, float64(91), res.Confidence)
	assert.Empty(t, res.RiskFactors)
}

type mockPredictor struct {
	mock.Mock
}

func (m *mockPredictor) Predict(ctx context.Context, answers map[string]interface{}) (models.AssessmentResult, error) {
	args := m.Called(ctx, answers)
	return args.Get(0).(models.AssessmentResult), args.Error(1)
}

func TestScorerFallsBackOnRemoteFailure(t *testing.T) {
	answers := map[string]interface{}{"anxiety_1": 0.0, "stress_1": 0.0}

	remote := new(mockPredictor)
	remote.On("Predict", mock.Anything, answers).Return(models.AssessmentResult{}, errors.New("connection refused"))

	res, err := NewScorer(remote, nil).Score(context.Background(), answers)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityLow, res.Severity)
	assert.Equal(t, models.SourceFallback, res.Source)
	remote.AssertExpectations(t)
}

func TestScorerPrefersRemoteResult(t *testing.T) {
	answers := map[string]interface{}{"anxiety_1": 0.0}
	want := models.AssessmentResult{Prediction: "High Risk", Severity: models.SeverityHigh, Source: models.SourceModel}

	remote := new(mockPredictor)
	remote.On("Predict", mock.Anything, answers).Return(want, nil)

	res, err := NewScorer(remote, nil).Score(context.Background(), answers)
	require.NoError(t, err)
	assert.Equal(t, want, res)
}

func TestScorerWithoutRemote(t *testing.T) {
	_, err := NewScorer(nil, nil).Score(context.Background(), map[string]interface{}{"gender": "Other"})
	assert.ErrorIs(t, err, ErrNoScorableAnswers)
}
