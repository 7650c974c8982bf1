package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/metrics"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/tidwall/gjson"
)

// Predictor produces a result for a set of normalised answers.
type Predictor interface {
	Predict(ctx context.Context, answers map[string]interface{}) (models.AssessmentResult, error)
}

// RemotePredictor calls the external ML scoring service.
type RemotePredictor struct {
	baseURL string
	client  *http.Client
}

// NewRemotePredictor returns a client for baseURL. timeout bounds the whole request.
func NewRemotePredictor(baseURL string, timeout time.Duration) *RemotePredictor {
	return &RemotePredictor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *RemotePredictor) Predict(ctx context.Context, answers map[string]interface{}) (models.AssessmentResult, error) {
	body, err := json.Marshal(map[string]interface{}{
		"answers":    answers,
		"model_type": "ensemble",
	})
	if err != nil {
		return models.AssessmentResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return models.AssessmentResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return models.AssessmentResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.AssessmentResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return models.AssessmentResult{}, fmt.Errorf("scoring service returned %d", resp.StatusCode)
	}
	return parsePrediction(raw)
}

// parsePrediction reads the scorer response, accepting both the camelCase and
// snake_case field spellings the service has used.
func parsePrediction(raw []byte) (models.AssessmentResult, error) {
	if !gjson.ValidBytes(raw) {
		return models.AssessmentResult{}, fmt.Errorf("scoring service returned invalid JSON")
	}
	doc := gjson.ParseBytes(raw)

	sev, ok := models.ParseSeverity(doc.Get("severity").String())
	if !ok {
		return models.AssessmentResult{}, fmt.Errorf("scoring service returned unknown severity %q", doc.Get("severity").String())
	}

	prediction := doc.Get("prediction").String()
	if prediction == "" {
		prediction = doc.Get("risk_level").String()
	}
	if prediction == "" {
		prediction = string(sev) + " Risk"
	}

	confidence := doc.Get("confidence").Float()
	if confidence > 0 && confidence <= 1 {
		confidence *= 100
	}

	riskField := doc.Get("riskFactors")
	if !riskField.Exists() {
		riskField = doc.Get("risk_factors")
	}

	return models.AssessmentResult{
		Prediction:      prediction,
		Confidence:      confidence,
		Severity:        sev,
		Recommendations: stringArray(doc.Get("recommendations")),
		RiskFactors:     stringArray(riskField),
		Source:          models.SourceModel,
	}, nil
}

func stringArray(r gjson.Result) []string {
	out := []string{}
	for _, item := range r.Array() {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Scorer tries the remote predictor and falls back to FallbackScore on any failure.
type Scorer struct {
	remote Predictor // nil disables the remote call
	logger *slog.Logger
}

func NewScorer(remote Predictor, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{remote: remote, logger: logger}
}

// Score returns a result for answers, which must already be normalised.
func (s *Scorer) Score(ctx context.Context, answers map[string]interface{}) (models.AssessmentResult, error) {
	if s.remote != nil {
		res, err := s.remote.Predict(ctx, answers)
		if err == nil {
			metrics.AssessmentsScored.WithLabelValues(string(res.Severity), models.SourceModel).Inc()
			return res, nil
		}
		metrics.ScorerFallbacks.Inc()
		s.logger.WarnContext(ctx, "scoring service unavailable, using fallback", slog.Any("error", err))
	}

	res, err := FallbackScore(answers)
	if err != nil {
		return models.AssessmentResult{}, err
	}
	metrics.AssessmentsScored.WithLabelValues(string(res.Severity), models.SourceFallback).Inc()
	return res, nil
}
