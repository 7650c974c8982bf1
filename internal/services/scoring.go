package services

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/montanaflynn/stats"
)

// MaxAnswerValue is the top of the ordinal answer scale.
const MaxAnswerValue = 4

// Checked in order; longer phrases shadow the shorter ones they contain.
var answerPhrases = []struct {
	phrase string
	value  float64
}{
	{"more than half the days", 2},
	{"nearly every day", 3},
	{"several days", 1},
	{"not at all", 0},
	{"strongly disagree", 0},
	{"strongly agree", 4},
	{"disagree", 1},
	{"neutral", 2},
	{"agree", 3},
	{"never", 0},
	{"rarely", 1},
	{"sometimes", 2},
	{"often", 3},
	{"always", 4},
}

// AnswerValue converts one answer to a number. Text answers are matched
// against the questionnaire phrases; numeric strings are parsed. NaN and
// infinities are never numbers here.
func AnswerValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.ToLower(strings.TrimSpace(n))
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return finite(f)
		}
		for _, p := range answerPhrases {
			if strings.Contains(s, p.phrase) {
				return p.value, true
			}
		}
	}
	return 0, false
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NormalizeAnswers replaces every recognisable answer with its number and
// keeps the rest verbatim.
func NormalizeAnswers(answers map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(answers))
	for k, v := range answers {
		if n, ok := AnswerValue(v); ok {
			out[k] = n
		} else {
			out[k] = v
		}
	}
	return out
}

type severityBand struct {
	severity        models.Severity
	upperPercent    float64
	prediction      string
	confidence      float64
	recommendations []string
}

var severityBands = []severityBand{
	{
		severity: models.SeverityLow, upperPercent: 25, prediction: "Low Risk", confidence: 85,
		recommendations: []string{
			"Continue maintaining good mental health practices",
			"Regular exercise and social activities",
			"Consider mindfulness or meditation practices",
		},
	},
	{
		severity: models.SeverityMild, upperPercent: 50, prediction: "Mild Risk", confidence: 80,
		recommendations: []string{
			"Monitor your stress levels",
			"Practice stress management techniques",
			"Consider talking to a counselor if symptoms persist",
		},
	},
	{
		severity: models.SeverityModerate, upperPercent: 75, prediction: "Moderate Risk", confidence: 80,
		recommendations: []string{
			"Consider speaking with a mental health professional",
			"Practice stress management techniques",
			"Maintain regular sleep and exercise routines",
			"Consider therapy or counseling",
		},
	},
	{
		severity: models.SeverityHigh, upperPercent: math.Inf(1), prediction: "High Risk", confidence: 85,
		recommendations: []string{
			"Please seek professional mental health support immediately",
			"Consider speaking with a therapist or psychiatrist",
			"Practice self-care and stress management",
			"Reach out to crisis helplines if needed",
		},
	},
}

// FallbackScore classifies answers locally. Only values on the 0..4 answer
// scale are scored, so demographics such as age are ignored. The mean of the
// scored values, as a percentage of the scale maximum, selects the band.
func FallbackScore(answers map[string]interface{}) (models.AssessmentResult, error) {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var values stats.Float64Data
	byCategory := map[string]stats.Float64Data{}
	scored := map[string]float64{}
	for _, k := range keys {
		n, ok := AnswerValue(answers[k])
		if !ok || n < 0 || n > MaxAnswerValue {
			continue
		}
		values = append(values, n)
		scored[k] = n
		if i := strings.LastIndex(k, "_"); i > 0 {
			cat := k[:i]
			byCategory[cat] = append(byCategory[cat], n)
		}
	}
	if len(values) == 0 {
		return models.AssessmentResult{}, ErrNoScorableAnswers
	}

	mean, err := values.Mean()
	if err != nil {
		return models.AssessmentResult{}, err
	}
	percent := mean / MaxAnswerValue * 100

	band := severityBands[len(severityBands)-1]
	for _, b := range severityBands {
		if percent < b.upperPercent {
			band = b
			break
		}
	}

	return models.AssessmentResult{
		Prediction:      band.prediction,
		Confidence:      band.confidence,
		Severity:        band.severity,
		Recommendations: append([]string(nil), band.recommendations...),
		RiskFactors:     riskFactors(band.severity, byCategory, scored),
		Source:          models.SourceFallback,
	}, nil
}

func riskFactors(sev models.Severity, byCategory map[string]stats.Float64Data, scored map[string]float64) []string {
	var factors []string
	categoryAbove := func(cat string, limit float64) bool {
		data, ok := byCategory[cat]
		if !ok {
			return false
		}
		m, err := stats.Mean(data)
		return err == nil && m > limit
	}

	if categoryAbove("anxiety", 2) {
		factors = append(factors, "Elevated anxiety levels affecting daily functioning")
	}
	if categoryAbove("depression", 2) {
		factors = append(factors, "Depressive symptoms impacting motivation and mood")
	}
	if categoryAbove("stress", 3) {
		factors = append(factors, "High stress levels affecting multiple life areas")
	}
	if v, ok := scored["depression_3"]; ok && v > 2 {
		factors = append(factors, "Sleep disturbances affecting daily energy")
	}
	if v, ok := scored["general_1"]; ok && v < 2 {
		factors = append(factors, "Limited social support and relationship satisfaction")
	}
	if v, ok := scored["general_3"]; ok && v < 2 {
		factors = append(factors, "Low optimism about the future")
	}
	if sev == models.SeverityHigh {
		factors = append(factors, "Potential risk for self-harm or suicidal ideation")
	}
	if len(factors) == 0 {
		factors = []string{"No significant risk factors identified"}
	}
	return factors
}
