package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Severity is the band a scored assessment falls into.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeverityHigh     Severity = "High"
)

// ParseSeverity matches s case-insensitively against the known bands.
func ParseSeverity(s string) (Severity, bool) {
	for _, sev := range []Severity{SeverityLow, SeverityMild, SeverityModerate, SeverityHigh} {
		if strings.EqualFold(string(sev), strings.TrimSpace(s)) {
			return sev, true
		}
	}
	return "", false
}

// Where a result came from.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
	SourceClient   = "client"
)

type AssessmentResult struct {
	Prediction      string   `bson:"prediction" json:"prediction"`
	Confidence      float64  `bson:"confidence" json:"confidence"`
	Severity        Severity `bson:"severity" json:"severity"`
	Recommendations []string `bson:"recommendations" json:"recommendations"`
	RiskFactors     []string `bson:"risk_factors" json:"riskFactors"`
	Source          string   `bson:"source,omitempty" json:"source,omitempty"`
}

type Assessment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`

	UserID  primitive.ObjectID     `bson:"user_id" json:"userId"`
	Answers map[string]interface{} `bson:"answers" json:"answers"`
	Result  AssessmentResult       `bson:"result" json:"result"`
}
