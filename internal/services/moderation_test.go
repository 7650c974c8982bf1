package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "i want to die", CleanText("I  w4nt to   diiiie."))
	assert.Equal(t, "hey you", CleanText("Hey, you."))
	assert.Equal(t, "kil myself", CleanText("KILL   myself"))
}

func TestDetectCrisis(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"I want to die", true},
		{"this commute is killing me", false},
		{"I feel like I'm better off dead", true},
		{"thinking about SUICIDE lately", true},
		{"I've been feeling suicidal", true},
		{"I feel stressed about exams", false},
		{"my plan is to end it all tonight", true},
		{"", false},
	}
	for _, tt := range tests {
		got, _ := DetectCrisis(tt.msg)
		assert.Equal(t, tt.want, got, tt.msg)
	}
}

func TestDetectCrisisReportsPhrases(t *testing.T) {
	ok, matched := DetectCrisis("I want to hurt myself, I want to die")
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{"hurt myself", "want to die"}, matched)
}
