package services

// Question describes one item of the dynamic assessment.
type Question struct {
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Min      *int     `json:"min,omitempty"`
	Max      *int     `json:"max,omitempty"`
	Step     *int     `json:"step,omitempty"`
}

var (
	frequencyOptions = []string{"Not at all", "Several days", "More than half the days", "Nearly every day"}
	stressOptions    = []string{"Never", "Rarely", "Sometimes", "Often", "Always"}
	agreementOptions = []string{"Strongly disagree", "Disagree", "Neutral", "Agree", "Strongly agree"}
)

func intPtr(v int) *int { return &v }

func radio(text string, options []string) Question {
	return Question{Question: text, Type: "radio", Required: true, Options: options}
}

// Questionnaire returns the dynamic assessment, grouped by category.
func Questionnaire() map[string]map[string]Question {
	return map[string]map[string]Question{
		"demographics": {
			"age": {
				Question: "What is your age?", Type: "number", Required: true,
				Min: intPtr(18), Max: intPtr(100), Step: intPtr(1),
			},
			"gender": {
				Question: "What is your gender?", Type: "select", Required: true,
				Options: []string{"Male", "Female", "Non-binary", "Other", "Prefer not to say"},
			},
		},
		"anxiety": {
			"anxiety_1": radio("I feel nervous, anxious, or on edge", frequencyOptions),
			"anxiety_2": radio("I worry too much about different things", frequencyOptions),
			"anxiety_3": radio("I have trouble relaxing", frequencyOptions),
			"anxiety_4": radio("I get easily annoyed or irritable", frequencyOptions),
		},
		"depression": {
			"depression_1": radio("I have little interest or pleasure in doing things", frequencyOptions),
			"depression_2": radio("I feel down, depressed, or hopeless", frequencyOptions),
			"depression_3": radio("I have trouble falling or staying asleep, or sleeping too much", frequencyOptions),
			"depression_4": radio("I feel tired or have little energy", frequencyOptions),
		},
		"stress": {
			"stress_1": radio("I feel overwhelmed by my responsibilities", stressOptions),
			"stress_2": radio("I have difficulty concentrating due to stress", stressOptions),
			"stress_3": radio("I experience physical symptoms when stressed (headaches, muscle tension, etc.)", stressOptions),
		},
		"general": {
			"general_1": radio("I have a strong support system of family and friends", agreementOptions),
			"general_2": radio("I am able to cope with life's challenges effectively", agreementOptions),
			"general_3": radio("I feel optimistic about my future", agreementOptions),
		},
	}
}
