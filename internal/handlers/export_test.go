package handlers

import "time"

// SetScoringTimeout overrides the scoring deadline until the returned func is called.
func SetScoringTimeout(d time.Duration) (restore func()) {
	old := scoringTimeout
	scoringTimeout = d
	return func() { scoringTimeout = old }
}
