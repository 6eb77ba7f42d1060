package models

import (
	"errors"
	"time"
)

// InferenceRun records the result of running the engine over one
// ObservedWeek: which fudge factor was needed to accept the observations,
// the winning pattern, and the serialized result rows for later recall.
type InferenceRun struct {
	ID                             string    `json:"id"`
	ObservedWeekID                 string    `json:"observed_week_id"`
	FudgeFactorUsed                int       `json:"fudge_factor_used"`
	TopPatternNumber               int       `json:"top_pattern_number"`
	TopPatternCategoryProbability  float64   `json:"top_pattern_category_probability"`
	ResultJSON                     string    `json:"result_json"`
	RanAt                          time.Time `json:"ran_at"`
}

// Validate checks that a run's summary fields are internally consistent.
func (r *InferenceRun) Validate() error {
	if r.ID == "" {
		return errors.New("inference run ID must not be empty")
	}
	if r.ObservedWeekID == "" {
		return errors.New("observed week ID must not be empty")
	}
	if r.FudgeFactorUsed < 0 || r.FudgeFactorUsed > 5 {
		return errors.New("fudge factor used must be between 0 and 5")
	}
	if r.TopPatternNumber < -1 || r.TopPatternNumber > 3 {
		return errors.New("top pattern number must be between -1 and 3")
	}
	if r.TopPatternCategoryProbability < 0.0 || r.TopPatternCategoryProbability > 1.0 {
		return errors.New("top pattern category probability must be between 0.0 and 1.0")
	}
	if r.ResultJSON == "" {
		return errors.New("result JSON must not be empty")
	}
	if r.RanAt.After(time.Now()) {
		return errors.New("ran at must not be in the future")
	}
	return nil
}
