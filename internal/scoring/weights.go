package scoring

import "fmt"

// SumTolerance is the allowed deviation of the four proportional
// weights from 1.0.
const SumTolerance = 0.01

// Weights is the active scoring configuration. The four proportional
// weights must sum to 1.0 within SumTolerance, which bounds the total
// score to [0,100] by construction.
type Weights struct {
	Motivation float64 `json:"motivation"`
	Distance   float64 `json:"distance"`
	Skill      float64 `json:"skill"`
	Freshness  float64 `json:"freshness"`

	FreshnessWindowDays int    `json:"freshnessWindowDays"`
	SmallOrgThreshold   uint64 `json:"smallOrgThreshold"`
	LargeOrgThreshold   uint64 `json:"largeOrgThreshold"`
}

// Partial is a partial weights update; nil fields keep their current
// value. Validation runs against the merged result, so a partial
// update can never leave the stored configuration inconsistent.
type Partial struct {
	Motivation *float64 `json:"motivation"`
	Distance   *float64 `json:"distance"`
	Skill      *float64 `json:"skill"`
	Freshness  *float64 `json:"freshness"`

	FreshnessWindowDays *int    `json:"freshnessWindowDays"`
	SmallOrgThreshold   *uint64 `json:"smallOrgThreshold"`
	LargeOrgThreshold   *uint64 `json:"largeOrgThreshold"`
}

// Defaults returns the stock configuration used until an admin tunes
// one, and to backfill keys missing from the stored row.
func Defaults() Weights {
	return Weights{
		Motivation:          0.4,
		Distance:            0.3,
		Skill:               0.2,
		Freshness:           0.1,
		FreshnessWindowDays: 30,
		SmallOrgThreshold:   50,
		LargeOrgThreshold:   500,
	}
}

// Merge applies p on top of w and returns the result.
func (w Weights) Merge(p Partial) Weights {
	if p.Motivation != nil {
		w.Motivation = *p.Motivation
	}
	if p.Distance != nil {
		w.Distance = *p.Distance
	}
	if p.Skill != nil {
		w.Skill = *p.Skill
	}
	if p.Freshness != nil {
		w.Freshness = *p.Freshness
	}
	if p.FreshnessWindowDays != nil {
		w.FreshnessWindowDays = *p.FreshnessWindowDays
	}
	if p.SmallOrgThreshold != nil {
		w.SmallOrgThreshold = *p.SmallOrgThreshold
	}
	if p.LargeOrgThreshold != nil {
		w.LargeOrgThreshold = *p.LargeOrgThreshold
	}
	return w
}

// Validate checks the full configuration. It is always called on the
// merged result of a partial update, never on the partial alone.
func (w Weights) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"motivation", w.Motivation},
		{"distance", w.Distance},
		{"skill", w.Skill},
		{"freshness", w.Freshness},
	} {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("weight %q must be between 0 and 1, got %v", f.name, f.v)
		}
	}

	sum := w.Motivation + w.Distance + w.Skill + w.Freshness
	if sum < 1-SumTolerance || sum > 1+SumTolerance {
		return fmt.Errorf("weights must sum to 1.0 (±%v), got %v", SumTolerance, sum)
	}

	if w.FreshnessWindowDays < 1 {
		return fmt.Errorf("freshnessWindowDays must be >= 1, got %d", w.FreshnessWindowDays)
	}
	if w.SmallOrgThreshold < 1 {
		return fmt.Errorf("smallOrgThreshold must be >= 1, got %d", w.SmallOrgThreshold)
	}
	if w.LargeOrgThreshold < 1 {
		return fmt.Errorf("largeOrgThreshold must be >= 1, got %d", w.LargeOrgThreshold)
	}
	if w.LargeOrgThreshold < w.SmallOrgThreshold {
		return fmt.Errorf("largeOrgThreshold must be >= smallOrgThreshold")
	}

	return nil
}
