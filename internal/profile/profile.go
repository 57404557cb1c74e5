package profile

// Motivation is a six-dimension volunteering motivation inventory.
// Each dimension is self-reported on a 1–5 scale. A nil *Motivation
// means the volunteer has not completed that section yet; consumers
// must treat absence as neutral, never as a penalty.
type Motivation struct {
	Values        float64 `json:"values"`
	Understanding float64 `json:"understanding"`
	Social        float64 `json:"social"`
	Career        float64 `json:"career"`
	Protection    float64 `json:"protection"`
	Enhancement   float64 `json:"enhancement"`
}

// Dimension names, used by the category affinity table.
const (
	DimValues        = "values"
	DimUnderstanding = "understanding"
	DimSocial        = "social"
	DimCareer        = "career"
	DimProtection    = "protection"
	DimEnhancement   = "enhancement"
)

// Dimension returns the named dimension's raw 1–5 value.
func (m Motivation) Dimension(name string) (float64, bool) {
	switch name {
	case DimValues:
		return m.Values, true
	case DimUnderstanding:
		return m.Understanding, true
	case DimSocial:
		return m.Social, true
	case DimCareer:
		return m.Career, true
	case DimProtection:
		return m.Protection, true
	case DimEnhancement:
		return m.Enhancement, true
	}
	return 0, false
}

// Mean returns the average raw value across all six dimensions.
func (m Motivation) Mean() float64 {
	return (m.Values + m.Understanding + m.Social + m.Career + m.Protection + m.Enhancement) / 6
}

// Schwartz is an opaque psychological value profile. The engine only
// cares whether one is present; its contents are a collaborator's
// concern.
type Schwartz map[string]float64

// StringSet is a set of names (skills, categories) stored as a JSON
// array column.
type StringSet []string

// Contains reports membership, case-sensitive.
func (s StringSet) Contains(v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

// IntersectCount returns the number of elements shared with other.
func (s StringSet) IntersectCount(other StringSet) int {
	n := 0
	for _, e := range s {
		if other.Contains(e) {
			n++
		}
	}
	return n
}
