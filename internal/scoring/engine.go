package scoring

import (
	"time"

	"github.com/doemee-app/match-engine/internal/db"
	"github.com/doemee-app/match-engine/internal/geo"
	"github.com/doemee-app/match-engine/internal/profile"
)

const (
	// neutralSubScore is used wherever a signal is absent. Missing
	// data must never penalize a volunteer who has not completed a
	// profile section.
	neutralSubScore = 0.5

	// freshnessFloor keeps old-but-relevant vacancies reachable.
	freshnessFloor = 0.2

	// smallOrgBoost / largeOrgPenalty counteract large organisations
	// dominating rankings by posting volume.
	smallOrgBoost   = 1.2
	largeOrgPenalty = 0.85

	// schwartzBlend pulls the motivation sub-score toward 1.0 when a
	// secondary Schwartz value profile is present.
	schwartzBlend = 0.1
)

// categoryAffinity maps vacancy categories to the motivation
// dimensions they speak to. Unmapped categories fall back to the
// volunteer's mean motivation.
var categoryAffinity = map[string][]string{
	"zorg":        {profile.DimValues, profile.DimSocial},
	"welzijn":     {profile.DimValues, profile.DimProtection},
	"onderwijs":   {profile.DimUnderstanding, profile.DimValues},
	"sport":       {profile.DimSocial, profile.DimEnhancement},
	"natuur":      {profile.DimValues, profile.DimProtection},
	"cultuur":     {profile.DimEnhancement, profile.DimUnderstanding},
	"techniek":    {profile.DimCareer, profile.DimUnderstanding},
	"evenementen": {profile.DimSocial, profile.DimCareer},
}

// Breakdown holds the four normalized sub-scores, each in [0,1].
type Breakdown struct {
	Motivation float64 `json:"motivation"`
	Distance   float64 `json:"distance"`
	Skill      float64 `json:"skill"`
	Freshness  float64 `json:"freshness"`
}

// Result is a compatibility score between one volunteer and one
// vacancy. Total is in [0,100] whenever the weights validate.
type Result struct {
	Total     float64   `json:"total"`
	Breakdown Breakdown `json:"breakdown"`
}

// Score computes the multi-factor compatibility between vol and vac
// under the given weights. Pure: no I/O, deterministic for fixed
// inputs. orgSwipes is the vacancy's organisation's total swipe
// volume, now anchors the freshness decay.
func Score(vol *db.Volunteer, vac *db.Vacancy, orgSwipes uint64, w Weights, now time.Time) Result {
	b := Breakdown{
		Motivation: motivationScore(vol, vac),
		Distance:   distanceScore(vol, vac),
		Skill:      skillScore(vol.Skills, vac.Skills),
		Freshness:  freshnessScore(vac.CreatedAt, orgSwipes, w, now),
	}

	total := 100 * (b.Motivation*w.Motivation +
		b.Distance*w.Distance +
		b.Skill*w.Skill +
		b.Freshness*w.Freshness)
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return Result{Total: total, Breakdown: b}
}

// Better reports whether a should rank above b. Tie-break for equal
// totals: higher skill sub-score, then the more recent vacancy.
func Better(a, b Result, aCreated, bCreated time.Time) bool {
	if a.Total != b.Total {
		return a.Total > b.Total
	}
	if a.Breakdown.Skill != b.Breakdown.Skill {
		return a.Breakdown.Skill > b.Breakdown.Skill
	}
	return aCreated.After(bCreated)
}

// motivationScore compares the volunteer's motivation inventory
// against the vacancy's categories through the affinity table. A
// present Schwartz profile acts as a mild secondary boost. No
// inventory at all → neutral.
func motivationScore(vol *db.Volunteer, vac *db.Vacancy) float64 {
	if vol.Motivation == nil {
		return neutralSubScore
	}

	var sum float64
	var n int
	for _, cat := range vac.Categories {
		for _, dim := range categoryAffinity[cat] {
			if v, ok := vol.Motivation.Dimension(dim); ok {
				sum += normalizeLikert(v)
				n++
			}
		}
	}

	var s float64
	if n > 0 {
		s = sum / float64(n)
	} else {
		// no mapped category: general willingness stands in
		s = normalizeLikert(vol.Motivation.Mean())
	}

	if len(vol.Schwartz) > 0 {
		s += schwartzBlend * (1 - s)
	}
	return s
}

// distanceScore decays linearly from 1.0 at 0 km to 0.0 at the
// volunteer's max distance; beyond it the sub-score is a hard 0 (the
// candidate is still scored, just ranked last). Remote vacancies
// always score 1.0; missing coordinates on either side are neutral.
func distanceScore(vol *db.Volunteer, vac *db.Vacancy) float64 {
	if vac.Remote {
		return 1.0
	}
	if vol.Lat == nil || vol.Lon == nil || vac.Lat == nil || vac.Lon == nil {
		return neutralSubScore
	}
	maxKM := vol.MaxDistanceKM
	if maxKM <= 0 {
		return neutralSubScore
	}

	d := geo.DistanceKM(*vol.Lat, *vol.Lon, *vac.Lat, *vac.Lon)
	if d >= maxKM {
		return 0
	}
	return 1 - d/maxKM
}

// skillScore is |intersection| / |vacancy skills|. A vacancy listing
// no required skills scores 1.0 for everyone.
func skillScore(volSkills, vacSkills profile.StringSet) float64 {
	if len(vacSkills) == 0 {
		return 1.0
	}
	return float64(vacSkills.IntersectCount(volSkills)) / float64(len(vacSkills))
}

// freshnessScore decays linearly with vacancy age down to a floor,
// then applies the organisation-volume normalization: small orgs get
// a visibility boost, large ones a mild penalty.
func freshnessScore(createdAt time.Time, orgSwipes uint64, w Weights, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}

	s := 1 - ageDays/float64(w.FreshnessWindowDays)
	if s < freshnessFloor {
		s = freshnessFloor
	}

	switch {
	case orgSwipes < w.SmallOrgThreshold:
		s *= smallOrgBoost
	case orgSwipes > w.LargeOrgThreshold:
		s *= largeOrgPenalty
	}

	if s > 1 {
		s = 1
	}
	return s
}

// normalizeLikert maps a 1–5 inventory value onto [0,1].
func normalizeLikert(v float64) float64 {
	s := (v - 1) / 4
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
