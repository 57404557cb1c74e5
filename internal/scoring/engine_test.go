package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doemee-app/match-engine/internal/db"
	"github.com/doemee-app/match-engine/internal/geo"
	"github.com/doemee-app/match-engine/internal/profile"
)

func ptr[T any](v T) *T { return &v }

func baseVolunteer() *db.Volunteer {
	return &db.Volunteer{
		ID:            1,
		MaxDistanceKM: 25,
		Skills:        profile.StringSet{"EHBO", "Koken"},
	}
}

func baseVacancy(now time.Time) *db.Vacancy {
	return &db.Vacancy{
		ID:        1,
		Skills:    profile.StringSet{"Koken"},
		CreatedAt: now,
	}
}

func TestScore_TotalBounded(t *testing.T) {
	now := time.Now()
	w := Defaults()

	cases := []struct {
		name string
		vol  *db.Volunteer
		vac  *db.Vacancy
	}{
		{"empty profiles", &db.Volunteer{MaxDistanceKM: 25}, &db.Vacancy{CreatedAt: now}},
		{"full overlap remote", &db.Volunteer{
			MaxDistanceKM: 25,
			Skills:        profile.StringSet{"Koken"},
			Motivation:    &profile.Motivation{Values: 5, Understanding: 5, Social: 5, Career: 5, Protection: 5, Enhancement: 5},
			Schwartz:      profile.Schwartz{"benevolence": 0.9},
		}, &db.Vacancy{Remote: true, Skills: profile.StringSet{"Koken"}, Categories: profile.StringSet{"zorg"}, CreatedAt: now}},
		{"ancient vacancy", &db.Volunteer{MaxDistanceKM: 25}, &db.Vacancy{CreatedAt: now.AddDate(-2, 0, 0)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Score(tc.vol, tc.vac, 0, w, now)
			assert.GreaterOrEqual(t, res.Total, 0.0)
			assert.LessOrEqual(t, res.Total, 100.0)
		})
	}
}

func TestScore_SkillSubScore(t *testing.T) {
	now := time.Now()
	w := Defaults()

	// vacancy with no required skills → 1.0 regardless of volunteer
	res := Score(&db.Volunteer{MaxDistanceKM: 25}, &db.Vacancy{CreatedAt: now}, 0, w, now)
	assert.Equal(t, 1.0, res.Breakdown.Skill)

	// partial overlap: 1 of 2 required skills
	vol := &db.Volunteer{MaxDistanceKM: 25, Skills: profile.StringSet{"Koken"}}
	vac := &db.Vacancy{Skills: profile.StringSet{"Koken", "Rijbewijs"}, CreatedAt: now}
	res = Score(vol, vac, 0, w, now)
	assert.Equal(t, 0.5, res.Breakdown.Skill)

	// no overlap
	vac.Skills = profile.StringSet{"Rijbewijs"}
	res = Score(vol, vac, 0, w, now)
	assert.Equal(t, 0.0, res.Breakdown.Skill)
}

func TestScore_DistanceSubScore(t *testing.T) {
	now := time.Now()
	w := Defaults()

	// remote vacancy → exactly 1.0
	res := Score(baseVolunteer(), &db.Vacancy{Remote: true, CreatedAt: now}, 0, w, now)
	assert.Equal(t, 1.0, res.Breakdown.Distance)

	// missing coordinates on either side → neutral
	res = Score(baseVolunteer(), &db.Vacancy{Lat: ptr(52.0), Lon: ptr(4.0), CreatedAt: now}, 0, w, now)
	assert.Equal(t, 0.5, res.Breakdown.Distance)

	// monotonically non-increasing with distance, 0 at maxDistance
	vol := baseVolunteer()
	vol.MaxDistanceKM = 10
	vol.Lat, vol.Lon = ptr(52.0), ptr(4.0)

	prev := 1.1
	for _, dLat := range []float64{0, 0.01, 0.03, 0.06, 0.08} {
		vac := &db.Vacancy{Lat: ptr(52.0 + dLat), Lon: ptr(4.0), CreatedAt: now}
		s := Score(vol, vac, 0, w, now).Breakdown.Distance
		assert.LessOrEqual(t, s, prev, "distance sub-score must not increase with distance")
		prev = s
	}

	// just beyond maxDistance → hard 0
	vac := &db.Vacancy{Lat: ptr(52.1), Lon: ptr(4.0), CreatedAt: now}
	require.Greater(t, geo.DistanceKM(52.0, 4.0, 52.1, 4.0), 10.0)
	assert.Equal(t, 0.0, Score(vol, vac, 0, w, now).Breakdown.Distance)
}

func TestScore_MotivationSubScore(t *testing.T) {
	now := time.Now()
	w := Defaults()

	// absent inventory → neutral, never zero
	res := Score(&db.Volunteer{MaxDistanceKM: 25}, &db.Vacancy{Categories: profile.StringSet{"zorg"}, CreatedAt: now}, 0, w, now)
	assert.Equal(t, 0.5, res.Breakdown.Motivation)

	// mapped category averages its dimensions: zorg → values, social
	vol := &db.Volunteer{
		MaxDistanceKM: 25,
		Motivation:    &profile.Motivation{Values: 5, Social: 4, Understanding: 1, Career: 1, Protection: 1, Enhancement: 1},
	}
	res = Score(vol, &db.Vacancy{Categories: profile.StringSet{"zorg"}, CreatedAt: now}, 0, w, now)
	assert.InDelta(t, (1.0+0.75)/2, res.Breakdown.Motivation, 1e-9)

	// unmapped category falls back to the inventory mean
	res = Score(vol, &db.Vacancy{Categories: profile.StringSet{"iets-anders"}, CreatedAt: now}, 0, w, now)
	assert.InDelta(t, normalizeLikert(vol.Motivation.Mean()), res.Breakdown.Motivation, 1e-9)

	// Schwartz presence nudges the sub-score toward 1.0
	withSchwartz := *vol
	withSchwartz.Schwartz = profile.Schwartz{"benevolence": 0.8}
	plain := Score(vol, &db.Vacancy{Categories: profile.StringSet{"zorg"}, CreatedAt: now}, 0, w, now)
	boosted := Score(&withSchwartz, &db.Vacancy{Categories: profile.StringSet{"zorg"}, CreatedAt: now}, 0, w, now)
	assert.Greater(t, boosted.Breakdown.Motivation, plain.Breakdown.Motivation)
	assert.LessOrEqual(t, boosted.Breakdown.Motivation, 1.0)
}

func TestScore_FreshnessSubScore(t *testing.T) {
	now := time.Now()
	w := Defaults()
	neutralVolume := w.SmallOrgThreshold // neither small nor large

	// posted today, mid-size org → 1.0
	s := Score(baseVolunteer(), &db.Vacancy{CreatedAt: now}, neutralVolume, w, now).Breakdown.Freshness
	assert.InDelta(t, 1.0, s, 1e-9)

	// halfway through the window → halfway decayed
	half := now.AddDate(0, 0, -w.FreshnessWindowDays/2)
	s = Score(baseVolunteer(), &db.Vacancy{CreatedAt: half}, neutralVolume, w, now).Breakdown.Freshness
	assert.InDelta(t, 0.5, s, 1e-9)

	// far beyond the window → floors out, never zero
	old := now.AddDate(-1, 0, 0)
	s = Score(baseVolunteer(), &db.Vacancy{CreatedAt: old}, neutralVolume, w, now).Breakdown.Freshness
	assert.InDelta(t, freshnessFloor, s, 1e-9)

	// small-org boost vs large-org penalty on identical vacancies
	small := Score(baseVolunteer(), &db.Vacancy{CreatedAt: half}, w.SmallOrgThreshold-1, w, now).Breakdown.Freshness
	large := Score(baseVolunteer(), &db.Vacancy{CreatedAt: half}, w.LargeOrgThreshold+1, w, now).Breakdown.Freshness
	mid := Score(baseVolunteer(), &db.Vacancy{CreatedAt: half}, neutralVolume, w, now).Breakdown.Freshness
	assert.Greater(t, small, mid)
	assert.Less(t, large, mid)
}

// TestScore_ReferenceScenario pins the full formula for a fixed
// fixture: full profile, vacancy 5 km away requiring one of the
// volunteer's skills, posted today, default weights.
func TestScore_ReferenceScenario(t *testing.T) {
	now := time.Now()
	w := Defaults()

	vol := &db.Volunteer{
		MaxDistanceKM: 10,
		Skills:        profile.StringSet{"EHBO", "Koken"},
		Motivation:    &profile.Motivation{Values: 5, Social: 4, Understanding: 3, Career: 2, Protection: 3, Enhancement: 2},
		Lat:           ptr(52.0),
		Lon:           ptr(4.0),
	}
	// ~5 km due north of the volunteer
	vac := &db.Vacancy{
		Skills:     profile.StringSet{"Koken"},
		Categories: profile.StringSet{"zorg"},
		Lat:        ptr(52.0449661),
		Lon:        ptr(4.0),
		CreatedAt:  now,
	}

	res := Score(vol, vac, 0, w, now)

	// sub-scores
	assert.Equal(t, 1.0, res.Breakdown.Skill)
	assert.InDelta(t, 0.5, res.Breakdown.Distance, 0.01) // half of maxDistance
	assert.InDelta(t, 1.0, res.Breakdown.Freshness, 1e-9)

	// exact formula
	d := geo.DistanceKM(*vol.Lat, *vol.Lon, *vac.Lat, *vac.Lon)
	expMotivation := (1.0 + 0.75) / 2 // zorg → values(5), social(4)
	expDistance := 1 - d/vol.MaxDistanceKM
	expected := 100 * (w.Motivation*expMotivation + w.Distance*expDistance + w.Skill*1.0 + w.Freshness*1.0)

	assert.InDelta(t, expected, res.Total, 1e-9)
	assert.Greater(t, res.Total, 50.0)
	assert.Less(t, res.Total, 100.0)
}

func TestBetter_TieBreak(t *testing.T) {
	now := time.Now()

	a := Result{Total: 80, Breakdown: Breakdown{Skill: 0.9}}
	b := Result{Total: 80, Breakdown: Breakdown{Skill: 0.4}}
	assert.True(t, Better(a, b, now, now))
	assert.False(t, Better(b, a, now, now))

	// equal totals and skills: newer vacancy wins
	c := Result{Total: 80, Breakdown: Breakdown{Skill: 0.9}}
	assert.True(t, Better(a, c, now, now.Add(-time.Hour)))

	// different totals dominate everything
	d := Result{Total: 81, Breakdown: Breakdown{Skill: 0.0}}
	assert.True(t, Better(d, a, now.Add(-time.Hour), now))
}
