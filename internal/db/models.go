package db

import (
	"time"

	"github.com/doemee-app/match-engine/internal/profile"
)

// Swipe directions.
const (
	DirectionLike      = "LIKE"
	DirectionDislike   = "DISLIKE"
	DirectionSuperLike = "SUPER_LIKE"
)

// Match lifecycle states.
const (
	MatchPending   = "PENDING"
	MatchAccepted  = "ACCEPTED"
	MatchRejected  = "REJECTED"
	MatchCompleted = "COMPLETED"
)

// Embedding owner kinds.
const (
	OwnerVolunteer = "volunteer"
	OwnerVacancy   = "vacancy"
)

// Volunteer table.
//
// Motivation and Schwartz are optional structured profile sections,
// decoded once here at the data-access boundary (JSON serializer).
// A nil Motivation means the volunteer skipped that section; the
// score engine treats absence as neutral.
type Volunteer struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"size:128;not null"`
	Email         string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash  string `gorm:"size:255;not null"`
	Active        bool   `gorm:"default:true"`
	Onboarded     bool   `gorm:"default:false"`
	OpenToContact bool   `gorm:"default:true"`

	MaxDistanceKM float64 `gorm:"default:25"`
	Lat           *float64
	Lon           *float64

	Motivation *profile.Motivation `gorm:"serializer:json"`
	Schwartz   profile.Schwartz    `gorm:"serializer:json"`
	Skills     profile.StringSet   `gorm:"serializer:json"`
	Interests  profile.StringSet   `gorm:"serializer:json"`

	StreakDays     int `gorm:"default:0"`
	LastActiveDate *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Organisation table. SwipeCount is the aggregate swipe volume over
// the organisation's vacancies, maintained atomically on every swipe
// and used for the small/large-org freshness normalization.
type Organisation struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"size:128;not null"`
	AdminEmail string `gorm:"size:128;not null"`
	SwipeCount uint64 `gorm:"default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// Vacancy table. Remote vacancies carry no coordinate; non-remote
// ones may still miss one (geocoding is a collaborator), which the
// score engine degrades to a neutral distance sub-score.
type Vacancy struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement"`
	OrgID uint64 `gorm:"index;not null"`
	Title string `gorm:"size:255;not null"`

	Skills     profile.StringSet `gorm:"serializer:json"`
	Categories profile.StringSet `gorm:"serializer:json"`

	Lat    *float64
	Lon    *float64
	Remote bool `gorm:"default:false"`

	Active     bool   `gorm:"default:true"`
	SwipeCount uint64 `gorm:"default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Embedding stores one semantic vector per volunteer or vacancy.
//
// Composite PK: (OwnerType, OwnerID). One vector per entity,
// refreshed asynchronously after profile/vacancy edits. Staleness
// between an edit and its refresh is tolerated.
type Embedding struct {
	OwnerType string    `gorm:"primaryKey;size:16"`
	OwnerID   uint64    `gorm:"primaryKey"`
	Vector    []float32 `gorm:"serializer:json"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Swipe represents a volunteer's directional decision on a vacancy.
//
// Composite PK: (VolunteerID, VacancyID)
//   - Ensures a single row per pair (overwrite guarantee).
//
// Re-swiping the same pair replaces Direction/MatchReason/Score;
// history is never duplicated. Score is the snapshot shown to the
// volunteer at decision time, kept for audit even if weights change.
type Swipe struct {
	VolunteerID uint64 `gorm:"primaryKey"`
	VacancyID   uint64 `gorm:"primaryKey;index:idx_vacancy_direction,priority:1"`
	Direction   string `gorm:"size:16;not null;index:idx_vacancy_direction,priority:2"`
	MatchReason string `gorm:"size:64"`
	Score       *float64

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Match is the durable record of interest for a (volunteer, vacancy)
// pair, created exactly once on the first LIKE/SUPER_LIKE swipe.
//
// Composite PK: (VolunteerID, VacancyID). This uniqueness constraint
// is the sole idempotency guard for match creation; concurrent likes
// on the same pair collapse to one row (first writer wins).
type Match struct {
	VolunteerID uint64 `gorm:"primaryKey"`
	VacancyID   uint64 `gorm:"primaryKey"`
	PublicID    string `gorm:"uniqueIndex;size:36;not null"`
	Status      string `gorm:"size:16;not null;default:PENDING"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// ScoringWeights is the single durable row (ID=1) holding the active
// scoring configuration. Written as one unit, never field-by-field.
type ScoringWeights struct {
	ID uint64 `gorm:"primaryKey"`

	Motivation float64 `gorm:"not null"`
	Distance   float64 `gorm:"not null"`
	Skill      float64 `gorm:"not null"`
	Freshness  float64 `gorm:"not null"`

	FreshnessWindowDays int    `gorm:"not null"`
	SmallOrgThreshold   uint64 `gorm:"not null"`
	LargeOrgThreshold   uint64 `gorm:"not null"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
