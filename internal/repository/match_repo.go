package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doemee-app/match-engine/internal/db"
	svcErr "github.com/doemee-app/match-engine/internal/errors"
)

// allowedTransitions is the match lifecycle: PENDING → ACCEPTED or
// REJECTED, ACCEPTED → COMPLETED. REJECTED and COMPLETED are
// terminal here.
var allowedTransitions = map[string][]string{
	db.MatchAccepted:  {db.MatchPending},
	db.MatchRejected:  {db.MatchPending},
	db.MatchCompleted: {db.MatchAccepted},
}

// MatchRepository provides data access for the Match lifecycle.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// EnsureMatch creates the match for (volunteer, vacancy) with status
// PENDING if none exists, and returns the current row either way.
//
// Insert-if-absent via the composite-PK conflict clause: concurrent
// likes on the same pair collapse to one row, the first writer wins,
// and an existing match's status is never touched (no regression
// from ACCEPTED back to PENDING). The returned bool reports whether
// this call created the row.
func (r *MatchRepository) EnsureMatch(ctx context.Context, volunteerID, vacancyID uint64) (*db.Match, bool, error) {
	candidate := db.Match{
		VolunteerID: volunteerID,
		VacancyID:   vacancyID,
		PublicID:    uuid.NewString(),
		Status:      db.MatchPending,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "volunteer_id"}, {Name: "vacancy_id"}},
			DoNothing: true,
		}).
		Create(&candidate)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected > 0

	// read back: on conflict the pre-existing row (and its PublicID) wins
	var match db.Match
	err := r.db.WithContext(ctx).
		First(&match, "volunteer_id = ? AND vacancy_id = ?", volunteerID, vacancyID).Error
	if err != nil {
		return nil, false, err
	}
	return &match, created, nil
}

// GetByPublicID returns the match with the given public UUID.
func (r *MatchRepository) GetByPublicID(ctx context.Context, publicID string) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).First(&match, "public_id = ?", publicID).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetForPair returns the match for (volunteer, vacancy), if any.
func (r *MatchRepository) GetForPair(ctx context.Context, volunteerID, vacancyID uint64) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		First(&match, "volunteer_id = ? AND vacancy_id = ?", volunteerID, vacancyID).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// Transition moves the match to newStatus, enforcing the lifecycle.
// The status guard rides in the UPDATE's WHERE clause, so a stale or
// duplicate request (e.g. double-accepting) affects zero rows and is
// reported as a conflict rather than applied twice.
func (r *MatchRepository) Transition(ctx context.Context, publicID, newStatus string) (*db.Match, error) {
	from, ok := allowedTransitions[newStatus]
	if !ok {
		return nil, svcErr.InvalidArgument("unknown match status: " + newStatus)
	}

	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("public_id = ? AND status IN ?", publicID, from).
		Update("status", newStatus)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// either the match doesn't exist, or it's not in a state this
		// transition accepts
		current, err := r.GetByPublicID(ctx, publicID)
		if err != nil {
			return nil, err
		}
		return nil, svcErr.Conflict("match is " + current.Status + ", cannot move to " + newStatus)
	}

	return r.GetByPublicID(ctx, publicID)
}
