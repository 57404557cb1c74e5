package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doemee-app/match-engine/internal/db"
)

// SwipeRepository provides data access for swipes and the volunteer
// streak counter.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// UpsertSwipe inserts or updates the swipe for (volunteer, vacancy).
//
// Behavior:
//   - If the pair exists → direction, reason and score snapshot are
//     replaced (last writer wins).
//   - If it doesn't exist → a new row is inserted.
//   - The composite PK is the overwrite guarantee: re-swiping never
//     duplicates history.
func (r *SwipeRepository) UpsertSwipe(
	ctx context.Context,
	volunteerID, vacancyID uint64,
	direction, matchReason string,
	score *float64,
) error {
	swipe := db.Swipe{
		VolunteerID: volunteerID,
		VacancyID:   vacancyID,
		Direction:   direction,
		MatchReason: matchReason,
		Score:       score,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "volunteer_id"}, {Name: "vacancy_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"direction", "match_reason", "score", "updated_at"}),
		}).
		Create(&swipe).Error
}

// GetSwipe returns the swipe for a pair, or gorm.ErrRecordNotFound.
func (r *SwipeRepository) GetSwipe(ctx context.Context, volunteerID, vacancyID uint64) (*db.Swipe, error) {
	var swipe db.Swipe
	err := r.db.WithContext(ctx).
		First(&swipe, "volunteer_id = ? AND vacancy_id = ?", volunteerID, vacancyID).Error
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

// SwipedVacancyIDs returns the vacancy IDs the volunteer has already
// decided on, for exclusion from rankings.
func (r *SwipeRepository) SwipedVacancyIDs(ctx context.Context, volunteerID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("volunteer_id = ?", volunteerID).
		Pluck("vacancy_id", &ids).Error
	return ids, err
}

// DeleteSwipe removes the swipe for a pair together with any match it
// produced, in one transaction: retracting a like retracts its
// consequence.
func (r *SwipeRepository) DeleteSwipe(ctx context.Context, volunteerID, vacancyID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&db.Swipe{}, "volunteer_id = ? AND vacancy_id = ?", volunteerID, vacancyID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&db.Match{}, "volunteer_id = ? AND vacancy_id = ?", volunteerID, vacancyID).Error
	})
}

// TouchStreak applies the calendar-day streak rule for the volunteer
// and returns the new streak length:
//   - same calendar day as the last activity → unchanged
//   - exactly one day later → incremented
//   - larger gap, or no prior activity → reset to 1
//
// This is a read-modify-write on a single volunteer row. Duplicate
// submissions racing across transactions can over-count by one; that
// relaxation is accepted, unlike swipe/match idempotency which is
// exact.
func (r *SwipeRepository) TouchStreak(ctx context.Context, volunteerID uint64, now time.Time) (int, error) {
	var streak int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vol db.Volunteer
		if err := tx.First(&vol, volunteerID).Error; err != nil {
			return err
		}

		today := truncateToDay(now)
		switch {
		case vol.LastActiveDate == nil:
			streak = 1
		default:
			switch daysBetween(truncateToDay(*vol.LastActiveDate), today) {
			case 0:
				streak = vol.StreakDays
				if streak < 1 {
					streak = 1
				}
			case 1:
				streak = vol.StreakDays + 1
			default:
				streak = 1
			}
		}

		return tx.Model(&db.Volunteer{}).
			Where("id = ?", volunteerID).
			Updates(map[string]interface{}{
				"streak_days":      streak,
				"last_active_date": today,
			}).Error
	})
	return streak, err
}

// truncateToDay drops the time-of-day component, in UTC.
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b, both day-truncated.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
