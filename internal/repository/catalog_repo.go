package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/doemee-app/match-engine/internal/db"
	"github.com/doemee-app/match-engine/internal/utils/pagination"
)

// CatalogRepository provides read access to volunteers, vacancies and
// organisations, plus the swipe-volume counters.
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new repository bound to the given DB connection.
func NewCatalogRepository(database *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: database}
}

// GetVolunteer returns the volunteer by ID.
func (r *CatalogRepository) GetVolunteer(ctx context.Context, id uint64) (*db.Volunteer, error) {
	var vol db.Volunteer
	if err := r.db.WithContext(ctx).First(&vol, id).Error; err != nil {
		return nil, err
	}
	return &vol, nil
}

// GetVacancy returns the vacancy by ID.
func (r *CatalogRepository) GetVacancy(ctx context.Context, id uint64) (*db.Vacancy, error) {
	var vac db.Vacancy
	if err := r.db.WithContext(ctx).First(&vac, id).Error; err != nil {
		return nil, err
	}
	return &vac, nil
}

// GetOrganisation returns the organisation by ID.
func (r *CatalogRepository) GetOrganisation(ctx context.Context, id uint64) (*db.Organisation, error) {
	var org db.Organisation
	if err := r.db.WithContext(ctx).First(&org, id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// ListActiveVacancies returns the full eligible vacancy pool for a
// ranking request. Eligibility filtering happens here, before any
// vector narrowing.
func (r *CatalogRepository) ListActiveVacancies(ctx context.Context) ([]db.Vacancy, error) {
	var vacancies []db.Vacancy
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Find(&vacancies).Error
	return vacancies, err
}

// ListVacanciesPage returns one page of the unranked vacancy
// listing, newest first, with cursor-based pagination.
//
// Behavior:
//   - Only active vacancies are returned.
//   - Ordered by created_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
func (r *CatalogRepository) ListVacanciesPage(
	ctx context.Context,
	paginationToken *string,
	limit int,
) ([]db.Vacancy, *string, error) {
	var vacancies []db.Vacancy

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.VacancyID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.VacancyID,
		)
	}

	if err := query.Find(&vacancies).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(vacancies) > limit {
		last := vacancies[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			VacancyID:   last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		vacancies = vacancies[:limit]
	}

	return vacancies, nextToken, nil
}

// ListEligibleVolunteers returns volunteers who may appear as
// candidates for a vacancy: active, onboarded and open to contact.
func (r *CatalogRepository) ListEligibleVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	var volunteers []db.Volunteer
	err := r.db.WithContext(ctx).
		Where("active = ? AND onboarded = ? AND open_to_contact = ?", true, true, true).
		Find(&volunteers).Error
	return volunteers, err
}

// OrgSwipeVolumes returns the aggregate swipe volume per organisation
// for the given org IDs, the input to the freshness normalization.
func (r *CatalogRepository) OrgSwipeVolumes(ctx context.Context, orgIDs []uint64) (map[uint64]uint64, error) {
	volumes := make(map[uint64]uint64, len(orgIDs))
	if len(orgIDs) == 0 {
		return volumes, nil
	}

	var orgs []db.Organisation
	err := r.db.WithContext(ctx).
		Where("id IN ?", orgIDs).
		Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	for _, org := range orgs {
		volumes[org.ID] = org.SwipeCount
	}
	return volumes, nil
}

// IncrementSwipeVolume bumps the vacancy's swipe counter and its
// organisation's aggregate, both as atomic column updates. Returns
// the vacancy's org ID for cache maintenance.
func (r *CatalogRepository) IncrementSwipeVolume(ctx context.Context, vacancyID uint64) (uint64, error) {
	vac, err := r.GetVacancy(ctx, vacancyID)
	if err != nil {
		return 0, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Vacancy{}).
			Where("id = ?", vacancyID).
			Update("swipe_count", gorm.Expr("swipe_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&db.Organisation{}).
			Where("id = ?", vac.OrgID).
			Update("swipe_count", gorm.Expr("swipe_count + 1")).Error
	})
	return vac.OrgID, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
