package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/doemee-app/match-engine/internal/cache"
	"github.com/doemee-app/match-engine/internal/db"
	"github.com/doemee-app/match-engine/internal/embedding"
	"github.com/doemee-app/match-engine/internal/repository"
	"github.com/doemee-app/match-engine/internal/scoring"
	"github.com/doemee-app/match-engine/internal/weights"
)

// RankedVacancy is one scored candidate in a volunteer's feed.
type RankedVacancy struct {
	Vacancy db.Vacancy
	Score   scoring.Result
}

// RankedVolunteer is one scored candidate for a vacancy.
type RankedVolunteer struct {
	Volunteer db.Volunteer
	Score     scoring.Result
}

// Pipeline is the two-stage candidate retrieval: eligibility
// filtering, then vector narrowing (Stage 1), then deterministic
// scoring (Stage 2). Stage 1 only bounds the Stage 2 input; its raw
// similarity ordering is discarded.
type Pipeline struct {
	catalog    *repository.CatalogRepository
	swipes     *repository.SwipeRepository
	embeddings *embedding.Store
	weights    *weights.Store
	cache      *cache.RedisCache
	logger     *slog.Logger

	stageOneK int
	now       func() time.Time
}

func New(
	catalog *repository.CatalogRepository,
	swipes *repository.SwipeRepository,
	embeddings *embedding.Store,
	weightsStore *weights.Store,
	redisCache *cache.RedisCache,
	logger *slog.Logger,
	stageOneK int,
) *Pipeline {
	return &Pipeline{
		catalog:    catalog,
		swipes:     swipes,
		embeddings: embeddings,
		weights:    weightsStore,
		cache:      redisCache,
		logger:     logger,
		stageOneK:  stageOneK,
		now:        time.Now,
	}
}

// SetNow overrides the time source, for tests.
func (p *Pipeline) SetNow(now func() time.Time) { p.now = now }

// VacanciesForVolunteer returns active vacancies ranked for the
// volunteer, excluding pairs already swiped on. A volunteer without
// an embedding (or a pool without any) degrades to scoring the full
// eligible set, never an error.
func (p *Pipeline) VacanciesForVolunteer(ctx context.Context, volunteerID uint64, limit int) ([]RankedVacancy, error) {
	vol, err := p.catalog.GetVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, err
	}

	pool, err := p.catalog.ListActiveVacancies(ctx)
	if err != nil {
		return nil, err
	}

	// already-decided pairs leave the feed
	swipedIDs, err := p.swipes.SwipedVacancyIDs(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	if len(swipedIDs) > 0 {
		swiped := make(map[uint64]struct{}, len(swipedIDs))
		for _, id := range swipedIDs {
			swiped[id] = struct{}{}
		}
		kept := pool[:0]
		for _, vac := range pool {
			if _, ok := swiped[vac.ID]; !ok {
				kept = append(kept, vac)
			}
		}
		pool = kept
	}
	if len(pool) == 0 {
		return []RankedVacancy{}, nil
	}

	pool = p.narrowVacancies(ctx, vol, pool)

	w, err := p.weights.Get(ctx)
	if err != nil {
		return nil, err
	}

	volumes, err := p.orgVolumes(ctx, orgIDsOf(pool))
	if err != nil {
		return nil, err
	}

	now := p.now()
	ranked := make([]RankedVacancy, 0, len(pool))
	for _, vac := range pool {
		ranked = append(ranked, RankedVacancy{
			Vacancy: vac,
			Score:   scoring.Score(vol, &vac, volumes[vac.OrgID], w, now),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return scoring.Better(ranked[i].Score, ranked[j].Score,
			ranked[i].Vacancy.CreatedAt, ranked[j].Vacancy.CreatedAt)
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// VolunteersForVacancy returns eligible volunteers ranked for the
// vacancy, the organisation-facing direction of the same pipeline.
func (p *Pipeline) VolunteersForVacancy(ctx context.Context, vacancyID uint64, limit int) ([]RankedVolunteer, error) {
	vac, err := p.catalog.GetVacancy(ctx, vacancyID)
	if err != nil {
		return nil, err
	}

	pool, err := p.catalog.ListEligibleVolunteers(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return []RankedVolunteer{}, nil
	}

	pool = p.narrowVolunteers(ctx, vac, pool)

	w, err := p.weights.Get(ctx)
	if err != nil {
		return nil, err
	}

	volumes, err := p.orgVolumes(ctx, []uint64{vac.OrgID})
	if err != nil {
		return nil, err
	}
	orgSwipes := volumes[vac.OrgID]

	now := p.now()
	ranked := make([]RankedVolunteer, 0, len(pool))
	for _, vol := range pool {
		ranked = append(ranked, RankedVolunteer{
			Volunteer: vol,
			Score:     scoring.Score(&vol, vac, orgSwipes, w, now),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return scoring.Better(ranked[i].Score, ranked[j].Score,
			vac.CreatedAt, vac.CreatedAt)
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// narrowVacancies applies Stage 1 to the vacancy pool. Skipped,
// returning the pool unchanged, when the volunteer has no stored
// embedding, no pooled vacancy has one, or the lookup itself fails
// (a fallback path, not a retry loop).
func (p *Pipeline) narrowVacancies(ctx context.Context, vol *db.Volunteer, pool []db.Vacancy) []db.Vacancy {
	query, err := p.embeddings.Get(ctx, db.OwnerVolunteer, vol.ID)
	if err != nil {
		p.logger.Warn("stage 1 skipped: embedding lookup failed", "volunteer_id", vol.ID, "err", err)
		return pool
	}
	if query == nil {
		return pool
	}

	ids := make([]uint64, len(pool))
	for i, vac := range pool {
		ids[i] = vac.ID
	}
	hits, err := p.embeddings.TopK(ctx, query, db.OwnerVacancy, ids, p.stageOneK)
	if err != nil {
		p.logger.Warn("stage 1 skipped: similarity search failed", "volunteer_id", vol.ID, "err", err)
		return pool
	}
	if len(hits) == 0 {
		return pool
	}

	keep := make(map[uint64]struct{}, len(hits))
	for _, h := range hits {
		keep[h.OwnerID] = struct{}{}
	}
	narrowed := pool[:0]
	for _, vac := range pool {
		if _, ok := keep[vac.ID]; ok {
			narrowed = append(narrowed, vac)
		}
	}
	return narrowed
}

func (p *Pipeline) narrowVolunteers(ctx context.Context, vac *db.Vacancy, pool []db.Volunteer) []db.Volunteer {
	query, err := p.embeddings.Get(ctx, db.OwnerVacancy, vac.ID)
	if err != nil {
		p.logger.Warn("stage 1 skipped: embedding lookup failed", "vacancy_id", vac.ID, "err", err)
		return pool
	}
	if query == nil {
		return pool
	}

	ids := make([]uint64, len(pool))
	for i, vol := range pool {
		ids[i] = vol.ID
	}
	hits, err := p.embeddings.TopK(ctx, query, db.OwnerVolunteer, ids, p.stageOneK)
	if err != nil {
		p.logger.Warn("stage 1 skipped: similarity search failed", "vacancy_id", vac.ID, "err", err)
		return pool
	}
	if len(hits) == 0 {
		return pool
	}

	keep := make(map[uint64]struct{}, len(hits))
	for _, h := range hits {
		keep[h.OwnerID] = struct{}{}
	}
	narrowed := pool[:0]
	for _, vol := range pool {
		if _, ok := keep[vol.ID]; ok {
			narrowed = append(narrowed, vol)
		}
	}
	return narrowed
}

// orgVolumes resolves organisation swipe volumes cache-first, with
// the DB as fallback. Cache writes are best-effort.
func (p *Pipeline) orgVolumes(ctx context.Context, orgIDs []uint64) (map[uint64]uint64, error) {
	volumes := make(map[uint64]uint64, len(orgIDs))
	var misses []uint64

	for _, id := range orgIDs {
		if v, ok, err := p.cache.GetOrgSwipeVolume(ctx, id); err == nil && ok {
			volumes[id] = v
		} else {
			misses = append(misses, id)
		}
	}

	if len(misses) > 0 {
		fromDB, err := p.catalog.OrgSwipeVolumes(ctx, misses)
		if err != nil {
			return nil, err
		}
		for id, v := range fromDB {
			volumes[id] = v
			_ = p.cache.SetOrgSwipeVolume(ctx, id, v)
		}
	}

	return volumes, nil
}

func orgIDsOf(pool []db.Vacancy) []uint64 {
	seen := make(map[uint64]struct{}, len(pool))
	ids := make([]uint64, 0, len(pool))
	for _, vac := range pool {
		if _, ok := seen[vac.OrgID]; !ok {
			seen[vac.OrgID] = struct{}{}
			ids = append(ids, vac.OrgID)
		}
	}
	return ids
}
