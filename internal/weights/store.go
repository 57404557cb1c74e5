package weights

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/doemee-app/match-engine/internal/db"
	svcErr "github.com/doemee-app/match-engine/internal/errors"
	"github.com/doemee-app/match-engine/internal/scoring"
)

// weightsRowID keys the single durable configuration row.
const weightsRowID = 1

// Store holds the active scoring configuration: one durable row,
// cached process-wide. Single-writer/many-readers: the retrieval
// path only calls Get, only the admin surface calls Set. Readers
// always observe a whole value: the cache is replaced atomically,
// never mutated in place.
type Store struct {
	db *gorm.DB

	mu     sync.RWMutex
	cached *scoring.Weights
}

func NewStore(database *gorm.DB) *Store {
	return &Store{db: database}
}

// Get returns the cached weights; on cold cache it loads the durable
// row, backfills missing keys with defaults and caches the result.
// A missing row is not an error: the defaults apply.
func (s *Store) Get(ctx context.Context) (scoring.Weights, error) {
	s.mu.RLock()
	if s.cached != nil {
		w := *s.cached
		s.mu.RUnlock()
		return w, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached, nil
	}

	var row db.ScoringWeights
	err := s.db.WithContext(ctx).First(&row, weightsRowID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		w := scoring.Defaults()
		s.cached = &w
		return w, nil
	case err != nil:
		return scoring.Weights{}, err
	}

	w := fromRow(row)
	s.cached = &w
	return w, nil
}

// Set merges the partial update into the current configuration,
// validates the merged result and persists it as one row, then
// invalidates the cache. Invalid updates leave both the durable row
// and the cache untouched.
func (s *Store) Set(ctx context.Context, p scoring.Partial) (scoring.Weights, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return scoring.Weights{}, err
	}

	merged := current.Merge(p)
	if err := merged.Validate(); err != nil {
		return scoring.Weights{}, svcErr.InvalidArgument(err.Error())
	}

	row := toRow(merged)
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return scoring.Weights{}, err
	}

	s.Invalidate()
	return merged, nil
}

// Invalidate drops the cached value; the next Get reloads from the
// durable row.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// fromRow converts the durable row, backfilling unset scalars with
// defaults. A row whose four weights are all zero predates any
// configured split and falls back to the default split entirely.
func fromRow(row db.ScoringWeights) scoring.Weights {
	def := scoring.Defaults()

	w := scoring.Weights{
		Motivation:          row.Motivation,
		Distance:            row.Distance,
		Skill:               row.Skill,
		Freshness:           row.Freshness,
		FreshnessWindowDays: row.FreshnessWindowDays,
		SmallOrgThreshold:   row.SmallOrgThreshold,
		LargeOrgThreshold:   row.LargeOrgThreshold,
	}

	if w.Motivation == 0 && w.Distance == 0 && w.Skill == 0 && w.Freshness == 0 {
		w.Motivation = def.Motivation
		w.Distance = def.Distance
		w.Skill = def.Skill
		w.Freshness = def.Freshness
	}
	if w.FreshnessWindowDays <= 0 {
		w.FreshnessWindowDays = def.FreshnessWindowDays
	}
	if w.SmallOrgThreshold == 0 {
		w.SmallOrgThreshold = def.SmallOrgThreshold
	}
	if w.LargeOrgThreshold == 0 {
		w.LargeOrgThreshold = def.LargeOrgThreshold
	}

	return w
}

func toRow(w scoring.Weights) db.ScoringWeights {
	return db.ScoringWeights{
		ID:                  weightsRowID,
		Motivation:          w.Motivation,
		Distance:            w.Distance,
		Skill:               w.Skill,
		Freshness:           w.Freshness,
		FreshnessWindowDays: w.FreshnessWindowDays,
		SmallOrgThreshold:   w.SmallOrgThreshold,
		LargeOrgThreshold:   w.LargeOrgThreshold,
	}
}
