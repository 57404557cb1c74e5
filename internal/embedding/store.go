package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doemee-app/match-engine/internal/db"
)

// Hit is a similarity search result.
type Hit struct {
	OwnerID uint64
	// Similarity is the cosine similarity against the query vector.
	Similarity float64
}

// Store persists one semantic vector per volunteer/vacancy and
// answers cosine-similarity top-K queries over a bounded candidate
// set. Embedding generation itself is a collaborator: vectors are
// written back asynchronously after profile/vacancy edits and read
// here as stored data.
type Store struct {
	db  *gorm.DB
	dim int
}

// NewStore binds the store to a DB connection. dim is the vector
// dimensionality fixed at deployment; stored rows with any other
// length are skipped on read.
func NewStore(database *gorm.DB, dim int) *Store {
	return &Store{db: database, dim: dim}
}

// Upsert stores or replaces the vector for (ownerType, ownerID).
func (s *Store) Upsert(ctx context.Context, ownerType string, ownerID uint64, vec []float32) error {
	if len(vec) != s.dim {
		return fmt.Errorf("embedding dimensionality mismatch: got %d, want %d", len(vec), s.dim)
	}
	row := db.Embedding{OwnerType: ownerType, OwnerID: ownerID, Vector: vec}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_type"}, {Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vector", "updated_at"}),
		}).
		Create(&row).Error
}

// Delete removes the vector for (ownerType, ownerID), if any.
func (s *Store) Delete(ctx context.Context, ownerType string, ownerID uint64) error {
	return s.db.WithContext(ctx).
		Delete(&db.Embedding{}, "owner_type = ? AND owner_id = ?", ownerType, ownerID).Error
}

// Get returns the stored vector, or nil when absent or stored with
// the wrong dimensionality. Absence is never an error: the caller
// degrades to the no-embedding path.
func (s *Store) Get(ctx context.Context, ownerType string, ownerID uint64) ([]float32, error) {
	var row db.Embedding
	err := s.db.WithContext(ctx).
		First(&row, "owner_type = ? AND owner_id = ?", ownerType, ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(row.Vector) != s.dim {
		return nil, nil
	}
	return row.Vector, nil
}

// TopK returns up to k candidate IDs nearest to query by cosine
// similarity, restricted to candidateIDs. Candidates without a
// stored vector (or with a mismatched one) simply don't participate;
// the result carries no ordering contract beyond bounding the set.
func (s *Store) TopK(ctx context.Context, query []float32, ownerType string, candidateIDs []uint64, k int) ([]Hit, error) {
	if len(query) != s.dim || len(candidateIDs) == 0 || k <= 0 {
		return nil, nil
	}

	var rows []db.Embedding
	err := s.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id IN ?", ownerType, candidateIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(rows))
	for _, row := range rows {
		if len(row.Vector) != s.dim {
			continue
		}
		hits = append(hits, Hit{OwnerID: row.OwnerID, Similarity: Cosine(query, row.Vector)})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Cosine computes the cosine similarity of two equal-length vectors.
// A zero vector on either side yields 0.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
