package retrieval_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/doemee-app/match-engine/internal/cache"
	"github.com/doemee-app/match-engine/internal/config"
	"github.com/doemee-app/match-engine/internal/db"
	"github.com/doemee-app/match-engine/internal/embedding"
	"github.com/doemee-app/match-engine/internal/profile"
	"github.com/doemee-app/match-engine/internal/repository"
	"github.com/doemee-app/match-engine/internal/retrieval"
	"github.com/doemee-app/match-engine/internal/weights"
)

const testDim = 3

func ptr[T any](v T) *T { return &v }

type fixture struct {
	db         *gorm.DB
	embeddings *embedding.Store
	swipes     *repository.SwipeRepository
	pipeline   *retrieval.Pipeline
}

func setupPipeline(t *testing.T, stageOneK int) *fixture {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	catalog := repository.NewCatalogRepository(gdb)
	swipes := repository.NewSwipeRepository(gdb)
	embeddings := embedding.NewStore(gdb, testDim)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p := retrieval.New(catalog, swipes, embeddings, weights.NewStore(gdb),
		cache.NewRedisCache(cfg), logger, stageOneK)
	p.SetNow(func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) })

	return &fixture{db: gdb, embeddings: embeddings, swipes: swipes, pipeline: p}
}

// seedPool inserts one org, one volunteer and three vacancies with a
// clear expected ranking: vacancy 2 (remote, no skills required) beats
// vacancy 1 (skill match, ~5 km, fresh) beats vacancy 3 (unmatched
// skill, far outside the volunteer's travel radius).
func seedPool(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, gdb.Create(&db.Organisation{ID: 1, Name: "Stichting Samen", AdminEmail: "a@samen.test"}).Error)
	require.NoError(t, gdb.Create(&db.Volunteer{
		ID: 1, Name: "Anna", Email: "anna@test.com", PasswordHash: "x",
		Active: true, Onboarded: true, OpenToContact: true,
		MaxDistanceKM: 10, Lat: ptr(52.0), Lon: ptr(4.0),
		Skills: profile.StringSet{"EHBO", "Koken"},
	}).Error)

	require.NoError(t, gdb.Create(&db.Vacancy{
		ID: 1, OrgID: 1, Title: "Kok", Skills: profile.StringSet{"Koken"},
		Lat: ptr(52.0449661), Lon: ptr(4.0), Active: true, CreatedAt: now,
	}).Error)
	require.NoError(t, gdb.Create(&db.Vacancy{
		ID: 2, OrgID: 1, Title: "Website", Remote: true, Active: true,
		CreatedAt: now.AddDate(0, 0, -3),
	}).Error)
	require.NoError(t, gdb.Create(&db.Vacancy{
		ID: 3, OrgID: 1, Title: "Verhuizer", Skills: profile.StringSet{"Sjouwen"},
		Lat: ptr(53.2), Lon: ptr(6.5), Active: true, CreatedAt: now.AddDate(0, 0, -3),
	}).Error)
}

// TestVacanciesForVolunteer_NoEmbeddingsFallsBackToFullPool verifies
// the degraded path: without stored vectors, every eligible vacancy is
// scored and the ranking is still deterministic.
func TestVacanciesForVolunteer_NoEmbeddingsFallsBackToFullPool(t *testing.T) {
	f := setupPipeline(t, 80)
	seedPool(t, f.db)
	ctx := context.Background()

	ranked, err := f.pipeline.VacanciesForVolunteer(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, uint64(2), ranked[0].Vacancy.ID)
	assert.Equal(t, uint64(1), ranked[1].Vacancy.ID)
	assert.Equal(t, uint64(3), ranked[2].Vacancy.ID) // out of travel range, distance 0

	for _, r := range ranked {
		assert.GreaterOrEqual(t, r.Score.Total, 0.0)
		assert.LessOrEqual(t, r.Score.Total, 100.0)
	}
	assert.Greater(t, ranked[0].Score.Total, ranked[2].Score.Total)
}

// TestVacanciesForVolunteer_StageOneNarrowsPool verifies the vector
// stage: with K=1 only the nearest vacancy by cosine similarity stays
// in the pool, regardless of its final score.
func TestVacanciesForVolunteer_StageOneNarrowsPool(t *testing.T) {
	f := setupPipeline(t, 1)
	seedPool(t, f.db)
	ctx := context.Background()

	require.NoError(t, f.embeddings.Upsert(ctx, db.OwnerVolunteer, 1, []float32{1, 0, 0}))
	require.NoError(t, f.embeddings.Upsert(ctx, db.OwnerVacancy, 1, []float32{0, 1, 0}))
	require.NoError(t, f.embeddings.Upsert(ctx, db.OwnerVacancy, 2, []float32{0.9, 0.1, 0}))
	require.NoError(t, f.embeddings.Upsert(ctx, db.OwnerVacancy, 3, []float32{0, 0, 1}))

	ranked, err := f.pipeline.VacanciesForVolunteer(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, uint64(2), ranked[0].Vacancy.ID)
}

// Vacancies without a stored vector fall out of the pool once the
// volunteer has one: they cannot participate in the similarity stage.
func TestVacanciesForVolunteer_UnembeddedVacanciesDropOut(t *testing.T) {
	f := setupPipeline(t, 80)
	seedPool(t, f.db)
	ctx := context.Background()

	require.NoError(t, f.embeddings.Upsert(ctx, db.OwnerVolunteer, 1, []float32{1, 0, 0}))
	require.NoError(t, f.embeddings.Upsert(ctx, db.OwnerVacancy, 2, []float32{1, 0, 0}))

	ranked, err := f.pipeline.VacanciesForVolunteer(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, uint64(2), ranked[0].Vacancy.ID)
}

func TestVacanciesForVolunteer_ExcludesSwipedPairs(t *testing.T) {
	f := setupPipeline(t, 80)
	seedPool(t, f.db)
	ctx := context.Background()

	require.NoError(t, f.swipes.UpsertSwipe(ctx, 1, 1, db.DirectionDislike, "", nil))

	ranked, err := f.pipeline.VacanciesForVolunteer(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	for _, r := range ranked {
		assert.NotEqual(t, uint64(1), r.Vacancy.ID)
	}
}

func TestVacanciesForVolunteer_Limit(t *testing.T) {
	f := setupPipeline(t, 80)
	seedPool(t, f.db)

	ranked, err := f.pipeline.VacanciesForVolunteer(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
}

// TestVolunteersForVacancy_EligibilityGate verifies the reverse
// direction only considers active, onboarded volunteers who opted in
// to being contacted.
func TestVolunteersForVacancy_EligibilityGate(t *testing.T) {
	f := setupPipeline(t, 80)
	seedPool(t, f.db)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&db.Volunteer{
		ID: 2, Name: "Inactief", Email: "b@test.com", PasswordHash: "x",
		Active: false, Onboarded: true, OpenToContact: true, MaxDistanceKM: 10,
	}).Error)
	require.NoError(t, f.db.Create(&db.Volunteer{
		ID: 3, Name: "Gesloten", Email: "c@test.com", PasswordHash: "x",
		Active: true, Onboarded: true, OpenToContact: false, MaxDistanceKM: 10,
	}).Error)

	ranked, err := f.pipeline.VolunteersForVacancy(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, uint64(1), ranked[0].Volunteer.ID)
}

// A busy organisation's vacancies rank below an identical vacancy from
// a quiet one: the popularity damping reads the durable swipe counts.
func TestVacanciesForVolunteer_PopularOrgDamped(t *testing.T) {
	f := setupPipeline(t, 80)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, f.db.Create(&db.Organisation{ID: 1, Name: "Rustig", AdminEmail: "r@test"}).Error)
	require.NoError(t, f.db.Create(&db.Organisation{ID: 2, Name: "Druk", AdminEmail: "d@test", SwipeCount: 10000}).Error)
	require.NoError(t, f.db.Create(&db.Volunteer{
		ID: 1, Name: "Anna", Email: "anna@test.com", PasswordHash: "x",
		Active: true, Onboarded: true, OpenToContact: true,
		MaxDistanceKM: 10, Lat: ptr(52.0), Lon: ptr(4.0),
		Skills: profile.StringSet{"Koken"},
	}).Error)

	for i, orgID := range []uint64{1, 2} {
		require.NoError(t, f.db.Create(&db.Vacancy{
			ID: uint64(i + 1), OrgID: orgID, Title: "Kok",
			Skills: profile.StringSet{"Koken"},
			Lat:    ptr(52.0), Lon: ptr(4.0), Active: true, CreatedAt: now,
		}).Error)
	}

	ranked, err := f.pipeline.VacanciesForVolunteer(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, uint64(1), ranked[0].Vacancy.ID)
	assert.Greater(t, ranked[0].Score.Total, ranked[1].Score.Total)
}
