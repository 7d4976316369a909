package repository_test

import (
	"context"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/natours/internal/query"
	"github.com/aryan0dhankhar/natours/internal/repository"
	"github.com/aryan0dhankhar/natours/internal/service"
	"github.com/aryan0dhankhar/natours/pkg/database"
)

// These tests run against a real Postgres when NATOURS_TEST_DATABASE_URL is
// set.
func openTestDB(t *testing.T) *database.ConnectionPool {
	t.Helper()
	dsn := os.Getenv("NATOURS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("NATOURS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewConnectionPool(ctx, &database.Config{URL: dsn}, logger.NewLogger("warn", "test"))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	require.NoError(t, repository.Migrate(ctx, pool.GetDB()))
	return pool
}

func TestIntegrationReviewsDriveTourRating(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	log := logger.NewLogger("warn", "test")

	users := repository.NewPostgresUserRepository(pool.GetDB(), log)
	tourStore := repository.NewTourStore(pool.Gorm(), log)
	tours := repository.NewPostgresTourRepository(pool.GetDB(), tourStore, log)
	reviewStore := repository.NewReviewStore(pool.Gorm(), log)
	reviews := repository.NewPostgresReviewRepository(pool.GetDB())

	suffix := uuid.NewString()[:8]
	author := &domain.User{Name: "Integration User", Email: "it-" + suffix + "@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, author))

	tour := &domain.Tour{
		Name:         "Integration Tour " + suffix,
		Slug:         "integration-tour-" + suffix,
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   domain.DifficultyEasy,
		Price:        400,
		Summary:      "A tour that only exists during tests",
		ImageCover:   "tour-cover.jpg",
	}
	require.NoError(t, tourStore.Create(ctx, tour))
	t.Cleanup(func() {
		_, _ = pool.GetDB().ExecContext(context.Background(), `DELETE FROM tours WHERE id = $1`, tour.ID)
		_, _ = pool.GetDB().ExecContext(context.Background(), `DELETE FROM users WHERE id = $1`, author.ID)
	})

	loaded, err := tourStore.Get(ctx, tour.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 4.5, loaded.RatingsAverage)
	assert.Equal(t, 0, loaded.RatingsQuantity)

	require.NoError(t, reviewStore.Create(ctx, &domain.Review{Review: "Great", Rating: 4, TourID: tour.ID, UserID: author.ID}))

	dup := reviewStore.Create(ctx, &domain.Review{Review: "Again", Rating: 5, TourID: tour.ID, UserID: author.ID})
	require.Error(t, dup)
	assert.True(t, domain.IsKind(dup, domain.KindDuplicateKey))

	summary, err := reviews.RatingSummary(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Quantity)
	assert.Equal(t, 4.0, summary.Average)

	require.NoError(t, tours.SetRating(ctx, tour.ID, summary.Quantity, summary.Average))
	bySlug, err := tours.GetBySlug(ctx, tour.Slug)
	require.NoError(t, err)
	assert.Equal(t, 4.0, bySlug.RatingsAverage)
	require.Len(t, bySlug.Reviews, 1)
	require.NotNil(t, bySlug.Reviews[0].User)
	assert.Equal(t, "Integration User", bySlug.Reviews[0].User.Name)
}

func TestIntegrationFindAppliesQuery(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	store := repository.NewTourStore(pool.Gorm(), logger.NewLogger("warn", "test"))

	suffix := uuid.NewString()[:8]
	var ids []uuid.UUID
	for i, price := range []float64{100, 900} {
		tour := &domain.Tour{
			Name:         "Query Tour " + suffix + string(rune('a'+i)),
			Slug:         "query-tour-" + suffix + string(rune('a'+i)),
			Duration:     3,
			MaxGroupSize: 8,
			Difficulty:   domain.DifficultyMedium,
			Price:        price,
			Summary:      "Price filter fixture",
			ImageCover:   "cover.jpg",
			SecretTour:   i == 1,
		}
		require.NoError(t, store.Create(ctx, tour))
		ids = append(ids, tour.ID)
	}
	t.Cleanup(func() {
		for _, id := range ids {
			_, _ = pool.GetDB().ExecContext(context.Background(), `DELETE FROM tours WHERE id = $1`, id)
		}
	})

	q, err := query.Build(url.Values{"price[lte]": {"150"}}, query.Options{MultiValue: repository.TourMultiValue})
	require.NoError(t, err)
	found, err := store.Find(ctx, map[string]any{"id": ids}, q)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ids[0], found[0].ID)

	// Secret tours never surface, whatever the filter.
	_, err = store.Get(ctx, ids[1].String())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestIntegrationClearExpiredResetTokens(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	users := repository.NewPostgresUserRepository(pool.GetDB(), logger.NewLogger("warn", "test"))

	u := &domain.User{Name: "Reset User", Email: "reset-" + uuid.NewString()[:8] + "@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, u))
	t.Cleanup(func() {
		_, _ = pool.GetDB().ExecContext(context.Background(), `DELETE FROM users WHERE id = $1`, u.ID)
	})

	token := "hashed-" + u.ID.String()
	expired := time.Now().Add(-time.Minute)
	u.PasswordResetToken = &token
	u.PasswordResetExpires = &expired
	require.NoError(t, users.UpdateCredentials(ctx, u))

	cleared, err := users.ClearExpiredResetTokens(ctx, time.Now())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cleared, int64(1))

	_, err = users.GetByResetToken(ctx, token, time.Now().Add(-time.Hour))
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestIntegrationDeletingUserRecomputesTheirTours(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	log := logger.NewLogger("warn", "test")

	userRepo := repository.NewPostgresUserRepository(pool.GetDB(), log)
	tourStore := repository.NewTourStore(pool.Gorm(), log)
	tours := repository.NewPostgresTourRepository(pool.GetDB(), tourStore, log)
	reviewStore := repository.NewReviewStore(pool.Gorm(), log)
	agg := service.NewRatingAggregator(repository.NewPostgresReviewRepository(pool.GetDB()), tours, nil, log)
	users := service.NewUserService(repository.NewUserStore(pool.Gorm(), log), userRepo, nil, agg, nil, log)

	suffix := uuid.NewString()[:8]
	leaving := &domain.User{Name: "Leaving User", Email: "leaving-" + suffix + "@example.com", PasswordHash: "x"}
	staying := &domain.User{Name: "Staying User", Email: "staying-" + suffix + "@example.com", PasswordHash: "x"}
	require.NoError(t, userRepo.Create(ctx, leaving))
	require.NoError(t, userRepo.Create(ctx, staying))

	tour := &domain.Tour{
		Name:         "Cascade Tour " + suffix,
		Slug:         "cascade-tour-" + suffix,
		Duration:     4,
		MaxGroupSize: 6,
		Difficulty:   domain.DifficultyDifficult,
		Price:        700,
		Summary:      "Ratings follow deleted reviewers",
		ImageCover:   "cover.jpg",
	}
	require.NoError(t, tourStore.Create(ctx, tour))
	t.Cleanup(func() {
		_, _ = pool.GetDB().ExecContext(context.Background(), `DELETE FROM tours WHERE id = $1`, tour.ID)
		_, _ = pool.GetDB().ExecContext(context.Background(), `DELETE FROM users WHERE id = ANY($1)`, pq.Array([]string{leaving.ID.String(), staying.ID.String()}))
	})

	require.NoError(t, reviewStore.Create(ctx, &domain.Review{Review: "Poor", Rating: 1, TourID: tour.ID, UserID: leaving.ID}))
	require.NoError(t, reviewStore.Create(ctx, &domain.Review{Review: "Great", Rating: 5, TourID: tour.ID, UserID: staying.ID}))
	require.NoError(t, agg.Recompute(ctx, tour.ID))

	require.NoError(t, users.Delete(ctx, leaving.ID.String()))

	after, err := tours.GetByID(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.RatingsQuantity)
	assert.Equal(t, 5.0, after.RatingsAverage)
}
