package favorites

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traffic-tacos/movie-api/internal/logging"
	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store/memory"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

func setup(t *testing.T) (*Service, *memory.Store, string) {
	t.Helper()
	st := memory.New()
	ctx := context.Background()

	acc := &models.Account{Username: "alice", Email: "a@x.com", PasswordHash: "hash"}
	require.NoError(t, st.CreateAccount(ctx, acc))

	for _, m := range []models.Movie{
		{ID: 550, Title: "Fight Club"},
		{ID: 680, Title: "Pulp Fiction"},
	} {
		m := m
		_, err := st.UpsertMovie(ctx, &m)
		require.NoError(t, err)
	}

	return NewService(st, st, logging.Discard()), st, acc.ID
}

func TestAdd(t *testing.T) {
	svc, _, accID := setup(t)
	ctx := context.Background()

	list, err := svc.Add(ctx, accID, 550)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Fight Club", list[0].Title)

	list, err = svc.Add(ctx, accID, 680)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Pulp Fiction", list[1].Title)
}

func TestAdd_Twice(t *testing.T) {
	svc, _, accID := setup(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, accID, 550)
	require.NoError(t, err)

	_, err = svc.Add(ctx, accID, 550)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	assert.Equal(t, "Movie already in favorites", appErr.Message)

	list, err := svc.List(ctx, accID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAdd_NotFound(t *testing.T) {
	svc, _, accID := setup(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, accID, 999)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
	assert.Equal(t, "Movie not found", appErr.Message)

	_, err = svc.Add(ctx, "missing-account", 550)
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "User not found", appErr.Message)
}

func TestRemove_Twice(t *testing.T) {
	svc, _, accID := setup(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, accID, 550)
	require.NoError(t, err)

	list, err := svc.Remove(ctx, accID, 550)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.Remove(ctx, accID, 550)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestRemove_UnknownMovie(t *testing.T) {
	svc, _, accID := setup(t)

	_, err := svc.Remove(context.Background(), accID, 999)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
	assert.Equal(t, "Movie not found in database", appErr.Message)
}

func TestList_SkipsDeletedMovies(t *testing.T) {
	svc, st, accID := setup(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, accID, 550)
	require.NoError(t, err)
	_, err = svc.Add(ctx, accID, 680)
	require.NoError(t, err)

	require.NoError(t, st.DeleteMovie(ctx, 550))

	list, err := svc.List(ctx, accID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.MovieID(680), list[0].ID)
}

func TestAdd_ConcurrentDifferentMovies(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	acc := &models.Account{Username: "bob", Email: "b@x.com"}
	require.NoError(t, st.CreateAccount(ctx, acc))

	const n = 25
	for i := 1; i <= n; i++ {
		_, err := st.UpsertMovie(ctx, &models.Movie{ID: models.MovieID(i), Title: fmt.Sprintf("Movie %d", i)})
		require.NoError(t, err)
	}
	svc := NewService(st, st, logging.Discard())

	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id models.MovieID) {
			defer wg.Done()
			_, err := svc.Add(ctx, acc.ID, id)
			assert.NoError(t, err)
		}(models.MovieID(i))
	}
	wg.Wait()

	list, err := svc.List(ctx, acc.ID)
	require.NoError(t, err)
	assert.Len(t, list, n)
}
