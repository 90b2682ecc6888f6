package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store/memory"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

func seed(t *testing.T, genres []string) (*Service, string) {
	t.Helper()
	st := memory.New()
	ctx := context.Background()

	acc := &models.Account{Username: "alice", Email: "a@x.com", FavoriteGenres: genres}
	require.NoError(t, st.CreateAccount(ctx, acc))

	for _, m := range []models.Movie{
		{ID: 1, Title: "Scream", Genres: []models.Genre{{ID: 27, Name: "Horror"}}},
		{ID: 2, Title: "Alien", Genres: []models.Genre{{ID: 27, Name: "Horror"}, {ID: 878, Name: "Science Fiction"}}},
		{ID: 3, Title: "Up", Genres: []models.Genre{{ID: 16, Name: "Animation"}}},
		{ID: 4, Title: "Untitled"},
	} {
		m := m
		_, err := st.UpsertMovie(ctx, &m)
		require.NoError(t, err)
	}
	return NewService(st, st), acc.ID
}

func TestForYou_Horror(t *testing.T) {
	svc, accID := seed(t, []string{"Horror"})

	movies, err := svc.ForYou(context.Background(), accID)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	for _, m := range movies {
		assert.True(t, m.HasAnyGenre([]string{"Horror"}), m.Title)
	}
}

func TestForYou_AnyOverlap(t *testing.T) {
	svc, accID := seed(t, []string{"Animation", "Science Fiction", "Western"})

	movies, err := svc.ForYou(context.Background(), accID)
	require.NoError(t, err)

	titles := make([]string, 0, len(movies))
	for _, m := range movies {
		titles = append(titles, m.Title)
	}
	assert.ElementsMatch(t, []string{"Alien", "Up"}, titles)
}

func TestForYou_NoGenres(t *testing.T) {
	svc, accID := seed(t, nil)

	_, err := svc.ForYou(context.Background(), accID)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
	assert.Equal(t, "No favorite genres set", appErr.Message)
}

func TestForYou_Unauthenticated(t *testing.T) {
	svc, _ := seed(t, []string{"Horror"})

	_, err := svc.ForYou(context.Background(), "")
	assert.Equal(t, apperrors.CodeUnauthenticated, apperrors.CodeOf(err))

	_, err = svc.ForYou(context.Background(), "unknown")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestForYou_NoMatchesIsEmpty(t *testing.T) {
	svc, accID := seed(t, []string{"Western"})

	movies, err := svc.ForYou(context.Background(), accID)
	require.NoError(t, err)
	assert.NotNil(t, movies)
	assert.Empty(t, movies)
}
