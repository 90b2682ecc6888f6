// Package recommend selects catalog movies matching an account's favorite
// genres.
package recommend

import (
	"context"
	"errors"

	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

type Service struct {
	accounts store.AccountStore
	catalog  store.CatalogStore
}

func NewService(accounts store.AccountStore, catalog store.CatalogStore) *Service {
	return &Service{accounts: accounts, catalog: catalog}
}

// ForYou returns every catalog movie sharing at least one genre name with
// the account's favorite genres. Results are not ranked or paginated.
func (s *Service) ForYou(ctx context.Context, accountID string) ([]models.Movie, error) {
	if accountID == "" {
		return nil, apperrors.Unauthenticated("Not authorized to access this route")
	}

	acc, err := s.accounts.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(acc.FavoriteGenres) == 0 {
		return nil, apperrors.NotFound("No favorite genres set")
	}

	movies, err := s.catalog.MoviesByGenres(ctx, acc.FavoriteGenres)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	return movies, nil
}
