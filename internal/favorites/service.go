// Package favorites manages each account's favorite movies. The REST and
// GraphQL handlers both go through Service.
package favorites

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/logging"
	"github.com/traffic-tacos/movie-api/internal/metrics"
	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

const (
	msgMovieNotFound      = "Movie not found"
	msgMovieNotInDatabase = "Movie not found in database"
	msgUserNotFound       = "User not found"
	msgAlreadyInFavorites = "Movie already in favorites"

	// RemovedMessage is the confirmation returned after a removal.
	RemovedMessage = "Movie removed from favorites"
)

type Service struct {
	accounts store.AccountStore
	catalog  store.CatalogStore
	logger   *logrus.Logger
}

func NewService(accounts store.AccountStore, catalog store.CatalogStore, logger *logrus.Logger) *Service {
	return &Service{accounts: accounts, catalog: catalog, logger: logger}
}

// Add puts the movie with the given upstream id into the account's
// favorites and returns the expanded list.
func (s *Service) Add(ctx context.Context, accountID string, movieID models.MovieID) ([]models.Movie, error) {
	movie, err := s.resolve(ctx, movieID, msgMovieNotFound)
	if err != nil {
		return nil, err
	}

	err = s.accounts.AddFavorite(ctx, accountID, movie.Ref)
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		metrics.RecordFavoriteOperation("add", "conflict")
		return nil, apperrors.Conflict(msgAlreadyInFavorites)
	case errors.Is(err, store.ErrNotFound):
		metrics.RecordFavoriteOperation("add", "not_found")
		return nil, apperrors.NotFound(msgUserNotFound)
	case err != nil:
		metrics.RecordFavoriteOperation("add", "error")
		return nil, apperrors.Internal(err)
	}
	metrics.RecordFavoriteOperation("add", "success")

	logging.WithUserID(s.logger, accountID).WithField("movie_id", movieID).Debug("Favorite added")

	return s.List(ctx, accountID)
}

// Remove takes the movie out of the favorites. Removing a movie that is
// not a favorite is not an error.
func (s *Service) Remove(ctx context.Context, accountID string, movieID models.MovieID) ([]models.Movie, error) {
	movie, err := s.resolve(ctx, movieID, msgMovieNotInDatabase)
	if err != nil {
		return nil, err
	}

	err = s.accounts.RemoveFavorite(ctx, accountID, movie.Ref)
	switch {
	case errors.Is(err, store.ErrNotFound):
		metrics.RecordFavoriteOperation("remove", "not_found")
		return nil, apperrors.NotFound(msgUserNotFound)
	case err != nil:
		metrics.RecordFavoriteOperation("remove", "error")
		return nil, apperrors.Internal(err)
	}
	metrics.RecordFavoriteOperation("remove", "success")

	logging.WithUserID(s.logger, accountID).WithField("movie_id", movieID).Debug("Favorite removed")

	return s.List(ctx, accountID)
}

// List returns the favorites in the order they were added, skipping movies
// that have since left the catalog.
func (s *Service) List(ctx context.Context, accountID string) ([]models.Movie, error) {
	acc, err := s.accounts.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(acc.Favorites) == 0 {
		return []models.Movie{}, nil
	}

	movies, err := s.catalog.GetMoviesByRefs(ctx, acc.Favorites)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return movies, nil
}

func (s *Service) resolve(ctx context.Context, movieID models.MovieID, notFound string) (*models.Movie, error) {
	movie, err := s.catalog.GetMovie(ctx, movieID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound(notFound)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return movie, nil
}
