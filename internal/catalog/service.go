// Package catalog manages the movies mirrored from TMDB.
package catalog

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store"
	"github.com/traffic-tacos/movie-api/internal/validation"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

// Service is the catalog store
type Service struct {
	store  store.CatalogStore
	logger *logrus.Logger
}

func NewService(s store.CatalogStore, logger *logrus.Logger) *Service {
	return &Service{store: s, logger: logger}
}

// Upsert validates the draft and creates or replaces the entry with the
// same upstream id.
func (s *Service) Upsert(ctx context.Context, draft models.MovieDraft, addedBy string) (*models.Movie, error) {
	if err := validation.Struct(&draft); err != nil {
		return nil, err
	}

	movie, err := s.store.UpsertMovie(ctx, draft.ToMovie(addedBy))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.WithFields(logrus.Fields{
		"movie_id": movie.ID,
		"title":    movie.Title,
		"added_by": addedBy,
	}).Info("Movie saved")

	return movie, nil
}

// Delete removes the entry. Deleting an unknown id succeeds.
func (s *Service) Delete(ctx context.Context, id models.MovieID) error {
	if err := s.store.DeleteMovie(ctx, id); err != nil {
		return apperrors.Internal(err)
	}
	s.logger.WithField("movie_id", id).Info("Movie deleted")
	return nil
}

func (s *Service) List(ctx context.Context) ([]models.Movie, error) {
	movies, err := s.store.ListMovies(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	return movies, nil
}

// Get returns nil, nil when the id is not in the catalog.
func (s *Service) Get(ctx context.Context, id models.MovieID) (*models.Movie, error) {
	movie, err := s.store.GetMovie(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return movie, nil
}

// IDs returns the set of upstream ids currently in the catalog.
func (s *Service) IDs(ctx context.Context) (map[models.MovieID]bool, error) {
	movies, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[models.MovieID]bool, len(movies))
	for _, m := range movies {
		ids[m.ID] = true
	}
	return ids, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	n, err := s.store.CountMovies(ctx)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}
