// Package store defines the persistence contracts shared by the MongoDB,
// DynamoDB and in-memory backends.
package store

import (
	"context"
	"errors"

	"github.com/traffic-tacos/movie-api/internal/models"
)

var (
	// ErrNotFound is returned when the addressed account or movie does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique field (username, email) is taken.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrAlreadyExists is returned by AddFavorite when the reference is present.
	ErrAlreadyExists = errors.New("store: favorite already present")
)

// AccountStore persists accounts. Every mutation touches a single account.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	UpdateAccount(ctx context.Context, id string, patch models.AccountPatch) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	CountAccounts(ctx context.Context) (int64, error)

	// AddFavorite appends ref to the account's favorites in one atomic step.
	// It returns ErrAlreadyExists when ref is present and ErrNotFound when
	// the account does not exist.
	AddFavorite(ctx context.Context, accountID, ref string) error
	// RemoveFavorite pulls ref from the favorites. Absent refs are not an error.
	RemoveFavorite(ctx context.Context, accountID, ref string) error
}

// CatalogStore persists movies keyed by their upstream id.
type CatalogStore interface {
	// UpsertMovie inserts or replaces the movie with the same upstream id,
	// keeping its Ref and CreatedAt. The stored movie is returned.
	UpsertMovie(ctx context.Context, movie *models.Movie) (*models.Movie, error)
	GetMovie(ctx context.Context, id models.MovieID) (*models.Movie, error)
	// GetMoviesByRefs returns the movies for refs in the order given,
	// skipping refs that no longer resolve.
	GetMoviesByRefs(ctx context.Context, refs []string) ([]models.Movie, error)
	ListMovies(ctx context.Context) ([]models.Movie, error)
	// MoviesByGenres returns every movie carrying at least one of the names.
	MoviesByGenres(ctx context.Context, names []string) ([]models.Movie, error)
	// DeleteMovie removes the movie; a missing movie is not an error.
	DeleteMovie(ctx context.Context, id models.MovieID) error
	CountMovies(ctx context.Context) (int64, error)
}

// Store bundles both contracts with lifecycle hooks.
type Store interface {
	AccountStore
	CatalogStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// OrderByRefs arranges movies in refs order, dropping refs with no movie.
func OrderByRefs(refs []string, movies []models.Movie) []models.Movie {
	byRef := make(map[string]models.Movie, len(movies))
	for _, m := range movies {
		byRef[m.Ref] = m
	}
	out := make([]models.Movie, 0, len(refs))
	for _, ref := range refs {
		if m, ok := byRef[ref]; ok {
			out = append(out, m)
		}
	}
	return out
}
