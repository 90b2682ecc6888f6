// Package memory is an in-process store used for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store"
	"github.com/traffic-tacos/movie-api/internal/utils"
)

// Store keeps accounts and movies in maps guarded by a single mutex.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account
	movies   map[models.MovieID]*models.Movie
	now      func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{
		accounts: make(map[string]*models.Account),
		movies:   make(map[models.MovieID]*models.Movie),
		now:      time.Now,
	}
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

func (s *Store) CreateAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return store.ErrDuplicate
		}
	}

	account.ID = uuid.NewString()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = s.now().UTC()
	}
	if account.Favorites == nil {
		account.Favorites = []string{}
	}
	s.accounts[account.ID] = copyAccount(account)
	return nil
}

func (s *Store) GetAccount(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyAccount(acc), nil
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, acc := range s.accounts {
		if acc.Email == email {
			return copyAccount(acc), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListAccounts(context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, *copyAccount(acc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateAccount(_ context.Context, id string, patch models.AccountPatch) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	for otherID, other := range s.accounts {
		if otherID == id {
			continue
		}
		if (patch.Username != nil && other.Username == *patch.Username) ||
			(patch.Email != nil && other.Email == *patch.Email) {
			return nil, store.ErrDuplicate
		}
	}

	if patch.Username != nil {
		acc.Username = *patch.Username
	}
	if patch.Email != nil {
		acc.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		acc.PasswordHash = *patch.PasswordHash
	}
	if patch.Age != nil {
		acc.Age = *patch.Age
	}
	if patch.Gender != nil {
		acc.Gender = *patch.Gender
	}
	if patch.FavoriteGenres != nil {
		acc.FavoriteGenres = append([]string(nil), patch.FavoriteGenres...)
	}
	if patch.IsAdmin != nil {
		acc.IsAdmin = *patch.IsAdmin
	}
	return copyAccount(acc), nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) CountAccounts(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.accounts)), nil
}

func (s *Store) AddFavorite(_ context.Context, accountID, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return store.ErrNotFound
	}
	if utils.ContainsString(acc.Favorites, ref) {
		return store.ErrAlreadyExists
	}
	acc.Favorites = append(acc.Favorites, ref)
	return nil
}

func (s *Store) RemoveFavorite(_ context.Context, accountID, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return store.ErrNotFound
	}
	acc.Favorites = utils.RemoveString(acc.Favorites, ref)
	return nil
}

func (s *Store) UpsertMovie(_ context.Context, movie *models.Movie) (*models.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	stored := copyMovie(movie)
	if existing, ok := s.movies[movie.ID]; ok {
		stored.Ref = existing.Ref
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.Ref = uuid.NewString()
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.movies[movie.ID] = stored
	return copyMovie(stored), nil
}

func (s *Store) GetMovie(_ context.Context, id models.MovieID) (*models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.movies[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyMovie(m), nil
}

func (s *Store) GetMoviesByRefs(_ context.Context, refs []string) ([]models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make([]models.Movie, 0, len(refs))
	for _, m := range s.movies {
		if utils.ContainsString(refs, m.Ref) {
			found = append(found, *copyMovie(m))
		}
	}
	return store.OrderByRefs(refs, found), nil
}

func (s *Store) ListMovies(context.Context) ([]models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedMovies(nil), nil
}

func (s *Store) MoviesByGenres(_ context.Context, names []string) ([]models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedMovies(func(m *models.Movie) bool { return m.HasAnyGenre(names) }), nil
}

func (s *Store) DeleteMovie(_ context.Context, id models.MovieID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.movies, id)
	return nil
}

func (s *Store) CountMovies(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.movies)), nil
}

// sortedMovies returns matching movies in insertion order. Callers hold mu.
func (s *Store) sortedMovies(match func(*models.Movie) bool) []models.Movie {
	out := make([]models.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		if match == nil || match(m) {
			out = append(out, *copyMovie(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func copyAccount(a *models.Account) *models.Account {
	c := *a
	c.FavoriteGenres = append([]string(nil), a.FavoriteGenres...)
	c.Favorites = append([]string{}, a.Favorites...)
	return &c
}

func copyMovie(m *models.Movie) *models.Movie {
	c := *m
	c.Genres = append([]models.Genre{}, m.Genres...)
	return &c
}
