// Package accounts owns account registration, credential checks and the
// administrator account operations.
package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store"
	"github.com/traffic-tacos/movie-api/internal/utils"
	"github.com/traffic-tacos/movie-api/internal/validation"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

const (
	msgDuplicate          = "Duplicate field value entered"
	msgInvalidCredentials = "Invalid credentials"
	msgUserNotFound       = "User not found"
)

// Service is the credential store
type Service struct {
	store      store.AccountStore
	bcryptCost int
	logger     *logrus.Logger
}

// NewService creates an account service hashing with the given bcrypt cost.
func NewService(s store.AccountStore, bcryptCost int, logger *logrus.Logger) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: s, bcryptCost: bcryptCost, logger: logger}
}

// Create validates and stores a new account with a hashed password.
func (s *Service) Create(ctx context.Context, req models.RegisterRequest) (*models.Account, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = utils.NormalizeEmail(req.Email)
	req.Gender = strings.TrimSpace(req.Gender)
	req.FavoriteGenres = utils.TrimAll(req.FavoriteGenres)

	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   hash,
		Age:            req.Age,
		Gender:         models.Gender(req.Gender),
		FavoriteGenres: req.FavoriteGenres,
		Favorites:      []string{},
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict(msgDuplicate)
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  account.ID,
		"username": account.Username,
	}).Info("Account created")

	account.PasswordHash = ""
	return account, nil
}

// FindByEmail returns nil, nil when no account has the email. The hash is
// only kept when includeSecret is set.
func (s *Service) FindByEmail(ctx context.Context, email string, includeSecret bool) (*models.Account, error) {
	acc, err := s.store.GetAccountByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !includeSecret {
		acc.PasswordHash = ""
	}
	return acc, nil
}

// FindByID returns nil, nil when the account does not exist. The hash is
// always cleared.
func (s *Service) FindByID(ctx context.Context, id string) (*models.Account, error) {
	acc, err := s.store.GetAccount(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	acc.PasswordHash = ""
	return acc, nil
}

// CompareSecret reports whether plaintext matches the bcrypt hash.
func (s *Service) CompareSecret(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Authenticate checks an email and password pair. Unknown email and wrong
// password return the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.BadRequest("Please provide email and password")
	}

	acc, err := s.FindByEmail(ctx, email, true)
	if err != nil {
		return nil, err
	}
	if acc == nil || !s.CompareSecret(password, acc.PasswordHash) {
		return nil, apperrors.Unauthenticated(msgInvalidCredentials)
	}

	acc.PasswordHash = ""
	return acc, nil
}

// List returns every account without password hashes.
func (s *Service) List(ctx context.Context) ([]models.Account, error) {
	list, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	for i := range list {
		list[i].PasswordHash = ""
	}
	return list, nil
}

// Get returns the account or NOT_FOUND.
func (s *Service) Get(ctx context.Context, id string) (*models.Account, error) {
	acc, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, apperrors.NotFound(msgUserNotFound)
	}
	return acc, nil
}

// Update applies a partial update on behalf of actor. Only administrators
// may change isAdmin, and the password is re-hashed only when supplied.
func (s *Service) Update(ctx context.Context, id string, req models.UpdateAccountRequest, actor *models.Account) (*models.Account, error) {
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		req.Username = &trimmed
	}
	if req.Email != nil {
		normalized := utils.NormalizeEmail(*req.Email)
		req.Email = &normalized
	}
	if req.FavoriteGenres != nil {
		req.FavoriteGenres = utils.TrimAll(req.FavoriteGenres)
	}
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}
	if req.IsAdmin != nil && (actor == nil || !actor.IsAdmin) {
		return nil, apperrors.Forbidden("Only administrators can change admin status")
	}

	patch := models.AccountPatch{
		Username:       req.Username,
		Email:          req.Email,
		Age:            req.Age,
		FavoriteGenres: req.FavoriteGenres,
		IsAdmin:        req.IsAdmin,
	}
	if req.Gender != nil {
		g := models.Gender(*req.Gender)
		patch.Gender = &g
	}
	if req.Password != nil {
		hash, err := s.hash(*req.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	acc, err := s.store.UpdateAccount(ctx, id, patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, apperrors.NotFound(msgUserNotFound)
	case errors.Is(err, store.ErrDuplicate):
		return nil, apperrors.Conflict(msgDuplicate)
	case err != nil:
		return nil, apperrors.Internal(err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":          id,
		"actor_id":         actorID(actor),
		"password_changed": patch.PasswordHash != nil,
	}).Info("Account updated")

	acc.PasswordHash = ""
	return acc, nil
}

// Delete removes the account or returns NOT_FOUND.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.DeleteAccount(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound(msgUserNotFound)
	}
	if err != nil {
		return apperrors.Internal(err)
	}
	s.logger.WithField("user_id", id).Info("Account deleted")
	return nil
}

// Count returns the number of registered accounts.
func (s *Service) Count(ctx context.Context) (int64, error) {
	n, err := s.store.CountAccounts(ctx)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return string(hash), nil
}

func actorID(actor *models.Account) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
