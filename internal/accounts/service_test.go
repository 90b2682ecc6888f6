package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/traffic-tacos/movie-api/internal/logging"
	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store/memory"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

func newService() (*Service, *memory.Store) {
	st := memory.New()
	return NewService(st, bcrypt.MinCost, logging.Discard()), st
}

func registration() models.RegisterRequest {
	return models.RegisterRequest{
		Username:       " alice ",
		Email:          "A@X.com",
		Password:       "secret1",
		Age:            20,
		Gender:         "female",
		FavoriteGenres: []string{"Action", "Comedy", "Drama"},
	}
}

func TestCreate_NormalizesAndHashes(t *testing.T) {
	svc, st := newService()
	ctx := context.Background()

	acc, err := svc.Create(ctx, registration())
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.Username)
	assert.Equal(t, "a@x.com", acc.Email)
	assert.Empty(t, acc.PasswordHash)
	assert.False(t, acc.IsAdmin)

	stored, err := st.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, svc.CompareSecret("secret1", stored.PasswordHash))
	assert.False(t, svc.CompareSecret("wrong", stored.PasswordHash))
}

func TestCreate_TooFewGenres(t *testing.T) {
	svc, _ := newService()
	req := registration()
	req.FavoriteGenres = []string{"Action", "Comedy"}

	_, err := svc.Create(context.Background(), req)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestCreate_Duplicate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, registration())
	require.NoError(t, err)

	req := registration()
	req.Username = "alice2"
	_, err = svc.Create(ctx, req)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	assert.Equal(t, "Duplicate field value entered", appErr.Message)
}

func TestFindByEmail(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.Create(ctx, registration())
	require.NoError(t, err)

	acc, err := svc.FindByEmail(ctx, " a@x.com", false)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Empty(t, acc.PasswordHash)

	acc, err = svc.FindByEmail(ctx, "a@x.com", true)
	require.NoError(t, err)
	assert.NotEmpty(t, acc.PasswordHash)

	acc, err = svc.FindByEmail(ctx, "nobody@x.com", false)
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.Create(ctx, registration())
	require.NoError(t, err)

	acc, err := svc.Authenticate(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.Username)

	_, wrongPass := svc.Authenticate(ctx, "a@x.com", "nope")
	_, unknown := svc.Authenticate(ctx, "b@x.com", "secret1")
	assert.Equal(t, apperrors.CodeUnauthenticated, apperrors.CodeOf(wrongPass))
	assert.Equal(t, wrongPass.Error(), unknown.Error())

	_, err = svc.Authenticate(ctx, "", "")
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
}

func TestUpdate_KeepsHashWithoutPassword(t *testing.T) {
	svc, st := newService()
	ctx := context.Background()
	acc, err := svc.Create(ctx, registration())
	require.NoError(t, err)

	before, err := st.GetAccount(ctx, acc.ID)
	require.NoError(t, err)

	age := 30
	_, err = svc.Update(ctx, acc.ID, models.UpdateAccountRequest{Age: &age}, acc)
	require.NoError(t, err)

	after, err := st.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, 30, after.Age)

	password := "another1"
	_, err = svc.Update(ctx, acc.ID, models.UpdateAccountRequest{Password: &password}, acc)
	require.NoError(t, err)
	after, err = st.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, svc.CompareSecret("another1", after.PasswordHash))
}

func TestUpdate_AdminFlagRequiresAdmin(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	acc, err := svc.Create(ctx, registration())
	require.NoError(t, err)

	yes := true
	_, err = svc.Update(ctx, acc.ID, models.UpdateAccountRequest{IsAdmin: &yes}, acc)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	admin := &models.Account{ID: "admin", IsAdmin: true}
	updated, err := svc.Update(ctx, acc.ID, models.UpdateAccountRequest{IsAdmin: &yes}, admin)
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin)
	assert.Equal(t, models.RoleAdmin, updated.Role())
}

func TestGetAndDelete(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	acc, err := svc.Create(ctx, registration())
	require.NoError(t, err)

	got, err := svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	require.NoError(t, svc.Delete(ctx, acc.ID))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(svc.Delete(ctx, acc.ID)))

	_, err = svc.Get(ctx, acc.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}
