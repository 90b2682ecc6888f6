package graphql

import (
	"context"

	gql "github.com/graphql-go/graphql"

	"github.com/traffic-tacos/movie-api/internal/models"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

type resolver struct {
	favorites Favorites
}

func (r *resolver) getFavorites(p gql.ResolveParams) (interface{}, error) {
	account, err := accountFrom(p.Context)
	if err != nil {
		return nil, publicError(err)
	}
	movies, err := r.favorites.List(p.Context, account.ID)
	if err != nil {
		return nil, publicError(err)
	}
	return userSource(account, movies), nil
}

func (r *resolver) addToFavorites(p gql.ResolveParams) (interface{}, error) {
	return r.mutate(p, r.favorites.Add)
}

func (r *resolver) removeFromFavorites(p gql.ResolveParams) (interface{}, error) {
	return r.mutate(p, r.favorites.Remove)
}

type mutation func(ctx context.Context, accountID string, movieID models.MovieID) ([]models.Movie, error)

func (r *resolver) mutate(p gql.ResolveParams, op mutation) (interface{}, error) {
	account, err := accountFrom(p.Context)
	if err != nil {
		return nil, publicError(err)
	}

	raw, _ := p.Args["movieId"].(int)
	if raw <= 0 {
		return nil, publicError(apperrors.BadRequest("Invalid movie id"))
	}

	movies, err := op(p.Context, account.ID, models.MovieID(raw))
	if err != nil {
		return nil, publicError(err)
	}
	return userSource(account, movies), nil
}

// resolverError carries the API error code into the "extensions" member of
// the GraphQL error.
type resolverError struct {
	message string
	code    apperrors.ErrorCode
}

func (e *resolverError) Error() string { return e.message }

func (e *resolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.code)}
}

func publicError(err error) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	return &resolverError{message: appErr.Message, code: appErr.Code}
}
