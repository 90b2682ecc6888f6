// Package graphql exposes the favorites operations over GraphQL.
package graphql

import (
	"context"

	gql "github.com/graphql-go/graphql"

	"github.com/traffic-tacos/movie-api/internal/models"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

// Favorites is the service the resolvers delegate to.
type Favorites interface {
	Add(ctx context.Context, accountID string, movieID models.MovieID) ([]models.Movie, error)
	Remove(ctx context.Context, accountID string, movieID models.MovieID) ([]models.Movie, error)
	List(ctx context.Context, accountID string) ([]models.Movie, error)
}

type ctxKey struct{}

// WithAccount stores the authenticated account for the resolvers.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, ctxKey{}, account)
}

func accountFrom(ctx context.Context) (*models.Account, error) {
	account, ok := ctx.Value(ctxKey{}).(*models.Account)
	if !ok || account == nil {
		return nil, apperrors.Unauthenticated("Not authorized to access this route")
	}
	return account, nil
}

var genreType = gql.NewObject(gql.ObjectConfig{
	Name: "Genre",
	Fields: gql.Fields{
		"id":   &gql.Field{Type: gql.Int},
		"name": &gql.Field{Type: gql.String},
	},
})

var movieType = gql.NewObject(gql.ObjectConfig{
	Name: "Movie",
	Fields: gql.Fields{
		"_id":          &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"id":           &gql.Field{Type: gql.Int},
		"title":        &gql.Field{Type: gql.NewNonNull(gql.String)},
		"poster_path":  &gql.Field{Type: gql.String},
		"overview":     &gql.Field{Type: gql.String},
		"release_date": &gql.Field{Type: gql.String},
		"runtime":      &gql.Field{Type: gql.Int},
		"vote_average": &gql.Field{Type: gql.Float},
		"genres":       &gql.Field{Type: gql.NewList(genreType)},
	},
})

var userType = gql.NewObject(gql.ObjectConfig{
	Name: "User",
	Fields: gql.Fields{
		"_id":       &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"username":  &gql.Field{Type: gql.NewNonNull(gql.String)},
		"email":     &gql.Field{Type: gql.NewNonNull(gql.String)},
		"favorites": &gql.Field{Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(movieType)))},
	},
})

var movieIDArgs = gql.FieldConfigArgument{
	"movieId": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.Int)},
}

// NewSchema builds the schema over the given favorites service.
func NewSchema(favorites Favorites) (gql.Schema, error) {
	r := &resolver{favorites: favorites}

	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"getFavorites": &gql.Field{
				Type:    gql.NewNonNull(userType),
				Resolve: r.getFavorites,
			},
		},
	})

	mutation := gql.NewObject(gql.ObjectConfig{
		Name: "Mutation",
		Fields: gql.Fields{
			"addToFavorites": &gql.Field{
				Type:    gql.NewNonNull(userType),
				Args:    movieIDArgs,
				Resolve: r.addToFavorites,
			},
			"removeFromFavorites": &gql.Field{
				Type:    gql.NewNonNull(userType),
				Args:    movieIDArgs,
				Resolve: r.removeFromFavorites,
			},
		},
	})

	return gql.NewSchema(gql.SchemaConfig{Query: query, Mutation: mutation})
}

// Sources are plain maps so the default resolver never has to reflect
// over named scalar types such as models.MovieID.
func userSource(account *models.Account, movies []models.Movie) map[string]interface{} {
	favorites := make([]interface{}, 0, len(movies))
	for i := range movies {
		favorites = append(favorites, movieSource(&movies[i]))
	}
	return map[string]interface{}{
		"_id":       account.ID,
		"username":  account.Username,
		"email":     account.Email,
		"favorites": favorites,
	}
}

func movieSource(m *models.Movie) map[string]interface{} {
	genres := make([]interface{}, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, map[string]interface{}{"id": g.ID, "name": g.Name})
	}
	return map[string]interface{}{
		"_id":          m.Ref,
		"id":           int(m.ID),
		"title":        m.Title,
		"poster_path":  m.PosterPath,
		"overview":     m.Overview,
		"release_date": m.ReleaseDate,
		"runtime":      m.Runtime,
		"vote_average": m.VoteAverage,
		"genres":       genres,
	}
}
