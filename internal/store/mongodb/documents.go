package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/traffic-tacos/movie-api/internal/models"
)

type accountDoc struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	Username       string               `bson:"username"`
	Email          string               `bson:"email"`
	Password       string               `bson:"password"`
	Age            int                  `bson:"age"`
	Gender         string               `bson:"gender"`
	FavoriteGenres []string             `bson:"favoriteGenres"`
	Favorites      []primitive.ObjectID `bson:"favorites"`
	IsAdmin        bool                 `bson:"isAdmin"`
	CreatedAt      time.Time            `bson:"createdAt"`
}

type genreDoc struct {
	ID   int    `bson:"id"`
	Name string `bson:"name"`
}

type movieDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	TMDBID      int64              `bson:"id"`
	Title       string             `bson:"title"`
	PosterPath  string             `bson:"poster_path,omitempty"`
	Overview    string             `bson:"overview"`
	ReleaseDate string             `bson:"release_date"`
	Runtime     int                `bson:"runtime"`
	VoteAverage float64            `bson:"vote_average"`
	Genres      []genreDoc         `bson:"genres"`
	AddedBy     string             `bson:"addedBy,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func fromAccount(a *models.Account) accountDoc {
	doc := accountDoc{
		Username:       a.Username,
		Email:          a.Email,
		Password:       a.PasswordHash,
		Age:            a.Age,
		Gender:         string(a.Gender),
		FavoriteGenres: a.FavoriteGenres,
		Favorites:      make([]primitive.ObjectID, 0, len(a.Favorites)),
		IsAdmin:        a.IsAdmin,
		CreatedAt:      a.CreatedAt,
	}
	for _, ref := range a.Favorites {
		if oid, err := primitive.ObjectIDFromHex(ref); err == nil {
			doc.Favorites = append(doc.Favorites, oid)
		}
	}
	return doc
}

func (d *accountDoc) toAccount() *models.Account {
	favorites := make([]string, 0, len(d.Favorites))
	for _, oid := range d.Favorites {
		favorites = append(favorites, oid.Hex())
	}
	return &models.Account{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		Email:          d.Email,
		PasswordHash:   d.Password,
		Age:            d.Age,
		Gender:         models.Gender(d.Gender),
		FavoriteGenres: d.FavoriteGenres,
		Favorites:      favorites,
		IsAdmin:        d.IsAdmin,
		CreatedAt:      d.CreatedAt,
	}
}

func genreDocs(genres []models.Genre) []genreDoc {
	out := make([]genreDoc, 0, len(genres))
	for _, g := range genres {
		out = append(out, genreDoc{ID: g.ID, Name: g.Name})
	}
	return out
}

func (d *movieDoc) toMovie() models.Movie {
	genres := make([]models.Genre, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, models.Genre{ID: g.ID, Name: g.Name})
	}
	return models.Movie{
		Ref:         d.ID.Hex(),
		ID:          models.MovieID(d.TMDBID),
		Title:       d.Title,
		PosterPath:  d.PosterPath,
		Overview:    d.Overview,
		ReleaseDate: d.ReleaseDate,
		Runtime:     d.Runtime,
		VoteAverage: d.VoteAverage,
		Genres:      genres,
		AddedBy:     d.AddedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
