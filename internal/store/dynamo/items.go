package dynamo

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/traffic-tacos/movie-api/internal/models"
)

const (
	kindAccount = "account"
	kindUnique  = "unique"
)

type accountItem struct {
	PK             string    `dynamodbav:"pk"`
	Kind           string    `dynamodbav:"kind"`
	AccountID      string    `dynamodbav:"account_id"`
	Username       string    `dynamodbav:"username"`
	Email          string    `dynamodbav:"email"`
	PasswordHash   string    `dynamodbav:"password_hash"`
	Age            int       `dynamodbav:"age"`
	Gender         string    `dynamodbav:"gender"`
	FavoriteGenres []string  `dynamodbav:"favorite_genres"`
	Favorites      []string  `dynamodbav:"favorites"`
	IsAdmin        bool      `dynamodbav:"is_admin"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
}

type uniqueItem struct {
	PK        string `dynamodbav:"pk"`
	Kind      string `dynamodbav:"kind"`
	AccountID string `dynamodbav:"account_id"`
}

type genreItem struct {
	ID   int    `dynamodbav:"id"`
	Name string `dynamodbav:"name"`
}

type movieItem struct {
	MovieID     int64       `dynamodbav:"movie_id"`
	Title       string      `dynamodbav:"title"`
	PosterPath  string      `dynamodbav:"poster_path"`
	Overview    string      `dynamodbav:"overview"`
	ReleaseDate string      `dynamodbav:"release_date"`
	Runtime     int         `dynamodbav:"runtime"`
	VoteAverage float64     `dynamodbav:"vote_average"`
	Genres      []genreItem `dynamodbav:"genres"`
	GenreNames  []string    `dynamodbav:"genre_names,stringset,omitempty"`
	AddedBy     string      `dynamodbav:"added_by"`
	CreatedAt   time.Time   `dynamodbav:"created_at"`
	UpdatedAt   time.Time   `dynamodbav:"updated_at"`
}

func accountKey(id string) string    { return "account#" + id }
func usernameKey(name string) string { return "username#" + name }
func emailKey(email string) string   { return "email#" + email }

func stringKey(pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: pk}}
}

func movieKey(id models.MovieID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"movie_id": &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(id), 10)},
	}
}

func fromAccount(a *models.Account) accountItem {
	favorites := a.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	genres := a.FavoriteGenres
	if genres == nil {
		genres = []string{}
	}
	return accountItem{
		PK:             accountKey(a.ID),
		Kind:           kindAccount,
		AccountID:      a.ID,
		Username:       a.Username,
		Email:          a.Email,
		PasswordHash:   a.PasswordHash,
		Age:            a.Age,
		Gender:         string(a.Gender),
		FavoriteGenres: genres,
		Favorites:      favorites,
		IsAdmin:        a.IsAdmin,
		CreatedAt:      a.CreatedAt,
	}
}

func (it *accountItem) toAccount() *models.Account {
	favorites := it.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	return &models.Account{
		ID:             it.AccountID,
		Username:       it.Username,
		Email:          it.Email,
		PasswordHash:   it.PasswordHash,
		Age:            it.Age,
		Gender:         models.Gender(it.Gender),
		FavoriteGenres: it.FavoriteGenres,
		Favorites:      favorites,
		IsAdmin:        it.IsAdmin,
		CreatedAt:      it.CreatedAt,
	}
}

func genreItems(genres []models.Genre) ([]genreItem, []string) {
	items := make([]genreItem, 0, len(genres))
	var names []string
	seen := make(map[string]bool, len(genres))
	for _, g := range genres {
		items = append(items, genreItem{ID: g.ID, Name: g.Name})
		// string sets reject duplicates and empty strings
		if g.Name != "" && !seen[g.Name] {
			seen[g.Name] = true
			names = append(names, g.Name)
		}
	}
	return items, names
}

func (it *movieItem) toMovie() models.Movie {
	genres := make([]models.Genre, 0, len(it.Genres))
	for _, g := range it.Genres {
		genres = append(genres, models.Genre{ID: g.ID, Name: g.Name})
	}
	id := models.MovieID(it.MovieID)
	return models.Movie{
		Ref:         id.String(),
		ID:          id,
		Title:       it.Title,
		PosterPath:  it.PosterPath,
		Overview:    it.Overview,
		ReleaseDate: it.ReleaseDate,
		Runtime:     it.Runtime,
		VoteAverage: it.VoteAverage,
		Genres:      genres,
		AddedBy:     it.AddedBy,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}
