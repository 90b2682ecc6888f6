package tmdb

import "github.com/traffic-tacos/movie-api/internal/models"

// ListMovie is an entry of a TMDB list endpoint such as /movie/popular
type ListMovie struct {
	ID          models.MovieID `json:"id"`
	Title       string         `json:"title"`
	PosterPath  string         `json:"poster_path"`
	Overview    string         `json:"overview"`
	ReleaseDate string         `json:"release_date"`
	VoteAverage float64        `json:"vote_average"`
	GenreIDs    []int          `json:"genre_ids"`
}

// PopularPage is one page of /movie/popular
type PopularPage struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []ListMovie `json:"results"`
}

// MovieDetails is the /movie/{id} payload
type MovieDetails struct {
	ID               models.MovieID `json:"id"`
	Title            string         `json:"title"`
	PosterPath       string         `json:"poster_path"`
	Overview         string         `json:"overview"`
	ReleaseDate      string         `json:"release_date"`
	Runtime          int            `json:"runtime"`
	VoteAverage      float64        `json:"vote_average"`
	Genres           []models.Genre `json:"genres"`
	OriginalLanguage string         `json:"original_language"`
}

// Draft converts the details into a catalog submission.
func (d *MovieDetails) Draft() models.MovieDraft {
	return models.MovieDraft{
		ID:          d.ID,
		Title:       d.Title,
		PosterPath:  d.PosterPath,
		Overview:    d.Overview,
		ReleaseDate: d.ReleaseDate,
		Runtime:     d.Runtime,
		VoteAverage: d.VoteAverage,
		Genres:      d.Genres,
	}
}

type video struct {
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type videoList struct {
	Results []video `json:"results"`
}

// DiscoveredMovie is a popular movie enriched with details for the admin
// catalog browser.
type DiscoveredMovie struct {
	ID               models.MovieID `json:"id"`
	Title            string         `json:"title"`
	PosterPath       string         `json:"poster_path"`
	Overview         string         `json:"overview"`
	ReleaseDate      string         `json:"release_date"`
	Runtime          *int           `json:"runtime"`
	VoteAverage      float64        `json:"vote_average"`
	Genres           []models.Genre `json:"genres"`
	OriginalLanguage *string        `json:"original_language"`
	TrailerURL       *string        `json:"trailer_url"`
	Saved            bool           `json:"saved"`
}

// DiscoveryPage is a page of DiscoveredMovie
type DiscoveryPage struct {
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	Results    []DiscoveredMovie `json:"results"`
}
