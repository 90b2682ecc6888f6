package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MovieID is the upstream (TMDB) numeric identifier. It is the only movie
// identifier accepted from clients.
type MovieID int64

// ParseMovieID parses a path or query value into a MovieID.
func ParseMovieID(raw string) (MovieID, error) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		// tolerate clients that send the id as a JSON float, e.g. "550.0"
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f <= 0 || f != float64(int64(f)) {
			return 0, fmt.Errorf("invalid movie id %q", raw)
		}
		id = int64(f)
	}
	return MovieID(id), nil
}

func (id MovieID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Genre is a TMDB genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie is a catalog entry mirrored from TMDB
type Movie struct {
	Ref         string    `json:"_id"` // internal reference, assigned by the store
	ID          MovieID   `json:"id"`
	Title       string    `json:"title"`
	PosterPath  string    `json:"poster_path,omitempty"`
	Overview    string    `json:"overview"`
	ReleaseDate string    `json:"release_date"`
	Runtime     int       `json:"runtime"`
	VoteAverage float64   `json:"vote_average"`
	Genres      []Genre   `json:"genres"`
	AddedBy     string    `json:"addedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GenreNames returns the names of the movie's genres in order.
func (m *Movie) GenreNames() []string {
	names := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		names = append(names, g.Name)
	}
	return names
}

// HasAnyGenre reports whether the movie carries at least one of names.
func (m *Movie) HasAnyGenre(names []string) bool {
	for _, g := range m.Genres {
		for _, n := range names {
			if g.Name == n {
				return true
			}
		}
	}
	return false
}

// MovieDraft is the client-submitted movie payload. Unknown fields of the
// TMDB detail object (trailer_url, budget, ...) are ignored.
type MovieDraft struct {
	ID          MovieID `json:"id" validate:"required,gt=0"`
	Title       string  `json:"title" validate:"required"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime" validate:"gte=0"`
	VoteAverage float64 `json:"vote_average" validate:"gte=0,lte=10"`
	Genres      []Genre `json:"genres" validate:"dive"`
}

// ToMovie builds the movie that an upsert of the draft stores.
func (d *MovieDraft) ToMovie(addedBy string) *Movie {
	genres := d.Genres
	if genres == nil {
		genres = []Genre{}
	}
	return &Movie{
		ID:          d.ID,
		Title:       strings.TrimSpace(d.Title),
		PosterPath:  d.PosterPath,
		Overview:    d.Overview,
		ReleaseDate: d.ReleaseDate,
		Runtime:     d.Runtime,
		VoteAverage: d.VoteAverage,
		Genres:      genres,
		AddedBy:     addedBy,
	}
}
