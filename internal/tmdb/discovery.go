package tmdb

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/traffic-tacos/movie-api/internal/models"
)

// Catalog is the catalog view discovery needs.
type Catalog interface {
	IDs(ctx context.Context) (map[models.MovieID]bool, error)
	Upsert(ctx context.Context, draft models.MovieDraft, addedBy string) (*models.Movie, error)
}

// Upstream is the subset of Client used by Discovery.
type Upstream interface {
	Configured() bool
	Popular(ctx context.Context, page int) (*PopularPage, error)
	Details(ctx context.Context, id models.MovieID) (*MovieDetails, error)
	Trailer(ctx context.Context, id models.MovieID) (string, error)
}

// Discovery browses popular TMDB movies and imports them into the catalog.
type Discovery struct {
	upstream       Upstream
	catalog        Catalog
	maxConcurrency int
	logger         *logrus.Logger
}

func NewDiscovery(upstream Upstream, catalog Catalog, maxConcurrency int, logger *logrus.Logger) *Discovery {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Discovery{
		upstream:       upstream,
		catalog:        catalog,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Popular returns one page of popular movies with details and trailers
// resolved. A movie whose details cannot be fetched is still listed with the
// fields from the list endpoint.
func (d *Discovery) Popular(ctx context.Context, page int) (*DiscoveryPage, error) {
	if !d.upstream.Configured() {
		return nil, AsAppError(ErrNotConfigured)
	}

	listing, err := d.upstream.Popular(ctx, page)
	if err != nil {
		return nil, AsAppError(err)
	}

	saved, err := d.catalog.IDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]DiscoveredMovie, len(listing.Results))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.maxConcurrency)

	for i := range listing.Results {
		i := i
		item := listing.Results[i]
		g.Go(func() error {
			results[i] = d.enrich(gctx, item)
			results[i].Saved = saved[item.ID]
			return nil
		})
	}
	_ = g.Wait()

	return &DiscoveryPage{
		Page:       listing.Page,
		TotalPages: listing.TotalPages,
		Results:    results,
	}, nil
}

func (d *Discovery) enrich(ctx context.Context, item ListMovie) DiscoveredMovie {
	out := DiscoveredMovie{
		ID:          item.ID,
		Title:       item.Title,
		PosterPath:  item.PosterPath,
		Overview:    item.Overview,
		ReleaseDate: item.ReleaseDate,
		VoteAverage: item.VoteAverage,
		Genres:      []models.Genre{},
	}

	details, err := d.upstream.Details(ctx, item.ID)
	if err != nil {
		d.logger.WithError(err).WithField("movie_id", item.ID).Warn("Falling back to list entry for movie")
		return out
	}

	runtime := details.Runtime
	out.Runtime = &runtime
	out.Genres = details.Genres
	if details.OriginalLanguage != "" {
		lang := details.OriginalLanguage
		out.OriginalLanguage = &lang
	}
	if details.Overview != "" {
		out.Overview = details.Overview
	}

	trailer, err := d.upstream.Trailer(ctx, item.ID)
	if err != nil {
		d.logger.WithError(err).WithField("movie_id", item.ID).Debug("Trailer lookup failed")
	} else if trailer != "" {
		out.TrailerURL = &trailer
	}
	return out
}

// Import fetches a movie from TMDB and saves it into the catalog.
func (d *Discovery) Import(ctx context.Context, id models.MovieID, addedBy string) (*models.Movie, error) {
	details, err := d.upstream.Details(ctx, id)
	if err != nil {
		return nil, AsAppError(err)
	}
	return d.catalog.Upsert(ctx, details.Draft(), addedBy)
}
