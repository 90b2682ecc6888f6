package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store"
)

var byCreatedAt = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

func (s *Store) UpsertMovie(ctx context.Context, movie *models.Movie) (*models.Movie, error) {
	now := s.now().UTC()
	update := bson.M{
		"$set": bson.M{
			"title":        movie.Title,
			"poster_path":  movie.PosterPath,
			"overview":     movie.Overview,
			"release_date": movie.ReleaseDate,
			"runtime":      movie.Runtime,
			"vote_average": movie.VoteAverage,
			"genres":       genreDocs(movie.Genres),
			"addedBy":      movie.AddedBy,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc movieDoc
	err := s.movies.FindOneAndUpdate(ctx, bson.M{"id": int64(movie.ID)}, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// two upserts raced on insert; the loser retries as an update
		err = s.movies.FindOneAndUpdate(ctx, bson.M{"id": int64(movie.ID)}, update, opts).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert movie %d: %w", movie.ID, err)
	}

	m := doc.toMovie()
	return &m, nil
}

func (s *Store) GetMovie(ctx context.Context, id models.MovieID) (*models.Movie, error) {
	var doc movieDoc
	err := s.movies.FindOne(ctx, bson.M{"id": int64(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find movie %d: %w", id, err)
	}
	m := doc.toMovie()
	return &m, nil
}

func (s *Store) GetMoviesByRefs(ctx context.Context, refs []string) ([]models.Movie, error) {
	oids := make([]primitive.ObjectID, 0, len(refs))
	for _, ref := range refs {
		if oid, err := primitive.ObjectIDFromHex(ref); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []models.Movie{}, nil
	}

	movies, err := s.findMovies(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	return store.OrderByRefs(refs, movies), nil
}

func (s *Store) ListMovies(ctx context.Context) ([]models.Movie, error) {
	return s.findMovies(ctx, bson.M{})
}

func (s *Store) MoviesByGenres(ctx context.Context, names []string) ([]models.Movie, error) {
	if len(names) == 0 {
		return []models.Movie{}, nil
	}
	return s.findMovies(ctx, bson.M{"genres.name": bson.M{"$in": names}})
}

func (s *Store) findMovies(ctx context.Context, filter bson.M) ([]models.Movie, error) {
	cursor, err := s.movies.Find(ctx, filter, byCreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}

	var docs []movieDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}

	movies := make([]models.Movie, 0, len(docs))
	for i := range docs {
		movies = append(movies, docs[i].toMovie())
	}
	return movies, nil
}

func (s *Store) DeleteMovie(ctx context.Context, id models.MovieID) error {
	if _, err := s.movies.DeleteOne(ctx, bson.M{"id": int64(id)}); err != nil {
		return fmt.Errorf("failed to delete movie %d: %w", id, err)
	}
	return nil
}

func (s *Store) CountMovies(ctx context.Context) (int64, error) {
	return s.movies.CountDocuments(ctx, bson.M{})
}
