package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store"
)

// batchGetLimit is the BatchGetItem key limit per request.
const batchGetLimit = 100

func (s *Store) UpsertMovie(ctx context.Context, movie *models.Movie) (*models.Movie, error) {
	genres, names := genreItems(movie.Genres)
	now := s.now().UTC().Format(time.RFC3339Nano)

	update := expression.
		Set(expression.Name("title"), expression.Value(movie.Title)).
		Set(expression.Name("poster_path"), expression.Value(movie.PosterPath)).
		Set(expression.Name("overview"), expression.Value(movie.Overview)).
		Set(expression.Name("release_date"), expression.Value(movie.ReleaseDate)).
		Set(expression.Name("runtime"), expression.Value(movie.Runtime)).
		Set(expression.Name("vote_average"), expression.Value(movie.VoteAverage)).
		Set(expression.Name("genres"), expression.Value(genres)).
		Set(expression.Name("added_by"), expression.Value(movie.AddedBy)).
		Set(expression.Name("updated_at"), expression.Value(now)).
		Set(expression.Name("created_at"), expression.IfNotExists(expression.Name("created_at"), expression.Value(now)))
	// an empty string set is not storable
	if len(names) > 0 {
		update = update.Set(expression.Name("genre_names"), expression.Value(stringSet(names)))
	} else {
		update = update.Remove(expression.Name("genre_names"))
	}
	expr, err := buildUpdate(update, nil)
	if err != nil {
		return nil, fmt.Errorf("build movie update: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.moviesTable),
		Key:                       movieKey(movie.ID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert movie %d: %w", movie.ID, err)
	}

	var item movieItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}
	m := item.toMovie()
	return &m, nil
}

func (s *Store) GetMovie(ctx context.Context, id models.MovieID) (*models.Movie, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.moviesTable),
		Key:       movieKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrNotFound
	}

	var item movieItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}
	m := item.toMovie()
	return &m, nil
}

// GetMoviesByRefs batch-reads the movies. Refs are decimal movie ids.
func (s *Store) GetMoviesByRefs(ctx context.Context, refs []string) ([]models.Movie, error) {
	seen := make(map[models.MovieID]bool, len(refs))
	var keys []map[string]types.AttributeValue
	for _, ref := range refs {
		id, err := models.ParseMovieID(ref)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		keys = append(keys, movieKey(id))
	}

	var movies []models.Movie
	for start := 0; start < len(keys); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(keys) {
			end = len(keys)
		}
		items, err := s.batchGet(ctx, keys[start:end])
		if err != nil {
			return nil, err
		}
		for _, raw := range items {
			var item movieItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("unmarshal failed: %w", err)
			}
			movies = append(movies, item.toMovie())
		}
	}
	return store.OrderByRefs(refs, movies), nil
}

func (s *Store) batchGet(ctx context.Context, keys []map[string]types.AttributeValue) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	request := map[string]types.KeysAndAttributes{s.moviesTable: {Keys: keys}}
	for len(request) > 0 {
		out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return nil, fmt.Errorf("batch get movies: %w", err)
		}
		items = append(items, out.Responses[s.moviesTable]...)
		request = out.UnprocessedKeys
	}
	return items, nil
}

func (s *Store) ListMovies(ctx context.Context) ([]models.Movie, error) {
	return s.scanMovies(ctx, &dynamodb.ScanInput{TableName: aws.String(s.moviesTable)})
}

// MoviesByGenres scans with a contains() filter on the genre_names set.
func (s *Store) MoviesByGenres(ctx context.Context, names []string) ([]models.Movie, error) {
	if len(names) == 0 {
		return []models.Movie{}, nil
	}

	filter := expression.Contains(expression.Name("genre_names"), names[0])
	for _, name := range names[1:] {
		filter = filter.Or(expression.Contains(expression.Name("genre_names"), name))
	}
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("build genre filter: %w", err)
	}

	return s.scanMovies(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.moviesTable),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

func (s *Store) scanMovies(ctx context.Context, input *dynamodb.ScanInput) ([]models.Movie, error) {
	items, err := s.scanAll(ctx, input)
	if err != nil {
		return nil, err
	}

	var decoded []movieItem
	if err := attributevalue.UnmarshalListOfMaps(items, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}

	movies := make([]models.Movie, 0, len(decoded))
	for i := range decoded {
		movies = append(movies, decoded[i].toMovie())
	}
	sort.SliceStable(movies, func(i, j int) bool { return movies[i].CreatedAt.Before(movies[j].CreatedAt) })
	return movies, nil
}

func (s *Store) DeleteMovie(ctx context.Context, id models.MovieID) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.moviesTable),
		Key:       movieKey(id),
	})
	if err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	return nil
}

func (s *Store) CountMovies(ctx context.Context) (int64, error) {
	return s.countAll(ctx, &dynamodb.ScanInput{TableName: aws.String(s.moviesTable)})
}
