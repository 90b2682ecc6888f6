package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traffic-tacos/movie-api/internal/catalog"
	"github.com/traffic-tacos/movie-api/internal/config"
	"github.com/traffic-tacos/movie-api/internal/logging"
	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store/memory"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// fakeTMDB serves popular with movies 1, 2 and 3. Details for 2 fail.
func fakeTMDB(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/movie/popular", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		writeJSON(w, map[string]interface{}{
			"page":        1,
			"total_pages": 7,
			"results": []map[string]interface{}{
				{"id": 1, "title": "One", "overview": "list overview"},
				{"id": 2, "title": "Two"},
				{"id": 3, "title": "Three"},
			},
		})
	})
	mux.HandleFunc("/movie/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		path := strings.TrimPrefix(r.URL.Path, "/movie/")
		switch path {
		case "1":
			writeJSON(w, map[string]interface{}{
				"id": 1, "title": "One", "runtime": 120, "original_language": "en",
				"genres": []map[string]interface{}{{"id": 28, "name": "Action"}},
			})
		case "1/videos":
			writeJSON(w, map[string]interface{}{"results": []map[string]interface{}{
				{"key": "teaser", "site": "YouTube", "type": "Teaser"},
				{"key": "abc123", "site": "YouTube", "type": "Trailer"},
			}})
		case "2":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "3":
			writeJSON(w, map[string]interface{}{"id": 3, "title": "Three", "runtime": 90})
		case "3/videos":
			writeJSON(w, map[string]interface{}{"results": []interface{}{}})
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.TMDBConfig{
		APIKey:            "test-key",
		BaseURL:           baseURL,
		Language:          "en-US",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		MaxConcurrency:    3,
	}, logging.Discard())
}

func TestClient_Details(t *testing.T) {
	srv, _ := fakeTMDB(t)
	c := newTestClient(srv.URL)

	d, err := c.Details(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Three", d.Title)
	assert.NotNil(t, d.Genres)

	_, err = c.Details(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClient_Trailer(t *testing.T) {
	srv, _ := fakeTMDB(t)
	c := newTestClient(srv.URL)

	url, err := c.Trailer(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/embed/abc123", url)

	url, err = c.Trailer(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestClient_NotConfigured(t *testing.T) {
	srv, hits := fakeTMDB(t)
	c := NewClient(config.TMDBConfig{BaseURL: srv.URL, RequestsPerSecond: 10}, logging.Discard())

	assert.False(t, c.Configured())
	_, err := c.Popular(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))

	appErr, ok := apperrors.As(AsAppError(err))
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeUpstreamUnavailable, appErr.Code)
}

func TestClient_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	logger, hook := logtest.NewNullLogger()
	c := NewClient(config.TMDBConfig{
		APIKey:            "SUPER-SECRET-KEY",
		BaseURL:           baseURL,
		RequestsPerSecond: 10,
		Timeout:           time.Second,
	}, logger)

	_, err := c.Popular(context.Background(), 1)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SUPER-SECRET-KEY")
	assert.Contains(t, err.Error(), "page=1")

	wrapped := AsAppError(err)
	assert.NotContains(t, wrapped.Error(), "SUPER-SECRET-KEY")

	require.NotEmpty(t, hook.AllEntries())
	for _, entry := range hook.AllEntries() {
		line, fmtErr := entry.String()
		require.NoError(t, fmtErr)
		assert.NotContains(t, line, "SUPER-SECRET-KEY")
	}
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	for i := 0; i < 5; i++ {
		_, err := c.Details(context.Background(), 1)
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
	}

	_, err := c.Details(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))

	appErr, ok := apperrors.As(AsAppError(err))
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeUpstreamUnavailable, appErr.Code)
	assert.Equal(t, 503, appErr.HTTPStatus())
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv, _ := fakeTMDB(t)
	c := newTestClient(srv.URL)

	for i := 0; i < 8; i++ {
		_, err := c.Details(context.Background(), 404)
		require.ErrorIs(t, err, ErrNotFound)
	}
	_, err := c.Details(context.Background(), 1)
	assert.NoError(t, err)
}

func TestAsAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"not found", ErrNotFound, apperrors.CodeNotFound},
		{"timeout", context.DeadlineExceeded, apperrors.CodeUpstreamTimeout},
		{"server error", &StatusError{StatusCode: 500}, apperrors.CodeUpstreamUnavailable},
		{"bad key", &StatusError{StatusCode: 401}, apperrors.CodeUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr, ok := apperrors.As(AsAppError(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
	assert.Nil(t, AsAppError(nil))
}

func TestDiscovery_PopularWithFallback(t *testing.T) {
	srv, _ := fakeTMDB(t)
	cat := catalog.NewService(memory.New(), logging.Discard())
	_, err := cat.Upsert(context.Background(), models.MovieDraft{ID: 3, Title: "Three"}, "admin")
	require.NoError(t, err)

	d := NewDiscovery(newTestClient(srv.URL), cat, 2, logging.Discard())
	page, err := d.Popular(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 7, page.TotalPages)
	require.Len(t, page.Results, 3)

	one := page.Results[0]
	assert.Equal(t, models.MovieID(1), one.ID)
	require.NotNil(t, one.Runtime)
	assert.Equal(t, 120, *one.Runtime)
	require.NotNil(t, one.TrailerURL)
	assert.Equal(t, "https://www.youtube.com/embed/abc123", *one.TrailerURL)
	require.NotNil(t, one.OriginalLanguage)
	assert.Equal(t, "en", *one.OriginalLanguage)
	assert.Equal(t, "list overview", one.Overview)
	assert.False(t, one.Saved)

	two := page.Results[1]
	assert.Equal(t, "Two", two.Title)
	assert.Nil(t, two.Runtime)
	assert.Nil(t, two.TrailerURL)
	assert.Empty(t, two.Genres)
	assert.NotNil(t, two.Genres)

	three := page.Results[2]
	assert.Nil(t, three.TrailerURL)
	assert.True(t, three.Saved)
}

func TestDiscovery_Import(t *testing.T) {
	srv, _ := fakeTMDB(t)
	cat := catalog.NewService(memory.New(), logging.Discard())
	d := NewDiscovery(newTestClient(srv.URL), cat, 2, logging.Discard())

	movie, err := d.Import(context.Background(), 1, "admin-id")
	require.NoError(t, err)
	assert.Equal(t, "One", movie.Title)
	assert.Equal(t, "admin-id", movie.AddedBy)
	assert.Equal(t, []string{"Action"}, movie.GenreNames())

	_, err = d.Import(context.Background(), 99, "admin-id")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}
