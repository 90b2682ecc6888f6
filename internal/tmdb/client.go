// Package tmdb talks to The Movie Database API.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/traffic-tacos/movie-api/internal/config"
	"github.com/traffic-tacos/movie-api/internal/metrics"
	"github.com/traffic-tacos/movie-api/internal/models"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

const (
	serviceName      = "tmdb"
	youtubeEmbedBase = "https://www.youtube.com/embed/"
	maxErrorBody     = 512
)

var (
	// ErrNotConfigured is returned by every call when no API key is set.
	ErrNotConfigured = errors.New("tmdb: api key not configured")
	// ErrNotFound is returned for upstream 404s.
	ErrNotFound = errors.New("tmdb: not found")
)

// StatusError is a non-2xx upstream response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client is a rate limited, circuit broken TMDB client
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	tracer     trace.Tracer
	logger     *logrus.Logger
}

func NewClient(cfg config.TMDBConfig, logger *logrus.Logger) *Client {
	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		language:   cfg.Language,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		tracer:     otel.Tracer("movie-api/tmdb"),
		logger:     logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5 ||
				counts.ConsecutiveFailures >= 5
		},
		// 4xx answers mean the upstream is healthy
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			return err == nil || errors.Is(err, ErrNotFound) ||
				(errors.As(err, &statusErr) && statusErr.StatusCode < 500)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, int(to))
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Popular returns one page of popular movies.
func (c *Client) Popular(ctx context.Context, page int) (*PopularPage, error) {
	if page < 1 {
		page = 1
	}
	var out PopularPage
	q := url.Values{"page": {strconv.Itoa(page)}}
	if err := c.get(ctx, "popular", "/movie/popular", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Details returns the full record of one movie.
func (c *Client) Details(ctx context.Context, id models.MovieID) (*MovieDetails, error) {
	var out MovieDetails
	if err := c.get(ctx, "details", "/movie/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	if out.Genres == nil {
		out.Genres = []models.Genre{}
	}
	return &out, nil
}

// Trailer returns the embed URL of the first YouTube trailer, or "" when the
// movie has none.
func (c *Client) Trailer(ctx context.Context, id models.MovieID) (string, error) {
	var out videoList
	if err := c.get(ctx, "videos", "/movie/"+id.String()+"/videos", nil, &out); err != nil {
		return "", err
	}
	for _, v := range out.Results {
		if v.Site == "YouTube" && v.Type == "Trailer" && v.Key != "" {
			return youtubeEmbedBase + v.Key, nil
		}
	}
	return "", nil
}

func (c *Client) get(ctx context.Context, operation, path string, query url.Values, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	ctx, span := c.tracer.Start(ctx, "tmdb."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("peer.service", serviceName),
		attribute.String("http.route", path),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limiter wait failed")
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	if c.language != "" {
		query.Set("language", c.language)
	}
	endpoint := c.baseURL + path + "?" + query.Encode()

	start := time.Now()
	statusCode := 0
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "movie-api/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, redactKey(err)
		}
		defer resp.Body.Close()
		statusCode = resp.StatusCode

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), maxErrorBody)}
		}
		return data, nil
	})
	duration := time.Since(start)
	metrics.RecordUpstreamCall(serviceName, operation, statusCode, duration)
	span.SetAttributes(attribute.Int("http.status_code", statusCode))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.WithFields(logrus.Fields{
			"operation":   operation,
			"status_code": statusCode,
			"duration_ms": duration.Milliseconds(),
		}).WithError(err).Warn("TMDB request failed")
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("tmdb: decode %s: %w", operation, err)
	}
	return nil
}

// AsAppError maps client errors onto API errors.
func AsAppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}

	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrNotConfigured):
		return apperrors.Upstream("TMDB integration is not configured", err)
	case errors.Is(err, ErrNotFound):
		return apperrors.NotFound("Movie not found on TMDB")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperrors.Upstream("TMDB is temporarily unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewAppError(apperrors.CodeUpstreamTimeout, "TMDB request timed out", err)
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized:
		return apperrors.Upstream("TMDB rejected the configured API key", err)
	default:
		return apperrors.Upstream("TMDB request failed", err)
	}
}

// redactKey strips the api_key query parameter from the URL that net/http
// puts into transport errors.
func redactKey(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	u, parseErr := url.Parse(urlErr.URL)
	if parseErr != nil {
		return &url.Error{Op: urlErr.Op, URL: "<redacted>", Err: urlErr.Err}
	}
	q := u.Query()
	q.Del("api_key")
	u.RawQuery = q.Encode()
	return &url.Error{Op: urlErr.Op, URL: u.String(), Err: urlErr.Err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
