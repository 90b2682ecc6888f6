package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/traffic-tacos/movie-api/internal/accounts"
	"github.com/traffic-tacos/movie-api/internal/catalog"
	"github.com/traffic-tacos/movie-api/internal/config"
	"github.com/traffic-tacos/movie-api/internal/favorites"
	"github.com/traffic-tacos/movie-api/internal/logging"
	"github.com/traffic-tacos/movie-api/internal/middleware"
	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/recommend"
	"github.com/traffic-tacos/movie-api/internal/session"
	"github.com/traffic-tacos/movie-api/internal/store/memory"
	"github.com/traffic-tacos/movie-api/internal/tmdb"
)

type testServer struct {
	app   *fiber.App
	store *memory.Store
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	return newTestServerWithRedis(t, nil, mutate)
}

func newTestServerWithRedis(t *testing.T, redisClient redis.UniversalClient, mutate func(*config.Config)) *testServer {
	t.Helper()
	logger := logging.Discard()

	cfg := &config.Config{
		Storage:       config.StorageConfig{Backend: config.BackendMemory},
		Observability: config.ObservabilityConfig{MetricsPath: "/metrics"},
		RateLimit:     config.RateLimitConfig{Enabled: false},
		Auth:          config.AuthConfig{BcryptCost: bcrypt.MinCost},
		TMDB:          config.TMDBConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second, RequestsPerSecond: 10},
	}
	if mutate != nil {
		mutate(cfg)
	}

	st := memory.New()
	issuer, err := session.NewIssuer([]byte("routes-test-key"), time.Hour, "movie-api")
	require.NoError(t, err)

	accountService := accounts.NewService(st, cfg.Auth.BcryptCost, logger)
	catalogService := catalog.NewService(st, logger)
	manager := middleware.NewManager(cfg, issuer, accountService, redisClient, logger)

	app := fiber.New(AppConfig(cfg, manager.ErrorHandler))
	app.Use(manager.ErrorLogger.Handle())
	require.NoError(t, Setup(app, &Dependencies{
		Config:     cfg,
		Logger:     logger,
		Middleware: manager,
		Accounts:   accountService,
		Catalog:    catalogService,
		Favorites:  favorites.NewService(st, st, logger),
		Recommend:  recommend.NewService(st, st),
		Issuer:     issuer,
		Discovery:  tmdb.NewDiscovery(tmdb.NewClient(cfg.TMDB, logger), catalogService, 2, logger),
		StorePing:  st.Ping,
	}))

	return &testServer{app: app, store: st}
}

func (s *testServer) call(t *testing.T, method, path, token, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (s *testServer) callJSON(t *testing.T, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	status, raw := s.call(t, method, path, token, body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return status, out
}

func (s *testServer) signup(t *testing.T, username string) (string, string) {
	t.Helper()
	body := `{"username":"` + username + `","email":"` + username + `@example.com","password":"secret1",` +
		`"age":30,"gender":"other","favoriteGenres":["Action","Comedy","Drama"]}`
	status, resp := s.callJSON(t, fiber.MethodPost, "/api/auth/signup", "", body)
	require.Equal(t, http.StatusCreated, status, resp)
	user := resp["user"].(map[string]interface{})
	return resp["token"].(string), user["id"].(string)
}

func favoriteCount(t *testing.T, resp map[string]interface{}) int {
	t.Helper()
	favs, ok := resp["favorites"].([]interface{})
	require.True(t, ok, resp)
	return len(favs)
}

const fightClub = `{"id":550,"title":"Fight Club","runtime":139,"vote_average":8.4,"genres":[{"id":18,"name":"Drama"}]}`

func TestFavoritesScenario(t *testing.T) {
	s := newTestServer(t, nil)

	status, resp := s.callJSON(t, fiber.MethodPost, "/api/auth/signup", "",
		`{"username":"alice","email":"a@x.com","password":"abcdef","age":20,"gender":"female","favoriteGenres":["Action","Comedy","Drama"]}`)
	require.Equal(t, http.StatusCreated, status, resp)
	require.NotEmpty(t, resp["token"])

	status, resp = s.callJSON(t, fiber.MethodPost, "/api/auth/login", "", `{"email":"a@x.com","password":"abcdef"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, resp["success"])
	token := resp["token"].(string)

	status, resp = s.callJSON(t, fiber.MethodGet, "/api/auth/verify", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@x.com", resp["user"].(map[string]interface{})["email"])

	status, _ = s.callJSON(t, fiber.MethodPost, "/api/movies", token, fightClub)
	require.Equal(t, http.StatusOK, status)

	status, resp = s.callJSON(t, fiber.MethodPost, "/api/favorites/550", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, favoriteCount(t, resp))

	status, resp = s.callJSON(t, fiber.MethodPost, "/api/favorites/550", token, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Movie already in favorites", resp["error"])

	status, resp = s.callJSON(t, fiber.MethodGet, "/api/favorites", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, favoriteCount(t, resp))

	status, resp = s.callJSON(t, fiber.MethodDelete, "/api/favorites/550", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, favoriteCount(t, resp))
	assert.Equal(t, favorites.RemovedMessage, resp["message"])

	status, _ = s.callJSON(t, fiber.MethodGet, "/api/movies/for-you", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSignupValidationAndDuplicates(t *testing.T) {
	s := newTestServer(t, nil)
	s.signup(t, "alice")

	status, resp := s.callJSON(t, fiber.MethodPost, "/api/auth/signup", "",
		`{"username":"alice","email":"other@example.com","password":"secret1","age":30,"gender":"other","favoriteGenres":["Action","Comedy","Drama"]}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, resp["success"])

	status, resp = s.callJSON(t, fiber.MethodPost, "/api/auth/signup", "", `{"username":"bo"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", resp["code"])

	status, _ = s.callJSON(t, fiber.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.callJSON(t, fiber.MethodPost, "/api/auth/login", "", `{"email":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMeVerifyAndLogout(t *testing.T) {
	s := newTestServer(t, nil)
	token, id := s.signup(t, "alice")

	status, resp := s.callJSON(t, fiber.MethodGet, "/api/auth/me", token, "")
	require.Equal(t, http.StatusOK, status)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, id, data["_id"])
	assert.NotContains(t, data, "password")

	status, resp = s.callJSON(t, fiber.MethodGet, "/api/auth/verify", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, resp["user"].(map[string]interface{})["id"])

	status, resp = s.callJSON(t, fiber.MethodPost, "/api/auth/logout", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", resp["message"])

	status, _ = s.callJSON(t, fiber.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestForYou(t *testing.T) {
	s := newTestServer(t, nil)

	status, _ := s.callJSON(t, fiber.MethodGet, "/api/movies/for-you", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	token, _ := s.signup(t, "alice")
	s.call(t, fiber.MethodPost, "/api/movies", token, fightClub)
	s.call(t, fiber.MethodPost, "/api/movies", token, `{"id":10,"title":"Quiet Documentary","genres":[{"id":99,"name":"Documentary"}]}`)

	status, raw := s.call(t, fiber.MethodGet, "/api/movies/for-you", token, "")
	require.Equal(t, http.StatusOK, status)
	var movies []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &movies))
	require.Len(t, movies, 1)
	assert.Equal(t, "Fight Club", movies[0]["title"])
}

func TestMovieCatalog(t *testing.T) {
	s := newTestServer(t, nil)

	status, _ := s.callJSON(t, fiber.MethodPost, "/api/movies", "", fightClub)
	assert.Equal(t, http.StatusUnauthorized, status)

	token, id := s.signup(t, "alice")
	status, resp := s.callJSON(t, fiber.MethodPost, "/api/movies", token, fightClub)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, resp["addedBy"])

	status, raw := s.call(t, fiber.MethodGet, "/api/movies", "", "")
	require.Equal(t, http.StatusOK, status)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 1)

	status, resp = s.callJSON(t, fiber.MethodGet, "/api/movies/550", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Fight Club", resp["title"])

	status, raw = s.call(t, fiber.MethodGet, "/api/movies/551", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", string(raw))

	status, _ = s.callJSON(t, fiber.MethodGet, "/api/movies/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = s.callJSON(t, fiber.MethodDelete, "/api/movies/550", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, resp["success"])

	status, raw = s.call(t, fiber.MethodGet, "/api/movies/550", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", string(raw))
}

func TestCatalogRequireAdmin(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Auth.CatalogRequireAdmin = true })
	token, _ := s.signup(t, "alice")

	status, _ := s.callJSON(t, fiber.MethodPost, "/api/movies", token, fightClub)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestUserAdministration(t *testing.T) {
	s := newTestServer(t, nil)
	aliceToken, aliceID := s.signup(t, "alice")
	rootToken, rootID := s.signup(t, "rootuser")

	yes := true
	_, err := s.store.UpdateAccount(context.Background(), rootID, models.AccountPatch{IsAdmin: &yes})
	require.NoError(t, err)

	status, resp := s.callJSON(t, fiber.MethodGet, "/api/users", aliceToken, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "User role user is not authorized to access this route", resp["error"])

	status, resp = s.callJSON(t, fiber.MethodGet, "/api/users", rootToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), resp["count"])

	status, _ = s.callJSON(t, fiber.MethodPut, "/api/users/"+rootID, aliceToken, `{"age":40}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = s.callJSON(t, fiber.MethodPut, "/api/users/"+aliceID, aliceToken, `{"age":40}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(40), resp["data"].(map[string]interface{})["age"])

	status, resp = s.callJSON(t, fiber.MethodGet, "/api/admin/stats", rootToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), resp["accounts"])
	assert.Equal(t, config.BackendMemory, resp["storage_backend"])
	assert.NotContains(t, resp, "redis")

	status, _ = s.callJSON(t, fiber.MethodDelete, "/api/users/"+aliceID, rootToken, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = s.callJSON(t, fiber.MethodGet, "/api/auth/me", aliceToken, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTMDBWithoutKey(t *testing.T) {
	s := newTestServer(t, nil)
	_, rootID := s.signup(t, "rootuser")
	yes := true
	_, err := s.store.UpdateAccount(context.Background(), rootID, models.AccountPatch{IsAdmin: &yes})
	require.NoError(t, err)

	status, resp := s.callJSON(t, fiber.MethodPost, "/api/auth/login", "", `{"email":"rootuser@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, status)
	token := resp["token"].(string)

	status, resp = s.callJSON(t, fiber.MethodGet, "/api/tmdb/popular", token, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", resp["code"])
}

func TestSystemRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	status, resp := s.callJSON(t, fiber.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", resp["status"])

	status, resp = s.callJSON(t, fiber.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", resp["status"])

	status, resp = s.callJSON(t, fiber.MethodGet, "/version", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "movie-api", resp["service"])

	status, resp = s.callJSON(t, fiber.MethodGet, "/api/nothing-here", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", resp["code"])
}

func TestGraphQLRoute(t *testing.T) {
	s := newTestServer(t, nil)

	status, _ := s.callJSON(t, fiber.MethodPost, "/graphql", "", `{"query":"{ getFavorites { username } }"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	token, _ := s.signup(t, "alice")
	s.call(t, fiber.MethodPost, "/api/movies", token, fightClub)

	status, resp := s.callJSON(t, fiber.MethodPost, "/graphql", token, `{"query":"mutation { addToFavorites(movieId: 550) { favorites { title } } }"}`)
	require.Equal(t, http.StatusOK, status)
	data := resp["data"].(map[string]interface{})["addToFavorites"].(map[string]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"title": "Fight Club"}}, data["favorites"])
}

func TestAppConfig_ProxyTrust(t *testing.T) {
	cfg := &config.Config{}
	plain := AppConfig(cfg, nil)
	assert.Empty(t, plain.ProxyHeader)
	assert.False(t, plain.EnableTrustedProxyCheck)

	cfg.Server.ProxyHeader = fiber.HeaderXForwardedFor
	cfg.Server.TrustedProxies = []string{"10.0.0.0/8"}
	proxied := AppConfig(cfg, nil)
	assert.Equal(t, fiber.HeaderXForwardedFor, proxied.ProxyHeader)
	assert.True(t, proxied.EnableTrustedProxyCheck)
	assert.True(t, proxied.EnableIPValidation)
	assert.Equal(t, []string{"10.0.0.0/8"}, proxied.TrustedProxies)
}
