package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/traffic-tacos/movie-api/internal/middleware"
	"github.com/traffic-tacos/movie-api/internal/tmdb"
)

// TMDBHandler lets administrators browse TMDB and import movies.
type TMDBHandler struct {
	discovery *tmdb.Discovery
}

func NewTMDBHandler(discovery *tmdb.Discovery) *TMDBHandler {
	return &TMDBHandler{discovery: discovery}
}

// Popular lists a page of popular TMDB movies
// @Summary Popular TMDB movies
// @Description Popular movies with details, trailer and whether each is already in the catalog
// @Tags TMDB
// @Produce json
// @Security Bearer
// @Param page query int false "Page" default(1)
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} apperrors.ErrorResponse "TMDB unavailable or not configured"
// @Router /api/tmdb/popular [get]
func (h *TMDBHandler) Popular(c *fiber.Ctx) error {
	page, err := h.discovery.Popular(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"page":        page.Page,
		"total_pages": page.TotalPages,
		"results":     page.Results,
	})
}

// Import copies a TMDB movie into the catalog
// @Summary Import TMDB movie
// @Tags TMDB
// @Produce json
// @Security Bearer
// @Param id path int true "TMDB id"
// @Success 200 {object} models.Movie
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 503 {object} apperrors.ErrorResponse
// @Router /api/tmdb/import/{id} [post]
func (h *TMDBHandler) Import(c *fiber.Ctx) error {
	id, err := movieIDParam(c, "id")
	if err != nil {
		return err
	}
	movie, err := h.discovery.Import(c.UserContext(), id, middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(movie)
}
