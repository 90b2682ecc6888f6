package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/catalog"
	"github.com/traffic-tacos/movie-api/internal/middleware"
	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/recommend"
)

// MovieHandler serves the catalog and the genre recommendations.
type MovieHandler struct {
	catalog   *catalog.Service
	recommend *recommend.Service
	logger    *logrus.Logger
}

func NewMovieHandler(catalog *catalog.Service, recommend *recommend.Service, logger *logrus.Logger) *MovieHandler {
	return &MovieHandler{catalog: catalog, recommend: recommend, logger: logger}
}

// List returns the whole catalog
// @Summary List movies
// @Tags Movies
// @Produce json
// @Success 200 {array} models.Movie
// @Router /api/movies [get]
func (h *MovieHandler) List(c *fiber.Ctx) error {
	movies, err := h.catalog.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(movies)
}

// ForYou returns catalog movies in the caller's favorite genres
// @Summary Recommendations
// @Tags Movies
// @Produce json
// @Security Bearer
// @Success 200 {array} models.Movie
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse "No favorite genres set"
// @Router /api/movies/for-you [get]
func (h *MovieHandler) ForYou(c *fiber.Ctx) error {
	movies, err := h.recommend.ForYou(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(movies)
}

// Get returns one movie by TMDB id, or null
// @Summary Get movie
// @Tags Movies
// @Produce json
// @Param id path int true "TMDB id"
// @Success 200 {object} models.Movie
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/movies/{id} [get]
func (h *MovieHandler) Get(c *fiber.Ctx) error {
	id, err := movieIDParam(c, "id")
	if err != nil {
		return err
	}
	movie, err := h.catalog.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if movie == nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString("null")
	}
	return c.JSON(movie)
}

// Upsert adds or replaces a catalog entry keyed by TMDB id
// @Summary Add or update movie
// @Tags Movies
// @Accept json
// @Produce json
// @Security Bearer
// @Param movie body models.MovieDraft true "Movie"
// @Success 200 {object} models.Movie
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/movies [post]
func (h *MovieHandler) Upsert(c *fiber.Ctx) error {
	var draft models.MovieDraft
	if err := parseBody(c, &draft); err != nil {
		return err
	}
	movie, err := h.catalog.Upsert(c.UserContext(), draft, middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(movie)
}

// Delete removes a catalog entry; deleting a missing movie succeeds
// @Summary Delete movie
// @Tags Movies
// @Produce json
// @Security Bearer
// @Param id path int true "TMDB id"
// @Success 200 {object} map[string]interface{}
// @Router /api/movies/{id} [delete]
func (h *MovieHandler) Delete(c *fiber.Ctx) error {
	id, err := movieIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.Delete(c.UserContext(), id); err != nil {
		return err
	}
	h.logger.WithFields(logrus.Fields{
		"movie_id": id,
		"user_id":  middleware.GetUserID(c),
	}).Info("Movie deleted")
	return c.JSON(fiber.Map{"success": true})
}
