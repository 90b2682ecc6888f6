package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/traffic-tacos/movie-api/internal/favorites"
	"github.com/traffic-tacos/movie-api/internal/middleware"
)

type FavoriteHandler struct {
	favorites *favorites.Service
}

func NewFavoriteHandler(favorites *favorites.Service) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// List returns the caller's favorites
// @Summary List favorites
// @Tags Favorites
// @Produce json
// @Security Bearer
// @Success 200 {object} map[string]interface{}
// @Router /api/favorites [get]
func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	movies, err := h.favorites.List(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "favorites": movies})
}

// Add marks a catalog movie as favorite
// @Summary Add favorite
// @Tags Favorites
// @Produce json
// @Security Bearer
// @Param movieId path int true "TMDB id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apperrors.ErrorResponse "Movie not found"
// @Failure 409 {object} apperrors.ErrorResponse "Already in favorites"
// @Router /api/favorites/{movieId} [post]
func (h *FavoriteHandler) Add(c *fiber.Ctx) error {
	id, err := movieIDParam(c, "movieId")
	if err != nil {
		return err
	}
	movies, err := h.favorites.Add(c.UserContext(), middleware.GetUserID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "favorites": movies})
}

// Remove drops a movie from the favorites
// @Summary Remove favorite
// @Tags Favorites
// @Produce json
// @Security Bearer
// @Param movieId path int true "TMDB id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apperrors.ErrorResponse "Movie not found in database"
// @Router /api/favorites/{movieId} [delete]
func (h *FavoriteHandler) Remove(c *fiber.Ctx) error {
	id, err := movieIDParam(c, "movieId")
	if err != nil {
		return err
	}
	movies, err := h.favorites.Remove(c.UserContext(), middleware.GetUserID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   favorites.RemovedMessage,
		"favorites": movies,
	})
}
