package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/traffic-tacos/movie-api/internal/accounts"
	"github.com/traffic-tacos/movie-api/internal/middleware"
	"github.com/traffic-tacos/movie-api/internal/models"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

// UserHandler serves account administration.
type UserHandler struct {
	accounts *accounts.Service
}

func NewUserHandler(accounts *accounts.Service) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// List returns every account
// @Summary List accounts
// @Tags Users
// @Produce json
// @Security Bearer
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	list, err := h.accounts.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(list),
		"data":    list,
	})
}

// Get returns one account
// @Summary Get account
// @Tags Users
// @Produce json
// @Security Bearer
// @Param id path string true "Account id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/users/{id} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	account, err := h.accounts.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": account})
}

// Update changes an account. Callers may update themselves; administrators
// may update anyone.
// @Summary Update account
// @Tags Users
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Account id"
// @Param request body models.UpdateAccountRequest true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/users/{id} [put]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	actor := middleware.CurrentAccount(c)
	id := c.Params("id")
	if actor == nil || (actor.ID != id && !actor.IsAdmin) {
		return apperrors.Forbidden("Not authorized to update this user")
	}

	var req models.UpdateAccountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.Update(c.UserContext(), id, req, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": account})
}

// Delete removes an account
// @Summary Delete account
// @Tags Users
// @Produce json
// @Security Bearer
// @Param id path string true "Account id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/users/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	if err := h.accounts.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{}})
}
