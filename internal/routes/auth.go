package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/accounts"
	"github.com/traffic-tacos/movie-api/internal/metrics"
	"github.com/traffic-tacos/movie-api/internal/middleware"
	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/session"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	accounts *accounts.Service
	issuer   *session.Issuer
	denylist session.Denylist
	logger   *logrus.Logger
}

func NewAuthHandler(accounts *accounts.Service, issuer *session.Issuer, denylist session.Denylist, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		issuer:   issuer,
		denylist: denylist,
		logger:   logger,
	}
}

// Signup registers an account
// @Summary Register
// @Description Create an account and return a session token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration data"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} apperrors.ErrorResponse "Validation failed"
// @Failure 409 {object} apperrors.ErrorResponse "Username or email taken"
// @Router /api/auth/signup [post]
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		metrics.RecordAuthEvent("signup", "failure")
		return err
	}

	account, err := h.accounts.Create(c.UserContext(), req)
	if err != nil {
		metrics.RecordAuthEvent("signup", "failure")
		return err
	}

	token, _, err := h.issuer.Issue(account)
	if err != nil {
		metrics.RecordAuthEvent("signup", "failure")
		return apperrors.Internal(err)
	}
	metrics.RecordAuthEvent("signup", "success")

	return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
		Success: true,
		Token:   token,
		User:    account.Summarize(),
	})
}

// Login handles user login
// @Summary User login
// @Description Authenticate by email and password and return a session token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} apperrors.ErrorResponse "Missing fields"
// @Failure 401 {object} apperrors.ErrorResponse "Invalid credentials"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		metrics.RecordAuthEvent("login", "failure")
		return err
	}

	account, err := h.accounts.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		metrics.RecordAuthEvent("login", "failure")
		h.logger.WithField("email", req.Email).Debug("Login rejected")
		return err
	}

	token, _, err := h.issuer.Issue(account)
	if err != nil {
		metrics.RecordAuthEvent("login", "failure")
		return apperrors.Internal(err)
	}
	metrics.RecordAuthEvent("login", "success")

	return c.JSON(models.AuthResponse{
		Success: true,
		Token:   token,
		User:    account.Summarize(),
	})
}

// Me returns the caller's account
// @Summary Current account
// @Tags Auth
// @Produce json
// @Security Bearer
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    middleware.CurrentAccount(c),
	})
}

// Verify echoes the claims of a valid token
// @Summary Verify token
// @Tags Auth
// @Produce json
// @Security Bearer
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/auth/verify [get]
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"user":    middleware.GetUserClaims(c),
	})
}

// Logout revokes the presented token
// @Summary Logout
// @Tags Auth
// @Produce json
// @Security Bearer
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims := middleware.GetUserClaims(c)
	if claims == nil {
		return apperrors.Unauthenticated("Not authorized to access this route")
	}

	until := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := h.denylist.Revoke(c.UserContext(), claims.ID, until); err != nil {
		metrics.RecordAuthEvent("logout", "failure")
		return apperrors.Internal(err)
	}
	metrics.RecordAuthEvent("logout", "success")

	h.logger.WithField("user_id", claims.AccountID).Info("Session revoked")

	c.ClearCookie("token")
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}
