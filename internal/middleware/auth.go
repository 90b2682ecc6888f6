package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/session"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

const (
	localAccount = "account"
	localUserID  = "user_id"
	localClaims  = "user_claims"
	localCaller  = "caller_id"

	tokenCookie = "token"

	msgNotAuthorized   = "Not authorized to access this route"
	msgAccountNotFound = "Account not found"
)

// TokenVerifier checks a session token.
type TokenVerifier interface {
	Verify(token string) (*session.Claims, error)
}

// AccountResolver loads the account named by a token.
type AccountResolver interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	denylist session.Denylist
	accounts AccountResolver
	logger   *logrus.Logger
}

func NewAuthMiddleware(verifier TokenVerifier, denylist session.Denylist, accounts AccountResolver, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		denylist: denylist,
		accounts: accounts,
		logger:   logger,
	}
}

// Authenticate rejects requests without a valid, unrevoked token for an
// existing account.
func (a *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return apperrors.Unauthenticated(msgNotAuthorized)
		}

		claims, err := a.verifier.Verify(token)
		if err != nil {
			// expired and malformed tokens get the same answer
			a.logger.WithError(err).WithField("path", c.Path()).Debug("Token validation failed")
			return apperrors.Unauthenticated(msgNotAuthorized)
		}

		if a.denylist != nil && claims.ID != "" {
			revoked, err := a.denylist.IsRevoked(c.UserContext(), claims.ID)
			if err != nil {
				return apperrors.Internal(fmt.Errorf("check revocation: %w", err))
			}
			if revoked {
				return apperrors.Unauthenticated(msgNotAuthorized)
			}
		}

		account, err := a.accounts.FindByID(c.UserContext(), claims.AccountID)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return appErr
			}
			return apperrors.Internal(err)
		}
		if account == nil {
			return apperrors.Unauthenticated(msgAccountNotFound)
		}

		c.Locals(localAccount, account)
		c.Locals(localUserID, account.ID)
		c.Locals(localClaims, claims)
		return c.Next()
	}
}

// Identify records the account id of a validly signed token without
// rejecting anything. Revocation and account existence are left to
// Authenticate; the id only keys per-caller limits.
func (a *AuthMiddleware) Identify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := extractToken(c); token != "" {
			if claims, err := a.verifier.Verify(token); err == nil && claims.AccountID != "" {
				c.Locals(localCaller, claims.AccountID)
			}
		}
		return c.Next()
	}
}

// Authorize allows only the listed roles. It must run after Authenticate.
func (a *AuthMiddleware) Authorize(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account := CurrentAccount(c)
		if account == nil {
			return apperrors.Unauthenticated(msgNotAuthorized)
		}
		role := account.Role()
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return apperrors.Forbidden(fmt.Sprintf("User role %s is not authorized to access this route", role))
	}
}

// extractToken reads the bearer token, falling back to the token cookie.
func extractToken(c *fiber.Ctx) string {
	const bearerPrefix = "Bearer "
	if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, bearerPrefix) {
		if token := strings.TrimSpace(header[len(bearerPrefix):]); token != "" {
			return token
		}
	}
	return c.Cookies(tokenCookie)
}

// CurrentAccount returns the authenticated account, or nil.
func CurrentAccount(c *fiber.Ctx) *models.Account {
	if account, ok := c.Locals(localAccount).(*models.Account); ok {
		return account
	}
	return nil
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals(localUserID).(string); ok {
		return userID
	}
	return ""
}

// GetUserClaims extracts the verified token claims from context
func GetUserClaims(c *fiber.Ctx) *session.Claims {
	if claims, ok := c.Locals(localClaims).(*session.Claims); ok {
		return claims
	}
	return nil
}

// CallerID returns the authenticated account id, else the one Identify saw.
func CallerID(c *fiber.Ctx) string {
	if userID := GetUserID(c); userID != "" {
		return userID
	}
	if callerID, ok := c.Locals(localCaller).(string); ok {
		return callerID
	}
	return ""
}
