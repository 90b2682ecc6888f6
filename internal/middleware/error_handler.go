package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

// fiberCodes maps the framework's own errors (unknown route, bad method,
// oversized body) onto API codes.
var fiberCodes = map[int]apperrors.ErrorCode{
	fiber.StatusBadRequest:            apperrors.CodeBadRequest,
	fiber.StatusUnauthorized:          apperrors.CodeUnauthenticated,
	fiber.StatusForbidden:             apperrors.CodeForbidden,
	fiber.StatusNotFound:              apperrors.CodeNotFound,
	fiber.StatusMethodNotAllowed:      apperrors.CodeNotFound,
	fiber.StatusConflict:              apperrors.CodeConflict,
	fiber.StatusRequestEntityTooLarge: apperrors.CodeBadRequest,
	fiber.StatusUnprocessableEntity:   apperrors.CodeValidation,
	fiber.StatusTooManyRequests:       apperrors.CodeRateLimited,
	fiber.StatusServiceUnavailable:    apperrors.CodeUpstreamUnavailable,
	fiber.StatusGatewayTimeout:        apperrors.CodeUpstreamTimeout,
}

// NewErrorHandler renders every error as the JSON error envelope. Causes of
// internal errors are logged and never sent to the client.
func NewErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := toAppError(err)
		status := appErr.HTTPStatus()

		if status >= fiber.StatusInternalServerError {
			entry := logger.WithFields(logrus.Fields{
				"method":     c.Method(),
				"path":       c.Path(),
				"status":     status,
				"code":       appErr.Code,
				"request_id": RequestID(c),
			})
			if appErr.Cause != nil {
				entry = entry.WithError(appErr.Cause)
			}
			entry.Error("Request failed")
		}

		return c.Status(status).JSON(appErr.ToErrorResponse(RequestID(c)))
	}
}

func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		if fiberErr.Code >= fiber.StatusInternalServerError && fiberErr.Code != fiber.StatusServiceUnavailable &&
			fiberErr.Code != fiber.StatusGatewayTimeout {
			return apperrors.Internal(err)
		}
		code, ok := fiberCodes[fiberErr.Code]
		if !ok {
			code = apperrors.CodeBadRequest
		}
		return apperrors.NewAppError(code, fiberErr.Message, nil)
	}

	return apperrors.Internal(err)
}

// RequestID returns the id assigned by the requestid middleware.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID, c.Get(fiber.HeaderXRequestID))
}
