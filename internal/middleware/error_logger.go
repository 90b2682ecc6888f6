package middleware

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/logging"
)

const (
	maxLoggedBody = 500
	redacted      = "[REDACTED]"
)

var sensitiveFields = []string{"password", "token", "currentPassword", "newPassword"}

type ErrorLoggerMiddleware struct {
	logger       *logrus.Logger
	errorHandler fiber.ErrorHandler
}

func NewErrorLoggerMiddleware(logger *logrus.Logger, errorHandler fiber.ErrorHandler) *ErrorLoggerMiddleware {
	return &ErrorLoggerMiddleware{
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// Handle logs 4xx and 5xx responses with request context. Handler errors
// are rendered here first so the final status is known.
func (e *ErrorLoggerMiddleware) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		startTime := time.Now()

		err := c.Next()
		if err != nil {
			if herr := e.errorHandler(c, err); herr != nil {
				return herr
			}
		}

		statusCode := c.Response().StatusCode()
		if statusCode < fiber.StatusBadRequest {
			return nil
		}
		duration := time.Since(startTime)

		logFields := logrus.Fields{
			"ip":            c.IP(),
			"user_agent":    c.Get(fiber.HeaderUserAgent),
			"request_id":    RequestID(c),
			"response_size": len(c.Response().Body()),
		}
		if traceID := TraceID(c.UserContext()); traceID != "" {
			logFields["trace_id"] = traceID
		}
		if userID := GetUserID(c); userID != "" {
			logFields["user_id"] = userID
		}
		if query := c.Request().URI().QueryString(); len(query) > 0 {
			logFields["query"] = string(query)
		}

		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
			if body := redactBody(c.Body()); body != "" {
				logFields["request_body"] = truncate(body)
			}
		}
		if body := c.Response().Body(); len(body) > 0 {
			logFields["response_body"] = truncate(string(body))
		}

		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}
		entry := logging.WithRequest(e.logger, c.Method(), route, statusCode, float64(duration.Microseconds())/1000).
			WithFields(logFields)

		if statusCode >= fiber.StatusInternalServerError {
			if err != nil {
				entry = entry.WithError(err)
			}
			entry.Error("Server error response")
		} else {
			entry.Warn("Client error response")
		}
		return nil
	}
}

// redactBody masks credential fields of a JSON object body. Bodies that are
// not JSON objects are dropped.
func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, field := range sensitiveFields {
		if _, ok := payload[field]; ok {
			payload[field] = redacted
		}
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(out)
}

func truncate(s string) string {
	if len(s) > maxLoggedBody {
		return s[:maxLoggedBody] + "...(truncated)"
	}
	return s
}
