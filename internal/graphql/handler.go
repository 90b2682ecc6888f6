package graphql

import (
	"github.com/gofiber/fiber/v2"
	gql "github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/middleware"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type Handler struct {
	schema gql.Schema
	logger *logrus.Logger
}

func NewHandler(favorites Favorites, logger *logrus.Logger) (*Handler, error) {
	schema, err := NewSchema(favorites)
	if err != nil {
		return nil, err
	}
	return &Handler{schema: schema, logger: logger}, nil
}

// Handle serves POST /graphql. It expects the auth middleware to have run.
func (h *Handler) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return apperrors.BadRequest("Invalid GraphQL request body")
		}
		if req.Query == "" {
			return apperrors.BadRequest("GraphQL query is required")
		}

		ctx := WithAccount(c.UserContext(), middleware.CurrentAccount(c))
		result := gql.Do(gql.Params{
			Schema:         h.schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		if result.HasErrors() {
			h.logger.WithFields(logrus.Fields{
				"operation": req.OperationName,
				"errors":    len(result.Errors),
			}).Debug("GraphQL request returned errors")
		}
		return c.JSON(result)
	}
}
