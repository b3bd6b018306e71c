package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/country-data-aggregation/internal/aggregation"
	"github.com/i474232898/country-data-aggregation/internal/auth"
)

var validate = validator.New()

// Aggregator is the orchestration the HTTP layer exposes.
type Aggregator interface {
	Aggregate(ctx context.Context, countryName string, newsPageSize int, fromDate string) aggregation.AggregatedResponse
}

// Deps holds what the routes need. Auth is always used for token issuing;
// RequireAuth additionally guards the aggregation group with it.
type Deps struct {
	Aggregator  Aggregator
	Auth        *auth.Service
	RequireAuth bool
	// RequestTimeout bounds one aggregation. fasthttp does not report client
	// disconnects, so this deadline is what cancels slow sources.
	RequestTimeout time.Duration
	Clock          clock.Clock
	Logger         *zap.Logger
}

// DefaultRequestTimeout stays below the server write timeout so the
// response can still be written.
const DefaultRequestTimeout = 25 * time.Second

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = DefaultRequestTimeout
	}

	api := app.Group("/api")

	api.Post("/auth/token", func(c *fiber.Ctx) error {
		var req tokenRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(aggregation.Failure("Malformed request body.", aggregation.StatusBadRequest))
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(aggregation.Failure("User name and password are required.", aggregation.StatusBadRequest))
		}

		tok, err := deps.Auth.Issue(req.UserName, req.Password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			deps.Logger.Info("token request rejected", zap.String("user", req.UserName))
			return c.Status(fiber.StatusUnauthorized).
				JSON(aggregation.Failure("Unauthorized", aggregation.StatusUnauthorized))
		case errors.Is(err, auth.ErrSecretNotConfigured):
			return fiber.NewError(fiber.StatusInternalServerError, auth.MessageSecretMissing)
		case err != nil:
			return err
		}

		return c.JSON(tok)
	})

	group := api.Group("/aggregate")
	if deps.RequireAuth {
		group.Use(auth.Middleware(deps.Auth, deps.Logger))
	}

	group.Get("/healthcheck", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "Healthy",
			"timestamp": deps.Clock.Now().UTC().Format(time.RFC3339),
		})
	})

	group.Get("/getdata", func(c *fiber.Ctx) error {
		q := parseAggregateQuery(c)

		deps.Logger.Debug("aggregate request",
			zap.String("country", q.CountryName),
			zap.Int("newsPageSize", q.NewsPageSize),
			zap.String("fromDate", q.FromDate))

		ctx, cancel := context.WithTimeout(c.UserContext(), deps.RequestTimeout)
		defer cancel()

		result := deps.Aggregator.Aggregate(ctx, q.CountryName, q.NewsPageSize, q.FromDate)
		return c.JSON(result)
	})
}

// ErrorHandler renders unexpected faults as an error envelope.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("unhandled request error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return c.Status(code).JSON(aggregation.Failure(err.Error(), aggregation.StatusError))
	}
}

type tokenRequest struct {
	UserName string `json:"userName" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// aggregateQuery holds the getdata query parameters. Validation of the values
// is left to the service, which reports it inside the response.
type aggregateQuery struct {
	CountryName  string
	NewsPageSize int
	FromDate     string
}

// parseAggregateQuery reads the query string. A non-numeric page size counts
// as unset.
func parseAggregateQuery(c *fiber.Ctx) aggregateQuery {
	q := aggregateQuery{
		CountryName: c.Query("countryName"),
		FromDate:    c.Query("fromDate"),
	}
	if n, err := strconv.Atoi(c.Query("newsPageSize")); err == nil {
		q.NewsPageSize = n
	}
	return q
}
