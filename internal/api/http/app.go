package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/i474232898/obhavo-bot/internal/channel"
	"github.com/i474232898/obhavo-bot/internal/digest"
	"github.com/i474232898/obhavo-bot/internal/metrics"
	"github.com/i474232898/obhavo-bot/internal/user"
	"github.com/i474232898/obhavo-bot/internal/weather"
)

const serviceName = "obhavo-bot"

// Deps are the collaborators behind the admin API.
type Deps struct {
	Cache    weather.Store
	Registry channel.Registry
	Users    user.Store
	Digests  DigestService
	Gatherer prometheus.Gatherer
	// AccessLog enables the request logging middleware.
	AccessLog bool
}

// NewApp builds the admin Fiber app with all routes registered.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          errorHandler,
	})

	if deps.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(deps.Gatherer)))
	}

	RegisterRoutes(app, deps.Cache, deps.Registry, deps.Users, deps.Digests)
	return app
}

// errorHandler maps domain errors to status codes in one place.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var (
		fe *fiber.Error
		ve validator.ValidationErrors
	)
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.As(err, &ve):
		code = fiber.StatusBadRequest
	case errors.Is(err, channel.ErrNotFound), errors.Is(err, user.ErrNotFound), errors.Is(err, weather.ErrSnapshotUnavailable):
		code = fiber.StatusNotFound
	case errors.Is(err, channel.ErrDuplicate):
		code = fiber.StatusConflict
	case errors.Is(err, digest.ErrDeliveryFailed):
		code = fiber.StatusBadGateway
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
