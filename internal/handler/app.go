package handler

import (
	"errors"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
)

// NewApp creates the Fiber app with the service-wide middleware stack.
// Routes are mounted by the caller.
func NewApp(bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Movie Aggregator",
		ServerHeader: "Movie-Aggregator",
		BodyLimit:    bodyLimit,
		UnescapePath: true,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				slog.Error("unhandled error", "error", err, "status", code, "request_id", requestid.FromContext(c))
			}
			return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New())
	app.Use(cors.New())

	return app
}
