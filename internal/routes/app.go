package routes

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/tinytitans-bjj/community-backend/internal/config"
	"github.com/tinytitans-bjj/community-backend/internal/dto"
	"github.com/tinytitans-bjj/community-backend/internal/middleware"
)

// NewApp builds the Fiber app with the global middleware stack. Extra
// middleware (such as Sentry) runs first.
func NewApp(cfg *config.Config, extra ...fiber.Handler) *fiber.App {
	// Bodies are not streamed. A Content-Length over BodyLimit gets 413 before
	// reading; multipart file parts over 16 MiB spill to temp files. Chunked
	// bodies are held in memory up to BodyLimit.
	app := fiber.New(fiber.Config{
		AppName:      "community-backend",
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: customErrorHandler,
	})

	for _, h := range extra {
		app.Use(h)
	}
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())
	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(),
			"request_id", c.Locals("requestid"), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
	})
}
