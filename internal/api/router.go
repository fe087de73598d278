package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/card-statement-converter/internal/metrics"
	"github.com/insightdelivered/card-statement-converter/internal/models"
	"github.com/insightdelivered/card-statement-converter/internal/processor"
)

// Config holds the server settings the app needs.
type Config struct {
	CORSAllowOrigins   []string
	RateLimitPerSecond float64
	RateLimitBurst     int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
}

// NewApp wires middleware and routes. rec may be nil, which disables
// /metrics and request metrics.
func NewApp(cfg Config, h *Handler, log zerolog.Logger, rec *metrics.Recorder) *fiber.App {
	// Leave headroom over the upload limit so oversized files still reach
	// upload validation and get the detailed size message.
	bodyLimit := int(h.processor.Limits().MaxFileSize) + 1<<20

	app := fiber.New(fiber.Config{
		AppName:               "card-statement-converter",
		BodyLimit:             bodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	var observer RequestObserver
	if rec != nil {
		observer = rec
	}

	app.Use(requestid.New())
	app.Use(RequestLogger(log, observer))
	app.Use(recover.New())

	origins := cfg.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)
	api.Get("/banks", h.HandleBanks)
	api.Get("/stats", h.HandleStats)

	convert := []fiber.Handler{}
	if cfg.RateLimitPerSecond > 0 {
		convert = append(convert, NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst).Handler())
	}
	convert = append(convert, h.HandleConvert)
	api.Post("/convert", convert...)

	if rec != nil {
		app.Get("/metrics", adaptor.HTTPHandler(rec.Handler()))
	}

	return app
}

// errorHandler renders framework errors (unknown routes, oversized bodies,
// recovered panics) in the standard envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code >= fiber.StatusInternalServerError {
		return c.Status(code).JSON(models.ErrorResult(processor.MessageUnexpected, "Internal error"))
	}
	return c.Status(code).JSON(models.ErrorResult(fe.Message))
}
