// Package server exposes the extraction pipeline over HTTP.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslips-tracker/internal/storage"
)

// HeaderUserID carries the caller identity set by the auth gateway in front of this service.
const HeaderUserID = "X-User-ID"

type Extractor interface {
	Extract(ctx context.Context, documentID uuid.UUID, userID string) (pipeline.Outcome, error)
}

// FileOpener serves token-protected local downloads.
type FileOpener interface {
	Open(path, token string) ([]byte, error)
}

// Pinger reports store health for /healthz.
type Pinger func(ctx context.Context) error

type Options struct {
	Extractor Extractor
	// Files mounts the local download route when set.
	Files FileOpener
	Ping  Pinger
	// RequestTimeout bounds one extraction request; zero means no limit beyond the client's.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

type Server struct {
	opts   Options
	logger *slog.Logger
}

// New builds the fiber app with its routes registered.
func New(opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{opts: opts, logger: opts.Logger}

	app := fiber.New(fiber.Config{
		AppName:               "payslips-tracker",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
		ReadTimeout:           30 * time.Second,
		UnescapePath:          true,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: func() string { return uuid.NewString() },
	}))
	app.Use(s.accessLog)

	app.Get("/healthz", s.health)
	v1 := app.Group("/v1")
	v1.Post("/documents/:id/extract", s.extract)
	if opts.Files != nil {
		app.Get(storage.LocalFilesRoute+"*", s.file)
	}
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"code": "NOT_FOUND", "message": "route not found"})
	})
	return app
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("http.request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return err
}

func (s *Server) health(c *fiber.Ctx) error {
	if s.opts.Ping != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()
		if err := s.opts.Ping(ctx); err != nil {
			s.logger.Warn("http.health.degraded", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
