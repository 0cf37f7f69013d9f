// Package server exposes the resume search service over HTTP.
//
// Authentication is delegated to an upstream gateway which verifies the
// caller and forwards the identity in the X-User-ID header; this server
// trusts that header and scopes every operation to it.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/hupe1980/resumevec"
)

// Options contains configuration options for the HTTP server.
type Options struct {
	// AppName is reported in the Server header and startup banner.
	AppName string

	// BodyLimit caps request body size in bytes. Should be slightly above
	// the service's upload ceiling to leave room for multipart framing.
	BodyLimit int

	// ReadTimeout/WriteTimeout bound a single request/response exchange.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultOptions contains the default configuration options for the HTTP server.
var DefaultOptions = Options{
	AppName:      "resumevec",
	BodyLimit:    12 << 20,
	ReadTimeout:  30 * time.Second,
	WriteTimeout: 30 * time.Second,
}

// Server serves the resume search HTTP API.
type Server struct {
	app *fiber.App
}

// New creates a new HTTP server around the given service.
func New(svc *resumevec.Service, optFns ...func(o *Options)) *Server {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	app := fiber.New(fiber.Config{
		AppName:      opts.AppName,
		BodyLimit:    opts.BodyLimit,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "resumes": svc.Len()})
	})

	h := &handler{svc: svc}

	api := app.Group("/api/v1", RequirePrincipal())
	api.Post("/resumes", h.Upload)
	api.Get("/resumes", h.List)
	api.Get("/resumes/:id", h.Get)
	api.Delete("/resumes/:id", h.Delete)
	api.Get("/resumes/:id/similar", h.Similar)
	api.Post("/search", h.Search)

	return &Server{app: app}
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
