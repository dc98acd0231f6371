// Package httpapi exposes the application over HTTP. All operations go
// through a single action-dispatch endpoint: POST /api/v1/actions with
// an {"action": ...} body.
package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/voltdex/internal/core/ports/driving"
	"github.com/custodia-labs/voltdex/internal/logger"
)

// Server wraps the fiber app and its route setup.
type Server struct {
	app *fiber.App
}

// NewServer builds the HTTP server over the driving services.
func NewServer(ingest driving.IngestService, query driving.QueryService) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	handler := NewActionHandler(ingest, query)

	app.Get("/check/healthy", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Post("/api/v1/actions", handler.HandleAction)

	return &Server{app: app}
}

// Listen blocks serving requests on addr.
func (s *Server) Listen(addr string) error {
	logger.Info("HTTP API listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
