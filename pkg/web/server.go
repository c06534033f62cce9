// Package web exposes the HTTP control surface for the robot runtime.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/grumpylabs/reachy-runtime/internal/log"
	"github.com/grumpylabs/reachy-runtime/pkg/audit"
	"github.com/grumpylabs/reachy-runtime/pkg/events"
	"github.com/grumpylabs/reachy-runtime/pkg/runtime"
)

// RecentReader reads back recent action records.
type RecentReader interface {
	Recent(limit int) ([]audit.Record, error)
}

// Server is the HTTP API server.
type Server struct {
	app    *fiber.App
	port   string
	rt     *runtime.App
	hub    *events.Hub
	recent RecentReader
}

// NewServer builds the API server around a running runtime. recent may be
// nil when no audit store is configured.
func NewServer(port string, rt *runtime.App, hub *events.Hub, recent RecentReader) *Server {
	s := &Server{
		port:   port,
		rt:     rt,
		hub:    hub,
		recent: recent,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Reachy Runtime",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Post("/robot/actions", s.handleEnqueueAction)
	api.Get("/robot/status", s.handleStatus)
	api.Get("/robot/actions/recent", s.handleRecentActions)

	api.Post("/moves/head", s.handleQueueHead)
	api.Post("/moves/dance", s.handleQueueDance)
	api.Post("/moves/emotion", s.handleQueueEmotion)
	api.Delete("/moves/dance", s.handleClearDance)
	api.Delete("/moves/emotion", s.handleClearEmotion)

	api.Post("/tracking", s.handleTracking)
	api.Post("/listening", s.handleListening)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start listens on the configured port and blocks until shutdown.
func (s *Server) Start() error {
	log.Component("web").Info("listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handleEventsWS streams runtime events to a websocket client.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	if s.hub == nil {
		c.Close()
		return
	}
	events.NewClient(s.hub, c).Run()
}
