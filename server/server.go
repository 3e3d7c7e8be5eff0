// Package server is the HTTP front door: inbound webhook triggers, the
// trigger log, and the websocket mount for the event bridge. It contains
// no orchestration logic of its own.
package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/xcaliber/xcaliber-bot/bot"
	"github.com/xcaliber/xcaliber-bot/bridge"
	"github.com/xcaliber/xcaliber-bot/scm"
)

// Server wires the fiber app around the orchestrator and the bridge hub.
type Server struct {
	app     *fiber.App
	log     *zap.SugaredLogger
	bot     *bot.Bot
	gateway scm.Gateway
	hub     *bridge.Hub

	// context decoupling trigger-driven work from individual requests
	baseCtx context.Context

	mu         sync.Mutex
	triggerLog []json.RawMessage
}

// New builds the server and registers all routes.
func New(ctx context.Context, b *bot.Bot, gateway scm.Gateway, hub *bridge.Hub, log *zap.SugaredLogger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			ReadTimeout:           30 * time.Second,
			DisableStartupMessage: true,
		}),
		log:        log,
		bot:        b,
		gateway:    gateway,
		hub:        hub,
		baseCtx:    ctx,
		triggerLog: make([]json.RawMessage, 0),
	}

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(requestLogger(log))

	s.routes()

	return s
}

// App exposes the fiber app; used by tests via app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the given address until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	s.app.Post("/hooks/pr", s.handlePullRequestHook)
	s.app.Post("/hooks/reviews/:number", s.handleCheckReviews)
	s.app.Post("/e2e/:number", s.handleRunTests)

	// trigger delivery/debugging surface
	s.app.Post("/", s.handleRecordTrigger)
	s.app.Get("/log", s.handleTriggerLog)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		s.hub.Serve(conn)
	}))
}

// requestLogger logs HTTP requests with method, path, status and duration.
func requestLogger(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		reqID, _ := c.Locals("requestid").(string)
		log.Infow("http",
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", c.Response().StatusCode(),
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
			"request_id", reqID,
		)

		return err
	}
}
