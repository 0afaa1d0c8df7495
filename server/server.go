// Package server is the connection transport: it upgrades websocket clients,
// feeds their movement intents into the store, and hands their connections to
// the event hub for snapshot broadcasts.
package server

import (
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/akaeyuhi/GameLeaderTable/events"
	"github.com/akaeyuhi/GameLeaderTable/gamestate"
)

const (
	defaultPort      = "3001"
	shutdownDeadline = 5 * time.Second
)

type Server struct {
	app   *fiber.App
	store gamestate.Store
	hub   *events.EventHub

	port      string
	moveSpeed float64
	startSize float64

	running atomic.Bool
}

func New(store gamestate.Store, hub *events.EventHub, opts ...Option) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		store:     store,
		hub:       hub,
		port:      defaultPort,
		moveSpeed: 5,
		startSize: 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerHandlers()
	return s
}

func (s *Server) registerHandlers() {
	s.app.Get("/health", s.handleHealth)
	s.registerWebSocketHandler("/ws")
}

// Serve blocks until Shutdown is called or the listener fails.
func (s *Server) Serve() error {
	s.running.Store(true)
	defer s.running.Store(false)
	log.Info().Str("port", s.port).Msg("Serving")
	return eris.Wrap(s.app.Listen(":"+s.port), "failed to serve")
}

func (s *Server) Shutdown() error {
	return eris.Wrap(s.app.ShutdownWithTimeout(shutdownDeadline), "failed to shut down server")
}

func (s *Server) IsRunning() bool {
	return s.running.Load()
}
