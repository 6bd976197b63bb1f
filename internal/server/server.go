package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/parley/internal/chat"
	"github.com/nfrund/parley/internal/config"
	"github.com/nfrund/parley/internal/conversation"
	"github.com/nfrund/parley/internal/logging"
	"github.com/nfrund/parley/internal/pubsub"
	"github.com/nfrund/parley/internal/session"
	"github.com/nfrund/parley/internal/websocket"
	"github.com/nfrund/parley/web/pages"
)

// Server holds the wired application: the HTTP surface, the in-process bus
// and the routing core behind it.
type Server struct {
	E      *echo.Echo
	Cfg    *config.Config
	Bus    pubsub.Bus
	Bridge *websocket.Bridge

	registry *session.Registry
	store    *conversation.Store
}

// New wires all components and registers the routes. State lives for the
// process lifetime only; nothing is persisted.
func New() *Server {
	logging.New()
	cfg := config.New()

	bus := pubsub.NewWatermillBridge()
	registry := session.NewRegistry()
	store := conversation.NewStore()

	emitter := websocket.NewBusEmitter(bus)
	presence := chat.NewPresence(registry, emitter)
	router := chat.NewRouter(registry, store, presence, emitter)

	bridge := websocket.NewBridge(router, cfg.SendBufferSize)
	if err := bridge.Start(context.Background(), bus); err != nil {
		slog.Error("failed to start websocket bridge", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		E:        e,
		Cfg:      cfg,
		Bus:      bus,
		Bridge:   bridge,
		registry: registry,
		store:    store,
	}
	s.registerRoutes()
	return s
}

// Registry exposes the connection registry, useful for tests.
func (s *Server) Registry() *session.Registry {
	return s.registry
}

// Store exposes the conversation store, useful for tests.
func (s *Server) Store() *conversation.Store {
	return s.store
}

func (s *Server) registerRoutes() {
	s.E.GET("/", s.homeGet)
	s.E.GET("/ws", s.Bridge.Handler())
	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}

// homeGet serves the single static entry page.
func (s *Server) homeGet(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return pages.Chat().Render(c.Response())
}
