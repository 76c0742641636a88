package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/prepmate/prepmate/pkg/session"
	"github.com/prepmate/prepmate/pkg/storage"
)

// Server is the API server for managing interview sessions.
type Server struct {
	config     Config
	store      storage.Store
	controller *session.Controller
	logger     *zap.Logger
	app        *fiber.App
}

// NewServer creates a new API server.
// The store is injected to allow sharing with other components.
func NewServer(config Config, store storage.Store, controller *session.Controller, logger *zap.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("api: store is required")
	}
	if controller == nil {
		return nil, errors.New("api: controller is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:     config,
		store:      store,
		controller: controller,
		logger:     logger,
		app:        app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/sessions", s.handleCreateSession)
	app.Get("/sessions", s.handleListSessions)
	app.Get("/sessions/:id", s.handleGetSession)
	app.Delete("/sessions/:id", s.handleDeleteSession)
	app.Post("/sessions/:id/turns", s.handleTurn)

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
