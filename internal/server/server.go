// Package server wires the dependency graph and the route table.
//
// This is the composition root: config comes in, and every layer is
// constructed here in order — DB → repositories → auth services → business
// services → handlers → router. Each layer receives only the interfaces it
// needs; nothing below this package knows how the others are built.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tumgpt/chat-backend/internal/auth"
	"github.com/tumgpt/chat-backend/internal/config"
	"github.com/tumgpt/chat-backend/internal/handler"
	"github.com/tumgpt/chat-backend/internal/middleware"
	sqliteRepo "github.com/tumgpt/chat-backend/internal/repository/sqlite"
	"github.com/tumgpt/chat-backend/internal/service"
)

// Server owns the router and the database connection. The DB is closed
// during graceful shutdown, after in-flight requests have drained.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds a Server from config.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly so tests can drive the full stack with
// httptest without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources outside of Start's shutdown path.
// Tests that never call Start use this.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes assembles the dependency chain and binds it to URLs.
//
// Middleware order: RequestID → RealIP → Recoverer → request logging, then
// RequireAuth on the protected groups only. Register, login, and password
// recovery are the only anonymous routes.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	userService := service.NewUserService(
		s.db.Users(), tokens, passwords, s.logger,
		s.cfg.LoginTokenTTL, s.cfg.ResetTokenTTL,
	)
	chatService := service.NewChatService(s.db.Messages(), service.StubResponder{}, s.logger)

	userHandler := handler.NewUserHandler(userService, s.logger)
	chatHandler := handler.NewChatHandler(chatService, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db.Users())

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/login", userHandler.HandleLogin)
		r.Post("/recover-password", userHandler.HandleRecoverPassword)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", userHandler.HandleList)
			r.Get("/me", userHandler.HandleMe)
			r.Get("/user/{user_id}", userHandler.HandleGetByID)
			r.Put("/update", userHandler.HandleUpdate)
			r.Post("/logout", userHandler.HandleLogout)
			r.Delete("/delete-account", userHandler.HandleDeleteAccount)
		})
	})

	s.router.Route("/chat", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/send", chatHandler.HandleSend)
		r.Get("/", chatHandler.HandleListAll)
		r.Get("/user/{user_id}", chatHandler.HandleListByUser)
		r.Get("/collection/{collection}", chatHandler.HandleListCollection)
		r.Get("/c/{chat_id}", chatHandler.HandleGet)
		r.Put("/update/{chat_id}", chatHandler.HandleUpdate)
		r.Delete("/delete/{chat_id}", chatHandler.HandleDelete)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30 seconds
// to drain, and close the database last so the WAL is checkpointed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("env", s.cfg.Env),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
