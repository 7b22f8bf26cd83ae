// Package main is the entry point for the chat backend.
//
// main stays minimal: load config, build the logger, create the data
// directory, hand everything to internal/server. All real logic lives in the
// internal packages so it's testable without a process boundary.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tumgpt/chat-backend/internal/config"
	"github.com/tumgpt/chat-backend/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet — config failures go to stderr directly.
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Env == "development" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// The sqlite file lives under a data directory; create it up front so a
	// missing directory fails here with a clear error, not inside the driver.
	if dir := filepath.Dir(cfg.DBPath); dir != "." && dir != ":" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
