package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start runs the HTTP server and blocks until an interrupt or terminate
// signal arrives, then shuts down gracefully.
func (s *Server) Start() {
	go func() {
		if err := s.E.Start(s.Cfg.Addr); err != nil && err != http.ErrServerClosed {
			s.E.Logger.Fatalf("shutting down the server: %v", err)
		}
	}()
	slog.Info("server started", "addr", s.Cfg.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.shutdown(ctx); err != nil {
		s.E.Logger.Fatal(err)
	}
}

// shutdown drains the HTTP and WebSocket side before closing the bus, so
// disconnect handling during teardown can still publish roster updates.
func (s *Server) shutdown(ctx context.Context) error {
	if err := s.E.Shutdown(ctx); err != nil {
		return err
	}
	if err := s.Bus.Close(); err != nil {
		slog.Error("failed to close bus", "error", err)
	}
	return nil
}
