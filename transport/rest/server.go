package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// Start serves handler on port until ctx is done, then shuts down gracefully.
func Start(ctx context.Context, logger *slog.Logger, port string, handler http.Handler) error {
	log := logger.With("component", "http")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}

	log.Info("HTTP server stopped")

	return nil
}

// NewRouter wires the REST endpoints. An empty aiConfigPath or nil metrics
// leaves that route out.
func NewRouter(logger *slog.Logger, games gameManager, aiConfigPath string, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", NewPingHandler().PingHandler)
	if aiConfigPath != "" {
		mux.Handle("GET /ai-config.json", NewAIConfigHandler(logger, aiConfigPath))
	}

	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	handlers := NewGameHandlers(logger, games)
	mux.HandleFunc("POST /players", handlers.CreatePlayer)
	mux.HandleFunc("POST /games", handlers.CreateGame)
	mux.HandleFunc("GET /games/{id}", handlers.GetGame)
	mux.HandleFunc("POST /games/{id}/players", handlers.JoinGame)
	mux.HandleFunc("POST /games/{id}/turns", handlers.MakeTurn)
	mux.HandleFunc("POST /games/{id}/rounds", handlers.NewRound)

	return mux
}
