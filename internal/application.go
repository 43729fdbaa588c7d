package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dougsaus/tic-tac-vibe/internal/config"
	"github.com/dougsaus/tic-tac-vibe/internal/llm"
	"github.com/dougsaus/tic-tac-vibe/internal/metrics"
	"github.com/dougsaus/tic-tac-vibe/internal/repository"
	"github.com/dougsaus/tic-tac-vibe/internal/repository/storage"
	"github.com/dougsaus/tic-tac-vibe/internal/service"
	"github.com/dougsaus/tic-tac-vibe/internal/usecase"
	"github.com/dougsaus/tic-tac-vibe/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	if conf.Redis.Host == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, storage.RedisOptions{
		Addr:     conf.Redis.GetRedisAddr(),
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	playerRepo := repository.NewPlayerRepository(redisStorage.Connection, conf.Redis.TTL)
	gameRepo := repository.NewGameRepository(redisStorage.Connection, conf.Redis.TTL)

	appMetrics := metrics.NewDefault()

	aiPlayer, err := newAIPlayer(ctx, logger, conf.AI, appMetrics)
	if err != nil {
		return err
	}

	botService := service.NewBotService(logger, aiPlayer, conf.AI.ThinkingDelay)
	gameManager := usecase.NewGameManager(logger, playerRepo, gameRepo, botService)

	router := rest.NewRouter(logger, gameManager, localConfigPath(conf.AI.ConfigSource), appMetrics.Handler())

	if err = rest.Start(ctx, logger, conf.HTTPPort, router); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

// newAIPlayer builds the AI player and loads its config. A load failure
// leaves the bot on fallback moves.
func newAIPlayer(ctx context.Context, logger *slog.Logger, conf config.AI, appMetrics *metrics.Metrics) (*service.AIPlayer, error) {
	log := logger.With("component", "app")

	credentials, err := conf.LoadCredentials(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("could not load ai credentials: %w", err)
	}

	httpClient := &http.Client{Timeout: conf.HTTPTimeout}

	loader := service.NewAIConfigLoader(
		logger,
		repository.NewAIConfigSource(conf.ConfigSource, httpClient),
		credentials,
		appMetrics,
	)

	aiPlayer := service.NewAIPlayer(logger, loader, llm.NewDefaultRegistry(httpClient), llm.NewLimiters(), appMetrics)

	if err = aiPlayer.Initialize(ctx); err != nil {
		log.Warn("AI unavailable, the bot will play fallback moves", "error", err)
		return aiPlayer, nil
	}

	if provider, ok := loader.GetAvailableProvider(); ok {
		log.Info("AI ready", "provider", provider)
	} else {
		log.Warn("no AI provider has credentials, the bot will play fallback moves")
	}

	return aiPlayer, nil
}

// localConfigPath returns source when it names a local file.
func localConfigPath(source string) string {
	if source == "" {
		return repository.DefaultAIConfigPath
	}

	if repository.IsRemoteAIConfig(source) {
		return ""
	}

	return source
}
