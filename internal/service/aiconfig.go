package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
	"github.com/dougsaus/tic-tac-vibe/internal/entity"
	"github.com/dougsaus/tic-tac-vibe/internal/metrics"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

const loadKey = "ai-config"

type aiConfigSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// AIConfigLoader loads ai-config.json once and answers provider questions
// from the cached copy.
type AIConfigLoader struct {
	logger      *slog.Logger
	source      aiConfigSource
	credentials map[string]string
	metrics     *metrics.Metrics

	group singleflight.Group

	mu     sync.RWMutex
	config *entity.AIConfig
}

// NewAIConfigLoader keeps credentials as given: env-var name to secret.
func NewAIConfigLoader(
	logger *slog.Logger,
	source aiConfigSource,
	credentials map[string]string,
	metrics *metrics.Metrics,
) *AIConfigLoader {
	return &AIConfigLoader{
		logger:      logger.With("component", "ai-config"),
		source:      source,
		credentials: credentials,
		metrics:     metrics,
	}
}

// LoadConfig returns the cached config or fetches and validates it. Failures
// are not cached. Concurrent first calls share one fetch.
func (that *AIConfigLoader) LoadConfig(ctx context.Context) (*entity.AIConfig, error) {
	if config, err := that.GetConfig(); err == nil {
		return config, nil
	}

	// The shared fetch outlives any single caller; each caller stops waiting
	// when its own ctx is done.
	results := that.group.DoChan(loadKey, func() (any, error) {
		if config, err := that.GetConfig(); err == nil {
			return config, nil
		}

		config, err := that.fetch(context.WithoutCancel(ctx))
		if err != nil {
			that.metrics.ObserveConfigLoad("failure")

			return nil, err
		}

		that.mu.Lock()
		that.config = config
		that.mu.Unlock()

		that.metrics.ObserveConfigLoad("success")

		return config, nil
	})

	var result singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to load ai config: %w", ctx.Err())
	case result = <-results:
	}

	if result.Err != nil {
		that.logger.Error("failed to load ai config", "error", result.Err)

		return nil, fmt.Errorf("failed to load ai config: %w", result.Err)
	}

	config, _ := result.Val.(*entity.AIConfig)

	return config, nil
}

func (that *AIConfigLoader) fetch(ctx context.Context) (*entity.AIConfig, error) {
	body, err := that.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid json", apperror.ErrConfigFetch)
	}

	if err = validateAIConfig(gjson.ParseBytes(body)); err != nil {
		return nil, err
	}

	var config entity.AIConfig
	if err = json.Unmarshal(body, &config); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, invalidField(typeErr.Field, "expected "+typeErr.Type.String()+", got "+typeErr.Value)
		}

		return nil, fmt.Errorf("%w: %w", apperror.ErrConfigFetch, err)
	}

	that.logger.Info("ai config loaded",
		"providers", len(config.Providers),
		"default_provider", config.DefaultProvider,
		"fallback_providers", config.FallbackProviders,
	)

	return &config, nil
}

// GetConfig returns the cached config or ErrNotLoaded.
func (that *AIConfigLoader) GetConfig() (*entity.AIConfig, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.config == nil {
		return nil, apperror.ErrNotLoaded
	}

	return that.config, nil
}

// GetAPIKey prefers the inline apiKey and then the credential named by
// apiKeyEnvVar. An empty string means no credential resolves.
func (that *AIConfigLoader) GetAPIKey(providerID string) (string, error) {
	config, err := that.GetConfig()
	if err != nil {
		return "", err
	}

	provider, ok := config.Providers[providerID]
	if !ok {
		return "", fmt.Errorf("%w: %s", apperror.ErrUnknownProvider, providerID)
	}

	if provider.APIKey != "" {
		return provider.APIKey, nil
	}

	if provider.APIKeyEnvVar == "" {
		return "", nil
	}

	return that.credentials[provider.APIKeyEnvVar], nil
}

// IsProviderAvailable reports whether the provider exists, is enabled and
// has a credential. Any error means false.
func (that *AIConfigLoader) IsProviderAvailable(providerID string) bool {
	config, err := that.GetConfig()
	if err != nil {
		return false
	}

	provider, ok := config.Providers[providerID]
	if !ok || !provider.Enabled {
		return false
	}

	key, err := that.GetAPIKey(providerID)

	return err == nil && key != ""
}

// GetAvailableProvider tries the default provider and then the fallback list
// in order. False means no provider can be used.
func (that *AIConfigLoader) GetAvailableProvider() (string, bool) {
	config, err := that.GetConfig()
	if err != nil {
		return "", false
	}

	if that.IsProviderAvailable(config.DefaultProvider) {
		return config.DefaultProvider, true
	}

	for _, providerID := range config.FallbackProviders {
		if that.IsProviderAvailable(providerID) {
			return providerID, true
		}
	}

	return "", false
}
