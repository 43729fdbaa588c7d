package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
)

const DefaultAIConfigPath = "./ai-config.json"

// AIConfigSource returns the raw bytes of ai-config.json.
type AIConfigSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type httpAIConfig struct {
	url    string
	client *http.Client
}

type fileAIConfig struct {
	path string
}

// NewAIConfigSource fetches over HTTP for http(s) locations and reads a local
// file otherwise. An empty location means DefaultAIConfigPath.
func NewAIConfigSource(location string, client *http.Client) AIConfigSource {
	if location == "" {
		location = DefaultAIConfigPath
	}

	if IsRemoteAIConfig(location) {
		if client == nil {
			client = http.DefaultClient
		}

		return &httpAIConfig{url: location, client: client}
	}

	return &fileAIConfig{path: location}
}

// IsRemoteAIConfig reports whether location is fetched over HTTP.
func IsRemoteAIConfig(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func (that *httpAIConfig) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, that.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrConfigFetch, err)
	}

	resp, err := that.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrConfigFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s responded with %s", apperror.ErrConfigFetch, that.url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", apperror.ErrConfigFetch, err)
	}

	return body, nil
}

func (that *fileAIConfig) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrConfigFetch, err)
	}

	body, err := os.ReadFile(that.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrConfigFetch, err)
	}

	return body, nil
}
