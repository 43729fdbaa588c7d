package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
)

// inlineKeyField is the provider field holding an inline credential.
const inlineKeyField = "apiKey"

// NewAIConfigHandler serves the AI config file to browser clients with every
// inline provider key removed. The file is read on each request.
func NewAIConfigHandler(logger *slog.Logger, path string) http.Handler {
	log := logger.With("component", "rest", "method", "AIConfig")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}

		if err == nil {
			body, err = redactAIConfig(body)
		}

		if err != nil {
			log.Error("failed to serve ai config", "path", path, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(body)
	})
}

// redactAIConfig drops the inline key of every provider and keeps the rest
// of the document as is.
func redactAIConfig(body []byte) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var doc map[string]any
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode ai config: %w", err)
	}

	if providers, ok := doc["providers"].(map[string]any); ok {
		for _, provider := range providers {
			if fields, ok := provider.(map[string]any); ok {
				delete(fields, inlineKeyField)
			}
		}
	}

	redacted, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode ai config: %w", err)
	}

	return redacted, nil
}
