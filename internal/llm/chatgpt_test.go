package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
	"github.com/dougsaus/tic-tac-vibe/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatRequest(endpoint string) Request {
	return Request{
		ProviderID: ChatGPT,
		Provider: entity.ProviderConfig{
			Name:        "ChatGPT",
			Enabled:     true,
			APIEndpoint: endpoint,
			Model:       "gpt-4o-mini",
		},
		Difficulty: entity.DifficultyProfile{
			Name:         "Hard",
			SystemPrompt: "You are a perfect player.",
			Temperature:  0,
			MaxTokens:    50,
		},
		Prompt: "What is your next move?",
		APIKey: "sk-test",
	}
}

func TestChatCompletion_Complete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Given: a provider that answers with a move
		var captured map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  1,2 \n"}}]}`))
		}))
		defer server.Close()

		// When: a completion is requested
		text, err := NewChatCompletion(server.Client()).Complete(context.Background(), newChatRequest(server.URL))

		// Then: the trimmed reply is returned and the body carries the profile
		require.NoError(t, err)
		assert.Equal(t, "1,2", text)

		assert.Equal(t, "gpt-4o-mini", captured["model"])
		assert.Contains(t, captured, "temperature")
		assert.InDelta(t, 0.0, captured["temperature"], 0)
		assert.InDelta(t, 50.0, captured["max_tokens"], 0)

		messages, ok := captured["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 2)
		assert.Equal(t, map[string]any{"role": "system", "content": "You are a perfect player."}, messages[0])
		assert.Equal(t, map[string]any{"role": "user", "content": "What is your next move?"}, messages[1])
	})

	t.Run("Non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
		}))
		defer server.Close()

		_, err := NewChatCompletion(server.Client()).Complete(context.Background(), newChatRequest(server.URL))

		require.ErrorIs(t, err, apperror.ErrProviderHTTP)

		var httpErr *apperror.ProviderHTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
		assert.Equal(t, ChatGPT, httpErr.Provider)
		assert.False(t, httpErr.Transient())
	})

	testCases := []struct {
		name string
		body string
	}{
		{name: "No choices", body: `{"choices":[]}`},
		{name: "Content is not a string", body: `{"choices":[{"message":{"content":42}}]}`},
		{name: "Content is null", body: `{"choices":[{"message":{"content":null}}]}`},
		{name: "Body is not json", body: `upstream error`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewChatCompletion(server.Client()).Complete(context.Background(), newChatRequest(server.URL))

			assert.ErrorIs(t, err, apperror.ErrProviderResponseShape)
		})
	}

	t.Run("Empty string content is a valid reply", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
		}))
		defer server.Close()

		text, err := NewChatCompletion(server.Client()).Complete(context.Background(), newChatRequest(server.URL))

		require.NoError(t, err)
		assert.Empty(t, text)
	})
}

func TestRegistry(t *testing.T) {
	registry := NewDefaultRegistry(nil)

	t.Run("Known providers", func(t *testing.T) {
		caller, err := registry.Get(ChatGPT)
		require.NoError(t, err)
		assert.IsType(t, &ChatCompletion{}, caller)
	})

	t.Run("Stub providers", func(t *testing.T) {
		for _, id := range []string{Gemini, Claude} {
			caller, err := registry.Get(id)
			require.NoError(t, err)

			_, err = caller.Complete(context.Background(), Request{ProviderID: id})
			assert.ErrorIs(t, err, apperror.ErrProviderNotImplemented)
		}
	})

	t.Run("Unknown provider", func(t *testing.T) {
		_, err := registry.Get("llama")

		assert.ErrorIs(t, err, apperror.ErrUnknownProvider)
	})

	t.Run("New providers register without other changes", func(t *testing.T) {
		registry.Register("echo", CallerFunc(func(_ context.Context, req Request) (string, error) {
			return req.Prompt, nil
		}))

		caller, err := registry.Get("echo")
		require.NoError(t, err)

		text, err := caller.Complete(context.Background(), Request{Prompt: "0,0"})
		require.NoError(t, err)
		assert.Equal(t, "0,0", text)
	})
}
