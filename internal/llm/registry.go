// Package llm holds the provider call strategies of the AI player.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alphadose/haxmap"
	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
	"github.com/dougsaus/tic-tac-vibe/internal/entity"
)

const (
	ChatGPT = "chatgpt"
	Gemini  = "gemini"
	Claude  = "claude"
)

// Request carries everything a strategy needs for one completion.
type Request struct {
	ProviderID string
	Provider   entity.ProviderConfig
	Difficulty entity.DifficultyProfile
	Prompt     string
	APIKey     string
}

// Caller sends a prompt to a provider and returns the reply text.
type Caller interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type CallerFunc func(ctx context.Context, req Request) (string, error)

func (that CallerFunc) Complete(ctx context.Context, req Request) (string, error) {
	return that(ctx, req)
}

// Registry maps provider ids to call strategies. It is safe for concurrent use.
type Registry struct {
	callers *haxmap.Map[string, Caller]
}

func NewRegistry() *Registry {
	return &Registry{
		callers: haxmap.New[string, Caller](),
	}
}

// NewDefaultRegistry registers the chat-completion strategy and the
// not-yet-implemented gemini and claude strategies.
func NewDefaultRegistry(client *http.Client) *Registry {
	registry := NewRegistry()
	registry.Register(ChatGPT, NewChatCompletion(client))
	registry.Register(Gemini, notImplemented(Gemini))
	registry.Register(Claude, notImplemented(Claude))

	return registry
}

// Register adds or replaces the strategy for id.
func (that *Registry) Register(id string, caller Caller) {
	that.callers.Set(id, caller)
}

func (that *Registry) Get(id string) (Caller, error) {
	caller, ok := that.callers.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: no call strategy for %q", apperror.ErrUnknownProvider, id)
	}

	return caller, nil
}
