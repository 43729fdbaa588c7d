package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
	"github.com/tidwall/gjson"
)

const (
	roleSystem = "system"
	roleUser   = "user"

	replyPath = "choices.0.message.content"

	maxErrorBody = 4 << 10
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest always sends temperature, zero included.
type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatCompletion calls an OpenAI style chat completions endpoint.
type ChatCompletion struct {
	client *http.Client
}

func NewChatCompletion(client *http.Client) *ChatCompletion {
	if client == nil {
		client = http.DefaultClient
	}

	return &ChatCompletion{client: client}
}

func (that *ChatCompletion) Complete(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: req.Provider.Model,
		Messages: []chatMessage{
			{Role: roleSystem, Content: req.Difficulty.SystemPrompt},
			{Role: roleUser, Content: req.Prompt},
		},
		Temperature: req.Difficulty.Temperature,
		MaxTokens:   req.Difficulty.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Provider.APIEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := that.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

		return "", &apperror.ProviderHTTPError{
			Provider:   req.ProviderID,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	content := gjson.GetBytes(body, replyPath)
	if content.Type != gjson.String {
		return "", fmt.Errorf("%w: %s is missing or not a string", apperror.ErrProviderResponseShape, replyPath)
	}

	return strings.TrimSpace(content.String()), nil
}
