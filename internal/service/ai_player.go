package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
	"github.com/dougsaus/tic-tac-vibe/internal/entity"
	"github.com/dougsaus/tic-tac-vibe/internal/llm"
	"github.com/dougsaus/tic-tac-vibe/internal/metrics"
	"github.com/dougsaus/tic-tac-vibe/internal/tictactoe"
)

const (
	emptyCellSymbol = "."

	reasonNoProvider  = "noProvider"
	reasonInvalidMove = "invalidMove"
)

const promptTemplate = `Current Tic-Tac-Toe board state (0-indexed, top-left is 0,0):
%s
You are playing as '%s' against '%s'.
Empty cells are shown as '.'.
What is your next move? Play as optimally as possible.`

// movePattern takes the first "digit, digit" anywhere in the reply.
var movePattern = regexp.MustCompile(`(\d),\s*(\d)`)

type aiConfigProvider interface {
	LoadConfig(ctx context.Context) (*entity.AIConfig, error)
	GetConfig() (*entity.AIConfig, error)
	GetAPIKey(providerID string) (string, error)
	GetAvailableProvider() (string, bool)
}

type callerRegistry interface {
	Get(id string) (llm.Caller, error)
}

type rateLimiter interface {
	Allow(providerID string, limit *entity.RateLimit) bool
}

type moveOptions struct {
	difficulty string
}

type MoveOption func(*moveOptions)

// WithDifficulty selects the difficulty profile for one move.
func WithDifficulty(level string) MoveOption {
	return func(opts *moveOptions) {
		opts.difficulty = level
	}
}

// AIPlayer asks an LLM provider for the next move and falls back to a
// deterministic move whenever that fails.
type AIPlayer struct {
	logger   *slog.Logger
	config   aiConfigProvider
	registry callerRegistry
	limiters rateLimiter
	metrics  *metrics.Metrics
}

func NewAIPlayer(
	logger *slog.Logger,
	config aiConfigProvider,
	registry callerRegistry,
	limiters rateLimiter,
	metrics *metrics.Metrics,
) *AIPlayer {
	return &AIPlayer{
		logger:   logger.With("component", "ai-player"),
		config:   config,
		registry: registry,
		limiters: limiters,
		metrics:  metrics,
	}
}

func (that *AIPlayer) Initialize(ctx context.Context) error {
	if _, err := that.config.LoadConfig(ctx); err != nil {
		return fmt.Errorf("failed to initialize ai player: %w", err)
	}

	return nil
}

// GetMove returns an empty cell for the player holding selfSymbol. The only
// error is ErrNoMovesAvailable on a full board.
func (that *AIPlayer) GetMove(
	ctx context.Context,
	board entity.Board,
	selfSymbol, opponentSymbol string,
	opts ...MoveOption,
) (entity.Move, error) {
	log := that.logger.With("method", "GetMove")

	if board.IsFull() {
		return entity.Move{}, apperror.ErrNoMovesAvailable
	}

	options := moveOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	providerID, ok := that.config.GetAvailableProvider()
	if !ok {
		return that.fallback(log, board, "", reasonNoProvider, entity.MessageAPIKeyMissing, nil)
	}

	log = log.With("provider", providerID)

	move, err := that.requestMove(ctx, log, providerID, board, selfSymbol, opponentSymbol, options)
	if err != nil {
		kind := messageKind(err)
		return that.fallback(log, board, providerID, kind, kind, err)
	}

	if !board.IsEmpty(move) {
		err = fmt.Errorf("move %d,%d is off the board or taken", move.Row, move.Col)
		return that.fallback(log, board, providerID, reasonInvalidMove, entity.MessageInvalidResponse, err)
	}

	that.metrics.ObserveMove(providerID, metrics.SourceAI)
	log.Debug("ai move accepted", "row", move.Row, "col", move.Col)

	return move, nil
}

func (that *AIPlayer) requestMove(
	ctx context.Context,
	log *slog.Logger,
	providerID string,
	board entity.Board,
	selfSymbol, opponentSymbol string,
	options moveOptions,
) (entity.Move, error) {
	config, err := that.config.GetConfig()
	if err != nil {
		return entity.Move{}, err
	}

	provider, ok := config.Providers[providerID]
	if !ok {
		return entity.Move{}, fmt.Errorf("%w: %s", apperror.ErrUnknownProvider, providerID)
	}

	level, profile := config.Difficulty(options.difficulty)

	apiKey, err := that.config.GetAPIKey(providerID)
	if err != nil {
		return entity.Move{}, fmt.Errorf("failed to get api key: %w", err)
	}

	caller, err := that.registry.Get(providerID)
	if err != nil {
		return entity.Move{}, err
	}

	req := llm.Request{
		ProviderID: providerID,
		Provider:   provider,
		Difficulty: profile,
		Prompt:     buildPrompt(board, selfSymbol, opponentSymbol),
		APIKey:     apiKey,
	}

	notify := func(err error, wait time.Duration) {
		that.metrics.ObserveRetry(providerID)
		log.Warn("retrying provider call", "error", err, "wait", wait)
	}

	// Every attempt, retries included, takes a token.
	limited := llm.CallerFunc(func(ctx context.Context, req llm.Request) (string, error) {
		if !that.limiters.Allow(providerID, provider.RateLimit) {
			return "", fmt.Errorf("%w: %s", apperror.ErrRateLimited, providerID)
		}

		return caller.Complete(ctx, req)
	})

	start := time.Now()
	text, err := llm.Call(ctx, limited, req, notify)
	that.metrics.ObserveProviderCall(providerID, time.Since(start))

	if err != nil {
		return entity.Move{}, fmt.Errorf("provider call failed: %w", err)
	}

	log.Debug("provider replied", "difficulty", level, "reply", text)

	return parseMove(text)
}

func (that *AIPlayer) fallback(
	log *slog.Logger,
	board entity.Board,
	providerID, reason, kind string,
	cause error,
) (entity.Move, error) {
	message := kind
	if config, err := that.config.GetConfig(); err == nil {
		message = config.ErrorMessage(kind)
	}

	log.Warn("using fallback move", "reason", reason, "message", message, "error", cause)

	that.metrics.ObserveFallback(reason)
	that.metrics.ObserveMove(providerID, metrics.SourceFallback)

	move, err := tictactoe.FallbackMove(board)
	if err != nil {
		return entity.Move{}, fmt.Errorf("fallback move: %w", err)
	}

	return move, nil
}

// SimulateThinkingDelay waits a random duration within the configured move
// delay. It returns early with the context error when ctx is done.
func (that *AIPlayer) SimulateThinkingDelay(ctx context.Context) error {
	config, err := that.config.GetConfig()
	if err != nil {
		return err
	}

	timer := time.NewTimer(thinkingDelay(config.MoveDelay))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func thinkingDelay(delay entity.MoveDelay) time.Duration {
	lo, hi := max(delay.Min, 0), max(delay.Max, 0)
	if hi <= lo {
		return time.Duration(lo) * time.Millisecond
	}

	ms := lo + rand.Intn(hi-lo+1) //nolint: gosec // it's ok

	return time.Duration(ms) * time.Millisecond
}

// messageKind maps a failed request to an errorMessages key.
func messageKind(err error) string {
	var httpErr *apperror.ProviderHTTPError

	switch {
	case errors.Is(err, apperror.ErrRateLimited):
		return entity.MessageRateLimited
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests:
		return entity.MessageRateLimited
	case errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden):
		return entity.MessageAPIKeyMissing
	case errors.Is(err, context.DeadlineExceeded):
		return entity.MessageTimeout
	case errors.Is(err, apperror.ErrMoveParse), errors.Is(err, apperror.ErrProviderResponseShape):
		return entity.MessageInvalidResponse
	default:
		return entity.MessageNetworkError
	}
}

// formatBoard renders one line per row, cells separated by a space and "."
// for empty cells.
func formatBoard(board entity.Board) string {
	var sb strings.Builder

	for _, row := range board {
		cells := make([]string, len(row))
		for col, cell := range row {
			cells[col] = cell
			if cell == entity.EmptyCell {
				cells[col] = emptyCellSymbol
			}
		}

		sb.WriteString(strings.Join(cells, " "))
		sb.WriteByte('\n')
	}

	return sb.String()
}

func buildPrompt(board entity.Board, selfSymbol, opponentSymbol string) string {
	return fmt.Sprintf(promptTemplate, formatBoard(board), selfSymbol, opponentSymbol)
}

// parseMove reads the first "row,col" pair from text. The pair is not range
// checked.
func parseMove(text string) (entity.Move, error) {
	match := movePattern.FindStringSubmatch(text)
	if match == nil {
		return entity.Move{}, fmt.Errorf("%w: %q", apperror.ErrMoveParse, text)
	}

	row, _ := strconv.Atoi(match[1])
	col, _ := strconv.Atoi(match[2])

	return entity.Move{Row: row, Col: col}, nil
}
