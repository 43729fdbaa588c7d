package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
	"github.com/dougsaus/tic-tac-vibe/internal/entity"
	"github.com/dougsaus/tic-tac-vibe/internal/tictactoe"
)

var ErrBotNotFound = errors.New("bot player not found")

type BotService interface {
	MakeTurn(ctx context.Context, game *entity.Game) error
}

type moveRequester interface {
	GetMove(ctx context.Context, board entity.Board, selfSymbol, opponentSymbol string, opts ...MoveOption) (entity.Move, error)
	SimulateThinkingDelay(ctx context.Context) error
}

type botService struct {
	logger        *slog.Logger
	ai            moveRequester
	thinkingDelay bool
}

// NewBotService plays the bot seat with ai. With thinkingDelay the bot waits
// the configured move delay before each move.
func NewBotService(logger *slog.Logger, ai moveRequester, thinkingDelay bool) BotService {
	return &botService{
		logger:        logger.With("component", "bot"),
		ai:            ai,
		thinkingDelay: thinkingDelay,
	}
}

func (that *botService) MakeTurn(ctx context.Context, game *entity.Game) error {
	log := that.logger.With("method", "MakeTurn", "game_id", game.ID)

	if err := game.ConfirmOngoingState(); err != nil {
		return fmt.Errorf("bot cannot move: %w", err)
	}

	botPlayer := game.BotPlayer()
	if botPlayer == nil {
		return ErrBotNotFound
	}

	if game.Turn != botPlayer.Mark {
		return apperror.ErrNotYourTurn
	}

	if that.thinkingDelay {
		if err := that.ai.SimulateThinkingDelay(ctx); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("bot interrupted: %w", err)
			}

			log.Debug("skipping thinking delay", "error", err)
		}
	}

	move, err := that.ai.GetMove(ctx, game.Snapshot(), botPlayer.Mark, entity.ToggleMark(botPlayer.Mark),
		WithDifficulty(game.Difficulty))
	if err != nil {
		return fmt.Errorf("bot failed to choose a move: %w", err)
	}

	if err = tictactoe.MakeTurn(game, botPlayer.Mark, move.Cell()); err != nil {
		return fmt.Errorf("bot failed to make turn: %w", err)
	}

	log.Info("bot made turn", "row", move.Row, "col", move.Col, "status", game.Status)

	return nil
}
