package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
	"github.com/dougsaus/tic-tac-vibe/internal/entity"
	"github.com/dougsaus/tic-tac-vibe/internal/pkg"
	"github.com/dougsaus/tic-tac-vibe/internal/tictactoe"
)

var ErrPlayerNotInGame = errors.New("player is not in a game")

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type botService interface {
	MakeTurn(ctx context.Context, game *entity.Game) error
}

type GameManager struct {
	logger     *slog.Logger
	playerRepo playerRepo
	gameRepo   gameRepo
	bot        botService

	// randomMarks returns the human mark first.
	randomMarks func() (string, string)
}

func NewGameManager(logger *slog.Logger, playerRepo playerRepo, gameRepo gameRepo, bot botService) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game-manager"),

		playerRepo: playerRepo,
		gameRepo:   gameRepo,
		bot:        bot,

		randomMarks: (&entity.Game{}).GetRandomMarks,
	}
}

func (that *GameManager) CreatePlayer(ctx context.Context) (*entity.Player, error) {
	playerID, err := pkg.GenerateNewSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	player := &entity.Player{
		ID: playerID,
	}

	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

// CreateBotGame seats the player against the bot. Marks are drawn at random
// and the bot opens when it holds X. An empty difficulty means the AI
// config's default.
func (that *GameManager) CreateBotGame(ctx context.Context, playerID, difficulty string) (*entity.Game, error) {
	log := that.logger.With("method", "CreateBotGame", "player_id", playerID)

	if difficulty != "" && !entity.IsDifficulty(difficulty) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrUnknownDifficulty, difficulty)
	}

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	that.leaveGame(ctx, player)

	gameID, err := pkg.GenerateGameID()
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	game := entity.NewGame(gameID, entity.WithBotType)
	game.Difficulty = difficulty
	game.Status = entity.StatusOngoing

	humanMark, botMark := that.randomMarks()

	player.GameID = gameID
	player.Mark = humanMark

	bot := entity.NewBotPlayer(pkg.GenerateBotID(gameID), gameID)
	bot.Mark = botMark

	game.Players = []*entity.Player{player, bot}

	if game.Turn == bot.Mark {
		if err = that.bot.MakeTurn(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to make opening bot turn: %w", err)
		}
	}

	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	log.Info("bot game created", "game_id", gameID, "player_mark", humanMark, "difficulty", difficulty)

	return game, nil
}

// CreatePrivateGame opens a two-player game. The creator holds X and the game
// waits for a second player to join.
func (that *GameManager) CreatePrivateGame(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	that.leaveGame(ctx, player)

	gameID, err := pkg.GenerateGameID()
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	game := entity.NewGame(gameID, entity.PrivateType)

	player.GameID = gameID
	player.Mark = entity.PlayerX
	game.Players = []*entity.Player{player}

	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	that.logger.Info("private game created", "method", "CreatePrivateGame", "game_id", gameID, "player_id", playerID)

	return game, nil
}

// JoinGame takes the second seat of a waiting private game with O and starts
// it. Joining a game the player already sits in returns it unchanged.
func (that *GameManager) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	game, err := that.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID == game.ID {
		return game, nil
	}

	if game.Type != entity.PrivateType || !game.IsWaiting() || len(game.Players) >= 2 {
		return nil, fmt.Errorf("%w: game id %s", apperror.ErrGameNotJoinable, gameID)
	}

	that.leaveGame(ctx, player)

	player.GameID = game.ID
	player.Mark = entity.PlayerO
	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	game.Status = entity.StatusOngoing
	game.Players = append(game.Players, player)
	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	that.logger.Info("player joined game", "method", "JoinGame", "game_id", gameID, "player_id", playerID)

	return game, nil
}

// MakeTurn applies the player's move to gameID and, in a bot game, the bot's
// answer. The game must be the one the player currently sits in.
func (that *GameManager) MakeTurn(ctx context.Context, gameID, playerID string, cell int) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	game, err := that.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return nil, fmt.Errorf("failed make turn: %w", err)
	}

	if player.GameID != game.ID {
		return nil, fmt.Errorf("%w: game id %s", ErrPlayerNotInGame, gameID)
	}

	// A bot turn left pending by an interrupted request is played first.
	if game.IsWithBot() && game.Turn != player.Mark {
		if err = that.botTurn(ctx, game); err != nil {
			return nil, err
		}

		if err = that.updateGame(ctx, game); err != nil {
			return nil, err
		}
	}

	if err = tictactoe.MakeTurn(game, player.Mark, cell); err != nil {
		return nil, fmt.Errorf("failed make turn: %w", err)
	}

	if game.IsWithBot() && game.IsOngoing() {
		if err = that.botTurn(ctx, game); err != nil {
			return nil, err
		}
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	if game.IsFinished() {
		that.logger.Info("round finished", "method", "MakeTurn", "game_id", game.ID,
			"round", game.Round, "winner", game.Winner, "score", game.Score)
	}

	return game, nil
}

// NewRound restarts a finished game for another round and keeps its score. In
// a bot game the bot moves at once when it opens the round.
func (that *GameManager) NewRound(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	game, err := that.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if player.GameID != game.ID {
		return nil, fmt.Errorf("%w: game id %s", ErrPlayerNotInGame, gameID)
	}

	if err = game.NextRound(); err != nil {
		return nil, fmt.Errorf("failed to start new round: %w", err)
	}

	if bot := game.BotPlayer(); bot != nil && game.Turn == bot.Mark {
		if err = that.botTurn(ctx, game); err != nil {
			return nil, err
		}
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	that.logger.Info("new round started", "method", "NewRound", "game_id", game.ID, "round", game.Round)

	return game, nil
}

func (that *GameManager) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// botTurn lets the bot move. On failure the game is saved as it stands so the
// moves already made are kept, and the bot moves on the next request.
func (that *GameManager) botTurn(ctx context.Context, game *entity.Game) error {
	err := that.bot.MakeTurn(ctx, game)
	if err == nil {
		return nil
	}

	if saveErr := that.updateGame(context.WithoutCancel(ctx), game); saveErr != nil {
		that.logger.Error("failed to save game after bot failure", "method", "botTurn", "game_id", game.ID, "error", saveErr)
	}

	return fmt.Errorf("failed to make bot turn: %w", err)
}

// leaveGame drops the player's current game unless another human sits in it.
// Such a private game is left to expire.
func (that *GameManager) leaveGame(ctx context.Context, player *entity.Player) {
	if player.GameID == "" {
		return
	}

	log := that.logger.With("method", "leaveGame", "game_id", player.GameID)

	game, err := that.gameRepo.GetByID(ctx, player.GameID)
	if err != nil {
		log.Debug("previous game is gone", "error", err)
		return
	}

	if game.HumanCount() > 1 {
		return
	}

	if err = that.gameRepo.DeleteByID(ctx, game.ID); err != nil {
		log.Warn("failed to delete abandoned game", "error", err)
	}
}

func (that *GameManager) getPlayerByID(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (that *GameManager) updatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}
