package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
	"github.com/dougsaus/tic-tac-vibe/internal/entity"
	"github.com/dougsaus/tic-tac-vibe/internal/repository"
	"github.com/dougsaus/tic-tac-vibe/internal/usecase"
)

const maxBodyBytes = 1 << 20

var errNotYourGame = errors.New("player is not part of this game")

var errUnknownGameType = errors.New("unknown game type")

type gameManager interface {
	CreatePlayer(ctx context.Context) (*entity.Player, error)
	CreateBotGame(ctx context.Context, playerID, difficulty string) (*entity.Game, error)
	CreatePrivateGame(ctx context.Context, playerID string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	MakeTurn(ctx context.Context, gameID, playerID string, cell int) (*entity.Game, error)
	NewRound(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGame(ctx context.Context, gameID string) (*entity.Game, error)
}

// createGameRequest defaults to a bot game when Type is empty.
type createGameRequest struct {
	PlayerID   string `json:"player_id"`
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

type turnRequest struct {
	PlayerID string `json:"player_id"`
	Cell     *int   `json:"cell"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type GameHandlers struct {
	logger *slog.Logger
	games  gameManager
}

func NewGameHandlers(logger *slog.Logger, games gameManager) *GameHandlers {
	return &GameHandlers{
		logger: logger.With("component", "rest"),
		games:  games,
	}
}

func (that *GameHandlers) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	player, err := that.games.CreatePlayer(r.Context())
	if err != nil {
		that.sendError(w, "CreatePlayer", err)
		return
	}

	that.sendJSON(w, http.StatusCreated, player)
}

func (that *GameHandlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if !that.decode(w, r, &req) {
		return
	}

	if req.PlayerID == "" {
		that.sendJSON(w, http.StatusBadRequest, errorResponse{Error: "player_id is required"})
		return
	}

	var (
		game *entity.Game
		err  error
	)

	switch req.Type {
	case "", entity.WithBotType:
		game, err = that.games.CreateBotGame(r.Context(), req.PlayerID, req.Difficulty)
	case entity.PrivateType:
		game, err = that.games.CreatePrivateGame(r.Context(), req.PlayerID)
	default:
		err = fmt.Errorf("%w: %s", errUnknownGameType, req.Type)
	}

	if err != nil {
		that.sendError(w, "CreateGame", err)
		return
	}

	that.sendJSON(w, http.StatusCreated, game)
}

func (that *GameHandlers) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !that.decode(w, r, &req) {
		return
	}

	if req.PlayerID == "" {
		that.sendJSON(w, http.StatusBadRequest, errorResponse{Error: "player_id is required"})
		return
	}

	game, err := that.games.JoinGame(r.Context(), r.PathValue("id"), req.PlayerID)
	if err != nil {
		that.sendError(w, "JoinGame", err)
		return
	}

	that.sendJSON(w, http.StatusOK, game)
}

func (that *GameHandlers) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		that.sendError(w, "GetGame", err)
		return
	}

	that.sendJSON(w, http.StatusOK, game)
}

func (that *GameHandlers) MakeTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if !that.decode(w, r, &req) {
		return
	}

	if req.PlayerID == "" || req.Cell == nil {
		that.sendJSON(w, http.StatusBadRequest, errorResponse{Error: "player_id and cell are required"})
		return
	}

	gameID := r.PathValue("id")
	if !that.requireSeat(w, r, "MakeTurn", gameID, req.PlayerID) {
		return
	}

	game, err := that.games.MakeTurn(r.Context(), gameID, req.PlayerID, *req.Cell)
	if err != nil {
		that.sendError(w, "MakeTurn", err)
		return
	}

	that.sendJSON(w, http.StatusOK, game)
}

func (that *GameHandlers) NewRound(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !that.decode(w, r, &req) {
		return
	}

	if req.PlayerID == "" {
		that.sendJSON(w, http.StatusBadRequest, errorResponse{Error: "player_id is required"})
		return
	}

	gameID := r.PathValue("id")
	if !that.requireSeat(w, r, "NewRound", gameID, req.PlayerID) {
		return
	}

	game, err := that.games.NewRound(r.Context(), gameID, req.PlayerID)
	if err != nil {
		that.sendError(w, "NewRound", err)
		return
	}

	that.sendJSON(w, http.StatusOK, game)
}

// requireSeat answers 403 unless playerID holds a seat in gameID.
func (that *GameHandlers) requireSeat(w http.ResponseWriter, r *http.Request, method, gameID, playerID string) bool {
	game, err := that.games.GetGame(r.Context(), gameID)
	if err != nil {
		that.sendError(w, method, err)
		return false
	}

	if !game.HasPlayer(playerID) {
		that.sendError(w, method, errNotYourGame)
		return false
	}

	return true
}

func (that *GameHandlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		that.sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}

	return true
}

func (that *GameHandlers) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

func (that *GameHandlers) sendError(w http.ResponseWriter, method string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
		that.sendJSON(w, status, errorResponse{Error: "internal server error"})

		return
	}

	that.logger.Debug("request rejected", "method", method, "error", err)
	that.sendJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrPlayerNotFound), errors.Is(err, repository.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, apperror.ErrUnknownDifficulty),
		errors.Is(err, errUnknownGameType):
		return http.StatusBadRequest
	case errors.Is(err, errNotYourGame):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, apperror.ErrGameNotJoinable),
		errors.Is(err, apperror.ErrRoundInProgress),
		errors.Is(err, usecase.ErrPlayerNotInGame):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
