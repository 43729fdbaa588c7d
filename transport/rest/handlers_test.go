package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
	"github.com/dougsaus/tic-tac-vibe/internal/entity"
	"github.com/dougsaus/tic-tac-vibe/internal/repository"
	"github.com/dougsaus/tic-tac-vibe/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGameManager struct {
	mock.Mock
}

func (that *mockGameManager) CreatePlayer(ctx context.Context) (*entity.Player, error) {
	args := that.Called(ctx)
	player, _ := args.Get(0).(*entity.Player)

	return player, args.Error(1)
}

func (that *mockGameManager) CreateBotGame(ctx context.Context, playerID, difficulty string) (*entity.Game, error) {
	args := that.Called(ctx, playerID, difficulty)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameManager) CreatePrivateGame(ctx context.Context, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameManager) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, gameID, playerID)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameManager) MakeTurn(ctx context.Context, gameID, playerID string, cell int) (*entity.Game, error) {
	args := that.Called(ctx, gameID, playerID, cell)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameManager) NewRound(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, gameID, playerID)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameManager) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	args := that.Called(ctx, gameID)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

const testAIConfig = `{
	"defaultProvider": "chatgpt",
	"providers": {
		"chatgpt": {"enabled": true, "apiKey": "sk-inline-secret", "apiKeyEnvVar": "OPENAI_API_KEY", "timeout": 10000},
		"claude": {"enabled": false, "apiKeyEnvVar": "ANTHROPIC_API_KEY"}
	}
}`

func newTestRouter(t *testing.T, games *mockGameManager) http.Handler {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ai-config.json")
	require.NoError(t, os.WriteFile(path, []byte(testAIConfig), 0o600))

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	t.Cleanup(func() { games.AssertExpectations(t) })

	return NewRouter(suite.NewLogger(), games, path, metrics)
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, target, strings.NewReader(body)))

	return recorder
}

func seatedGame(playerID string) *entity.Game {
	game := entity.NewGame("game-1", entity.WithBotType)
	game.Status = entity.StatusOngoing
	game.Players = []*entity.Player{{ID: playerID, GameID: game.ID, Mark: entity.PlayerX}}

	return game
}

func TestRouter_Static(t *testing.T) {
	router := newTestRouter(t, &mockGameManager{})

	t.Run("Ping", func(t *testing.T) {
		recorder := serve(router, http.MethodGet, "/ping", "")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "pong", recorder.Body.String())
	})

	t.Run("AI config", func(t *testing.T) {
		recorder := serve(router, http.MethodGet, "/ai-config.json", "")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
		assert.NotContains(t, recorder.Body.String(), "sk-inline-secret")
		assert.JSONEq(t, `{
			"defaultProvider": "chatgpt",
			"providers": {
				"chatgpt": {"enabled": true, "apiKeyEnvVar": "OPENAI_API_KEY", "timeout": 10000},
				"claude": {"enabled": false, "apiKeyEnvVar": "ANTHROPIC_API_KEY"}
			}
		}`, recorder.Body.String())
	})

	t.Run("Metrics", func(t *testing.T) {
		recorder := serve(router, http.MethodGet, "/metrics", "")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "# metrics", recorder.Body.String())
	})
}

func TestGameHandlers_CreatePlayer(t *testing.T) {
	games := &mockGameManager{}
	router := newTestRouter(t, games)

	games.On("CreatePlayer", mock.Anything).Return(&entity.Player{ID: "player-1"}, nil).Once()

	recorder := serve(router, http.MethodPost, "/players", "")

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.JSONEq(t, `{"id":"player-1"}`, recorder.Body.String())
}

func TestGameHandlers_CreateGame(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		// Given: a player asking for a hard bot game
		games := &mockGameManager{}
		router := newTestRouter(t, games)
		games.On("CreateBotGame", mock.Anything, "player-1", entity.HardDifficulty).
			Return(seatedGame("player-1"), nil).
			Once()

		// When: the game is requested
		recorder := serve(router, http.MethodPost, "/games", `{"player_id":"player-1","difficulty":"hard"}`)

		// Then: the new game is returned
		require.Equal(t, http.StatusCreated, recorder.Code)

		var game entity.Game
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &game))
		assert.Equal(t, "game-1", game.ID)
		assert.Equal(t, entity.PlayerX, game.Turn)
	})

	t.Run("Private game", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		waiting := entity.NewGame("game-2", entity.PrivateType)
		games.On("CreatePrivateGame", mock.Anything, "player-1").Return(waiting, nil).Once()

		recorder := serve(router, http.MethodPost, "/games", `{"player_id":"player-1","type":"private"}`)

		require.Equal(t, http.StatusCreated, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"status":"waiting"`)
	})

	t.Run("Unknown game type", func(t *testing.T) {
		router := newTestRouter(t, &mockGameManager{})

		recorder := serve(router, http.MethodPost, "/games", `{"player_id":"player-1","type":"tournament"}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Unknown difficulty", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)
		games.On("CreateBotGame", mock.Anything, "player-1", "impossible").
			Return(nil, fmt.Errorf("%w: impossible", apperror.ErrUnknownDifficulty)).
			Once()

		recorder := serve(router, http.MethodPost, "/games", `{"player_id":"player-1","difficulty":"impossible"}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Unknown player", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)
		games.On("CreateBotGame", mock.Anything, "ghost", "").
			Return(nil, fmt.Errorf("failed to get player: %w", repository.ErrPlayerNotFound)).
			Once()

		recorder := serve(router, http.MethodPost, "/games", `{"player_id":"ghost"}`)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("Malformed body", func(t *testing.T) {
		router := newTestRouter(t, &mockGameManager{})

		assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/games", `{`).Code)
		assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/games", `{}`).Code)
	})
}

func TestGameHandlers_GetGame(t *testing.T) {
	games := &mockGameManager{}
	router := newTestRouter(t, games)

	games.On("GetGame", mock.Anything, "game-1").Return(seatedGame("player-1"), nil).Once()
	games.On("GetGame", mock.Anything, "missing").
		Return(nil, fmt.Errorf("failed to get game: %w", repository.ErrGameNotFound)).
		Once()

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/games/game-1", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/games/missing", "").Code)
}

func TestGameHandlers_MakeTurn(t *testing.T) {
	t.Run("Turn applied", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		played := seatedGame("player-1")
		played.Board[4] = entity.PlayerX
		played.Board[0] = entity.PlayerO

		games.On("GetGame", mock.Anything, "game-1").Return(seatedGame("player-1"), nil).Once()
		games.On("MakeTurn", mock.Anything, "game-1", "player-1", 4).Return(played, nil).Once()

		recorder := serve(router, http.MethodPost, "/games/game-1/turns", `{"player_id":"player-1","cell":4}`)

		require.Equal(t, http.StatusOK, recorder.Code)

		var game entity.Game
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &game))
		assert.Equal(t, entity.PlayerX, game.Board[4])
		assert.Equal(t, entity.PlayerO, game.Board[0])
	})

	t.Run("Cell zero is accepted", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		games.On("GetGame", mock.Anything, "game-1").Return(seatedGame("player-1"), nil).Once()
		games.On("MakeTurn", mock.Anything, "game-1", "player-1", 0).Return(seatedGame("player-1"), nil).Once()

		recorder := serve(router, http.MethodPost, "/games/game-1/turns", `{"player_id":"player-1","cell":0}`)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("Missing cell", func(t *testing.T) {
		router := newTestRouter(t, &mockGameManager{})

		recorder := serve(router, http.MethodPost, "/games/game-1/turns", `{"player_id":"player-1"}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Finished game named in the path", func(t *testing.T) {
		// Given: the path names a finished game the player is still listed in
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		finished := seatedGame("player-1")
		finished.ID = "game-a"
		finished.Status = entity.StatusFinished

		games.On("GetGame", mock.Anything, "game-a").Return(finished, nil).Once()
		games.On("MakeTurn", mock.Anything, "game-a", "player-1", 4).
			Return(nil, fmt.Errorf("failed make turn: %w", apperror.ErrGameFinished)).
			Once()

		// When: the player plays on it
		recorder := serve(router, http.MethodPost, "/games/game-a/turns", `{"player_id":"player-1","cell":4}`)

		// Then: the turn goes to that game and is rejected
		assert.Equal(t, http.StatusConflict, recorder.Code)
		assert.Contains(t, recorder.Body.String(), apperror.ErrGameFinished.Error())
	})

	t.Run("Player from another game", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		games.On("GetGame", mock.Anything, "game-1").Return(seatedGame("player-1"), nil).Once()

		recorder := serve(router, http.MethodPost, "/games/game-1/turns", `{"player_id":"intruder","cell":4}`)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("Occupied cell", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		games.On("GetGame", mock.Anything, "game-1").Return(seatedGame("player-1"), nil).Once()
		games.On("MakeTurn", mock.Anything, "game-1", "player-1", 4).
			Return(nil, fmt.Errorf("failed make turn: %w", apperror.ErrCellOccupied)).
			Once()

		recorder := serve(router, http.MethodPost, "/games/game-1/turns", `{"player_id":"player-1","cell":4}`)

		assert.Equal(t, http.StatusConflict, recorder.Code)
		assert.Contains(t, recorder.Body.String(), apperror.ErrCellOccupied.Error())
	})

	t.Run("Unexpected failure hides details", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		games.On("GetGame", mock.Anything, "game-1").Return(seatedGame("player-1"), nil).Once()
		games.On("MakeTurn", mock.Anything, "game-1", "player-1", 4).Return(nil, errors.New("redis down")).Once()

		recorder := serve(router, http.MethodPost, "/games/game-1/turns", `{"player_id":"player-1","cell":4}`)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, recorder.Body.String())
	})
}

func TestGameHandlers_JoinGame(t *testing.T) {
	t.Run("Joined", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		games.On("JoinGame", mock.Anything, "game-1", "guest").Return(seatedGame("guest"), nil).Once()

		recorder := serve(router, http.MethodPost, "/games/game-1/players", `{"player_id":"guest"}`)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("Not joinable", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		games.On("JoinGame", mock.Anything, "game-1", "guest").
			Return(nil, fmt.Errorf("%w: game id game-1", apperror.ErrGameNotJoinable)).
			Once()

		recorder := serve(router, http.MethodPost, "/games/game-1/players", `{"player_id":"guest"}`)

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("Missing player", func(t *testing.T) {
		router := newTestRouter(t, &mockGameManager{})

		assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/games/game-1/players", `{}`).Code)
	})
}

func TestGameHandlers_NewRound(t *testing.T) {
	t.Run("Started", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		next := seatedGame("player-1")
		next.Round = 2
		next.Score = entity.Score{X: 1}

		games.On("GetGame", mock.Anything, "game-1").Return(seatedGame("player-1"), nil).Once()
		games.On("NewRound", mock.Anything, "game-1", "player-1").Return(next, nil).Once()

		recorder := serve(router, http.MethodPost, "/games/game-1/rounds", `{"player_id":"player-1"}`)

		require.Equal(t, http.StatusOK, recorder.Code)

		var game entity.Game
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &game))
		assert.Equal(t, 2, game.Round)
		assert.Equal(t, entity.Score{X: 1}, game.Score)
	})

	t.Run("Round in progress", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		games.On("GetGame", mock.Anything, "game-1").Return(seatedGame("player-1"), nil).Once()
		games.On("NewRound", mock.Anything, "game-1", "player-1").
			Return(nil, fmt.Errorf("failed to start new round: %w", apperror.ErrRoundInProgress)).
			Once()

		recorder := serve(router, http.MethodPost, "/games/game-1/rounds", `{"player_id":"player-1"}`)

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("Stranger", func(t *testing.T) {
		games := &mockGameManager{}
		router := newTestRouter(t, games)

		games.On("GetGame", mock.Anything, "game-1").Return(seatedGame("player-1"), nil).Once()

		recorder := serve(router, http.MethodPost, "/games/game-1/rounds", `{"player_id":"intruder"}`)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}
