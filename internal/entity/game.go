package entity

import (
	"fmt"
	"math/rand"

	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""
)

const (
	PrivateType = "private"
	WithBotType = "bot"
)

type Game struct {
	ID         string    `json:"id"`
	Board      [9]string `json:"board"`
	Winner     string    `json:"winner"`
	Status     string    `json:"status"`
	Turn       string    `json:"player_turn"`
	Players    []*Player `json:"players,omitempty"`
	Type       string    `json:"type,omitempty"`
	Difficulty string    `json:"difficulty,omitempty"`

	// Round counts from 1; Opener is the mark that moved first in it.
	Round  int    `json:"round"`
	Opener string `json:"opener"`
	Score  Score  `json:"score"`
}

// Score tallies the finished rounds of one game.
type Score struct {
	X     int `json:"x"`
	O     int `json:"o"`
	Draws int `json:"draws"`
}

// Record counts a finished round by its winner mark or PlayerTie.
func (that *Score) Record(winner string) {
	switch winner {
	case PlayerX:
		that.X++
	case PlayerO:
		that.O++
	case PlayerTie:
		that.Draws++
	}
}

func NewGame(id, gameType string) *Game {
	return &Game{
		ID:     id,
		Board:  [9]string{EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell},
		Turn:   PlayerX,
		Status: StatusWaiting,
		Type:   gameType,
		Round:  1,
		Opener: PlayerX,
	}
}

// NextRound clears the board of a finished game and keeps the score. The
// loser of the last round opens the next one; after a draw the opener
// alternates.
func (that *Game) NextRound() error {
	if !that.IsFinished() {
		return apperror.ErrRoundInProgress
	}

	opener := ToggleMark(that.Opener)
	if that.Winner == PlayerX || that.Winner == PlayerO {
		opener = ToggleMark(that.Winner)
	}

	that.Board = [9]string{EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell}
	that.Winner = ""
	that.Status = StatusOngoing
	that.Turn = opener
	that.Opener = opener
	that.Round++

	return nil
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsWithBot() bool {
	return that.Type == WithBotType
}

// BotPlayer returns the bot seat of the game, or nil.
func (that *Game) BotPlayer() *Player {
	for _, player := range that.Players {
		if player.IsBot() {
			return player
		}
	}

	return nil
}

// HumanCount returns the number of seated players that are not bots.
func (that *Game) HumanCount() int {
	count := 0
	for _, player := range that.Players {
		if !player.IsBot() {
			count++
		}
	}

	return count
}

// HasPlayer reports whether playerID holds a seat in the game.
func (that *Game) HasPlayer(playerID string) bool {
	for _, player := range that.Players {
		if player.ID == playerID {
			return true
		}
	}

	return false
}

// Snapshot returns a copy of the board as a 3x3 grid.
func (that *Game) Snapshot() Board {
	var board Board
	for i, cell := range that.Board {
		board[i/BoardSize][i%BoardSize] = cell
	}

	return board
}

func (that *Game) GetRandomMarks() (string, string) {
	if rand.Intn(2) == 0 { //nolint: gosec // it's ok
		return PlayerX, PlayerO
	}
	return PlayerO, PlayerX
}

func ToggleMark(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
