package tictactoe

import (
	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
	"github.com/dougsaus/tic-tac-vibe/internal/entity"
)

// fallbackOrder is center, corners, then edge midpoints.
var fallbackOrder = [9]entity.Move{
	{Row: 1, Col: 1},
	{Row: 0, Col: 0},
	{Row: 0, Col: 2},
	{Row: 2, Col: 0},
	{Row: 2, Col: 2},
	{Row: 0, Col: 1},
	{Row: 1, Col: 0},
	{Row: 1, Col: 2},
	{Row: 2, Col: 1},
}

// FallbackMove picks the first empty cell in a fixed preference order. It
// needs no network and always returns the same move for the same board.
func FallbackMove(board entity.Board) (entity.Move, error) {
	for _, move := range fallbackOrder {
		if board.IsEmpty(move) {
			return move, nil
		}
	}

	return entity.Move{}, apperror.ErrNoMovesAvailable
}
