package entity

import "errors"

const BoardSize = 3

var ErrUnknownGameStatus = errors.New("unknown game status")

// Board is a read-only 3x3 view of a game. EmptyCell marks a free cell.
type Board [BoardSize][BoardSize]string

// Move is a zero-indexed board coordinate, (0,0) being the top-left cell.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cell maps the move onto the flat 0..8 board index.
func (that Move) Cell() int {
	return that.Row*BoardSize + that.Col
}

// InBounds reports whether both coordinates lie on the board.
func (that Move) InBounds() bool {
	return that.Row >= 0 && that.Row < BoardSize && that.Col >= 0 && that.Col < BoardSize
}

// IsEmpty reports whether the cell at move is in bounds and free.
func (that Board) IsEmpty(move Move) bool {
	return move.InBounds() && that[move.Row][move.Col] == EmptyCell
}

// IsFull reports whether no empty cell is left.
func (that Board) IsFull() bool {
	for _, row := range that {
		for _, cell := range row {
			if cell == EmptyCell {
				return false
			}
		}
	}

	return true
}
