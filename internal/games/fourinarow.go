// Package games provides the platform's built-in game variants. Each
// variant implements the engine contract; the platform core treats their
// state documents as opaque.
package games

import (
	"fmt"

	"github.com/roach88/parlor/internal/document"
	"github.com/roach88/parlor/internal/engine"
)

// FourInARow is the connect-four variant: a 6x7 grid, discs drop to the
// lowest free cell of a column, four in a line wins. Strictly alternating
// turns, no hidden information.
type FourInARow struct{}

const (
	fiarRows   = 6
	fiarCols   = 7
	fiarWinLen = 4
	fiarEmpty  = '0'
)

// GameTypeFourInARow is the registry name of this variant.
const GameTypeFourInARow = "four_in_a_row"

var fiarSlots = []string{"a", "b"}

// Slots returns the seating order: slot "a" moves first.
func (FourInARow) Slots() []string { return fiarSlots }

// Init produces an empty board. The board is a flat row-major string of
// '0' (empty), '1' (slot a) and '2' (slot b) cells, which keeps snapshots
// compact and trivially inspectable.
func (FourInARow) Init(slots []string) (document.Document, error) {
	if len(slots) != 2 {
		return nil, fmt.Errorf("four_in_a_row: need exactly 2 slots, got %d", len(slots))
	}
	board := make([]byte, fiarRows*fiarCols)
	for i := range board {
		board[i] = fiarEmpty
	}
	return document.Document{
		"board":      string(board),
		"move_count": 0,
		"winner":     "",
	}, nil
}

func fiarMark(slot string) (byte, error) {
	switch slot {
	case "a":
		return '1', nil
	case "b":
		return '2', nil
	default:
		return 0, fmt.Errorf("%w: unknown slot %q", engine.ErrInvalidMove, slot)
	}
}

// ApplyMove drops a disc in move["column"]. Rejects out-of-turn moves, full or
// out-of-range columns, and moves after the game ended.
func (g FourInARow) ApplyMove(state document.Document, slot string, move document.Document) (document.Document, error) {
	if g.TerminalReason(state) != "" {
		return nil, fmt.Errorf("%w: game already over", engine.ErrInvalidMove)
	}

	mark, err := fiarMark(slot)
	if err != nil {
		return nil, err
	}

	moveCount := state.Int64("move_count")
	expected := fiarSlots[moveCount%2]
	if slot != expected {
		return nil, fmt.Errorf("%w: not %s's turn", engine.ErrInvalidMove, slot)
	}

	col := move.Int64("column")
	if move == nil || col < 0 || col >= fiarCols {
		return nil, fmt.Errorf("%w: column %d out of range", engine.ErrInvalidMove, col)
	}

	board := []byte(state.String("board"))
	if len(board) != fiarRows*fiarCols {
		return nil, fmt.Errorf("four_in_a_row: corrupt board of length %d", len(board))
	}

	// Gravity: lowest empty cell of the column.
	row := -1
	for r := fiarRows - 1; r >= 0; r-- {
		if board[r*fiarCols+int(col)] == fiarEmpty {
			row = r
			break
		}
	}
	if row < 0 {
		return nil, fmt.Errorf("%w: column %d is full", engine.ErrInvalidMove, col)
	}
	board[row*fiarCols+int(col)] = mark

	winner := ""
	if fiarWins(board, row, int(col)) {
		winner = slot
	}

	return document.Document{
		"board":      string(board),
		"move_count": moveCount + 1,
		"winner":     winner,
	}, nil
}

// fiarWins reports whether the disc just placed at (row, col) completes a
// line of four in any direction.
func fiarWins(board []byte, row, col int) bool {
	mark := board[row*fiarCols+col]
	dirs := [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

	for _, d := range dirs {
		count := 1
		for _, sign := range [2]int{1, -1} {
			r, c := row+sign*d[0], col+sign*d[1]
			for r >= 0 && r < fiarRows && c >= 0 && c < fiarCols && board[r*fiarCols+c] == mark {
				count++
				r += sign * d[0]
				c += sign * d[1]
			}
		}
		if count >= fiarWinLen {
			return true
		}
	}
	return false
}

// TerminalReason reports "win" for a completed line, "draw" for a full
// board, "" otherwise.
func (FourInARow) TerminalReason(state document.Document) string {
	if state.String("winner") != "" {
		return "win"
	}
	if state.Int64("move_count") >= fiarRows*fiarCols {
		return "draw"
	}
	return ""
}

// PublicState returns the full state for every viewer: connect-four has no
// hidden information.
func (FourInARow) PublicState(state document.Document, _ string) document.Document {
	return state.Clone()
}
