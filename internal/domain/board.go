package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

// Opponent returns the other mark. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// ParseCell accepts "X" or "O" in any case.
func ParseCell(s string) (Cell, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	default:
		return Empty, fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
}

// Errors returned by domain operations.
var (
	ErrOutOfBounds   = errors.New("out of bounds")
	ErrOccupied      = errors.New("cell occupied")
	ErrGameOver      = errors.New("game over")
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// Lines are the winning triples: rows, then columns, then diagonals.
var Lines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Apply places c at idx.
func (b *Board) Apply(idx int, c Cell) error {
	if idx < 0 || idx >= len(b) {
		return ErrOutOfBounds
	}
	if b[idx] != Empty {
		return ErrOccupied
	}
	b[idx] = c
	return nil
}

// Retract clears idx. It is the inverse of a successful Apply.
func (b *Board) Retract(idx int) {
	b[idx] = Empty
}

// EmptyCells returns the empty indices in ascending order.
func (b Board) EmptyCells() []int {
	out := make([]int, 0, len(b))
	for i, c := range b {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

// Full reports whether no cell is empty.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

func (b Board) String() string {
	var sb strings.Builder
	for i, c := range b {
		if c == Empty {
			sb.WriteByte('.')
		} else {
			sb.WriteString(c.String())
		}
		if i%3 == 2 && i != len(b)-1 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// ParseBoard reads the String form ("X.O/.X./..O"); slashes and spaces are ignored.
func ParseBoard(s string) (Board, error) {
	var b Board
	n := 0
	for _, r := range s {
		var c Cell
		switch r {
		case '/', ' ', '\n':
			continue
		case '.', '-', '_':
			c = Empty
		case 'X', 'x':
			c = X
		case 'O', 'o':
			c = O
		default:
			return Board{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, r)
		}
		if n >= len(b) {
			return Board{}, fmt.Errorf("board %q: too many cells", s)
		}
		b[n] = c
		n++
	}
	if n != len(b) {
		return Board{}, fmt.Errorf("board %q: want %d cells, got %d", s, len(b), n)
	}
	return b, nil
}
