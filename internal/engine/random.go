package engine

import (
	"lukechampine.com/frand"

	"github.com/jaminalder/tictactoe-engine/internal/domain"
)

// Mover picks a move for side on b.
type Mover interface {
	Move(b *domain.Board, side domain.Cell) (int, error)
}

// Move makes Searcher a Mover.
func (s *Searcher) Move(b *domain.Board, side domain.Cell) (int, error) {
	res, err := s.Best(b, side)
	if err != nil {
		return 0, err
	}
	return res.Move, nil
}

// RandomMover plays a uniformly random legal move.
type RandomMover struct{}

func (RandomMover) Move(b *domain.Board, side domain.Cell) (int, error) {
	empty := b.EmptyCells()
	if len(empty) == 0 {
		return 0, ErrNoLegalMoves
	}
	return empty[frand.Intn(len(empty))], nil
}
