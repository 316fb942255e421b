// Package engine finds perfect-play moves for tic-tac-toe by exhaustive
// minimax search with alpha-beta pruning.
//
// Scores are always from the maximizing side's point of view for the
// duration of one Evaluate call: +1 the maximizing side wins, -1 it loses,
// 0 draw. Every best-move search re-roots the maximizing side to the side
// to move.
package engine

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe-engine/internal/domain"
)

// Score is a game-theoretic value in {-1, 0, +1}.
type Score int

const (
	Loss Score = -1
	Tie  Score = 0
	Win  Score = 1

	// MinScore and MaxScore lie outside the score range and stand in for
	// -inf/+inf in the search window.
	MinScore Score = -2
	MaxScore Score = 2
)

// ErrNoLegalMoves is returned when a move is requested on a full board.
var ErrNoLegalMoves = errors.New("no legal moves")

// Stats counts the work done by one search.
type Stats struct {
	Nodes    int
	Cutoffs  int
	Duration time.Duration
}

// Result is the move chosen for the side to move and its score from that
// side's perspective.
type Result struct {
	Move  int
	Score Score
	Stats Stats
}

// Searcher runs searches and reports statistics to its logger.
// A Searcher holds no state between calls and is safe for concurrent use
// as long as each call gets its own board.
type Searcher struct {
	log zerolog.Logger
}

// NewSearcher returns a searcher that logs completed searches at debug level.
func NewSearcher(log zerolog.Logger) *Searcher {
	return &Searcher{log: log.With().Str("component", "engine").Logger()}
}

var silent = NewSearcher(zerolog.Nop())

// Evaluate scores b for maxSide, with maximizing reporting whose turn it is.
// b is mutated while searching and restored before returning.
func Evaluate(b *domain.Board, maxSide domain.Cell, maximizing bool, alpha, beta Score) Score {
	var st Stats
	return evaluate(b, maxSide, maximizing, alpha, beta, &st)
}

// SelectBestMove returns the best cell for side, or false if b is full.
func SelectBestMove(b *domain.Board, side domain.Cell) (int, bool) {
	res, err := silent.Best(b, side)
	if err != nil {
		return 0, false
	}
	return res.Move, true
}

// Best searches every empty cell of b in ascending order and returns the
// first one with the greatest score for side.
func (s *Searcher) Best(b *domain.Board, side domain.Cell) (Result, error) {
	start := time.Now()
	var st Stats
	best := Result{Move: -1, Score: MinScore}
	for i := range b {
		if b[i] != domain.Empty {
			continue
		}
		b[i] = side
		score := evaluate(b, side, false, MinScore, MaxScore, &st)
		b.Retract(i)
		if score > best.Score {
			best.Move, best.Score = i, score
		}
	}
	st.Duration = time.Since(start)
	best.Stats = st
	if best.Move < 0 {
		return Result{}, ErrNoLegalMoves
	}
	s.log.Debug().
		Str("board", b.String()).
		Str("side", side.String()).
		Int("move", best.Move).
		Int("score", int(best.Score)).
		Int("nodes", st.Nodes).
		Int("cutoffs", st.Cutoffs).
		Dur("took", st.Duration).
		Msg("search complete")
	return best, nil
}

// Analyze scores every legal move for side, indexed by cell. Occupied
// cells are left with OK unset.
func (s *Searcher) Analyze(b *domain.Board, side domain.Cell) [9]MoveScore {
	var out [9]MoveScore
	var st Stats
	defer func() {
		s.log.Debug().Str("board", b.String()).Int("nodes", st.Nodes).Msg("analysis complete")
	}()
	for i := range b {
		if b[i] != domain.Empty {
			continue
		}
		b[i] = side
		out[i] = MoveScore{Score: evaluate(b, side, false, MinScore, MaxScore, &st), OK: true}
		b.Retract(i)
	}
	return out
}

// MoveScore is one entry of an analysis.
type MoveScore struct {
	Score Score
	OK    bool
}

func evaluate(b *domain.Board, maxSide domain.Cell, maximizing bool, alpha, beta Score, st *Stats) Score {
	st.Nodes++
	switch o := domain.Classify(*b); o {
	case domain.Draw:
		return Tie
	case domain.InProgress:
	default:
		if o.Winner() == maxSide {
			return Win
		}
		return Loss
	}

	if maximizing {
		best := MinScore
		for i := range b {
			if b[i] != domain.Empty {
				continue
			}
			b[i] = maxSide
			score := evaluate(b, maxSide, false, alpha, beta, st)
			b.Retract(i)
			if score > best {
				best = score
			}
			if best > alpha {
				alpha = best
			}
			if beta <= alpha {
				st.Cutoffs++
				break
			}
		}
		return best
	}

	minSide := maxSide.Opponent()
	best := MaxScore
	for i := range b {
		if b[i] != domain.Empty {
			continue
		}
		b[i] = minSide
		score := evaluate(b, maxSide, true, alpha, beta, st)
		b.Retract(i)
		if score < best {
			best = score
		}
		if best < beta {
			beta = best
		}
		if beta <= alpha {
			st.Cutoffs++
			break
		}
	}
	return best
}
