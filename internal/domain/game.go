package domain

// Game holds the current state of a Tic-Tac-Toe match.
type Game struct {
	Board   Board
	Turn    Cell
	Outcome Outcome
	Moves   int
}

// New returns a new game with X to move.
func New() Game {
	return Game{Turn: X}
}

// Over reports whether the match has reached a terminal state.
func (g *Game) Over() bool { return g.Outcome.Over() }

// Winner returns the winning mark, Empty if none.
func (g *Game) Winner() Cell { return g.Outcome.Winner() }

// Play places the current turn's mark at cell idx (0..8).
func (g *Game) Play(idx int) error {
	if g.Over() {
		return ErrGameOver
	}
	if err := g.Board.Apply(idx, g.Turn); err != nil {
		return err
	}
	g.Moves++

	g.Outcome = Classify(g.Board)
	if g.Over() {
		return nil
	}
	g.Turn = g.Turn.Opponent()
	return nil
}
