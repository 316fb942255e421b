package domain

// Outcome is derived from a board; it is never stored as the source of truth.
type Outcome uint8

const (
	InProgress Outcome = iota
	XWins
	OWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case XWins:
		return "x_wins"
	case OWins:
		return "o_wins"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Over reports whether the outcome is terminal.
func (o Outcome) Over() bool { return o != InProgress }

// Winner returns the winning mark, or Empty for a draw or a running game.
func (o Outcome) Winner() Cell {
	switch o {
	case XWins:
		return X
	case OWins:
		return O
	default:
		return Empty
	}
}

// WinFor returns the outcome in which c has won.
func WinFor(c Cell) Outcome {
	if c == O {
		return OWins
	}
	return XWins
}

// Classify reports the state of b. Lines are checked in order and the
// first fully owned line decides, so boards with two winning lines report
// the earlier one.
func Classify(b Board) Outcome {
	for _, ln := range Lines {
		c := b[ln[0]]
		if c != Empty && b[ln[1]] == c && b[ln[2]] == c {
			return WinFor(c)
		}
	}
	if b.Full() {
		return Draw
	}
	return InProgress
}

// WinningLine returns the first line owned by a single mark.
func WinningLine(b Board) ([3]int, bool) {
	for _, ln := range Lines {
		c := b[ln[0]]
		if c != Empty && b[ln[1]] == c && b[ln[2]] == c {
			return ln, true
		}
	}
	return [3]int{}, false
}
