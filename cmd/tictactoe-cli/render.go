package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/jaminalder/tictactoe-engine/internal/domain"
	"github.com/jaminalder/tictactoe-engine/internal/engine"
)

type renderer struct {
	out *termenv.Output
}

func newRenderer(w io.Writer, opts ...termenv.OutputOption) *renderer {
	return &renderer{out: termenv.NewOutput(w, opts...)}
}

func (r *renderer) mark(c domain.Cell, idx int, highlight bool) string {
	var s termenv.Style
	switch c {
	case domain.X:
		s = r.out.String("X").Foreground(r.out.Color("#E06C75")).Bold()
	case domain.O:
		s = r.out.String("O").Foreground(r.out.Color("#61AFEF")).Bold()
	default:
		s = r.out.String(strconv.Itoa(idx + 1)).Faint()
	}
	if highlight {
		s = s.Underline()
	}
	return s.String()
}

// board draws the grid with empty cells numbered 1-9 and the winning line
// underlined.
func (r *renderer) board(b domain.Board) string {
	won, hasWin := domain.WinningLine(b)
	onLine := func(i int) bool {
		return hasWin && (won[0] == i || won[1] == i || won[2] == i)
	}
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			i := row*3 + col
			cells[col] = " " + r.mark(b[i], i, onLine(i)) + " "
		}
		sb.WriteString(strings.Join(cells, "|"))
		sb.WriteByte('\n')
		if row < 2 {
			sb.WriteString("---+---+---\n")
		}
	}
	return sb.String()
}

// hints lists the engine's score for every legal move from side's view.
func (r *renderer) hints(scores [9]engine.MoveScore) string {
	var parts []string
	for i, ms := range scores {
		if !ms.OK {
			continue
		}
		var label termenv.Style
		switch ms.Score {
		case engine.Win:
			label = r.out.String("win").Foreground(r.out.Color("2"))
		case engine.Loss:
			label = r.out.String("loss").Foreground(r.out.Color("1"))
		default:
			label = r.out.String("draw")
		}
		parts = append(parts, fmt.Sprintf("%d:%s", i+1, label))
	}
	return strings.Join(parts, " ")
}

func (r *renderer) result(o domain.Outcome, human domain.Cell) string {
	switch {
	case o == domain.Draw:
		return r.out.String("Draw.").Bold().String()
	case o.Winner() == human:
		return r.out.String("You win!").Foreground(r.out.Color("2")).Bold().String()
	default:
		return r.out.String("The engine wins.").Foreground(r.out.Color("1")).Bold().String()
	}
}
