package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe-engine/internal/domain"
	"github.com/jaminalder/tictactoe-engine/internal/engine"
	"github.com/jaminalder/tictactoe-engine/internal/logging"
)

func main() {
	symbol := flag.String("symbol", "X", "your mark: X moves first, O lets the engine open")
	opponent := flag.String("opponent", "engine", "engine|random")
	hint := flag.Bool("hint", false, "show the engine's evaluation of every move before you play")
	selfplay := flag.Int("selfplay", 0, "play N engine-vs-random games per side and print a summary")
	levelStr := flag.String("log-level", "warn", "debug|info|warn|error")
	flag.Parse()

	log := logging.New(os.Stderr, *levelStr, true)
	searcher := engine.NewSearcher(log)

	if *selfplay > 0 {
		if err := runSelfPlay(os.Stdout, searcher, *selfplay); err != nil {
			log.Error().Err(err).Msg("selfplay failed")
			os.Exit(1)
		}
		return
	}

	human, err := domain.ParseCell(*symbol)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	var opp engine.Mover = searcher
	if strings.EqualFold(*opponent, "random") {
		opp = engine.RandomMover{}
	}
	g := &cliGame{
		human:    human,
		opp:      opp,
		searcher: searcher,
		hint:     *hint,
		in:       bufio.NewScanner(os.Stdin),
		out:      os.Stdout,
		r:        newRenderer(os.Stdout),
		log:      log,
	}
	if err := g.run(); err != nil && !errors.Is(err, io.EOF) {
		log.Error().Err(err).Msg("game aborted")
		os.Exit(1)
	}
}

type cliGame struct {
	human    domain.Cell
	opp      engine.Mover
	searcher *engine.Searcher
	hint     bool
	in       *bufio.Scanner
	out      io.Writer
	r        *renderer
	log      zerolog.Logger
}

func (c *cliGame) run() error {
	g := domain.New()
	for !g.Over() {
		if g.Turn != c.human {
			b := g.Board
			idx, err := c.opp.Move(&b, g.Turn)
			if err != nil {
				return err
			}
			if err := g.Play(idx); err != nil {
				return err
			}
			c.log.Debug().Int("cell", idx).Stringer("side", g.Board[idx]).Msg("opponent moved")
			fmt.Fprintf(c.out, "%s plays %d\n", g.Board[idx], idx+1)
			continue
		}
		fmt.Fprint(c.out, c.r.board(g.Board))
		if c.hint {
			b := g.Board
			fmt.Fprintln(c.out, c.r.hints(c.searcher.Analyze(&b, c.human)))
		}
		idx, err := c.ask()
		if err != nil {
			return err
		}
		if err := g.Play(idx); err != nil {
			fmt.Fprintln(c.out, err)
		}
	}
	fmt.Fprint(c.out, c.r.board(g.Board))
	fmt.Fprintln(c.out, c.r.result(g.Outcome, c.human))
	return nil
}

// ask reads cell numbers 1-9 until one parses.
func (c *cliGame) ask() (int, error) {
	for {
		fmt.Fprintf(c.out, "%s to move (1-9): ", c.human)
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		n, err := strconv.Atoi(strings.TrimSpace(c.in.Text()))
		if err != nil || n < 1 || n > 9 {
			fmt.Fprintln(c.out, "enter a number from 1 to 9")
			continue
		}
		return n - 1, nil
	}
}

// runSelfPlay pits the engine against a random mover from both seats.
func runSelfPlay(w io.Writer, s *engine.Searcher, n int) error {
	type tally struct{ wins, draws, losses int }
	results := map[domain.Cell]*tally{domain.X: {}, domain.O: {}}
	for side, t := range results {
		for i := 0; i < n; i++ {
			g := domain.New()
			for !g.Over() {
				var m engine.Mover = engine.RandomMover{}
				if g.Turn == side {
					m = s
				}
				b := g.Board
				idx, err := m.Move(&b, g.Turn)
				if err != nil {
					return err
				}
				if err := g.Play(idx); err != nil {
					return err
				}
			}
			switch g.Winner() {
			case side:
				t.wins++
			case domain.Empty:
				t.draws++
			default:
				t.losses++
			}
		}
	}
	for _, side := range []domain.Cell{domain.X, domain.O} {
		t := results[side]
		fmt.Fprintf(w, "engine as %s: %d wins, %d draws, %d losses\n", side, t.wins, t.draws, t.losses)
	}
	return nil
}
