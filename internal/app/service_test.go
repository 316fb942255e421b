package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe-engine/internal/domain"
)

// minimal renderer for tests: encode moves count as bytes
func testRenderer(gs Session) []byte { return []byte(fmt.Sprintf("moves=%d", gs.Game.Moves)) }

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithLogger(zerolog.New(zerolog.NewTestWriter(t)))}, opts...)
	return NewServiceWithRenderer(testRenderer, opts...)
}

func TestCreateAndGet(t *testing.T) {
	s := newTestService(t)
	gs, err := s.CreateGame(domain.X)
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if !ValidID(gs.ID) {
		t.Fatalf("expected uuid game ID, got %q", gs.ID)
	}
	if gs.Human != domain.X || gs.AI != domain.O {
		t.Fatalf("unexpected sides human=%v ai=%v", gs.Human, gs.AI)
	}
	if gs.Game.Turn != domain.X || gs.Game.Moves != 0 {
		t.Fatalf("expected untouched board with X to move")
	}
	if gs.Created.IsZero() || gs.Updated.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	got, ok := s.Get(gs.ID)
	if !ok || got.ID != gs.ID {
		t.Fatalf("Get should find created game")
	}
}

func TestCreateDefaultsAndRejectsSymbol(t *testing.T) {
	s := newTestService(t)
	gs, err := s.CreateGame(domain.Empty)
	if err != nil || gs.Human != domain.X {
		t.Fatalf("expected default human X, got %v err=%v", gs, err)
	}
	if _, err := s.CreateGame(domain.Cell(7)); !errors.Is(err, domain.ErrInvalidSymbol) {
		t.Fatalf("expected ErrInvalidSymbol, got %v", err)
	}
}

func TestEngineOpensWhenItHoldsX(t *testing.T) {
	s := newTestService(t)
	gs, err := s.CreateGame(domain.O)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if gs.AI != domain.X || gs.Game.Moves != 1 || gs.Game.Turn != domain.O {
		t.Fatalf("expected engine opening, got moves=%d turn=%v", gs.Game.Moves, gs.Game.Turn)
	}
	if gs.Game.Board[0] != domain.X {
		t.Fatalf("expected engine to open on cell 0, board %v", gs.Game.Board)
	}
}

func TestJoinOwnerAndSpectators(t *testing.T) {
	s := newTestService(t)
	gs, _ := s.CreateGame(domain.X)
	p1, p2 := "p1", "p2"

	side, _, err := s.Join(gs.ID, p1)
	if err != nil || side != domain.X {
		t.Fatalf("p1 should claim X, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, p1)
	if err != nil || side != domain.X {
		t.Fatalf("p1 rejoin should keep X, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, p2)
	if err != nil || side != domain.Empty {
		t.Fatalf("p2 should spectate (Empty), got %v, err=%v", side, err)
	}
	if _, _, err := s.Join("missing", p1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlayAppliesHumanAndEngineMoves(t *testing.T) {
	s := newTestService(t)
	gs, _ := s.CreateGame(domain.X)
	s.Join(gs.ID, "p1")
	s.Join(gs.ID, "p2")

	if _, err := s.Play(gs.ID, "p2", 0); !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("expected ErrNotAPlayer for spectator, got %v", err)
	}
	st, err := s.Play(gs.ID, "p1", 0)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if st.Game.Board[0] != domain.X || st.Game.Moves != 2 || st.Game.Turn != domain.X {
		t.Fatalf("expected X move plus engine reply, got %v moves=%d turn=%v", st.Game.Board, st.Game.Moves, st.Game.Turn)
	}
	// the only drawing reply to a corner opening is the center
	if st.Game.Board[4] != domain.O {
		t.Fatalf("expected engine to take the center, board %v", st.Game.Board)
	}
	if _, err := s.Play(gs.ID, "p1", 0); !errors.Is(err, domain.ErrOccupied) {
		t.Fatalf("expected ErrOccupied, got %v", err)
	}
	if _, err := s.Play(gs.ID, "p1", 9); !errors.Is(err, domain.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if _, err := s.Play("missing", "p1", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlayUntilOverNeverLetsHumanWin(t *testing.T) {
	s := newTestService(t)
	gs, _ := s.CreateGame(domain.X)
	s.Join(gs.ID, "p1")
	for {
		cur, _ := s.Get(gs.ID)
		if cur.Game.Over() {
			if cur.Game.Winner() == domain.X {
				t.Fatalf("human beat the engine: %v", cur.Game.Board)
			}
			if _, err := s.Play(gs.ID, "p1", 0); !errors.Is(err, domain.ErrGameOver) {
				t.Fatalf("expected ErrGameOver, got %v", err)
			}
			if cur.CurrentPlayer() != domain.Empty {
				t.Fatalf("no side should be to move after the end")
			}
			return
		}
		// naive human: first empty cell
		idx := cur.Game.Board.EmptyCells()[0]
		if _, err := s.Play(gs.ID, "p1", idx); err != nil {
			t.Fatalf("Play(%d): %v", idx, err)
		}
	}
}

func TestAIMove(t *testing.T) {
	s := newTestService(t)
	gs, _ := s.CreateGame(domain.X)
	s.Join(gs.ID, "p1")
	if _, err := s.AIMove(gs.ID, "p1"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("engine cannot move on the human's turn, got %v", err)
	}

	// Reset with the human on O: the engine opens as X; asking again is out of turn
	st, err := s.Reset(gs.ID, "p1", domain.O)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if st.Human != domain.O || st.Game.Moves != 1 {
		t.Fatalf("expected engine opening after reset, got human=%v moves=%d", st.Human, st.Game.Moves)
	}
	if _, err := s.AIMove(gs.ID, "p1"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := s.Reset(gs.ID, "p1", domain.Empty); !errors.Is(err, domain.ErrInvalidSymbol) {
		t.Fatalf("expected ErrInvalidSymbol, got %v", err)
	}
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s := newTestService(t)
	gs, _ := s.CreateGame(domain.X)
	s.Join(gs.ID, "p1")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsub()

	if _, err := s.Play(gs.ID, "p1", 0); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	select {
	case b, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		if string(b) != "moves=2" {
			t.Fatalf("unexpected broadcast payload: %q", string(b))
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for broadcast")
	}

	if _, _, err := s.Subscribe(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s := newTestService(t)
	gs, _ := s.CreateGame(domain.X)
	s.Join(gs.ID, "p1")

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(context.Background())
	defer cancelSlow()
	slowCh, _, _ := s.Subscribe(ctxSlow, gs.ID)

	ctxFast, cancelFast := context.WithTimeout(context.Background(), time.Second*2)
	defer cancelFast()
	fastCh, unsubFast, _ := s.Subscribe(ctxFast, gs.ID)
	defer unsubFast()

	if _, err := s.Play(gs.ID, "p1", 0); err != nil {
		t.Fatalf("play1: %v", err)
	}
	<-fastCh
	if _, err := s.Play(gs.ID, "p1", 1); err != nil {
		t.Fatalf("play2: %v", err)
	}
	<-fastCh

	// slow buffer holds the first update; the second closed it
	if _, ok := <-slowCh; !ok {
		t.Fatalf("expected buffered first update")
	}
	if _, ok := <-slowCh; ok {
		t.Fatalf("expected slow subscriber to be closed")
	}
}

func TestDeleteWhileBroadcasting(t *testing.T) {
	s := newTestService(t)
	for iter := 0; iter < 50; iter++ {
		gs, _ := s.CreateGame(domain.X)
		s.Join(gs.ID, "p1")

		var readers sync.WaitGroup
		cancels := make([]context.CancelFunc, 0, 16)
		for i := 0; i < 16; i++ {
			ctx, cancel := context.WithCancel(context.Background())
			cancels = append(cancels, cancel)
			ch, _, err := s.Subscribe(ctx, gs.ID)
			if err != nil {
				t.Fatalf("Subscribe: %v", err)
			}
			readers.Add(1)
			go func() {
				defer readers.Done()
				for range ch {
				}
			}()
		}

		var writers sync.WaitGroup
		writers.Add(3)
		go func() {
			defer writers.Done()
			for i := 0; i < 20; i++ {
				s.Reset(gs.ID, "p1", domain.X)
			}
		}()
		go func() {
			defer writers.Done()
			for i := 0; i < 20; i++ {
				s.Play(gs.ID, "p1", i%9)
			}
		}()
		go func() {
			defer writers.Done()
			for i, cancel := range cancels {
				if i%2 == 0 {
					cancel()
				}
			}
			s.Delete(gs.ID)
		}()
		writers.Wait()
		readers.Wait()
		for _, cancel := range cancels {
			cancel()
		}
	}
	if s.Len() != 0 {
		t.Fatalf("expected all sessions deleted, have %d", s.Len())
	}
}

func TestDeleteAndSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := newTestService(t, WithClock(clock), WithTTL(time.Minute))

	old, _ := s.CreateGame(domain.X)
	ch, _, _ := s.Subscribe(context.Background(), old.ID)
	now = now.Add(2 * time.Minute)
	fresh, _ := s.CreateGame(domain.X)

	if n := s.Sweep(now); n != 1 {
		t.Fatalf("expected one idle session swept, got %d", n)
	}
	if _, ok := s.Get(old.ID); ok {
		t.Fatalf("idle session should be gone")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("subscribers of a swept session should be closed")
	}
	if !s.Delete(fresh.ID) || s.Delete(fresh.ID) {
		t.Fatalf("Delete should succeed once")
	}
	if s.Len() != 0 {
		t.Fatalf("expected no sessions, have %d", s.Len())
	}
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	s := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunSweeper(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunSweeper: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sweeper did not stop")
	}
}
