package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe-engine/internal/domain"
	"github.com/jaminalder/tictactoe-engine/internal/engine"
)

// Errors exposed by the service layer.
var (
	ErrNotFound    = errors.New("game not found")
	ErrNotYourTurn = errors.New("not your turn")
	ErrNotAPlayer  = errors.New("not a player")
)

// Session is one human-versus-engine game. Each session owns its board.
type Session struct {
	ID      string
	Game    domain.Game
	Human   domain.Cell
	AI      domain.Cell
	Owner   string
	Created time.Time
	Updated time.Time
}

// CurrentPlayer is the side to move, or Empty once the game is over.
func (s Session) CurrentPlayer() domain.Cell {
	if s.Game.Over() {
		return domain.Empty
	}
	return s.Game.Turn
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages sessions and subscribers.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*Session
	subs     map[string]map[*subscriber]struct{}
	render   func(Session) []byte
	engine   *engine.Searcher
	log      zerolog.Logger
	ttl      time.Duration
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for session lifecycle and engine stats.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithTTL sets how long a session may stay idle before Sweep discards it.
func WithTTL(d time.Duration) Option {
	return func(s *Service) { s.ttl = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service with a default renderer (encodes nothing useful).
func NewService(opts ...Option) *Service { return NewServiceWithRenderer(nil, opts...) }

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(renderer func(Session) []byte, opts ...Option) *Service {
	s := &Service{
		sessions: make(map[string]*Session),
		subs:     make(map[string]map[*subscriber]struct{}),
		log:      zerolog.Nop(),
		ttl:      time.Hour,
		now:      time.Now,
	}
	s.SetRenderer(renderer)
	for _, o := range opts {
		o(s)
	}
	s.engine = engine.NewSearcher(s.log)
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(Session) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(Session) []byte { return nil }
		return
	}
	s.render = renderer
}

// CreateGame starts a session with the human playing the given mark
// (Empty means X). When the engine holds X it opens immediately.
func (s *Service) CreateGame(human domain.Cell) (*Session, error) {
	if human == domain.Empty {
		human = domain.X
	}
	if human != domain.X && human != domain.O {
		return nil, domain.ErrInvalidSymbol
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	gs := &Session{ID: newID(), Game: domain.New(), Created: now, Updated: now}
	s.assignSides(gs, human)
	if err := s.openingLocked(gs); err != nil {
		return nil, err
	}
	s.sessions[gs.ID] = gs
	s.log.Info().Str("session", gs.ID).Stringer("human", gs.Human).Msg("session created")
	cp := *gs
	return &cp, nil
}

// Get returns a copy of the session if present.
func (s *Service) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	cp := *gs
	return &cp, true
}

// Len reports the number of live sessions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Join claims the human seat for the first player; later players spectate
// and get Empty.
func (s *Service) Join(id, playerID string) (domain.Cell, *Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.sessions[id]
	if !ok {
		return domain.Empty, nil, ErrNotFound
	}
	side := domain.Empty
	if gs.Owner == "" || gs.Owner == playerID {
		gs.Owner = playerID
		side = gs.Human
	}
	gs.Updated = s.now()
	cp := *gs
	return side, &cp, nil
}

// Play applies the human move at cell idx and, if the game goes on, the
// engine's reply.
func (s *Service) Play(id, playerID string, idx int) (*Session, error) {
	return s.mutate(id, playerID, func(gs *Session) error {
		if gs.Game.Over() {
			return domain.ErrGameOver
		}
		if gs.Game.Turn != gs.Human {
			return ErrNotYourTurn
		}
		if err := gs.Game.Play(idx); err != nil {
			return err
		}
		if gs.Game.Over() {
			return nil
		}
		return s.replyLocked(gs)
	})
}

// AIMove asks the engine to move for its side. It is how a client starts a
// game in which the engine moves first.
func (s *Service) AIMove(id, playerID string) (*Session, error) {
	return s.mutate(id, playerID, func(gs *Session) error {
		if gs.Game.Over() {
			return domain.ErrGameOver
		}
		if gs.Game.Turn != gs.AI {
			return ErrNotYourTurn
		}
		return s.replyLocked(gs)
	})
}

// Reset starts a fresh board in the same session with the human on the
// given mark.
func (s *Service) Reset(id, playerID string, human domain.Cell) (*Session, error) {
	if human != domain.X && human != domain.O {
		return nil, domain.ErrInvalidSymbol
	}
	return s.mutate(id, playerID, func(gs *Session) error {
		gs.Game = domain.New()
		s.assignSides(gs, human)
		return s.openingLocked(gs)
	})
}

// Delete discards a session and closes its subscribers.
func (s *Service) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	s.dropLocked(id)
	s.log.Info().Str("session", id).Msg("session deleted")
	return true
}

// Sweep discards sessions idle since before now minus the TTL and returns
// how many were removed.
func (s *Service) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	n := 0
	for id, gs := range s.sessions {
		if gs.Updated.Before(cutoff) {
			s.dropLocked(id)
			n++
		}
	}
	if n > 0 {
		s.log.Info().Int("removed", n).Int("live", len(s.sessions)).Msg("idle sessions swept")
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.Sweep(s.now())
		}
	}
}

// Subscribe registers a subscriber for a session. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

// mutate runs fn on the owner's session and broadcasts the new state, all
// under the lock. Spectators get ErrNotAPlayer.
func (s *Service) mutate(id, playerID string, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	gs, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if gs.Owner == "" || gs.Owner != playerID {
		s.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	if err := fn(gs); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	gs.Updated = s.now()

	cp := *gs
	s.broadcastLocked(id, s.render(cp))
	s.mu.Unlock()
	return &cp, nil
}

// broadcastLocked hands payload to every subscriber of id. Sends never
// block: a subscriber with a full buffer is closed and removed. Channels are
// only closed under s.mu and leave the set in the same step, so no send can
// reach a closed channel.
func (s *Service) broadcastLocked(id string, payload []byte) {
	dropped := 0
	for sub := range s.subs[id] {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			delete(s.subs[id], sub)
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Debug().Str("session", id).Int("dropped", dropped).Msg("slow subscribers dropped")
	}
}

func (s *Service) assignSides(gs *Session, human domain.Cell) {
	gs.Human = human
	gs.AI = human.Opponent()
}

// openingLocked lets the engine open when it plays X.
func (s *Service) openingLocked(gs *Session) error {
	if gs.AI != domain.X {
		return nil
	}
	return s.replyLocked(gs)
}

// replyLocked searches a copy of the session board and plays the result.
func (s *Service) replyLocked(gs *Session) error {
	b := gs.Game.Board
	res, err := s.engine.Best(&b, gs.AI)
	if err != nil {
		return err
	}
	if err := gs.Game.Play(res.Move); err != nil {
		return err
	}
	s.log.Debug().
		Str("session", gs.ID).
		Int("move", res.Move).
		Int("score", int(res.Score)).
		Stringer("outcome", gs.Game.Outcome).
		Msg("engine moved")
	return nil
}

func (s *Service) dropLocked(id string) {
	delete(s.sessions, id)
	for sub := range s.subs[id] {
		sub.close()
	}
	delete(s.subs, id)
}
