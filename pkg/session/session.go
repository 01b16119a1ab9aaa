// Package session sequences rounds into one play-through: it shuffles the
// deck, keeps score and lives, and decides when the session is complete.
package session

import (
	"errors"
	"math/rand/v2"
	"time"

	"sortplay/pkg/content"
	"sortplay/pkg/round"
)

var (
	ErrNotStarted     = errors.New("session not started")
	ErrAlreadyStarted = errors.New("session already started")
	ErrComplete       = errors.New("session is complete")
	ErrNotSettled     = errors.New("current round has not settled")
)

// Status is the session lifecycle state.
type Status uint8

const (
	StatusReady Status = iota
	StatusInProgress
	StatusComplete
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusInProgress:
		return "inProgress"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Completion is returned by the calls that can end a session. Done is true
// on exactly one call per session.
type Completion struct {
	Done    bool
	Success bool
}

// Option configures a Session.
type Option func(*Session)

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		if r != nil {
			s.rng = r
		}
	}
}

// Session is one play-through. It is not safe for concurrent use; the game
// instance owning it serializes every call.
type Session struct {
	cfg       Config
	rng       *rand.Rand
	order     []int
	index     int
	passes    int
	current   *round.Round
	status    Status
	score     int
	lives     int
	mistakes  int
	evaluated int
	success   bool
}

// New validates cfg and returns a session ready to start. Content errors are
// reported here, before any round is played.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		lives: cfg.Lives,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start shuffles the deck and starts the first round.
func (s *Session) Start() (*round.Round, error) {
	switch s.status {
	case StatusInProgress:
		return nil, ErrAlreadyStarted
	case StatusComplete:
		return nil, ErrComplete
	}
	s.deal()
	s.status = StatusInProgress
	s.open()
	return s.current, nil
}

func (s *Session) deal() {
	s.order = make([]int, len(s.cfg.Rounds))
	for i := range s.order {
		s.order[i] = i
	}
	if s.cfg.Shuffle {
		Shuffle(s.rng, s.order)
	}
	s.index = 0
}

func (s *Session) open() {
	s.current = round.New(s.cfg.Rounds[s.order[s.index]])
	var shuffle func([]content.Item)
	if s.cfg.Shuffle {
		shuffle = func(items []content.Item) { Shuffle(s.rng, items) }
	}
	_ = s.current.Start(shuffle)
}

// Drop evaluates a drop in the current round and updates score and lives.
func (s *Session) Drop(itemID, targetID string) (round.Result, error) {
	if err := s.playing(); err != nil {
		return round.Result{}, err
	}
	res, err := s.current.Drop(itemID, targetID)
	if err != nil {
		return res, err
	}
	s.evaluated++
	if res.Outcome.Correct {
		s.score++
	} else {
		s.mistakes++
		if s.cfg.Mode == Arcade {
			s.loseLife()
		}
	}
	return res, nil
}

// Expire applies the current round's deadline.
func (s *Session) Expire() (round.Result, error) {
	if err := s.playing(); err != nil {
		return round.Result{}, err
	}
	res, err := s.current.Expire()
	if err != nil {
		return res, err
	}
	s.evaluated++
	if s.cfg.Mode == Arcade {
		s.loseLife()
	}
	return res, nil
}

func (s *Session) loseLife() {
	if s.lives > 0 {
		s.lives--
	}
}

// Settle ends the current round's feedback display.
func (s *Session) Settle() error {
	if err := s.playing(); err != nil {
		return err
	}
	return s.current.Settle()
}

// Advance moves past a settled round: it either opens the next round or
// completes the session.
func (s *Session) Advance() (Completion, error) {
	if err := s.playing(); err != nil {
		return Completion{}, err
	}
	if !s.current.Settled() {
		return Completion{}, ErrNotSettled
	}

	if s.cfg.Mode == Arcade {
		switch {
		case s.lives <= 0:
			return s.finish(false), nil
		case s.score >= s.cfg.TargetScore:
			return s.finish(true), nil
		}
	}

	s.index++
	if s.index >= len(s.order) {
		if s.cfg.Mode != Arcade {
			return s.finish(s.score >= s.cfg.PassScore), nil
		}
		s.passes++
		s.deal()
	}
	s.open()
	return Completion{}, nil
}

// Abort ends an unfinished session as a failure. It returns a Done
// completion only if the session had not completed yet.
func (s *Session) Abort() Completion {
	if s.status == StatusComplete {
		return Completion{}
	}
	return s.finish(false)
}

func (s *Session) finish(success bool) Completion {
	if s.status == StatusComplete {
		return Completion{}
	}
	s.status = StatusComplete
	s.success = success
	return Completion{Done: true, Success: success}
}

func (s *Session) playing() error {
	switch s.status {
	case StatusReady:
		return ErrNotStarted
	case StatusComplete:
		return ErrComplete
	}
	return nil
}

// SettleDelay returns how long the current round shows its outcome.
func (s *Session) SettleDelay() time.Duration {
	if s.current == nil {
		return 0
	}
	return s.cfg.Delays.For(s.current.Kind(), s.current.Status())
}

// Current returns the active round, or nil before Start.
func (s *Session) Current() *round.Round { return s.current }

func (s *Session) Status() Status { return s.status }
func (s *Session) Mode() Mode     { return s.cfg.Mode }
func (s *Session) Score() int     { return s.score }
func (s *Session) Lives() int     { return s.lives }
func (s *Session) Mistakes() int  { return s.mistakes }
func (s *Session) Evaluated() int { return s.evaluated }
func (s *Session) Complete() bool { return s.status == StatusComplete }
func (s *Session) Success() bool  { return s.success }
func (s *Session) Len() int       { return len(s.cfg.Rounds) }

// Passes counts how often an arcade session recycled its deck.
func (s *Session) Passes() int { return s.passes }

// TargetScore returns the arcade success threshold.
func (s *Session) TargetScore() int { return s.cfg.TargetScore }

// Index returns the zero-based position of the current round in the deck.
func (s *Session) Index() int { return s.index }

// Shuffle permutes items uniformly at random using r.
func Shuffle[T any](r *rand.Rand, items []T) {
	r.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
