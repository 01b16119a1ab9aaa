package play

import (
	"time"

	"github.com/rs/zerolog"

	"sortplay/pkg/clock"
	"sortplay/pkg/feedback"
	"sortplay/pkg/session"
)

// Change tells a listener what kind of update it is looking at.
type Change uint8

const (
	ChangeStarted Change = iota + 1
	ChangeDrag
	ChangeOutcome
	ChangeTimedOut
	ChangeRound
	ChangeTick
	ChangeComplete
)

// String returns the change name. Hosts use it as the event name on the wire.
func (c Change) String() string {
	switch c {
	case ChangeStarted:
		return "started"
	case ChangeDrag:
		return "drag"
	case ChangeOutcome:
		return "outcome"
	case ChangeTimedOut:
		return "timedOut"
	case ChangeRound:
		return "round"
	case ChangeTick:
		return "tick"
	case ChangeComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Listener observes committed changes. It is called without the game lock
// held and may call back into the game.
type Listener interface {
	Changed(Change, Snapshot)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Change, Snapshot)

// Changed calls f.
func (f ListenerFunc) Changed(c Change, s Snapshot) {
	f(c, s)
}

// Option configures a Game.
type Option func(*Game)

// WithClock sets the time source for deadlines and feedback delays.
func WithClock(c clock.Clock) Option {
	return func(g *Game) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithFeedback sets the feedback backend. It is wrapped so a failing backend
// cannot affect play.
func WithFeedback(d feedback.Dispatcher) Option {
	return func(g *Game) {
		g.rawFeedback = d
	}
}

// WithLogger sets the logger used for transition traces.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Game) {
		g.log = l
	}
}

// WithListener registers the rendering surface.
func WithListener(l Listener) Option {
	return func(g *Game) {
		g.listener = l
	}
}

// WithOnComplete sets the host callback. It is invoked exactly once per game.
func WithOnComplete(fn func(success bool)) Option {
	return func(g *Game) {
		g.onComplete = fn
	}
}

// WithTick makes the game emit ChangeTick at interval d while a countdown
// runs. Zero disables ticks.
func WithTick(d time.Duration) Option {
	return func(g *Game) {
		if d > 0 {
			g.tick = d
		}
	}
}

// WithSessionOptions passes options through to session.New.
func WithSessionOptions(opts ...session.Option) Option {
	return func(g *Game) {
		g.sessionOpts = append(g.sessionOpts, opts...)
	}
}
