// Package play runs one game instance: it owns the drag session and the
// session state, serializes input events with countdown and feedback timers,
// and reports committed changes to the host.
package play

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sortplay/pkg/clock"
	"sortplay/pkg/feedback"
	"sortplay/pkg/interact"
	"sortplay/pkg/round"
	"sortplay/pkg/session"
)

var ErrClosed = errors.New("game is closed")

// Game is one playable instance. All methods are safe for concurrent use.
// Input events and timer callbacks are applied one at a time; feedback,
// listener and completion calls run after the state change is committed and
// the lock is released.
type Game struct {
	mu          sync.Mutex
	sess        *session.Session
	unifier     *interact.Unifier
	clock       clock.Clock
	rawFeedback feedback.Dispatcher
	feedback    feedback.Dispatcher
	log         zerolog.Logger
	listener    Listener
	onComplete  func(bool)
	sessionOpts []session.Option
	tick        time.Duration

	// gen invalidates timers armed for an earlier phase of play. Every timer
	// callback compares its captured generation before touching state.
	gen        uint64
	deadline   clock.Timer
	deadlineAt time.Time
	settle     clock.Timer
	ticker     clock.Timer

	version uint64
	closed  bool
	fx      *batch
}

// batch collects the side effects of one locked step.
type batch struct {
	calls    []feedback.Call
	changes  []Change
	done     bool
	success  bool
	snapshot Snapshot
}

func (b *batch) cue(c feedback.Cue)    { b.calls = append(b.calls, feedback.Call{Cue: c}) }
func (b *batch) celebrate()            { b.calls = append(b.calls, feedback.Call{Celebration: true}) }
func (b *batch) change(c Change)       { b.changes = append(b.changes, c) }
func (b *batch) complete(success bool) { b.done, b.success = true, success }

// New validates cfg and builds an unstarted game.
func New(cfg session.Config, opts ...Option) (*Game, error) {
	g := &Game{
		clock: clock.NewReal(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	sess, err := session.New(cfg, g.sessionOpts...)
	if err != nil {
		return nil, err
	}
	g.sess = sess
	g.feedback = feedback.Guard(g.rawFeedback, g.log)
	g.unifier = interact.NewUnifier(resolver{g})
	return g, nil
}

// Start deals the rounds and opens the first one.
func (g *Game) Start() error {
	var err error
	g.do(func(b *batch) {
		if g.closed {
			err = ErrClosed
			return
		}
		if _, err = g.sess.Start(); err != nil {
			return
		}
		g.openRoundLocked()
		b.change(ChangeStarted)
		g.log.Debug().Int("rounds", g.sess.Len()).Str("mode", g.sess.Mode().String()).Msg("game started")
	})
	return err
}

// Handle applies one neutral input event. It implements interact.Sink so the
// pointer, touch and tap adapters can feed the game directly.
func (g *Game) Handle(ev interact.Event) bool {
	var changed bool
	g.do(func(b *batch) {
		if g.closed {
			return
		}
		changed = g.unifier.Handle(ev)
		if changed && len(b.changes) == 0 {
			b.change(ChangeDrag)
		}
	})
	return changed
}

// DragStart, DragOver, Drop and Cancel are the neutral calls for hosts that
// do not go through an adapter.
func (g *Game) DragStart(itemID string) bool {
	return g.Handle(interact.Event{Kind: interact.KindDragStart, ItemID: itemID})
}

func (g *Game) DragOver(targetID string) bool {
	return g.Handle(interact.Event{Kind: interact.KindDragOver, TargetID: targetID})
}

func (g *Game) Drop(targetID string) bool {
	return g.Handle(interact.Event{Kind: interact.KindDrop, TargetID: targetID})
}

func (g *Game) Cancel() bool {
	return g.Handle(interact.Event{Kind: interact.KindCancel})
}

// Choose places itemID on the round's only target in one step. Rounds with
// several targets need an explicit target.
func (g *Game) Choose(itemID string) bool {
	var changed bool
	g.do(func(b *batch) {
		r := g.sess.Current()
		if g.closed || r == nil {
			return
		}
		targets := r.Targets()
		if len(targets) != 1 {
			return
		}
		g.unifier.Handle(interact.Event{Kind: interact.KindCancel, Modality: interact.ModalityTap})
		if !g.unifier.Handle(interact.Event{Kind: interact.KindDragStart, Modality: interact.ModalityTap, ItemID: itemID}) {
			return
		}
		changed = g.unifier.Handle(interact.Event{Kind: interact.KindDrop, Modality: interact.ModalityTap, TargetID: targets[0].ID})
	})
	return changed
}

// Session returns the current drag session. It implements
// interact.SessionReader for the tap adapter.
func (g *Game) Session() interact.DragSession {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unifier.Session()
}

// Snapshot returns the current render state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Close stops every timer. A game closed before it completed reports a
// failed completion.
func (g *Game) Close() {
	g.do(func(b *batch) {
		if g.closed {
			return
		}
		g.closed = true
		g.stopTimersLocked()
		g.unifier.Reset()
		if c := g.sess.Abort(); c.Done {
			b.complete(c.Success)
			b.change(ChangeComplete)
			g.log.Debug().Msg("game aborted")
		}
	})
}

// do runs fn under the lock and dispatches its side effects afterwards.
func (g *Game) do(fn func(b *batch)) {
	b := g.locked(fn)
	g.flush(b)
}

func (g *Game) locked(fn func(b *batch)) *batch {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := &batch{}
	g.fx = b
	defer func() { g.fx = nil }()
	fn(b)
	if len(b.changes) > 0 {
		g.version++
		b.snapshot = g.snapshotLocked()
	}
	return b
}

func (g *Game) flush(b *batch) {
	for _, c := range b.calls {
		if c.Celebration {
			g.feedback.TriggerCelebration()
			continue
		}
		g.feedback.PlayCue(c.Cue)
	}
	if g.listener != nil {
		for _, c := range b.changes {
			g.listener.Changed(c, b.snapshot)
		}
	}
	if b.done && g.onComplete != nil {
		g.onComplete(b.success)
	}
}

// evaluateLocked is the single evaluation entry point for every input
// modality. It runs inside the unifier's drop handling.
func (g *Game) evaluateLocked(itemID, targetID string) {
	b := g.fx
	res, err := g.sess.Drop(itemID, targetID)
	if err != nil {
		g.log.Debug().Err(err).Str("item", itemID).Str("target", targetID).Msg("drop ignored")
		b.change(ChangeDrag)
		return
	}
	g.log.Debug().
		Str("item", itemID).
		Str("target", targetID).
		Bool("correct", res.Outcome.Correct).
		Str("status", res.To.String()).
		Msg("drop evaluated")

	if res.Outcome.Correct {
		b.cue(feedback.CueCorrect)
	} else {
		b.cue(feedback.CueIncorrect)
	}
	b.change(ChangeOutcome)
	if res.Settling() {
		if res.To == round.StatusCorrect && g.sess.Current().Kind() == round.FreeSort {
			b.cue(feedback.CueCelebrate)
		}
		g.beginSettleLocked(b)
	}
}

func (g *Game) expire(gen uint64) {
	g.do(func(b *batch) {
		if g.closed || gen != g.gen {
			return
		}
		res, err := g.sess.Expire()
		if err != nil {
			return
		}
		g.log.Debug().Int("round", g.sess.Index()).Str("status", res.To.String()).Msg("round timed out")
		g.unifier.Reset()
		b.cue(feedback.CueIncorrect)
		b.change(ChangeTimedOut)
		g.beginSettleLocked(b)
	})
}

// beginSettleLocked cancels the countdown and schedules settlement after the
// feedback delay. A zero delay settles immediately.
func (g *Game) beginSettleLocked(b *batch) {
	g.stopTimersLocked()
	d := g.sess.SettleDelay()
	if d <= 0 {
		g.settleLocked(b)
		return
	}
	gen := g.gen
	g.settle = g.clock.AfterFunc(d, func() { g.settleFired(gen) })
}

func (g *Game) settleFired(gen uint64) {
	g.do(func(b *batch) {
		if g.closed || gen != g.gen {
			return
		}
		g.settleLocked(b)
	})
}

func (g *Game) settleLocked(b *batch) {
	g.settle = nil
	if err := g.sess.Settle(); err != nil {
		g.log.Debug().Err(err).Msg("settle ignored")
		return
	}
	c, err := g.sess.Advance()
	if err != nil {
		g.log.Debug().Err(err).Msg("advance ignored")
		return
	}
	if c.Done {
		g.stopTimersLocked()
		if c.Success {
			b.celebrate()
		}
		b.complete(c.Success)
		b.change(ChangeComplete)
		g.log.Debug().Bool("success", c.Success).Int("score", g.sess.Score()).Msg("game complete")
		return
	}
	g.openRoundLocked()
	b.change(ChangeRound)
}

// openRoundLocked arms the countdown for a freshly opened round.
func (g *Game) openRoundLocked() {
	g.stopTimersLocked()
	g.unifier.Reset()
	r := g.sess.Current()
	if r == nil || !r.Timed() {
		return
	}
	gen := g.gen
	g.deadlineAt = g.clock.Now().Add(r.Deadline())
	g.deadline = g.clock.AfterFunc(r.Deadline(), func() { g.expire(gen) })
	g.armTickLocked(gen)
}

func (g *Game) armTickLocked(gen uint64) {
	if g.tick <= 0 {
		return
	}
	g.ticker = g.clock.AfterFunc(g.tick, func() {
		g.do(func(b *batch) {
			if g.closed || gen != g.gen {
				return
			}
			b.change(ChangeTick)
			g.armTickLocked(gen)
		})
	})
}

// stopTimersLocked stops every pending timer and bumps the generation so a
// callback already past its Stop cannot act.
func (g *Game) stopTimersLocked() {
	g.gen++
	for _, t := range []clock.Timer{g.deadline, g.settle, g.ticker} {
		if t != nil {
			t.Stop()
		}
	}
	g.deadline, g.settle, g.ticker = nil, nil, nil
	g.deadlineAt = time.Time{}
}

// resolver connects the unifier to the game. Its methods run with the game
// lock held.
type resolver struct{ g *Game }

func (r resolver) Pool(itemID string) (string, bool) {
	cur := r.g.sess.Current()
	if cur == nil || r.g.sess.Complete() || !cur.Draggable(itemID) {
		return "", false
	}
	return cur.Pool(itemID)
}

func (r resolver) Evaluate(itemID, targetID string) {
	r.g.evaluateLocked(itemID, targetID)
}
