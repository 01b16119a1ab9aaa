package play

import (
	"time"

	"sortplay/pkg/content"
	"sortplay/pkg/evaluate"
	"sortplay/pkg/interact"
	"sortplay/pkg/round"
	"sortplay/pkg/session"
)

// Target is the render state of one drop target.
type Target struct {
	ID       string
	Label    string
	Capacity int
	Placed   []content.Item
	Full     bool
	Hovered  bool
}

// Snapshot is an immutable copy of everything a rendering surface needs.
type Snapshot struct {
	Version     uint64
	Status      session.Status
	Mode        session.Mode
	RoundIndex  int
	Rounds      int
	RoundKind   round.Kind
	RoundStatus round.Status
	Prompt      string
	Items       []content.Item
	Remaining   []content.Item
	Discarded   []content.Item
	Targets     []Target
	Drag        interact.DragSession
	Last        evaluate.Outcome
	HasLast     bool
	Deadline    time.Duration
	TimeLeft    time.Duration
	Score       int
	Lives       int
	TargetScore int
	Mistakes    int
	Evaluated   int
	Complete    bool
	Success     bool
}

// Timed reports whether the current round runs a countdown.
func (s Snapshot) Timed() bool {
	return s.Deadline > 0
}

// Target returns the render state of the target with id.
func (s Snapshot) Target(id string) (Target, bool) {
	for _, t := range s.Targets {
		if t.ID == id {
			return t, true
		}
	}
	return Target{}, false
}

func (g *Game) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:     g.version,
		Status:      g.sess.Status(),
		Mode:        g.sess.Mode(),
		RoundIndex:  g.sess.Index(),
		Rounds:      g.sess.Len(),
		Drag:        g.unifier.Session(),
		Score:       g.sess.Score(),
		Lives:       g.sess.Lives(),
		TargetScore: g.sess.TargetScore(),
		Mistakes:    g.sess.Mistakes(),
		Evaluated:   g.sess.Evaluated(),
		Complete:    g.sess.Complete(),
		Success:     g.sess.Success(),
	}
	r := g.sess.Current()
	if r == nil {
		return snap
	}
	snap.RoundKind = r.Kind()
	snap.RoundStatus = r.Status()
	snap.Prompt = r.Prompt()
	snap.Items = r.Items()
	snap.Remaining = r.Remaining()
	snap.Discarded = r.Discarded()
	snap.Last, snap.HasLast = r.LastOutcome()
	snap.Deadline = r.Deadline()
	if r.Timed() && r.Status() == round.StatusActive && !g.deadlineAt.IsZero() {
		snap.TimeLeft = max(g.deadlineAt.Sub(g.clock.Now()), 0)
	}
	for _, t := range r.Targets() {
		snap.Targets = append(snap.Targets, Target{
			ID:       t.ID,
			Label:    t.Label,
			Capacity: t.Capacity,
			Placed:   r.Placed(t.ID),
			Full:     r.Full(t.ID),
			Hovered:  snap.Drag.HoveredTargetID == t.ID,
		})
	}
	return snap
}
