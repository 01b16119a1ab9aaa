// Package feedback defines the side-effect sink the engine calls after a
// transition is committed: sound cues and the celebration effect. The engine
// never depends on a call succeeding.
package feedback

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Cue identifies a sound cue.
type Cue uint8

const (
	CueCorrect Cue = iota + 1
	CueIncorrect
	CueCelebrate
)

// String returns the cue name.
func (c Cue) String() string {
	switch c {
	case CueCorrect:
		return "correct"
	case CueIncorrect:
		return "incorrect"
	case CueCelebrate:
		return "celebrate"
	default:
		return "none"
	}
}

// Dispatcher receives fire-and-forget feedback calls.
type Dispatcher interface {
	PlayCue(Cue)
	TriggerCelebration()
}

// Nop discards everything. Used where no audio or effects backend exists.
type Nop struct{}

func (Nop) PlayCue(Cue)         {}
func (Nop) TriggerCelebration() {}

// Guard wraps d so a panicking backend is recovered and logged instead of
// reaching the caller. A nil d behaves like Nop.
func Guard(d Dispatcher, logger zerolog.Logger) Dispatcher {
	if d == nil {
		return Nop{}
	}
	if g, ok := d.(*guarded); ok {
		return g
	}
	return &guarded{next: d, log: logger}
}

type guarded struct {
	next Dispatcher
	log  zerolog.Logger
}

func (g *guarded) PlayCue(c Cue) {
	defer g.recover("play_cue", c.String())
	g.next.PlayCue(c)
}

func (g *guarded) TriggerCelebration() {
	defer g.recover("celebration", "")
	g.next.TriggerCelebration()
}

func (g *guarded) recover(call string, cue string) {
	if r := recover(); r != nil {
		g.log.Warn().
			Str("call", call).
			Str("cue", cue).
			Str("panic", fmt.Sprint(r)).
			Msg("feedback dispatcher failed")
	}
}

// Multi fans every call out to each dispatcher in order.
type Multi []Dispatcher

func (m Multi) PlayCue(c Cue) {
	for _, d := range m {
		if d != nil {
			d.PlayCue(c)
		}
	}
}

func (m Multi) TriggerCelebration() {
	for _, d := range m {
		if d != nil {
			d.TriggerCelebration()
		}
	}
}

// Call is one recorded dispatcher call. Cue is zero for celebrations.
type Call struct {
	Cue         Cue
	Celebration bool
}

// Recorder keeps every call it receives. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) PlayCue(c Cue) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Cue: c})
	r.mu.Unlock()
}

func (r *Recorder) TriggerCelebration() {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Celebration: true})
	r.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Cues returns only the recorded cues, in order.
func (r *Recorder) Cues() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Cue, 0, len(r.calls))
	for _, c := range r.calls {
		if !c.Celebration {
			out = append(out, c.Cue)
		}
	}
	return out
}

// Celebrations returns how many celebrations were triggered.
func (r *Recorder) Celebrations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Celebration {
			n++
		}
	}
	return n
}
