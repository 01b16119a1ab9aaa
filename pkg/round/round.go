package round

import (
	"errors"
	"time"

	"sortplay/pkg/content"
	"sortplay/pkg/evaluate"
)

// Pool names reported for items.
const (
	PoolUnsorted  = "unsorted"
	PoolSorted    = "sorted"
	PoolDiscarded = "discarded"
)

var (
	ErrNotActive      = errors.New("round is not active")
	ErrNotShowing     = errors.New("round has no outcome to settle")
	ErrUnknownItem    = errors.New("item is not in play")
	ErrUnknownTarget  = errors.New("unknown drop target")
	ErrTargetFull     = errors.New("drop target is full")
	ErrNoDeadline     = errors.New("round has no deadline")
	ErrAlreadyStarted = errors.New("round already started")
)

// Spec is the content of one round.
type Spec struct {
	Kind     Kind
	Prompt   string
	Items    []content.Item
	Targets  []content.DropTarget
	Deadline time.Duration // zero means no countdown
}

// Result describes the effect of one evaluation or timeout.
type Result struct {
	Outcome evaluate.Outcome
	From    Status
	To      Status
}

// Settling reports whether the result ended the active phase of the round.
func (r Result) Settling() bool {
	return r.From == StatusActive && r.To.Showing()
}

// Round is one evaluable unit of play. It is not safe for concurrent use;
// the game instance owning it serializes every call.
type Round struct {
	kind      Kind
	table     Table
	status    Status
	prompt    string
	deadline  time.Duration
	items     []content.Item
	targets   []content.DropTarget
	remaining []content.Item
	placed    map[string][]content.Item
	discarded []content.Item
	mistakes  int
	attempts  int
	last      evaluate.Outcome
	hasLast   bool
}

// New creates an idle round from spec. Items and targets are copied.
func New(spec Spec) *Round {
	kind := spec.Kind
	if kind == 0 {
		kind = FreeSort
	}
	items := append([]content.Item(nil), spec.Items...)
	return &Round{
		kind:      kind,
		table:     TableFor(kind),
		prompt:    spec.Prompt,
		deadline:  spec.Deadline,
		items:     items,
		targets:   append([]content.DropTarget(nil), spec.Targets...),
		remaining: append([]content.Item(nil), items...),
		placed:    make(map[string][]content.Item),
	}
}

// Start moves an idle round to active. shuffle, if non-nil, reorders the
// unsorted pool before play begins.
func (r *Round) Start(shuffle func([]content.Item)) error {
	if r.status != StatusIdle {
		return ErrAlreadyStarted
	}
	if shuffle != nil {
		shuffle(r.remaining)
	}
	r.fire(TriggerStart)
	return nil
}

// Drop evaluates itemID dropped on targetID. Drops on a full target, of an
// item not in the unsorted pool, or while the round is not active change
// nothing and return an error the caller treats as a cancel. In a free-sort
// round a placement the target accepts is still scored incorrect when it
// would leave another item nowhere to go, so the round stays finishable.
func (r *Round) Drop(itemID, targetID string) (Result, error) {
	if r.status != StatusActive {
		return Result{}, ErrNotActive
	}
	idx := r.indexOf(itemID)
	if idx < 0 {
		return Result{}, ErrUnknownItem
	}
	target, ok := content.FindTarget(r.targets, targetID)
	if !ok {
		return Result{}, ErrUnknownTarget
	}
	if r.Full(targetID) {
		return Result{}, ErrTargetFull
	}

	item := r.remaining[idx]
	out := evaluate.Evaluate(item, target)
	if out.Correct && r.kind == FreeSort && r.strands(idx, target) {
		out.Correct, out.Blocked = false, true
	}
	r.attempts++
	r.last, r.hasLast = out, true

	trigger := TriggerIncorrect
	if out.Correct {
		trigger = TriggerCorrect
		r.remaining = append(r.remaining[:idx], r.remaining[idx+1:]...)
		r.placed[targetID] = append(r.placed[targetID], item)
	} else {
		r.mistakes++
	}
	from := r.status
	to := r.fire(trigger)
	return Result{Outcome: out, From: from, To: to}, nil
}

// Expire applies the deadline. Items still unsorted are discarded.
func (r *Round) Expire() (Result, error) {
	if r.status != StatusActive {
		return Result{}, ErrNotActive
	}
	if r.deadline <= 0 {
		return Result{}, ErrNoDeadline
	}
	r.discarded = append(r.discarded, r.remaining...)
	r.remaining = nil
	r.hasLast = false
	from := r.status
	to := r.fire(TriggerTimeout)
	return Result{From: from, To: to}, nil
}

// Settle ends the feedback display and makes the round terminal.
func (r *Round) Settle() error {
	if !r.status.Showing() {
		return ErrNotShowing
	}
	r.fire(TriggerSettle)
	return nil
}

func (r *Round) fire(on Trigger) Status {
	if next, ok := r.table.Next(r, r.status, on); ok {
		r.status = next
	}
	return r.status
}

func (r *Round) indexOf(itemID string) int {
	for i, it := range r.remaining {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// Pool returns the pool itemID currently sits in.
func (r *Round) Pool(itemID string) (string, bool) {
	if r.indexOf(itemID) >= 0 {
		return PoolUnsorted, true
	}
	for _, items := range r.placed {
		if _, ok := content.FindItem(items, itemID); ok {
			return PoolSorted, true
		}
	}
	if _, ok := content.FindItem(r.discarded, itemID); ok {
		return PoolDiscarded, true
	}
	return "", false
}

// Draggable reports whether itemID can be picked up right now.
func (r *Round) Draggable(itemID string) bool {
	return r.status == StatusActive && r.indexOf(itemID) >= 0
}

// Full reports whether a limited target has reached its capacity.
func (r *Round) Full(targetID string) bool {
	target, ok := content.FindTarget(r.targets, targetID)
	if !ok || !target.Limited() {
		return false
	}
	return len(r.placed[targetID]) >= target.Capacity
}

func (r *Round) Kind() Kind              { return r.kind }
func (r *Round) Status() Status          { return r.status }
func (r *Round) Prompt() string          { return r.prompt }
func (r *Round) Deadline() time.Duration { return r.deadline }
func (r *Round) Mistakes() int           { return r.mistakes }
func (r *Round) Attempts() int           { return r.attempts }
func (r *Round) Settled() bool           { return r.status == StatusSettled }

// Timed reports whether the round runs a countdown.
func (r *Round) Timed() bool { return r.deadline > 0 }

// LastOutcome returns the most recent evaluation.
func (r *Round) LastOutcome() (evaluate.Outcome, bool) {
	return r.last, r.hasLast
}

// Items returns every item the round issued, in content order.
func (r *Round) Items() []content.Item {
	return append([]content.Item(nil), r.items...)
}

// Targets returns the round's drop targets.
func (r *Round) Targets() []content.DropTarget {
	return append([]content.DropTarget(nil), r.targets...)
}

// Remaining returns the unsorted pool in display order.
func (r *Round) Remaining() []content.Item {
	return append([]content.Item(nil), r.remaining...)
}

// Placed returns the items sorted into targetID.
func (r *Round) Placed(targetID string) []content.Item {
	return append([]content.Item(nil), r.placed[targetID]...)
}

// Discarded returns the items lost to the deadline.
func (r *Round) Discarded() []content.Item {
	return append([]content.Item(nil), r.discarded...)
}
