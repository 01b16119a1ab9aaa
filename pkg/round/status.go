// Package round implements the state machine of one evaluable unit of play:
// a single dash question or a whole free-sort scene.
package round

// Status is the round lifecycle state.
type Status uint8

const (
	StatusIdle Status = iota
	StatusActive
	StatusCorrect
	StatusIncorrect
	StatusTimedOut
	StatusSettled
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusCorrect:
		return "correct"
	case StatusIncorrect:
		return "incorrect"
	case StatusTimedOut:
		return "timedOut"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Showing reports whether the round is displaying an outcome and waiting for
// its feedback delay to elapse.
func (s Status) Showing() bool {
	return s == StatusCorrect || s == StatusIncorrect || s == StatusTimedOut
}

// Kind selects the round flavor.
type Kind uint8

const (
	// FreeSort rounds hold many items with unlimited retries and settle once
	// every item is placed.
	FreeSort Kind = iota + 1
	// Dash rounds settle on the first evaluation or on their deadline.
	Dash
)

// String returns the kind name as used in lesson files.
func (k Kind) String() string {
	switch k {
	case FreeSort:
		return "free-sort"
	case Dash:
		return "dash"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "free-sort", "freesort", "":
		return FreeSort, true
	case "dash":
		return Dash, true
	}
	return 0, false
}

// Attempts returns the evaluations a round allows; 0 means unlimited.
func (k Kind) Attempts() int {
	if k == Dash {
		return 1
	}
	return 0
}

// Trigger is an input to the transition table.
type Trigger uint8

const (
	TriggerStart Trigger = iota + 1
	TriggerCorrect
	TriggerIncorrect
	TriggerTimeout
	TriggerSettle
)

// String returns the trigger name.
func (t Trigger) String() string {
	switch t {
	case TriggerStart:
		return "start"
	case TriggerCorrect:
		return "correct"
	case TriggerIncorrect:
		return "incorrect"
	case TriggerTimeout:
		return "timeout"
	case TriggerSettle:
		return "settle"
	default:
		return "unknown"
	}
}
