package round

// Guard restricts a transition to rounds in a given condition.
type Guard func(*Round) bool

// Transition is one edge of the state machine. A nil Guard always passes.
type Transition struct {
	From  Status
	On    Trigger
	Guard Guard
	To    Status
}

// Table is an ordered transition list; the first edge whose From, On and
// Guard match wins.
type Table []Transition

// Next returns the state r moves to when on fires in from.
func (t Table) Next(r *Round, from Status, on Trigger) (Status, bool) {
	for _, tr := range t {
		if tr.From != from || tr.On != on {
			continue
		}
		if tr.Guard != nil && !tr.Guard(r) {
			continue
		}
		return tr.To, true
	}
	return from, false
}

// Triggers lists the triggers accepted in from, ignoring guards.
func (t Table) Triggers(from Status) []Trigger {
	var out []Trigger
	seen := make(map[Trigger]bool)
	for _, tr := range t {
		if tr.From == from && !seen[tr.On] {
			seen[tr.On] = true
			out = append(out, tr.On)
		}
	}
	return out
}

func drained(r *Round) bool { return len(r.remaining) == 0 }

func pending(r *Round) bool { return len(r.remaining) > 0 }

// FreeSortTable keeps the round active through every individual drop. Only
// the drop that empties the unsorted pool moves it to correct.
var FreeSortTable = Table{
	{From: StatusIdle, On: TriggerStart, To: StatusActive},
	{From: StatusActive, On: TriggerCorrect, Guard: pending, To: StatusActive},
	{From: StatusActive, On: TriggerCorrect, Guard: drained, To: StatusCorrect},
	{From: StatusActive, On: TriggerIncorrect, To: StatusActive},
	{From: StatusActive, On: TriggerTimeout, To: StatusTimedOut},
	{From: StatusCorrect, On: TriggerSettle, To: StatusSettled},
	{From: StatusTimedOut, On: TriggerSettle, To: StatusSettled},
}

// DashTable settles on the first evaluation or the deadline.
var DashTable = Table{
	{From: StatusIdle, On: TriggerStart, To: StatusActive},
	{From: StatusActive, On: TriggerCorrect, To: StatusCorrect},
	{From: StatusActive, On: TriggerIncorrect, To: StatusIncorrect},
	{From: StatusActive, On: TriggerTimeout, To: StatusTimedOut},
	{From: StatusCorrect, On: TriggerSettle, To: StatusSettled},
	{From: StatusIncorrect, On: TriggerSettle, To: StatusSettled},
	{From: StatusTimedOut, On: TriggerSettle, To: StatusSettled},
}

// TableFor returns the transition table for k.
func TableFor(k Kind) Table {
	if k == Dash {
		return DashTable
	}
	return FreeSortTable
}
