// Package evaluate decides whether an item was placed on the right target.
package evaluate

import "sortplay/pkg/content"

// Outcome is the result of one evaluation.
type Outcome struct {
	Correct  bool
	ItemID   string
	TargetID string
	// Blocked marks a placement the target accepts that was refused because
	// the remaining items could no longer all be placed.
	Blocked bool
}

// Evaluate applies the target's acceptance predicate to the item. It keeps no
// state, so calling it twice with the same arguments yields the same Outcome.
func Evaluate(item content.Item, target content.DropTarget) Outcome {
	return Outcome{
		Correct:  target.Accept(item),
		ItemID:   item.ID,
		TargetID: target.ID,
	}
}

// Home returns the first target in targets that accepts item.
func Home(item content.Item, targets []content.DropTarget) (content.DropTarget, bool) {
	for _, t := range targets {
		if Evaluate(item, t).Correct {
			return t, true
		}
	}
	return content.DropTarget{}, false
}
