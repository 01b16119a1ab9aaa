// Package content holds the game content the learner manipulates: items,
// drop targets and the acceptance predicates that decide where an item
// belongs.
package content

// Unlimited marks a target that accepts any number of items (a bin).
const Unlimited = 0

// Classifier is the property correctness checks look at. Category covers
// names such as "natural" or a color; Rank covers numerals and ordinal order.
type Classifier struct {
	Category string
	Rank     int
}

// Item is a unit the learner drags or taps. Items are immutable once a round
// puts them in play.
type Item struct {
	ID         string
	Payload    string
	Classifier Classifier
}

// Predicate reports whether a target accepts an item. Predicates must be pure.
type Predicate func(Item) bool

// DropTarget is a destination for items.
type DropTarget struct {
	ID       string
	Label    string
	Accepts  Predicate
	Capacity int
}

// Limited reports whether the target holds a bounded number of items.
func (t DropTarget) Limited() bool {
	return t.Capacity > Unlimited
}

// Accept evaluates the target's predicate. A target without a predicate
// accepts nothing.
func (t DropTarget) Accept(item Item) bool {
	if t.Accepts == nil {
		return false
	}
	return t.Accepts(item)
}

// Bin returns an unlimited target.
func Bin(id, label string, accepts Predicate) DropTarget {
	return DropTarget{ID: id, Label: label, Accepts: accepts, Capacity: Unlimited}
}

// Slot returns a target that holds exactly one item.
func Slot(id, label string, accepts Predicate) DropTarget {
	return DropTarget{ID: id, Label: label, Accepts: accepts, Capacity: 1}
}

// CategoryIs accepts items whose classifier category equals category.
func CategoryIs(category string) Predicate {
	return func(it Item) bool { return it.Classifier.Category == category }
}

// RankIs accepts items with the given rank (numeral or ordinal position).
func RankIs(rank int) Predicate {
	return func(it Item) bool { return it.Classifier.Rank == rank }
}

// IDIs accepts exactly one item.
func IDIs(id string) Predicate {
	return func(it Item) bool { return it.ID == id }
}

// AnyOf accepts an item accepted by at least one of preds.
func AnyOf(preds ...Predicate) Predicate {
	return func(it Item) bool {
		for _, p := range preds {
			if p != nil && p(it) {
				return true
			}
		}
		return false
	}
}

// FindItem returns the item with id from items.
func FindItem(items []Item, id string) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// FindTarget returns the target with id from targets.
func FindTarget(targets []DropTarget, id string) (DropTarget, bool) {
	for _, t := range targets {
		if t.ID == id {
			return t, true
		}
	}
	return DropTarget{}, false
}
