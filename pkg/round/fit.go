package round

import "sortplay/pkg/content"

// Placeable returns how many of items can be placed at once without
// exceeding any target's capacity. held counts the items each limited target
// already holds and may be nil. Limited targets are expanded into one seat
// per free unit of capacity and matched with augmenting paths; unlimited
// targets take every item they accept.
func Placeable(items []content.Item, targets []content.DropTarget, held map[string]int) int {
	placed := 0
	var limited []content.Item
	for _, it := range items {
		free := false
		for _, t := range targets {
			if !t.Limited() && t.Accept(it) {
				free = true
				break
			}
		}
		if free {
			placed++
			continue
		}
		limited = append(limited, it)
	}

	var seats []int
	for ti, t := range targets {
		if !t.Limited() {
			continue
		}
		for n := held[t.ID]; n < t.Capacity; n++ {
			seats = append(seats, ti)
		}
	}

	owner := make([]int, len(seats))
	for i := range owner {
		owner[i] = -1
	}
	var try func(item int, visited []bool) bool
	try = func(item int, visited []bool) bool {
		for si, ti := range seats {
			if visited[si] || !targets[ti].Accept(limited[item]) {
				continue
			}
			visited[si] = true
			if owner[si] < 0 || try(owner[si], visited) {
				owner[si] = item
				return true
			}
		}
		return false
	}
	for i := range limited {
		if try(i, make([]bool, len(seats))) {
			placed++
		}
	}
	return placed
}

// strands reports whether putting remaining[idx] on the limited target
// leaves some other unsorted item with no seat it could still take.
func (r *Round) strands(idx int, target content.DropTarget) bool {
	if !target.Limited() {
		return false
	}
	rest := make([]content.Item, 0, len(r.remaining)-1)
	rest = append(rest, r.remaining[:idx]...)
	rest = append(rest, r.remaining[idx+1:]...)
	held := make(map[string]int, len(r.placed)+1)
	for id, items := range r.placed {
		held[id] = len(items)
	}
	held[target.ID]++
	return Placeable(rest, r.targets, held) < len(rest)
}
