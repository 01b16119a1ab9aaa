package interact

import "sync"

// Rect is an axis-aligned region in surface coordinates. The right and
// bottom edges are exclusive so adjacent regions never share a point.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Area returns W*H.
func (r Rect) Area() float64 {
	return r.W * r.H
}

// Region is a registered hit area.
type Region struct {
	ID   string
	Rect Rect
	Z    int
	seq  uint64
}

// Layout is the on-screen geometry touch coordinates are resolved against.
// It is safe for concurrent use: rendering surfaces update it while input
// handlers read it.
type Layout struct {
	mu      sync.RWMutex
	seq     uint64
	targets map[string]Region
	items   map[string]Region
}

// NewLayout creates an empty layout.
func NewLayout() *Layout {
	return &Layout{
		targets: make(map[string]Region),
		items:   make(map[string]Region),
	}
}

// SetTarget registers or moves a drop target region.
func (l *Layout) SetTarget(id string, r Rect, z int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.targets[id] = Region{ID: id, Rect: r, Z: z, seq: l.seq}
}

// SetItem registers or moves a draggable item region.
func (l *Layout) SetItem(id string, r Rect, z int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.items[id] = Region{ID: id, Rect: r, Z: z, seq: l.seq}
}

// RemoveItem forgets an item region.
func (l *Layout) RemoveItem(id string) {
	l.mu.Lock()
	delete(l.items, id)
	l.mu.Unlock()
}

// Reset drops every region.
func (l *Layout) Reset() {
	l.mu.Lock()
	l.targets = make(map[string]Region)
	l.items = make(map[string]Region)
	l.mu.Unlock()
}

// TargetAt returns the drop target under (x, y).
func (l *Layout) TargetAt(x, y float64) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return hitTest(l.targets, x, y)
}

// ItemAt returns the item under (x, y).
func (l *Layout) ItemAt(x, y float64) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return hitTest(l.items, x, y)
}

// Targets returns a copy of the registered target regions.
func (l *Layout) Targets() []Region {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Region, 0, len(l.targets))
	for _, r := range l.targets {
		out = append(out, r)
	}
	return out
}

// hitTest picks the topmost region containing the point: highest Z first,
// then the smallest (innermost) area, then the most recently registered.
func hitTest(regions map[string]Region, x, y float64) (string, bool) {
	var best Region
	found := false
	for _, r := range regions {
		if !r.Rect.Contains(x, y) {
			continue
		}
		if !found || above(r, best) {
			best = r
			found = true
		}
	}
	return best.ID, found
}

func above(a, b Region) bool {
	if a.Z != b.Z {
		return a.Z > b.Z
	}
	if a.Rect.Area() != b.Rect.Area() {
		return a.Rect.Area() < b.Rect.Area()
	}
	return a.seq > b.seq
}
