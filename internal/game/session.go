package game

import (
	"sync"
	"time"

	"sortplay/pkg/interact"
	"sortplay/pkg/play"
)

// Session is one learner's game on the web surface. It pairs the engine
// instance with the adapters that translate browser input into neutral
// events.
type Session struct {
	ID        string
	LessonID  string
	Title     string
	CreatedAt time.Time

	game *play.Game

	// mu serializes adapter state; the game serializes everything else.
	mu      sync.Mutex
	layout  *interact.Layout
	pointer *interact.PointerAdapter
	touch   *interact.TouchAdapter
	tap     *interact.TapAdapter
}

func newSession(id, lessonID, title string, now time.Time) *Session {
	return &Session{
		ID:        id,
		LessonID:  lessonID,
		Title:     title,
		CreatedAt: now,
		layout:    interact.NewLayout(),
	}
}

func (s *Session) attach(g *play.Game) {
	s.game = g
	s.pointer = interact.NewPointerAdapter(g)
	s.touch = interact.NewTouchAdapter(g, s.layout)
	s.tap = interact.NewTapAdapter(g, g)
}

// Snapshot returns the current render state.
func (s *Session) Snapshot() play.Snapshot {
	return s.game.Snapshot()
}

// DragStart, DragEnter, DragLeave, Drop and DragEnd forward native
// drag-and-drop callbacks.
func (s *Session) DragStart(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer.DragStart(itemID)
}

func (s *Session) DragEnter(targetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer.DragEnter(targetID)
}

func (s *Session) DragLeave(targetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer.DragLeave(targetID)
}

func (s *Session) Drop(targetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer.Drop(targetID)
}

func (s *Session) DragEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer.DragEnd()
}

// Region is a client-reported element rectangle.
type Region struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	W  float64 `json:"w"`
	H  float64 `json:"h"`
	Z  int     `json:"z"`
}

// SetLayout replaces the touch hit-test geometry.
func (s *Session) SetLayout(items, targets []Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout.Reset()
	for _, r := range targets {
		s.layout.SetTarget(r.ID, interact.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H}, r.Z)
	}
	for _, r := range items {
		s.layout.SetItem(r.ID, interact.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H}, r.Z)
	}
}

// TouchStart begins a touch drag at (x, y). A known itemID skips the
// hit test for the item.
func (s *Session) TouchStart(itemID string, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if itemID != "" {
		return s.touch.StartItem(itemID)
	}
	return s.touch.Start(x, y)
}

func (s *Session) TouchMove(x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touch.Move(x, y)
}

func (s *Session) TouchEnd(x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touch.End(x, y)
}

func (s *Session) TouchCancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touch.Cancel()
}

// TapItem selects an item, or on a single-target round places it.
func (s *Session) TapItem(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap := s.game.Snapshot(); len(snap.Targets) == 1 {
		return s.game.Choose(itemID)
	}
	return s.tap.Item(itemID)
}

func (s *Session) TapTarget(targetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tap.Target(targetID)
}

func (s *Session) close() {
	s.game.Close()
}
