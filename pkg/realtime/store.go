package realtime

import (
	"context"
	"sync"
	"time"

	"sortplay/pkg/clock"
)

// Room holds state and a broadcaster for one room.
type Room[T any] struct {
	ID    string
	State T
	hub   *Broadcaster[Event]
}

// RoomStore manages rooms and their broadcasters.
type RoomStore[T any] struct {
	mu    sync.RWMutex
	clock clock.Clock
	rooms map[string]*Room[T]
	loops map[string]context.CancelFunc
	wakes map[string]chan struct{}
}

// NewRoomStore creates an empty room store. A nil clock means the wall clock.
func NewRoomStore[T any](c clock.Clock) *RoomStore[T] {
	if c == nil {
		c = clock.NewReal()
	}
	return &RoomStore[T]{
		clock: c,
		rooms: make(map[string]*Room[T]),
		loops: make(map[string]context.CancelFunc),
		wakes: make(map[string]chan struct{}),
	}
}

// Create adds a room with the given id and state, and a new Broadcaster.
func (s *RoomStore[T]) Create(id string, state T) *Room[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Room[T]{ID: id, State: state, hub: NewBroadcaster[Event]()}
	s.rooms[id] = r
	return r
}

// Get returns the room by ID if it exists.
func (s *RoomStore[T]) Get(id string) (*Room[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Delete stops the room's loop, disconnects its subscribers and forgets it.
func (s *RoomStore[T]) Delete(id string) (*Room[T], bool) {
	s.mu.Lock()
	r, ok := s.rooms[id]
	delete(s.rooms, id)
	cancel := s.loops[id]
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if ok && r.hub != nil {
		r.hub.Close()
	}
	return r, ok
}

// Len returns the number of rooms.
func (s *RoomStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Each calls fn for every room. fn must not call back into the store.
func (s *RoomStore[T]) Each(fn func(*Room[T])) {
	s.mu.RLock()
	rooms := make([]*Room[T], 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()
	for _, r := range rooms {
		fn(r)
	}
}

// Publish notifies subscribers of the room's broadcaster. Unknown rooms are
// ignored.
func (s *RoomStore[T]) Publish(id string, event Event) {
	s.mu.RLock()
	r, ok := s.rooms[id]
	s.mu.RUnlock()
	if !ok || r.hub == nil {
		return
	}
	r.hub.Publish(event)
}

// Broadcaster returns the broadcaster for the room.
func (s *RoomStore[T]) Broadcaster(id string) (*Broadcaster[Event], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, false
	}
	if r.hub == nil {
		r.hub = NewBroadcaster[Event]()
	}
	return r.hub, true
}

// TickFunc is called by RunLoop to determine the next wake time and events to publish.
// stop true means exit the loop.
type TickFunc[T any] func(state T, now time.Time) (next time.Time, events []Event, stop bool)

// RunLoop starts a timing loop for the room. If a loop already exists for id, it is not started again.
func (s *RoomStore[T]) RunLoop(id string, getState func() T, tick TickFunc[T]) {
	s.mu.Lock()
	if _, ok := s.loops[id]; ok {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)
	s.loops[id] = cancel
	s.wakes[id] = wake
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.loops, id)
			delete(s.wakes, id)
			s.mu.Unlock()
			cancel()
		}()

		for {
			if ctx.Err() != nil {
				return
			}
			now := s.clock.Now()
			next, events, stop := tick(getState(), now)
			if stop {
				return
			}
			for _, e := range events {
				s.Publish(id, e)
			}
			wait := next.Sub(now)
			if wait < 0 {
				wait = 0
			}
			fired := make(chan struct{}, 1)
			timer := s.clock.AfterFunc(wait, func() { fired <- struct{}{} })
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-fired:
			case <-wake:
				timer.Stop()
			}
		}
	}()
}

// Running reports whether a loop is active for id.
func (s *RoomStore[T]) Running(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.loops[id]
	return ok
}

// Wake unblocks the room's loop so it recomputes immediately.
func (s *RoomStore[T]) Wake(id string) {
	s.mu.RLock()
	wake, ok := s.wakes[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case wake <- struct{}{}:
	default:
	}
}
