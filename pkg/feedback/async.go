package feedback

import (
	"sync"
	"sync/atomic"
)

// Async decouples callers from a slow backend. Calls are queued on a bounded
// channel and drained by one goroutine; when the queue is full the call is
// dropped rather than blocking the caller.
type Async struct {
	next    Dispatcher
	queue   chan Call
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewAsync starts the drain goroutine. Wrap next with Guard first if it may
// panic; a panic here would stop the drain loop.
func NewAsync(next Dispatcher, size int) *Async {
	if size < 1 {
		size = 16
	}
	a := &Async{
		next:  next,
		queue: make(chan Call, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for call := range a.queue {
		if call.Celebration {
			a.next.TriggerCelebration()
			continue
		}
		a.next.PlayCue(call.Cue)
	}
}

func (a *Async) PlayCue(c Cue) {
	a.enqueue(Call{Cue: c})
}

func (a *Async) TriggerCelebration() {
	a.enqueue(Call{Celebration: true})
}

func (a *Async) enqueue(call Call) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- call:
	default:
		// Lagging backend; the next cue supersedes this one.
		a.dropped.Add(1)
	}
}

// Close stops accepting calls and waits for queued calls to drain.
func (a *Async) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()
	})
	<-a.done
}

// Dropped returns how many calls were discarded because the queue was full.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}
