// Package clock supplies the countdown time source the engine schedules
// deadlines and feedback delays on. The engine only needs "call me after d
// unless cancelled first".
package clock

import "time"

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already
	// ran or was already stopped.
	Stop() bool
}

// Clock provides the current time and delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the wall clock with monotonic readings.
type Real struct{}

// NewReal returns the system clock.
func NewReal() Real {
	return Real{}
}

// Now returns time.Now.
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc runs f on its own goroutine after d.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
