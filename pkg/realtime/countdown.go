package realtime

import "time"

// Countdown paces countdown pushes for a timed round. It holds no round
// state; the caller feeds it the time left and publishes when it says so.
type Countdown struct {
	Tick time.Duration
	// Idle is how long a loop sleeps when no countdown runs. Loops are
	// normally woken before it elapses.
	Idle time.Duration
}

// DefaultTick is the usual countdown push interval.
const DefaultTick = 250 * time.Millisecond

// DefaultIdle is the usual sleep between countdowns.
const DefaultIdle = 30 * time.Second

// NextWake returns when the next push is due. Ticks are aligned so the last
// one lands on the deadline. ok is false when no time is left.
func (c Countdown) NextWake(now time.Time, left time.Duration) (time.Time, bool) {
	if left <= 0 {
		return time.Time{}, false
	}
	tick := c.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	step := left % tick
	if step == 0 {
		step = tick
	}
	return now.Add(step), true
}

// IdleWake returns when a loop with nothing to count should recheck.
func (c Countdown) IdleWake(now time.Time) time.Time {
	if c.Idle <= 0 {
		return now.Add(DefaultIdle)
	}
	return now.Add(c.Idle)
}

// Seconds returns the whole seconds to display, rounded up so "0" only
// shows once time is out.
func Seconds(left time.Duration) int {
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Fraction returns left/total clamped to [0, 1], for progress bars.
func Fraction(left, total time.Duration) float64 {
	if total <= 0 || left <= 0 {
		return 0
	}
	if left >= total {
		return 1
	}
	return float64(left) / float64(total)
}
