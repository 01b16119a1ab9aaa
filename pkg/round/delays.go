package round

import (
	"errors"
	"time"
)

// Delays are the feedback display times between an outcome and settlement.
// The learner must see the outcome before the next round loads.
type Delays struct {
	FreeSort      time.Duration
	DashCorrect   time.Duration
	DashIncorrect time.Duration
	Timeout       time.Duration
}

// DefaultDelays returns the standard display times.
func DefaultDelays() Delays {
	return Delays{
		FreeSort:      1500 * time.Millisecond,
		DashCorrect:   800 * time.Millisecond,
		DashIncorrect: 1200 * time.Millisecond,
		Timeout:       1500 * time.Millisecond,
	}
}

var ErrNegativeDelay = errors.New("negative feedback delay")

// Validate rejects negative delays. Zero settles immediately.
func (d Delays) Validate() error {
	if d.FreeSort < 0 || d.DashCorrect < 0 || d.DashIncorrect < 0 || d.Timeout < 0 {
		return ErrNegativeDelay
	}
	return nil
}

// For returns the display time for a round of kind k showing status s.
func (d Delays) For(k Kind, s Status) time.Duration {
	switch {
	case s == StatusTimedOut:
		return d.Timeout
	case k == FreeSort:
		return d.FreeSort
	case s == StatusCorrect:
		return d.DashCorrect
	default:
		return d.DashIncorrect
	}
}
