package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// Wave selects an oscillator shape.
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveTriangle
)

type oscillator struct {
	freq     float64
	phase    float64
	wave     Wave
	rate     beep.SampleRate
	position int
	length   int
}

// NewOscillator returns a finite streamer of one tone.
func NewOscillator(freq float64, d time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return &oscillator{freq: freq, wave: wave, rate: rate, length: rate.N(d)}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.length {
			return i, i > 0
		}
		var v float64
		switch o.wave {
		case WaveSquare:
			v = 1
			if o.phase >= 0.5 {
				v = -1
			}
		case WaveTriangle:
			v = 4*math.Abs(o.phase-0.5) - 1
		default:
			v = math.Sin(2 * math.Pi * o.phase)
		}
		samples[i][0] = v
		samples[i][1] = v

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope fades a streamer in and out to avoid clicks.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

// NewEnvelope shapes s with a linear attack and release over d.
func NewEnvelope(s beep.Streamer, d, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(d),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		gain := 1.0
		if e.attack > 0 && e.position < e.attack {
			gain = float64(e.position) / float64(e.attack)
		}
		if left := e.total - e.position; e.release > 0 && left < e.release {
			gain = math.Max(0, float64(left)/float64(e.release))
		}
		samples[i][0] *= gain
		samples[i][1] *= gain
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// Note is one step of a melody.
type Note struct {
	Freq float64
	Dur  time.Duration
	Wave Wave
}

const (
	noteAttack  = 5 * time.Millisecond
	noteRelease = 40 * time.Millisecond
)

// Melody plays notes back to back at the given linear volume.
func Melody(rate beep.SampleRate, volume float64, notes ...Note) beep.Streamer {
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		parts = append(parts, NewEnvelope(voice(rate, n), n.Dur, noteAttack, noteRelease, rate))
	}
	return withVolume(beep.Seq(parts...), volume)
}

func voice(rate beep.SampleRate, n Note) beep.Streamer {
	if n.Wave == WaveSine {
		if sine, err := generators.SineTone(rate, n.Freq); err == nil {
			return beep.Take(rate.N(n.Dur), sine)
		}
	}
	return NewOscillator(n.Freq, n.Dur, n.Wave, rate)
}

// math.Log2(0) is -Inf, so zero volume is expressed as silence.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
