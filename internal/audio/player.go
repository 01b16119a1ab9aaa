// Package audio plays feedback cues through the system speaker.
package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"

	"sortplay/pkg/feedback"
)

const (
	sampleRate    = beep.SampleRate(48000)
	bufferLength  = 100 * time.Millisecond
	defaultVolume = 0.5
)

// CueSound returns the streamer for c, or nil for an unknown cue.
func CueSound(c feedback.Cue, rate beep.SampleRate, volume float64) beep.Streamer {
	switch c {
	case feedback.CueCorrect:
		return Melody(rate, volume,
			Note{Freq: 783.99, Dur: 90 * time.Millisecond},
			Note{Freq: 1046.50, Dur: 160 * time.Millisecond},
		)
	case feedback.CueIncorrect:
		return Melody(rate, volume*0.6,
			Note{Freq: 196.00, Dur: 120 * time.Millisecond, Wave: WaveSquare},
			Note{Freq: 164.81, Dur: 180 * time.Millisecond, Wave: WaveSquare},
		)
	case feedback.CueCelebrate:
		return Melody(rate, volume,
			Note{Freq: 523.25, Dur: 100 * time.Millisecond, Wave: WaveTriangle},
			Note{Freq: 659.25, Dur: 100 * time.Millisecond, Wave: WaveTriangle},
			Note{Freq: 783.99, Dur: 100 * time.Millisecond, Wave: WaveTriangle},
			Note{Freq: 1046.50, Dur: 220 * time.Millisecond, Wave: WaveTriangle},
		)
	default:
		return nil
	}
}

// CelebrationSound is the fanfare played when a session is won.
func CelebrationSound(rate beep.SampleRate, volume float64) beep.Streamer {
	return Melody(rate, volume,
		Note{Freq: 523.25, Dur: 120 * time.Millisecond},
		Note{Freq: 523.25, Dur: 120 * time.Millisecond},
		Note{Freq: 783.99, Dur: 120 * time.Millisecond},
		Note{Freq: 1046.50, Dur: 400 * time.Millisecond},
	)
}

// Player is a feedback.Dispatcher backed by the speaker. Until Init
// succeeds every call is a no-op.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
	played      int
	log         zerolog.Logger
}

// NewPlayer returns an uninitialised player.
func NewPlayer(log zerolog.Logger) *Player {
	return &Player{mixer: &beep.Mixer{}, volume: defaultVolume, log: log}
}

// SetVolume sets the linear volume in [0, 1] for sounds started afterwards.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = min(max(v, 0), 1)
}

// Init opens the speaker and starts the mixer.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(bufferLength)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	p.log.Debug().Int("sample_rate", int(sampleRate)).Msg("audio ready")
	return nil
}

func (p *Player) PlayCue(c feedback.Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.play(CueSound(c, sampleRate, p.volume))
}

func (p *Player) TriggerCelebration() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.play(CelebrationSound(sampleRate, p.volume))
}

// Played reports how many sounds reached the mixer.
func (p *Player) Played() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played
}

func (p *Player) play(s beep.Streamer) {
	if !p.initialized || s == nil {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
	p.played++
}

// Close silences pending sounds and releases the speaker.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.initialized = false
}
