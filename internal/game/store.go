// Package game hosts web play sessions: one engine instance per learner,
// registered in a realtime room store so the stream handler can push board
// updates, countdown ticks and feedback cues.
package game

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sortplay/internal/lessons"
	"sortplay/pkg/clock"
	"sortplay/pkg/feedback"
	"sortplay/pkg/play"
	"sortplay/pkg/realtime"
	"sortplay/pkg/round"
	"sortplay/pkg/session"
)

// Stream event names.
const (
	EventBoard     = "board"
	EventCountdown = "countdown"
	EventCue       = "cue"
	EventCelebrate = "celebrate"
	EventComplete  = "complete"
)

// Store holds sessions and delegates to realtime.RoomStore for lookup and
// broadcast.
type Store struct {
	r           *realtime.RoomStore[*Session]
	catalog     *lessons.Catalog
	clock       clock.Clock
	delays      round.Delays
	countdown   realtime.Countdown
	log         zerolog.Logger
	sessionOpts []session.Option
}

type Option func(*Store)

// WithClock replaces the wall clock for engine timers and countdown loops.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithDelays sets how long feedback stays on screen before a round settles.
func WithDelays(d round.Delays) Option {
	return func(s *Store) { s.delays = d }
}

// WithTick sets the countdown push interval.
func WithTick(d time.Duration) Option {
	return func(s *Store) { s.countdown.Tick = d }
}

// WithSessionOptions passes options to every session created.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Store) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// NewStore creates an in-memory session store over catalog.
func NewStore(catalog *lessons.Catalog, opts ...Option) *Store {
	s := &Store{
		catalog:   catalog,
		clock:     clock.NewReal(),
		delays:    round.DefaultDelays(),
		countdown: realtime.Countdown{Tick: realtime.DefaultTick},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.r = realtime.NewRoomStore[*Session](s.clock)
	return s
}

// Catalog returns the lessons sessions are created from.
func (s *Store) Catalog() *lessons.Catalog {
	return s.catalog
}

// CreateSession starts a new session for the lesson with lessonID.
func (s *Store) CreateSession(lessonID string) (*Session, error) {
	l, err := s.catalog.Get(lessonID)
	if err != nil {
		return nil, err
	}
	cfg, err := l.Build(s.delays)
	if err != nil {
		return nil, err
	}

	id := newID()
	sess := newSession(id, l.ID, l.Title, s.clock.Now().UTC())
	log := s.log.With().Str("session", id).Str("lesson", l.ID).Logger()
	g, err := play.New(cfg,
		play.WithClock(s.clock),
		play.WithLogger(log),
		play.WithFeedback(streamFeedback{rooms: s.r, id: id}),
		play.WithListener(play.ListenerFunc(func(c play.Change, snap play.Snapshot) {
			s.changed(id, c, snap)
		})),
		play.WithOnComplete(func(success bool) {
			log.Info().Bool("success", success).Msg("session complete")
		}),
		play.WithSessionOptions(s.sessionOpts...),
	)
	if err != nil {
		return nil, fmt.Errorf("lesson %s: %w", l.ID, err)
	}
	sess.attach(g)
	s.r.Create(id, sess)

	if err := g.Start(); err != nil {
		s.Delete(id)
		return nil, fmt.Errorf("start session: %w", err)
	}
	if timed(cfg) {
		s.ensureCountdown(id)
	}
	log.Info().Msg("session created")
	return sess, nil
}

// GetSession returns a session by ID if it exists.
func (s *Store) GetSession(id string) (*Session, bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	return room.State, true
}

// Broadcaster returns the stream broadcaster for a session.
func (s *Store) Broadcaster(id string) (*realtime.Broadcaster[realtime.Event], bool) {
	return s.r.Broadcaster(id)
}

// Publish notifies subscribers of a session.
func (s *Store) Publish(id string, ev realtime.Event) {
	s.r.Publish(id, ev)
}

// Delete closes a session and disconnects its subscribers.
func (s *Store) Delete(id string) bool {
	room, ok := s.r.Delete(id)
	if !ok {
		return false
	}
	room.State.close()
	return true
}

// Sweep deletes sessions created before now-maxAge and returns how many
// were removed.
func (s *Store) Sweep(maxAge time.Duration) int {
	cutoff := s.clock.Now().UTC().Add(-maxAge)
	var stale []string
	s.r.Each(func(room *realtime.Room[*Session]) {
		if room.State.CreatedAt.Before(cutoff) {
			stale = append(stale, room.ID)
		}
	})
	n := 0
	for _, id := range stale {
		if s.Delete(id) {
			n++
		}
	}
	if n > 0 {
		s.log.Debug().Int("count", n).Msg("swept sessions")
	}
	return n
}

// Close deletes every session.
func (s *Store) Close() {
	var ids []string
	s.r.Each(func(room *realtime.Room[*Session]) { ids = append(ids, room.ID) })
	for _, id := range ids {
		s.Delete(id)
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.r.Len()
}

// changed runs outside the engine lock after every committed change.
func (s *Store) changed(id string, c play.Change, snap play.Snapshot) {
	switch c {
	case play.ChangeTick:
		return
	case play.ChangeComplete:
		s.r.Publish(id, boardEvent(snap))
		result := "failure"
		if snap.Success {
			result = "success"
		}
		s.r.Publish(id, realtime.Event{Name: EventComplete, Data: result})
	default:
		s.r.Publish(id, boardEvent(snap))
	}
	if c != play.ChangeDrag {
		s.r.Wake(id)
	}
}

func boardEvent(snap play.Snapshot) realtime.Event {
	return realtime.Event{Name: EventBoard, Data: strconv.FormatUint(snap.Version, 10)}
}

// ensureCountdown starts the loop that pushes countdown ticks while a timed
// round is active. The loop idles between rounds and ends with the session.
func (s *Store) ensureCountdown(id string) {
	getState := func() *Session {
		room, ok := s.r.Get(id)
		if !ok {
			return nil
		}
		return room.State
	}
	s.r.RunLoop(id, getState, s.countdownTick)
}

func (s *Store) countdownTick(sess *Session, now time.Time) (time.Time, []realtime.Event, bool) {
	if sess == nil {
		return time.Time{}, nil, true
	}
	snap := sess.Snapshot()
	if snap.Complete {
		return time.Time{}, nil, true
	}
	next, ok := s.countdown.NextWake(now, snap.TimeLeft)
	if !ok {
		return s.countdown.IdleWake(now), nil, false
	}
	ev := realtime.Event{Name: EventCountdown, Data: strconv.Itoa(realtime.Seconds(snap.TimeLeft))}
	return next, []realtime.Event{ev}, false
}

func timed(cfg session.Config) bool {
	for _, spec := range cfg.Rounds {
		if spec.Deadline > 0 {
			return true
		}
	}
	return false
}

// streamFeedback publishes cues to the session's subscribers; the browser
// plays them.
type streamFeedback struct {
	rooms *realtime.RoomStore[*Session]
	id    string
}

func (f streamFeedback) PlayCue(c feedback.Cue) {
	f.rooms.Publish(f.id, realtime.Event{Name: EventCue, Data: c.String()})
}

func (f streamFeedback) TriggerCelebration() {
	f.rooms.Publish(f.id, realtime.Event{Name: EventCelebrate})
}

func newID() string {
	// 10 bytes -> 16 chars of base32, short and url-safe.
	buf := make([]byte, 10)
	_, _ = rand.Read(buf)
	encoder := base32.StdEncoding.WithPadding(base32.NoPadding)
	return strings.ToLower(encoder.EncodeToString(buf))
}
