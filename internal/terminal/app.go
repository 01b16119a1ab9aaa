// Package terminal plays a session full-screen in a terminal. Items are
// picked with number keys or dragged with the mouse; targets are chosen with
// home-row letters or by releasing the mouse over them.
package terminal

import (
	"context"
	"sync"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"sortplay/pkg/clock"
	"sortplay/pkg/feedback"
	"sortplay/pkg/interact"
	"sortplay/pkg/play"
	"sortplay/pkg/session"
)

const (
	itemKeys   = "1234567890"
	targetKeys = "asdfghjkl"
	cueFlash   = 700 * time.Millisecond
)

// Options configures an App.
type Options struct {
	Title  string
	Clock  clock.Clock
	Logger zerolog.Logger
	// Feedback receives every cue alongside the on-screen flash, e.g. audio.
	Feedback feedback.Dispatcher
	// Tick is the countdown redraw interval. Zero disables it.
	Tick time.Duration
}

// quitSignal is posted to the event loop when the run context ends.
type quitSignal struct{}

// App is one terminal game.
type App struct {
	screen tcell.Screen
	game   *play.Game
	clock  clock.Clock
	log    zerolog.Logger
	title  string

	layout *interact.Layout
	touch  *interact.TouchAdapter
	tap    *interact.TapAdapter

	mu        sync.Mutex
	cue       feedback.Cue
	cueAt     time.Time
	celebrate bool

	// Owned by the event loop.
	dragging    bool
	pressedItem string
	itemKeys    map[rune]string
	targetKeys  map[rune]string
	itemRects   map[string]interact.Rect
}

// New builds the game for cfg and binds it to screen. The screen must be
// initialised by the caller.
func New(screen tcell.Screen, cfg session.Config, opts Options) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = clock.NewReal()
	}
	a := &App{
		screen: screen,
		clock:  opts.Clock,
		log:    opts.Logger,
		title:  opts.Title,
		layout: interact.NewLayout(),
	}
	g, err := play.New(cfg,
		play.WithClock(opts.Clock),
		play.WithLogger(opts.Logger),
		play.WithFeedback(feedback.Multi{a, opts.Feedback}),
		play.WithListener(play.ListenerFunc(a.changed)),
		play.WithTick(opts.Tick),
		play.WithOnComplete(func(success bool) {
			opts.Logger.Info().Bool("success", success).Msg("session complete")
		}),
	)
	if err != nil {
		return nil, err
	}
	a.game = g
	a.touch = interact.NewTouchAdapter(g, a.layout)
	a.tap = interact.NewTapAdapter(g, g)
	return a, nil
}

// Snapshot returns the game's render state.
func (a *App) Snapshot() play.Snapshot {
	return a.game.Snapshot()
}

// Run starts the game and processes screen events until the learner quits
// or ctx is cancelled. It returns the final state.
func (a *App) Run(ctx context.Context) (play.Snapshot, error) {
	a.screen.EnableMouse()
	a.screen.HideCursor()
	defer a.screen.DisableMouse()

	if err := a.game.Start(); err != nil {
		return play.Snapshot{}, err
	}
	defer a.game.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(quitSignal{}))
	})
	defer stop()

	a.Draw()
	for {
		ev := a.screen.PollEvent()
		if ev == nil || !a.HandleEvent(ev) {
			break
		}
		a.Draw()
	}
	return a.game.Snapshot(), nil
}

// PlayCue flashes the cue on screen.
func (a *App) PlayCue(c feedback.Cue) {
	a.mu.Lock()
	a.cue, a.cueAt = c, a.clock.Now()
	a.mu.Unlock()
}

func (a *App) TriggerCelebration() {
	a.mu.Lock()
	a.celebrate = true
	a.mu.Unlock()
}

// changed may run on a timer goroutine, so it only asks the event loop to
// redraw.
func (a *App) changed(c play.Change, _ play.Snapshot) {
	_ = a.screen.PostEvent(tcell.NewEventInterrupt(c))
}

// HandleEvent applies one screen event. It returns false when the loop
// should stop.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.key(ev)
	case *tcell.EventMouse:
		a.mouse(ev)
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventInterrupt:
		if _, quit := ev.Data().(quitSignal); quit {
			return false
		}
	}
	return true
}

func (a *App) key(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return false
	case tcell.KeyEscape:
		a.cancel()
	case tcell.KeyEnter:
		if a.game.Snapshot().Complete {
			return false
		}
	case tcell.KeyRune:
		r := unicode.ToLower(ev.Rune())
		if r == 'q' {
			return false
		}
		if id, ok := a.itemKeys[r]; ok {
			a.pick(id)
		} else if id, ok := a.targetKeys[r]; ok {
			a.tap.Target(id)
		}
	}
	return true
}

// pick selects itemID, or places it when the round has a single target.
func (a *App) pick(itemID string) {
	if len(a.game.Snapshot().Targets) == 1 {
		a.game.Choose(itemID)
		return
	}
	a.tap.Item(itemID)
}

func (a *App) cancel() {
	if a.dragging {
		a.dragging = false
		a.touch.Cancel()
	}
	a.tap.Clear()
}

// mouse maps a press on an item to a touch drag, motion to hover and the
// release to a drop. Pressing and releasing on the same item picks it like
// a number key, and while an item is picked a press on any item moves the
// selection; pressing a target drops the picked item there.
func (a *App) mouse(ev *tcell.EventMouse) {
	cx, cy := ev.Position()
	x, y := float64(cx)+0.5, float64(cy)+0.5
	pressed := ev.Buttons()&tcell.Button1 != 0

	switch {
	case pressed && !a.dragging:
		if id, ok := a.layout.ItemAt(x, y); ok {
			if cur := a.game.Session(); cur.Active() && cur.Modality == interact.ModalityTap {
				a.pick(id)
				return
			}
			a.pressedItem = id
			a.dragging = a.touch.StartItem(id)
			return
		}
		if id, ok := a.layout.TargetAt(x, y); ok {
			a.tap.Target(id)
		}
	case pressed:
		a.touch.Move(x, y)
	case a.dragging:
		a.dragging = false
		if id, ok := a.layout.ItemAt(x, y); ok && id == a.pressedItem {
			a.touch.Cancel()
			a.pick(id)
			return
		}
		a.touch.End(x, y)
	}
}

// Close stops the game's timers.
func (a *App) Close() {
	a.game.Close()
}
