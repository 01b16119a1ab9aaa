package terminal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sortplay/internal/lessons"
	"sortplay/pkg/clock"
	"sortplay/pkg/feedback"
	"sortplay/pkg/interact"
	"sortplay/pkg/play"
	"sortplay/pkg/round"
)

const sortLesson = `
id = "bins"
title = "Bins"

[[rounds]]
kind = "free-sort"
prompt = "Where does it go?"

  [[rounds.items]]
  id = "leaf"
  payload = "Leaf"
  category = "natural"

  [[rounds.items]]
  id = "cup"
  payload = "Cup"
  category = "made"

  [[rounds.targets]]
  id = "natural"
  label = "Nature"
  accept = { kind = "category", value = "natural" }

  [[rounds.targets]]
  id = "made"
  label = "Made"
  accept = { kind = "category", value = "made" }
`

const quizLesson = `
id = "quiz"
title = "Yes or no"
pass_score = 1

[[rounds]]
kind = "dash"
prompt = "Is the sky blue?"
deadline_ms = 5000

  [[rounds.items]]
  id = "yes"
  payload = "Yes"

  [[rounds.items]]
  id = "no"
  payload = "No"

  [[rounds.targets]]
  id = "answer"
  capacity = 1
  accept = { kind = "id", value = "yes" }
`

type harness struct {
	app    *App
	screen tcell.SimulationScreen
	clock  *clock.Manual
	rec    *feedback.Recorder
}

func newHarness(t *testing.T, pack string) *harness {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)

	lesson, err := lessons.Parse([]byte(pack))
	require.NoError(t, err)
	cfg, err := lesson.Build(round.DefaultDelays())
	require.NoError(t, err)

	clk := clock.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	rec := &feedback.Recorder{}
	app, err := New(screen, cfg, Options{
		Title:    lesson.Title,
		Clock:    clk,
		Logger:   zerolog.Nop(),
		Feedback: rec,
	})
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return &harness{app: app, screen: screen, clock: clk, rec: rec}
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.app.game.Start())
	h.app.Draw()
}

func (h *harness) text() string {
	w, ht := h.screen.Size()
	var b strings.Builder
	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := h.screen.GetContent(x, y)
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (h *harness) press(r rune) bool {
	ok := h.app.HandleEvent(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	h.app.Draw()
	return ok
}

func (h *harness) mouse(x, y float64, buttons tcell.ButtonMask) {
	h.app.HandleEvent(tcell.NewEventMouse(int(x), int(y), buttons, tcell.ModNone))
}

func (h *harness) itemKey(t *testing.T, id string) rune {
	t.Helper()
	for k, v := range h.app.itemKeys {
		if v == id {
			return k
		}
	}
	t.Fatalf("no key bound to item %q", id)
	return 0
}

func (h *harness) targetRect(t *testing.T, id string) interact.Rect {
	t.Helper()
	for _, r := range h.app.layout.Targets() {
		if r.ID == id {
			return r.Rect
		}
	}
	t.Fatalf("target %q not laid out", id)
	return interact.Rect{}
}

func TestDrawShowsBoard(t *testing.T) {
	h := newHarness(t, sortLesson)
	h.start(t)

	screen := h.text()
	assert.Contains(t, screen, "Bins")
	assert.Contains(t, screen, "Round 1 of 1   Score 0")
	assert.Contains(t, screen, "Where does it go?")
	assert.Contains(t, screen, "] Leaf")
	assert.Contains(t, screen, "] Cup")
	assert.Contains(t, screen, "[a] Nature")
	assert.Contains(t, screen, "[s] Made")
	assert.Contains(t, screen, helpText)

	assert.Len(t, h.app.itemKeys, 2)
	assert.Equal(t, map[rune]string{'a': "natural", 's': "made"}, h.app.targetKeys)
	assert.Len(t, h.app.layout.Targets(), 2)
}

func TestKeysPlaceItems(t *testing.T) {
	h := newHarness(t, sortLesson)
	h.start(t)

	require.True(t, h.press(h.itemKey(t, "leaf")))
	snap := h.app.Snapshot()
	assert.Equal(t, "leaf", snap.Drag.ActiveItemID)
	assert.Equal(t, interact.ModalityTap, snap.Drag.Modality)

	h.press('a')
	snap = h.app.Snapshot()
	assert.Equal(t, 1, snap.Score)
	natural, _ := snap.Target("natural")
	require.Len(t, natural.Placed, 1)
	assert.Equal(t, "leaf", natural.Placed[0].ID)
	assert.Contains(t, h.text(), "Leaf")

	h.press(h.itemKey(t, "cup"))
	h.press('s')
	assert.Equal(t, 2, h.app.Snapshot().Score)

	h.clock.Advance(2 * time.Second)
	h.app.Draw()

	snap = h.app.Snapshot()
	assert.True(t, snap.Complete)
	assert.True(t, snap.Success)
	screen := h.text()
	assert.Contains(t, screen, "Well done!")
	assert.Contains(t, screen, "Final score 2")
	assert.Equal(t, 1, h.rec.Celebrations())

	assert.False(t, h.app.HandleEvent(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)))
}

func TestMouseDragAndDrop(t *testing.T) {
	h := newHarness(t, sortLesson)
	h.start(t)

	cup := h.app.itemRects["cup"]
	made := h.targetRect(t, "made")

	h.mouse(cup.X, cup.Y, tcell.Button1)
	snap := h.app.Snapshot()
	assert.Equal(t, "cup", snap.Drag.ActiveItemID)
	assert.Equal(t, interact.ModalityTouch, snap.Drag.Modality)

	h.mouse(made.X+1, made.Y+1, tcell.Button1)
	target, _ := h.app.Snapshot().Target("made")
	assert.True(t, target.Hovered)

	h.mouse(made.X+1, made.Y+1, tcell.ButtonNone)
	snap = h.app.Snapshot()
	assert.False(t, snap.Drag.Active())
	assert.Equal(t, 1, snap.Score)
	target, _ = snap.Target("made")
	require.Len(t, target.Placed, 1)
	assert.Equal(t, "cup", target.Placed[0].ID)
	assert.Equal(t, []feedback.Cue{feedback.CueCorrect}, h.rec.Cues())
}

func TestMouseWrongDropFlashes(t *testing.T) {
	h := newHarness(t, sortLesson)
	h.start(t)

	leaf := h.app.itemRects["leaf"]
	made := h.targetRect(t, "made")
	h.mouse(leaf.X, leaf.Y, tcell.Button1)
	h.mouse(made.X+2, made.Y+2, tcell.Button1)
	h.mouse(made.X+2, made.Y+2, tcell.ButtonNone)
	h.app.Draw()

	snap := h.app.Snapshot()
	assert.Equal(t, 1, snap.Mistakes)
	assert.Len(t, snap.Remaining, 2)
	assert.Equal(t, []feedback.Cue{feedback.CueIncorrect}, h.rec.Cues())
	assert.Contains(t, h.text(), "try again")
	assert.Contains(t, h.text(), "Mistakes 1")

	h.clock.Advance(cueFlash)
	h.app.Draw()
	assert.NotContains(t, h.text(), "try again")
}

func TestMouseReleaseOutsideCancels(t *testing.T) {
	h := newHarness(t, sortLesson)
	h.start(t)

	leaf := h.app.itemRects["leaf"]
	h.mouse(leaf.X, leaf.Y, tcell.Button1)
	h.mouse(70, 20, tcell.Button1)
	h.mouse(70, 20, tcell.ButtonNone)

	snap := h.app.Snapshot()
	assert.False(t, snap.Drag.Active())
	assert.Zero(t, snap.Evaluated)
	assert.Empty(t, h.rec.Cues())
}

func TestClickItemThenTarget(t *testing.T) {
	h := newHarness(t, sortLesson)
	h.start(t)

	leaf := h.app.itemRects["leaf"]
	h.mouse(leaf.X, leaf.Y, tcell.Button1)
	h.mouse(leaf.X, leaf.Y, tcell.ButtonNone)
	snap := h.app.Snapshot()
	assert.Equal(t, "leaf", snap.Drag.ActiveItemID)
	assert.Equal(t, interact.ModalityTap, snap.Drag.Modality)

	natural := h.targetRect(t, "natural")
	h.mouse(natural.X+1, natural.Y+1, tcell.Button1)
	assert.Equal(t, 1, h.app.Snapshot().Score)
}

func TestClickAnotherItemMovesSelection(t *testing.T) {
	h := newHarness(t, sortLesson)
	h.start(t)

	leaf := h.app.itemRects["leaf"]
	h.mouse(leaf.X, leaf.Y, tcell.Button1)
	h.mouse(leaf.X, leaf.Y, tcell.ButtonNone)
	require.Equal(t, "leaf", h.app.Snapshot().Drag.ActiveItemID)

	cup := h.app.itemRects["cup"]
	h.mouse(cup.X, cup.Y, tcell.Button1)
	h.mouse(cup.X, cup.Y, tcell.ButtonNone)
	snap := h.app.Snapshot()
	assert.Equal(t, "cup", snap.Drag.ActiveItemID)
	assert.Equal(t, interact.ModalityTap, snap.Drag.Modality)

	h.mouse(cup.X, cup.Y, tcell.Button1)
	h.mouse(cup.X, cup.Y, tcell.ButtonNone)
	assert.False(t, h.app.Snapshot().Drag.Active(), "clicking the selected item again deselects it")

	h.press(h.itemKey(t, "cup"))
	made := h.targetRect(t, "made")
	h.mouse(made.X+1, made.Y+1, tcell.Button1)
	assert.Equal(t, 1, h.app.Snapshot().Score)
}

func TestClickChoosesOnSingleTarget(t *testing.T) {
	h := newHarness(t, quizLesson)
	h.start(t)

	yes := h.app.itemRects["yes"]
	h.mouse(yes.X, yes.Y, tcell.Button1)
	h.mouse(yes.X, yes.Y, tcell.ButtonNone)
	h.app.Draw()

	assert.Equal(t, round.StatusCorrect, h.app.Snapshot().RoundStatus)
	assert.Contains(t, h.text(), "Correct!")
}

func TestEscapeCancelsSelection(t *testing.T) {
	h := newHarness(t, sortLesson)
	h.start(t)

	h.press(h.itemKey(t, "cup"))
	require.True(t, h.app.Snapshot().Drag.Active())

	h.app.HandleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	assert.False(t, h.app.Snapshot().Drag.Active())
}

func TestCountdownAndTimeout(t *testing.T) {
	h := newHarness(t, quizLesson)
	h.start(t)
	assert.Contains(t, h.text(), " 5s ")

	h.clock.Advance(3 * time.Second)
	h.app.Draw()
	assert.Contains(t, h.text(), " 2s ")

	h.clock.Advance(2 * time.Second)
	h.app.Draw()
	assert.Equal(t, round.StatusTimedOut, h.app.Snapshot().RoundStatus)
	assert.Contains(t, h.text(), "Time's up.")

	h.clock.Advance(round.DefaultDelays().Timeout)
	h.app.Draw()
	snap := h.app.Snapshot()
	require.True(t, snap.Complete)
	assert.False(t, snap.Success)
	screen := h.text()
	assert.Contains(t, screen, "Session over.")
	assert.Contains(t, screen, "Final score 0")
	assert.NotContains(t, screen, " 0s ")
}

func TestQuitEvents(t *testing.T) {
	h := newHarness(t, sortLesson)
	h.start(t)

	assert.False(t, h.app.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.False(t, h.app.HandleEvent(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone)))
	assert.False(t, h.app.HandleEvent(tcell.NewEventInterrupt(quitSignal{})))
	assert.True(t, h.app.HandleEvent(tcell.NewEventInterrupt(play.ChangeDrag)))
	assert.True(t, h.app.HandleEvent(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)))
}

func TestRunStopsOnQuitKey(t *testing.T) {
	h := newHarness(t, sortLesson)
	require.NoError(t, h.screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))

	done := make(chan play.Snapshot, 1)
	go func() {
		snap, err := h.app.Run(context.Background())
		assert.NoError(t, err)
		done <- snap
	}()

	select {
	case snap := <-done:
		assert.Equal(t, 1, snap.Rounds)
		assert.False(t, snap.Complete)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on q")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, sortLesson)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := h.app.Run(ctx)
		assert.NoError(t, err)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
