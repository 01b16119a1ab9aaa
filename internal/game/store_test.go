package game

import (
	"errors"
	"testing"
	"time"

	"sortplay/internal/lessons"
	"sortplay/pkg/clock"
	"sortplay/pkg/play"
	"sortplay/pkg/realtime"
	"sortplay/pkg/session"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *clock.Manual) {
	t.Helper()
	catalog, err := lessons.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	clk := clock.NewManual(epoch)
	s := NewStore(catalog, WithClock(clk))
	t.Cleanup(s.Close)
	return s, clk
}

func subscribe(t *testing.T, s *Store, id string) chan realtime.Event {
	t.Helper()
	hub, ok := s.Broadcaster(id)
	if !ok {
		t.Fatalf("no broadcaster for %s", id)
	}
	return hub.Subscribe()
}

// drain returns every event already queued on ch.
func drain(ch chan realtime.Event) []realtime.Event {
	var out []realtime.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func names(events []realtime.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		if ev.Name == EventCue {
			out = append(out, ev.Name+":"+ev.Data)
			continue
		}
		out = append(out, ev.Name)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewStore(t *testing.T) {
	s, _ := newTestStore(t)
	if s == nil {
		t.Fatal("NewStore returned nil")
	}
	if s.Catalog() == nil {
		t.Fatal("Catalog returned nil")
	}
}

func TestStore_CreateSession_GetSession(t *testing.T) {
	s, _ := newTestStore(t)
	sess, err := s.CreateSession("natural-vs-made")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.ID == "" {
		t.Error("session ID is empty")
	}
	if sess.Title != "Natural or made?" {
		t.Errorf("Title %q, want Natural or made?", sess.Title)
	}
	if !sess.CreatedAt.Equal(epoch) {
		t.Errorf("CreatedAt %v, want %v", sess.CreatedAt, epoch)
	}
	snap := sess.Snapshot()
	if snap.Status != session.StatusInProgress {
		t.Errorf("Status %v, want in progress", snap.Status)
	}
	if len(snap.Remaining) != 8 {
		t.Errorf("remaining %d, want 8", len(snap.Remaining))
	}

	got, ok := s.GetSession(sess.ID)
	if !ok {
		t.Fatal("GetSession returned false for existing session")
	}
	if got != sess {
		t.Error("GetSession returned different pointer")
	}
	if _, ok := s.GetSession("nonexistent"); ok {
		t.Error("GetSession should return false for missing ID")
	}
	if s.Len() != 1 {
		t.Errorf("Len %d, want 1", s.Len())
	}
}

func TestStore_CreateSession_UnknownLesson(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.CreateSession("juggling")
	if !errors.Is(err, lessons.ErrNotFound) {
		t.Errorf("err %v, want ErrNotFound", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len %d, want 0", s.Len())
	}
}

func TestStore_TapFlowPublishesEvents(t *testing.T) {
	s, clk := newTestStore(t)
	sess, err := s.CreateSession("natural-vs-made")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	ch := subscribe(t, s, sess.ID)

	items := sess.Snapshot().Remaining
	for i, it := range items {
		if !sess.TapItem(it.ID) {
			t.Fatalf("TapItem(%s) returned false", it.ID)
		}
		if got := names(drain(ch)); !equal(got, []string{EventBoard}) {
			t.Fatalf("after select: %v", got)
		}
		sess.TapTarget(it.Classifier.Category)
		want := []string{"cue:correct", EventBoard}
		if i == len(items)-1 {
			want = []string{"cue:correct", "cue:celebrate", EventBoard}
		}
		if got := names(drain(ch)); !equal(got, want) {
			t.Fatalf("after drop %d: %v, want %v", i, got, want)
		}
	}

	clk.Advance(1500 * time.Millisecond)
	events := drain(ch)
	if got := names(events); !equal(got, []string{EventCelebrate, EventBoard, EventComplete}) {
		t.Fatalf("after settle: %v", got)
	}
	if events[2].Data != "success" {
		t.Errorf("complete data %q, want success", events[2].Data)
	}
	snap := sess.Snapshot()
	if !snap.Complete || !snap.Success || snap.Score != 8 {
		t.Errorf("snapshot complete=%t success=%t score=%d", snap.Complete, snap.Success, snap.Score)
	}
}

func TestStore_WrongDropCuesIncorrect(t *testing.T) {
	s, _ := newTestStore(t)
	sess, err := s.CreateSession("natural-vs-made")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	ch := subscribe(t, s, sess.ID)

	it := sess.Snapshot().Remaining[0]
	wrong := "made"
	if it.Classifier.Category == "made" {
		wrong = "natural"
	}
	sess.DragStart(it.ID)
	sess.DragEnter(wrong)
	sess.Drop(wrong)
	sess.DragEnd()

	got := names(drain(ch))
	want := []string{EventBoard, EventBoard, "cue:incorrect", EventBoard}
	if !equal(got, want) {
		t.Fatalf("events %v, want %v", got, want)
	}
	snap := sess.Snapshot()
	if snap.Mistakes != 1 || len(snap.Remaining) != 8 {
		t.Errorf("mistakes %d remaining %d, want 1 and 8", snap.Mistakes, len(snap.Remaining))
	}
}

func TestStore_TouchUsesLayout(t *testing.T) {
	s, _ := newTestStore(t)
	sess, err := s.CreateSession("natural-vs-made")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	it := sess.Snapshot().Remaining[0]
	sess.SetLayout(
		[]Region{{ID: it.ID, X: 0, Y: 0, W: 50, H: 50}},
		[]Region{
			{ID: "natural", X: 0, Y: 100, W: 100, H: 100},
			{ID: "made", X: 100, Y: 100, W: 100, H: 100},
		},
	)

	if !sess.TouchStart("", 10, 10) {
		t.Fatal("TouchStart on item returned false")
	}
	x := 50.0
	if it.Classifier.Category == "made" {
		x = 150
	}
	sess.TouchMove(x, 150)
	if h := sess.Snapshot().Drag.HoveredTargetID; h != it.Classifier.Category {
		t.Errorf("hovered %q, want %q", h, it.Classifier.Category)
	}
	sess.TouchEnd(x, 150)

	snap := sess.Snapshot()
	if snap.Score != 1 {
		t.Errorf("score %d, want 1", snap.Score)
	}
	if !snap.HasLast || !snap.Last.Correct {
		t.Error("last outcome should be correct")
	}
}

func TestStore_CountdownTick(t *testing.T) {
	s, clk := newTestStore(t)
	sess, err := s.CreateSession("count-dash")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	now := clk.Now()
	next, events, stop := s.countdownTick(sess, now)
	if stop {
		t.Fatal("countdown should keep running")
	}
	if got := next.Sub(now); got != realtime.DefaultTick {
		t.Errorf("next in %v, want %v", got, realtime.DefaultTick)
	}
	if len(events) != 1 || events[0].Name != EventCountdown || events[0].Data != "4" {
		t.Fatalf("events %+v, want countdown 4", events)
	}

	clk.Advance(4 * time.Second)
	if snap := sess.Snapshot(); snap.RoundStatus.String() != "timedOut" {
		t.Fatalf("round status %v, want timedOut", snap.RoundStatus)
	}
	now = clk.Now()
	next, events, stop = s.countdownTick(sess, now)
	if stop || len(events) != 0 {
		t.Errorf("between rounds: stop=%t events=%v", stop, events)
	}
	if got := next.Sub(now); got != realtime.DefaultIdle {
		t.Errorf("idle wake in %v, want %v", got, realtime.DefaultIdle)
	}

	if _, _, stop := s.countdownTick(nil, now); !stop {
		t.Error("countdown should stop once the session is gone")
	}
}

func TestStore_CountdownLoopRunsForTimedLessons(t *testing.T) {
	s, _ := newTestStore(t)
	timed, err := s.CreateSession("count-dash")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	untimed, err := s.CreateSession("daily-routine")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if !s.r.Running(timed.ID) {
		t.Error("timed session should run a countdown loop")
	}
	if s.r.Running(untimed.ID) {
		t.Error("untimed session should not run a countdown loop")
	}
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore(t)
	sess, err := s.CreateSession("daily-routine")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	ch := subscribe(t, s, sess.ID)

	if !s.Delete(sess.ID) {
		t.Fatal("Delete returned false for existing session")
	}
	for range ch {
	}
	if _, ok := s.GetSession(sess.ID); ok {
		t.Error("session should be gone after Delete")
	}
	if s.Delete(sess.ID) {
		t.Error("second Delete should return false")
	}
	if snap := sess.Snapshot(); !snap.Complete || snap.Success {
		t.Errorf("deleted session complete=%t success=%t, want aborted", snap.Complete, snap.Success)
	}
}

func TestStore_Sweep(t *testing.T) {
	s, clk := newTestStore(t)
	old, err := s.CreateSession("daily-routine")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	clk.Advance(2 * time.Hour)
	fresh, err := s.CreateSession("daily-routine")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if n := s.Sweep(time.Hour); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if _, ok := s.GetSession(old.ID); ok {
		t.Error("old session should be swept")
	}
	if _, ok := s.GetSession(fresh.ID); !ok {
		t.Error("fresh session should survive")
	}
}

func TestStreamFeedback(t *testing.T) {
	s, _ := newTestStore(t)
	sess, err := s.CreateSession("daily-routine")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	ch := subscribe(t, s, sess.ID)
	fb := streamFeedback{rooms: s.r, id: sess.ID}
	fb.TriggerCelebration()
	if got := names(drain(ch)); !equal(got, []string{EventCelebrate}) {
		t.Errorf("events %v, want celebrate", got)
	}
}

func TestChangedSkipsTicks(t *testing.T) {
	s, _ := newTestStore(t)
	sess, err := s.CreateSession("daily-routine")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	ch := subscribe(t, s, sess.ID)
	s.changed(sess.ID, play.ChangeTick, sess.Snapshot())
	if got := drain(ch); len(got) != 0 {
		t.Errorf("tick published %v", got)
	}
}
