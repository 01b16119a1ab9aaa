package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sortplay/internal/game"
	"sortplay/internal/lessons"
	"sortplay/pkg/clock"
)

const quizLesson = `
id = "quiz"
title = "Yes or no"

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

var slots = []string{"first", "second", "third", "fourth"}

type fixture struct {
	store  *game.Store
	clock  *clock.Manual
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := lessons.Builtin()
	require.NoError(t, err)
	quiz, err := lessons.Parse([]byte(quizLesson))
	require.NoError(t, err)
	catalog.Add(quiz)

	clk := clock.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	store := game.NewStore(catalog, game.WithClock(clk))
	t.Cleanup(store.Close)

	r := chi.NewRouter()
	NewHomeHandler(store, zerolog.Nop()).RegisterRoutes(r)
	sessions := NewSessionHandler(store, zerolog.Nop())
	sessions.RegisterRoutes(r)
	sessions.RegisterStream(r)
	return &fixture{store: store, clock: clk, router: r}
}

func (f *fixture) do(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) create(t *testing.T, lesson string) *game.Session {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/sessions", url.Values{"lesson": {lesson}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/session/"), loc)
	sess, ok := f.store.GetSession(strings.TrimPrefix(loc, "/session/"))
	require.True(t, ok)
	return sess
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) inputResult {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res inputResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

func TestHome_ListsLessons(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, "Natural or made?")
	assert.Contains(t, body, `name="lesson" value="count-dash"`)
	assert.Contains(t, body, "arcade · 4 rounds")
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t, "natural-vs-made")
	assert.Equal(t, "natural-vs-made", sess.LessonID)
	assert.Equal(t, 1, f.store.Len())

	rec := f.do(t, http.MethodPost, "/sessions", url.Values{"lesson": {"juggling"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/sessions", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBoardPageAndFragment(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t, "natural-vs-made")

	rec := f.do(t, http.MethodGet, "/session/"+sess.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="board"`)
	assert.Contains(t, body, `data-stream="/session/`+sess.ID+`/stream"`)
	assert.Contains(t, body, "Round 1 of 1")

	rec = f.do(t, http.MethodGet, "/session/"+sess.ID+"/board", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.NotContains(t, body, "<html")
	for _, it := range sess.Snapshot().Remaining {
		assert.Contains(t, body, `data-item="`+it.ID+`"`)
	}
	assert.Contains(t, body, `data-target="natural"`)

	rec = f.do(t, http.MethodGet, "/session/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTapEndpoints(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t, "daily-routine")
	it := sess.Snapshot().Remaining[0]

	res := decodeResult(t, f.do(t, http.MethodPost, "/session/"+sess.ID+"/tap/item/"+it.ID, nil))
	assert.True(t, res.Changed)
	assert.Equal(t, it.ID, sess.Snapshot().Drag.ActiveItemID)

	rec := f.do(t, http.MethodGet, "/session/"+sess.ID+"/board", nil)
	assert.Contains(t, rec.Body.String(), `class="item selected" data-item="`+it.ID+`"`)

	target := slots[it.Classifier.Rank-1]
	res = decodeResult(t, f.do(t, http.MethodPost, "/session/"+sess.ID+"/tap/target/"+target, nil))
	assert.True(t, res.Changed)

	snap := sess.Snapshot()
	assert.Equal(t, 1, snap.Score)
	assert.False(t, snap.Drag.Active())
	placed, ok := snap.Target(target)
	require.True(t, ok)
	require.Len(t, placed.Placed, 1)
	assert.Equal(t, it.ID, placed.Placed[0].ID)
}

func TestTapChoosesOnSingleTargetRound(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t, "quiz")

	res := decodeResult(t, f.do(t, http.MethodPost, "/session/"+sess.ID+"/tap/item/yes", nil))
	assert.True(t, res.Changed)
	snap := sess.Snapshot()
	assert.Equal(t, 1, snap.Score)
	assert.Equal(t, "correct", snap.RoundStatus.String())

	f.clock.Advance(800 * time.Millisecond)
	snap = sess.Snapshot()
	assert.True(t, snap.Complete)
	assert.True(t, snap.Success)
}

func TestDragEndpoints(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t, "daily-routine")
	it := sess.Snapshot().Remaining[0]
	target := slots[it.Classifier.Rank-1]
	base := "/session/" + sess.ID + "/drag/"

	assert.True(t, decodeResult(t, f.do(t, http.MethodPost, base+"start", url.Values{"item": {it.ID}})).Changed)
	assert.True(t, decodeResult(t, f.do(t, http.MethodPost, base+"enter", url.Values{"target": {target}})).Changed)
	hovered, _ := sess.Snapshot().Target(target)
	assert.True(t, hovered.Hovered)

	assert.True(t, decodeResult(t, f.do(t, http.MethodPost, base+"drop", url.Values{"target": {target}})).Changed)
	assert.False(t, decodeResult(t, f.do(t, http.MethodPost, base+"end", url.Values{})).Changed)
	assert.Equal(t, 1, sess.Snapshot().Score)

	rec := f.do(t, http.MethodPost, base+"wiggle", url.Values{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDragEndOutsideCancels(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t, "daily-routine")
	it := sess.Snapshot().Remaining[0]
	base := "/session/" + sess.ID + "/drag/"

	decodeResult(t, f.do(t, http.MethodPost, base+"start", url.Values{"item": {it.ID}}))
	assert.True(t, decodeResult(t, f.do(t, http.MethodPost, base+"end", url.Values{})).Changed)

	snap := sess.Snapshot()
	assert.False(t, snap.Drag.Active())
	assert.Len(t, snap.Remaining, 4)
	assert.Zero(t, snap.Mistakes)
}

func TestLayoutAndTouchEndpoints(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t, "daily-routine")
	it := sess.Snapshot().Remaining[0]
	target := slots[it.Classifier.Rank-1]

	layout := `{"items":[{"id":"` + it.ID + `","x":0,"y":0,"w":40,"h":40}],` +
		`"targets":[{"id":"` + target + `","x":0,"y":100,"w":100,"h":100}]}`
	req := httptest.NewRequest(http.MethodPost, "/session/"+sess.ID+"/layout", strings.NewReader(layout))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	base := "/session/" + sess.ID + "/touch/"
	assert.True(t, decodeResult(t, f.do(t, http.MethodPost, base+"start", url.Values{"x": {"10"}, "y": {"10"}})).Changed)
	assert.True(t, decodeResult(t, f.do(t, http.MethodPost, base+"move", url.Values{"x": {"50"}, "y": {"150"}})).Changed)
	assert.True(t, decodeResult(t, f.do(t, http.MethodPost, base+"end", url.Values{"x": {"50"}, "y": {"150"}})).Changed)
	assert.Equal(t, 1, sess.Snapshot().Score)

	rec = f.do(t, http.MethodPost, base+"move", url.Values{"x": {"left"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/session/"+sess.ID+"/layout", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTouchStartWithItemSkipsCoordinates(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t, "daily-routine")
	it := sess.Snapshot().Remaining[0]

	res := decodeResult(t, f.do(t, http.MethodPost, "/session/"+sess.ID+"/touch/start", url.Values{"item": {it.ID}}))
	assert.True(t, res.Changed)
	assert.Equal(t, it.ID, sess.Snapshot().Drag.ActiveItemID)
	assert.True(t, decodeResult(t, f.do(t, http.MethodPost, "/session/"+sess.ID+"/touch/cancel", url.Values{})).Changed)
}

func TestQuit(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t, "daily-routine")

	rec := f.do(t, http.MethodDelete, "/session/"+sess.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := f.store.GetSession(sess.ID)
	assert.False(t, ok)

	rec = f.do(t, http.MethodDelete, "/session/"+sess.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStream(t *testing.T) {
	f := newFixture(t)
	sess := f.create(t, "daily-routine")
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/session/"+sess.ID+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 64)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for sc.Scan() {
			if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
				events <- name
			}
		}
	}()
	next := func() string {
		t.Helper()
		select {
		case name, ok := <-events:
			if !ok {
				return ""
			}
			return name
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for stream event")
			return ""
		}
	}

	require.Equal(t, game.EventBoard, next())

	it := sess.Snapshot().Remaining[0]
	f.do(t, http.MethodPost, "/session/"+sess.ID+"/tap/item/"+it.ID, nil)
	assert.Equal(t, game.EventBoard, next())

	f.do(t, http.MethodPost, "/session/"+sess.ID+"/tap/target/"+slots[it.Classifier.Rank-1], nil)
	assert.Equal(t, game.EventCue, next())
	assert.Equal(t, game.EventBoard, next())

	f.store.Delete(sess.ID)
	assert.Equal(t, "", next(), "stream should end when the session is deleted")
}
