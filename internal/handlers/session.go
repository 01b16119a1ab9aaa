package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"sortplay/internal/game"
	"sortplay/internal/viewmodel"
	"sortplay/views/components"
	"sortplay/views/pages"
)

const keepAliveInterval = 25 * time.Second

type SessionHandler struct {
	store *game.Store
	log   zerolog.Logger
}

func NewSessionHandler(store *game.Store, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{store: store, log: log}
}

// RegisterRoutes mounts page and input routes. The stream route is
// registered separately so it can live outside request timeouts.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/session/{id}", func(r chi.Router) {
		r.Get("/", h.boardPage)
		r.Get("/board", h.boardFragment)
		r.Post("/drag/{action}", h.drag)
		r.Post("/layout", h.layout)
		r.Post("/touch/{action}", h.touch)
		r.Post("/tap/item/{item}", h.tapItem)
		r.Post("/tap/target/{target}", h.tapTarget)
		r.Delete("/", h.quit)
	})
}

func (h *SessionHandler) RegisterStream(r chi.Router) {
	r.Get("/session/{id}/stream", h.stream)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	sess, ok := h.store.GetSession(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	return sess, true
}

func (h *SessionHandler) boardPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	render(w, r, pages.BoardPage(viewmodel.BoardPage{
		Title:       sess.Title + " · " + appTitle,
		LessonTitle: sess.Title,
		SessionID:   sess.ID,
		Board:       buildBoard(sess.ID, sess.Snapshot()),
	}))
}

func (h *SessionHandler) boardFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	render(w, r, components.Board(buildBoard(sess.ID, sess.Snapshot())))
}

// inputResult is the reply to every input endpoint.
type inputResult struct {
	Changed bool   `json:"changed"`
	Version uint64 `json:"version"`
}

func (h *SessionHandler) reply(w http.ResponseWriter, sess *game.Session, changed bool) {
	writeJSON(w, inputResult{Changed: changed, Version: sess.Snapshot().Version})
}

func (h *SessionHandler) drag(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	item := r.FormValue("item")
	target := r.FormValue("target")

	var changed bool
	switch chi.URLParam(r, "action") {
	case "start":
		changed = sess.DragStart(item)
	case "enter":
		changed = sess.DragEnter(target)
	case "leave":
		changed = sess.DragLeave(target)
	case "drop":
		changed = sess.Drop(target)
	case "end":
		changed = sess.DragEnd()
	default:
		http.NotFound(w, r)
		return
	}
	h.reply(w, sess, changed)
}

type layoutRequest struct {
	Items   []game.Region `json:"items"`
	Targets []game.Region `json:"targets"`
}

func (h *SessionHandler) layout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req layoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		http.Error(w, "invalid layout", http.StatusBadRequest)
		return
	}
	sess.SetLayout(req.Items, req.Targets)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) touch(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	action := chi.URLParam(r, "action")
	var x, y float64
	if action != "cancel" {
		var errX, errY error
		x, errX = strconv.ParseFloat(r.FormValue("x"), 64)
		y, errY = strconv.ParseFloat(r.FormValue("y"), 64)
		if (errX != nil || errY != nil) && !(action == "start" && r.FormValue("item") != "") {
			http.Error(w, "x and y required", http.StatusBadRequest)
			return
		}
	}

	var changed bool
	switch action {
	case "start":
		changed = sess.TouchStart(r.FormValue("item"), x, y)
	case "move":
		changed = sess.TouchMove(x, y)
	case "end":
		changed = sess.TouchEnd(x, y)
	case "cancel":
		changed = sess.TouchCancel()
	default:
		http.NotFound(w, r)
		return
	}
	h.reply(w, sess, changed)
}

func (h *SessionHandler) tapItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.reply(w, sess, sess.TapItem(chi.URLParam(r, "item")))
}

func (h *SessionHandler) tapTarget(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.reply(w, sess, sess.TapTarget(chi.URLParam(r, "target")))
}

func (h *SessionHandler) quit(w http.ResponseWriter, r *http.Request) {
	if !h.store.Delete(chi.URLParam(r, "id")) {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	hub, ok := h.store.Broadcaster(sess.ID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	sendBoard := func() {
		writeSSE(w, game.EventBoard, renderToString(r, components.Board(buildBoard(sess.ID, sess.Snapshot()))))
	}
	sendCountdown := func() {
		writeSSE(w, game.EventCountdown, renderToString(r, components.Countdown(buildCountdown(sess.Snapshot()))))
	}

	sendBoard()
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub:
			if !open {
				return
			}
			switch event.Name {
			case game.EventBoard:
				sendBoard()
			case game.EventCountdown:
				sendCountdown()
			case game.EventCue, game.EventCelebrate, game.EventComplete:
				writeSSE(w, event.Name, event.Data)
			default:
				h.log.Debug().Str("event", event.Name).Msg("unhandled stream event")
				continue
			}
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}
