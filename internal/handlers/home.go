package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"sortplay/internal/game"
	"sortplay/internal/lessons"
	"sortplay/internal/viewmodel"
	"sortplay/views/pages"
)

const appTitle = "Sortplay"

type HomeHandler struct {
	store *game.Store
	log   zerolog.Logger
}

func NewHomeHandler(store *game.Store, log zerolog.Logger) *HomeHandler {
	return &HomeHandler{store: store, log: log}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Post("/sessions", h.createSession)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.HomePage(h.homePage("")))
}

func (h *HomeHandler) homePage(errMsg string) viewmodel.HomePage {
	list := h.store.Catalog().List()
	cards := make([]viewmodel.LessonCard, 0, len(list))
	for _, l := range list {
		mode := l.Mode
		if mode == "" {
			mode = "sequential"
		}
		cards = append(cards, viewmodel.LessonCard{
			ID:          l.ID,
			Title:       l.Title,
			Description: l.Description,
			Mode:        mode,
			Rounds:      len(l.Rounds),
		})
	}
	return viewmodel.HomePage{Title: appTitle, Lessons: cards, Error: errMsg}
}

func (h *HomeHandler) createSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	lessonID := strings.TrimSpace(r.FormValue("lesson"))
	if lessonID == "" {
		http.Error(w, "lesson required", http.StatusBadRequest)
		return
	}
	sess, err := h.store.CreateSession(lessonID)
	if errors.Is(err, lessons.ErrNotFound) {
		http.Error(w, "unknown lesson", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("lesson", lessonID).Msg("create session")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnprocessableEntity)
		render(w, r, pages.HomePage(h.homePage("This lesson cannot be played: "+err.Error())))
		return
	}
	http.Redirect(w, r, "/session/"+sess.ID, http.StatusSeeOther)
}
