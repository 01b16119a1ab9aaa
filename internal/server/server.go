// Package server wires the session store and HTTP handlers into a running
// web server.
package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"sortplay/internal/config"
	"sortplay/internal/game"
	"sortplay/internal/handlers"
	"sortplay/internal/lessons"
)

//go:embed static/*
var embeddedStatic embed.FS

const (
	sweepEvery     = 10 * time.Minute
	sessionMaxAge  = 6 * time.Hour
	requestTimeout = 15 * time.Second
	shutdownGrace  = 5 * time.Second
)

// Options configures Run.
type Options struct {
	Config  config.Config
	Catalog *lessons.Catalog
	Logger  zerolog.Logger
}

// NewStore builds the session store from the timing configuration.
func NewStore(cfg config.Config, catalog *lessons.Catalog, log zerolog.Logger) *game.Store {
	return game.NewStore(catalog,
		game.WithLogger(log),
		game.WithDelays(cfg.Timing.Delays()),
		game.WithTick(cfg.Timing.Tick),
	)
}

// NewRouter returns the HTTP handler for store.
func NewRouter(store *game.Store, log zerolog.Logger) (http.Handler, error) {
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return nil, err
	}
	r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	homeHandler := handlers.NewHomeHandler(store, log)
	sessionHandler := handlers.NewSessionHandler(store, log)

	sessionHandler.RegisterStream(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		homeHandler.RegisterRoutes(r)
		sessionHandler.RegisterRoutes(r)
	})
	return r, nil
}

// Run serves until ctx is cancelled, then closes every session and shuts the
// server down.
func Run(ctx context.Context, opts Options) error {
	log := opts.Logger
	store := NewStore(opts.Config, opts.Catalog, log)
	router, err := NewRouter(store, log)
	if err != nil {
		store.Close()
		return err
	}

	server := &http.Server{
		Addr:              opts.Config.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// No WriteTimeout: event streams stay open for the whole session.
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go sweep(ctx, store)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	log.Info().
		Str("addr", server.Addr).
		Str("url", publicURL(opts.Config)).
		Int("lessons", opts.Catalog.Len()).
		Msg("listening")

	select {
	case err := <-errCh:
		store.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	store.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func sweep(ctx context.Context, store *game.Store) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep(sessionMaxAge)
		}
	}
}

func publicURL(cfg config.Config) string {
	if cfg.Server.BaseURL != "" {
		return cfg.Server.BaseURL
	}
	host, port, err := net.SplitHostPort(cfg.Server.Addr)
	if err != nil {
		return "http://" + cfg.Server.Addr
	}
	if host == "" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
