package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/app"
	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/handlers"
	"bookshelf/internal/notify"
	"bookshelf/internal/session"
	"bookshelf/internal/storage"

	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if keys, err := db.Keys(); err == nil {
		logger.Debug("database opened", "path", cfg.DBPath, "keys", keys)
	}

	sessions := session.NewStore(db)
	cat, err := catalog.Open(db, sessions)
	if err != nil {
		return err
	}
	a := app.New(sessions, cat, notify.LogSink{Logger: logger}, app.WithLogger(logger))

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		logger.Warn("SESSION_SECRET not set, flash cookies will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	h := handlers.NewHandlers(a, cfg.TemplateDir, secret, cfg.SecureCookie, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h, cfg.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "db", cfg.DBPath)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupRouter(h *handlers.Handlers, staticDir string) http.Handler {
	r := mux.NewRouter()

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/books", http.StatusFound)
	}).Methods(http.MethodGet)

	r.HandleFunc("/login", h.LoginForm).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)

	protected := func(f http.HandlerFunc) http.Handler { return h.RequireSession(f) }

	r.Handle("/logout", protected(h.LogoutForm)).Methods(http.MethodGet)
	r.Handle("/logout", protected(h.Logout)).Methods(http.MethodPost)
	r.Handle("/books", protected(h.ListBooks)).Methods(http.MethodGet)
	r.Handle("/books", protected(h.SubmitBook)).Methods(http.MethodPost)
	r.Handle("/books/cancel", protected(h.CancelEdit)).Methods(http.MethodPost)
	r.Handle("/books/{id}/edit", protected(h.EditBook)).Methods(http.MethodGet)
	r.Handle("/books/{id}/delete", protected(h.RequestDelete)).Methods(http.MethodPost)
	r.Handle("/deletions/{token}", protected(h.ShowDelete)).Methods(http.MethodGet)
	r.Handle("/deletions/{token}/confirm", protected(h.ConfirmDelete)).Methods(http.MethodPost)
	r.Handle("/deletions/{token}/cancel", protected(h.CancelDelete)).Methods(http.MethodPost)
	r.Handle("/stats", protected(h.Statistics)).Methods(http.MethodGet)

	return r
}
