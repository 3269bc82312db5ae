package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/brk3/habitboard/internal/config"
	"github.com/brk3/habitboard/internal/logger"
	"github.com/brk3/habitboard/internal/storage"
	"github.com/brk3/habitboard/internal/tracker"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
)

type AuthProvider struct {
	name       string
	oauth2     *oauth2.Config
	oidcProv   *oidc.Provider
	idVerifier *oidc.IDTokenVerifier
	state      *StateStore
}

type Server struct {
	cfg           *config.Config
	store         storage.Store
	habits        *tracker.Service
	authProviders map[string]*AuthProvider
	sessionCookie *securecookie.SecureCookie
}

func New(cfg *config.Config, store storage.Store, opts ...tracker.Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		store:  store,
		habits: tracker.New(store, opts...),
	}

	if cfg.AuthEnabled {
		providers, cookie, err := ConfigureOIDCProviders(cfg)
		if err != nil {
			return nil, err
		}
		s.authProviders = providers
		s.sessionCookie = cookie
	}

	return s, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/version", s.getVersionInfo)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	if s.cfg.AuthEnabled {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", s.simpleLogin)
			r.Get("/login/{id}", s.login)
			r.Get("/callback/{id}", s.callback)
			r.Post("/logout", s.logout)
			r.Get("/token", s.getAPIToken)
			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)
				r.Post("/api_keys", s.generateAPIKey)
				r.Get("/api_keys", s.listAPIKeys)
				r.Delete("/api_keys/{key_hash}", s.deleteAPIKey)
			})
		})
	}

	r.Route("/habits", func(r chi.Router) {
		if s.cfg.AuthEnabled {
			r.Use(s.authMiddleware)
		}
		r.Use(s.userAwareMetricsMiddleware)

		r.Get("/", s.listHabits)
		r.Post("/", s.createHabit)
		r.Put("/", s.restoreHabits)
		r.Get("/{habit_id}", s.getHabit)
		r.Put("/{habit_id}", s.updateHabit)
		r.Patch("/{habit_id}", s.updateHabit)
		r.Delete("/{habit_id}", s.deleteHabit)
		r.Post("/{habit_id}/toggle", s.toggleHabit)
		r.Get("/{habit_id}/summary", s.getHabitSummary)
		r.Get("/{habit_id}/overview", s.getHabitOverview)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", s.cfg.ListenAddr, "auth_enabled", s.cfg.AuthEnabled)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
