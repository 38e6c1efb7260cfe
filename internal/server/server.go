package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/brk3/habitgrid/internal/config"
	"github.com/brk3/habitgrid/internal/logger"
	"github.com/brk3/habitgrid/internal/storage"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	cfg       *config.Config
	store     storage.Store
	loc       *time.Location
	verifiers map[string]*oidc.IDTokenVerifier
	now       func() time.Time
}

func New(cfg *config.Config, store storage.Store) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:       cfg,
		store:     store,
		loc:       loc,
		verifiers: make(map[string]*oidc.IDTokenVerifier),
		now:       time.Now,
	}
	if cfg.AuthEnabled {
		if err := s.configureOIDC(context.Background()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Server) configureOIDC(ctx context.Context) error {
	logger.Info("Configuring OIDC providers", "count", len(s.cfg.OIDCProviders))
	for _, p := range s.cfg.OIDCProviders {
		prov, err := oidc.NewProvider(ctx, p.IssuerURL)
		if err != nil {
			logger.Error("Failed to create OIDC provider", "id", p.Id, "error", err)
			return fmt.Errorf("failed to create OIDC provider %s: %w", p.Id, err)
		}
		s.verifiers[p.Id] = prov.Verifier(&oidc.Config{ClientID: p.ClientID})
		logger.Info("OIDC provider configured", "id", p.Id, "issuer", p.IssuerURL)
	}
	return nil
}

// today is the current calendar day in the configured timezone.
func (s *Server) today() time.Time {
	return s.now().In(s.loc)
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(metricsMiddleware)

	r.Get("/version", s.getVersionInfo)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.AuthEnabled {
			r.Use(s.authMiddleware)
			r.Use(s.userAwareMetricsMiddleware)
		}

		r.Post("/auth/api_keys", s.generateAPIKey)
		r.Get("/auth/api_keys", s.listAPIKeys)
		r.Delete("/auth/api_keys/{key_hash}", s.revokeAPIKey)

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", s.listHabits)
			r.Post("/", s.createHabit)
			r.Route("/{habit_id}", func(r chi.Router) {
				r.Get("/", s.getHabit)
				r.Patch("/", s.renameHabit)
				r.Delete("/", s.deleteHabit)
				r.Get("/summary", s.getHabitSummary)
				r.Get("/grid", s.getHabitGrid)
				r.Get("/completions", s.listHabitCompletions)
				r.Put("/completions/{date}", s.markCompletion)
				r.Delete("/completions/{date}", s.unmarkCompletion)
			})
		})

		r.Get("/completions", s.listUserCompletions)
		r.Get("/stats/totals", s.getTotals)
		r.Get("/stats/series", s.getSeries)
	})
	return r
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
