package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/lingualab/curator/internal/config"
	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

// HealthServer exposes liveness and readiness probes. Readiness verifies
// the database answers a trivial query.
type HealthServer struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
}

func NewHealthServer(cfg *config.Config, store store.Store, listener net.Listener) *HealthServer {
	return &HealthServer{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

func (s *HealthServer) Run(ctx context.Context) error {
	router := chi.NewRouter()

	router.Use(
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.store.Retry().CountPending(r.Context()); err != nil {
			http.Error(w, "database not reachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := http.Server{Addr: s.cfg.Service.HealthAddress, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("health_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("health_server").Info("health server terminated")
	}()

	zap.S().Named("health_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
