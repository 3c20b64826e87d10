package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// New mounts health and metrics openly and every ledger route behind the
// channel auth middleware. pinger reports storage health for /healthz.
func New(
	transactionController RouteRegistrar,
	reportController RouteRegistrar,
	authMiddleware func(http.Handler) http.Handler,
	pinger func(ctx context.Context) error,
) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", healthHandler(pinger))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(g chi.Router) {
		if authMiddleware != nil {
			g.Use(authMiddleware)
		}
		if transactionController != nil {
			transactionController.RegisterRoutes(g)
		}
		if reportController != nil {
			reportController.RegisterRoutes(g)
		}
	})

	return r
}

func healthHandler(pinger func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger(ctx); err != nil {
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
