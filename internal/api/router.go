package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NorthLot-Market/Verdict/internal/engine"
	"github.com/NorthLot-Market/Verdict/internal/events"
	"github.com/NorthLot-Market/Verdict/internal/market"
	"github.com/NorthLot-Market/Verdict/internal/store"
)

func NewRouter(s store.Store, ev events.Client, mk market.Provider, eng *engine.Engine, est *engine.Estimator, adminToken string, rateLimit int, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(rateLimit, time.Minute))

	scoring := NewScoringHandler(s, ev, mk, eng, est, logger)
	decisions := NewDecisionsHandler(s, ev)
	admin := NewAdminHandler(s, eng)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ClientIDMiddleware)

		r.Post("/score/fraud", scoring.Fraud)
		r.Post("/score/duplicate", scoring.Duplicate)
		r.Post("/price/recommend", scoring.Price)
		r.Post("/predict/success", scoring.Success)
		r.Post("/dispute/resolve", scoring.Dispute)

		r.Get("/decisions", decisions.List)
		r.Get("/decisions/{id}", decisions.Get)
		r.Get("/decisions/{id}/explain", decisions.Explain)
		r.Get("/decisions/{id}/events", decisions.Events)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Post("/decisions/{id}/status", decisions.UpdateStatus)
			r.Get("/stats", admin.Stats)
			r.Get("/profiles", admin.Profiles)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
