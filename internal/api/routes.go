package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes. Everything under /api requires a
// company scope (X-Company-ID header or company_id query param); the health
// probe does not.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CompanyIDHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Liveness probe (no company scope required)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireCompany)

		r.Route("/analytics", func(r chi.Router) {
			// Raw rows
			r.Get("/records", h.ListRecords)
			r.Post("/records", h.UpsertRecord)
			r.Post("/records/batch", h.BatchUpsertRecords)
			r.Delete("/records", h.DeleteRecords)

			// Mailbox health scores
			r.Get("/health", h.MailboxHealth)

			// Per-campaign rollups
			r.Route("/campaigns/{campaignId}", func(r chi.Router) {
				r.Get("/steps", h.CampaignSteps)
				r.Get("/funnel", h.CampaignFunnel)
				r.Post("/export", h.ExportCampaign)
			})
		})

		r.Get("/warmup/schedule", h.WarmupSchedule)
	})

	return r
}
