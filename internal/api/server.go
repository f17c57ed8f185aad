// Package api exposes the engine's status/introspection and manual-trigger
// HTTP surface. This is an operator/dashboard interface, not a patient-facing
// service boundary.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/Talent5/Mama-Care/internal/api/handler"
	"github.com/Talent5/Mama-Care/internal/config"
	"github.com/Talent5/Mama-Care/internal/db"
	"github.com/Talent5/Mama-Care/internal/schedule"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes.
func NewRouter(pool *db.Pool, runner *schedule.Runner, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS — the staff dashboard calls the status and trigger endpoints.
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// --- Handler dependencies ---
	h := handler.New(pool, runner)

	// --- Routes ---
	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	r.Get("/status", h.Status)

	r.Route("/api/v1", func(r chi.Router) {
		// Ad-hoc one-off reminders (staff-initiated)
		r.Post("/reminders", h.ScheduleReminder)
		r.Delete("/reminders/{id}", h.CancelReminder)

		// Manual single run of a registered job
		r.Post("/jobs/{name}/run", h.RunJob)
	})

	return r
}
