package main

import (
	"database/sql"
	"net/http"

	"github.com/crucial707/hci-dispatch/internal/config"
	"github.com/crucial707/hci-dispatch/internal/handlers"
	"github.com/crucial707/hci-dispatch/internal/middleware"
	"github.com/crucial707/hci-dispatch/internal/models"
	"github.com/crucial707/hci-dispatch/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// newRouter builds the full API router. Split from main so tests can run the
// whole stack against a mocked database.
func newRouter(database *sql.DB, cfg config.Config) http.Handler {
	templateRepo := repo.NewTemplateRepo(database)
	userRepo := repo.NewUserRepo(database)
	dispatchRepo := repo.NewDispatchLogRepo(database)

	templateH := &handlers.TemplateHandler{Repo: templateRepo}
	scheduleH := &handlers.ScheduleHandler{Repo: templateRepo}
	dueH := &handlers.DueHandler{Repo: templateRepo}
	dispatchH := &handlers.DispatchHandler{Repo: dispatchRepo}
	authH := &handlers.AuthHandler{UserRepo: userRepo, Secret: []byte(cfg.JWTSecret), ExpireHours: cfg.JWTExpireHours}
	userH := &handlers.UserHandler{Repo: userRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.Prometheus)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Method("GET", "/metrics", promhttp.Handler())

	// Auth endpoints are rate limited per IP and accept small bodies only.
	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Use(middleware.MaxBytes(4 << 10))
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
	})

	apiLimiter := middleware.NewIPRateLimiter(rate.Limit(120.0/60.0), 30)
	r.Route("/v1", func(r chi.Router) {
		r.Use(apiLimiter.Middleware)
		r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

		r.Get("/templates", templateH.ListTemplates)
		r.Get("/templates/{id}", templateH.GetTemplate)
		r.Get("/templates/{id}/schedule", scheduleH.GetSchedule)

		r.Get("/due/fixed", dueH.DueFixedDate)
		r.Get("/due/repeating", dueH.DueRepeating)
		r.Get("/dispatches", dispatchH.ListDispatches)

		// Writes require the admin role.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Post("/templates", templateH.CreateTemplate)
			r.Put("/templates/{id}", templateH.UpdateTemplate)
			r.Delete("/templates/{id}", templateH.DeleteTemplate)
			r.Put("/templates/{id}/schedule", scheduleH.UpdateSchedule)

			r.Get("/users", userH.ListUsers)
			r.Post("/users", userH.CreateUser)
			r.Delete("/users/{id}", userH.DeleteUser)
		})
	})

	return r
}
