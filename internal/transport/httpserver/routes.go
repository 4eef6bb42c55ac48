package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"victim-aid-go/internal/config"
	"victim-aid-go/internal/metrics"
	"victim-aid-go/internal/transport/httpserver/handler"
	authmw "victim-aid-go/internal/transport/httpserver/middleware"
	"victim-aid-go/pkg/logger"
)

// Deps is what the router needs besides the handlers.
type Deps struct {
	Auth     authmw.Authenticator
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      logger.Logger
}

func NewRouter(cfg config.Config, handlers *handler.Handlers, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout(cfg.HTTP)))
	r.Use(authmw.NewCORS(cfg.HTTP.CORSOrigins))
	if deps.Metrics != nil {
		r.Use(authmw.NewMetrics(deps.Metrics))
	}

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	auth := authmw.NewTokenAuth(deps.Auth, deps.Log)

	if publicPath := strings.TrimRight(cfg.Storage.PublicPath, "/"); publicPath != "" {
		r.With(auth.Middleware).Get(publicPath+"/*", handlers.Victims.ServeMedia)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)
		r.Post("/auth/login", handlers.Common.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Common.AuthMe)
			r.Post("/auth/logout", handlers.Common.Logout)

			r.Get("/families", handlers.Families.ListFamilies)
			r.Post("/families", handlers.Families.CreateFamily)
			r.Get("/families/{id}", handlers.Families.GetFamily)
			r.Put("/families/{id}", handlers.Families.UpdateFamily)
			r.Delete("/families/{id}", handlers.Families.DeleteFamily)
			r.Get("/families/{id}/members", handlers.Families.ListMembers)
			r.Post("/families/{id}/members", handlers.Families.AddMember)
			r.Put("/members/{id}", handlers.Families.UpdateMember)
			r.Delete("/members/{id}", handlers.Families.RemoveMember)

			r.Get("/victims", handlers.Victims.ListVictims)
			r.Post("/victims", handlers.Victims.CreateVictim)
			r.Get("/victims/{id}", handlers.Victims.GetVictim)
			r.Put("/victims/{id}", handlers.Victims.UpdateVictim)
			r.Delete("/victims/{id}", handlers.Victims.DeleteVictim)
			r.Post("/victims/{id}/family", handlers.Victims.AttachFamily)

			r.Get("/aid-requests", handlers.Aid.ListRequests)
			r.Post("/aid-requests", handlers.Aid.CreateRequest)
			r.Get("/aid-requests/pending", handlers.Aid.ListPending)
			r.Get("/aid-requests/tracking", handlers.Aid.Tracking)
			r.Get("/aid-requests/{id}", handlers.Aid.GetRequest)
			r.Put("/aid-requests/{id}", handlers.Aid.UpdateRequest)
			r.Delete("/aid-requests/{id}", handlers.Aid.DeleteRequest)
			r.Post("/aid-requests/{id}/submit", handlers.Aid.SubmitRequest)
			r.Post("/aid-requests/{id}/validate", handlers.Aid.ValidateRequest)
			r.Post("/aid-requests/{id}/refuse", handlers.Aid.RefuseRequest)

			r.Get("/dashboard", handlers.Reports.GetDashboard)
			r.Get("/reports/families-aided", handlers.Reports.FamiliesAided)

			r.Get("/admin/users", handlers.Admin.ListUsers)
			r.Post("/admin/users", handlers.Admin.CreateUser)
			r.Post("/admin/users/{id}/toggle-active", handlers.Admin.ToggleUserActive)
			r.Get("/admin/audit-log", handlers.Admin.ListAuditLog)
		})
	})

	return r
}

func requestTimeout(cfg config.HTTPConfig) time.Duration {
	if cfg.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return cfg.RequestTimeout
}
