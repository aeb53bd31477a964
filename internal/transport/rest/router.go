package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hospital-management/internal/auth"
	"github.com/frahmantamala/hospital-management/internal/core/metrics"
	"github.com/frahmantamala/hospital-management/internal/role"
	"github.com/frahmantamala/hospital-management/internal/transport/middleware"
	"github.com/frahmantamala/hospital-management/internal/transport/swagger"
	"github.com/frahmantamala/hospital-management/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Routes collects what RegisterAllRoutes mounts. Nil handlers are skipped.
type Routes struct {
	Logger  *slog.Logger
	Health  *HealthHandler
	Auth    *auth.Handler
	Authz   *auth.RBACAuthorization
	Users   *user.Handler
	Roles   *role.Handler
	Metrics *metrics.Metrics
	OpenAPI *swagger.Document

	MetricsPath    string
	BranchHeader   string
	AllowedOrigins string
	// ExposePanics echoes panic values to clients; keep off in production.
	ExposePanics   bool
	RequestLogging bool
}

func RegisterAllRoutes(router *chi.Mux, rt Routes) {
	// Apply global middleware
	router.Use(middleware.CORS(rt.AllowedOrigins, rt.BranchHeader))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(rt.Logger, rt.ExposePanics))
	if rt.Metrics != nil {
		router.Use(rt.Metrics.Middleware)
	}
	if rt.RequestLogging {
		router.Use(middleware.LoggingMiddleware(rt.Logger))
	}

	// Serve the OpenAPI document at root (outside API prefix)
	if rt.OpenAPI != nil {
		router.Method(http.MethodGet, "/openapi.yml", rt.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler())
	}

	if rt.Metrics != nil {
		path := rt.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Method(http.MethodGet, path, rt.Metrics.Handler())
	}

	// Mount API under /api/v1 to match OpenAPI server url
	router.Route("/api/v1", func(r chi.Router) {
		if rt.Health != nil {
			r.Get("/health", rt.Health.Health)
			r.Get("/ping", rt.Health.Ping)
		}

		if rt.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/register", rt.Auth.Register)
			sr.Post("/login", rt.Auth.Login)
		})

		// authenticate -> resolve branch -> permit
		r.Group(func(pr chi.Router) {
			pr.Use(rt.Auth.AuthMiddleware)
			pr.Use(middleware.BranchContext(rt.BranchHeader))

			if rt.Users != nil {
				pr.Get("/users/me", rt.Users.GetCurrentUser)
				pr.With(rt.Authz.Middleware(role.PermUserRoleAssign)).Put("/users/{id}/roles", rt.Users.AssignRoles)
				pr.With(rt.Authz.Middleware(role.PermUserBranchAssign)).Put("/users/{id}/branches", rt.Users.AssignBranches)
			}

			if rt.Roles != nil {
				pr.With(rt.Authz.Middleware(role.PermRoleRead)).Get("/roles", rt.Roles.ListRoles)
				pr.With(rt.Authz.Middleware(role.PermRoleWrite)).Put("/roles", rt.Roles.UpsertRole)
			}
		})
	})
}
