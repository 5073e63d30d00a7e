// Package server exposes the HTTP/JSON API: authentication, the service
// catalog, homes, the task lifecycle endpoints and the admin console, plus
// health and metrics probes.
package server

import (
	"log/slog"
	"net/http"

	"github.com/Houeta/homecare-api/internal/auth"
	"github.com/Houeta/homecare-api/internal/metrics"
	"github.com/Houeta/homecare-api/internal/models"
	"github.com/Houeta/homecare-api/internal/repository"
	"github.com/Houeta/homecare-api/internal/services/tasks"
	"github.com/Houeta/homecare-api/internal/services/users"
	"github.com/Houeta/homecare-api/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Server wires the services into HTTP handlers.
type Server struct {
	log     *slog.Logger
	users   *users.Service
	tasks   *tasks.Service
	catalog repository.CatalogRepoIface
	homes   repository.HomeRepoIface
	files   *storage.DiskStore
	tokens  *auth.TokenManager
	metrics *metrics.Metrics
	health  *HealthChecker
}

// NewServer creates the handler container.
func NewServer(
	log *slog.Logger,
	userService *users.Service,
	taskService *tasks.Service,
	catalogRepo repository.CatalogRepoIface,
	homeRepo repository.HomeRepoIface,
	files *storage.DiskStore,
	tokens *auth.TokenManager,
	mtx *metrics.Metrics,
	health *HealthChecker,
) *Server {
	return &Server{
		log:     log,
		users:   userService,
		tasks:   taskService,
		catalog: catalogRepo,
		homes:   homeRepo,
		files:   files,
		tokens:  tokens,
		metrics: mtx,
		health:  health,
	}
}

// Router builds the full route tree.
func (s *Server) Router(registry *prometheus.Registry) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(s.logRequests)
	router.Use(s.instrument)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)

	router.Method(http.MethodGet, "/healthz", s.health)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	router.Post("/auth/signup", s.handleSignup)
	router.Post("/auth/contractor-signup", s.handleContractorSignup)
	router.Post("/auth/login", s.handleLogin)

	router.Get("/services", s.handleListServices)
	router.Get("/services/categories", s.handleListCategories)
	router.Get("/services/{id}", s.handleGetService)

	router.Get("/uploads/{name}", s.handleServeUpload)

	router.Group(func(private chi.Router) {
		private.Use(s.authenticate)

		private.Get("/auth/profile", s.handleGetProfile)
		private.Post("/auth/profile", s.handleUpdateProfile)
		private.Post("/auth/avatar", s.handleUploadAvatar)

		private.Get("/notifications", s.handleListNotifications)

		private.Post("/homes", s.handleCreateHome)

		private.Get("/tasks", s.handleListTasks)
		private.Post("/tasks", s.handleCreateTask)
		private.Get("/tasks/{id}", s.handleGetTask)
		private.Post("/tasks/{id}/accept", s.handleAcceptTask)
		private.Post("/tasks/{id}/propose-schedule", s.handleProposeSchedule)
		private.Post("/tasks/{id}/approve-schedule", s.handleApproveSchedule)
		private.Post("/tasks/{id}/reject-schedule", s.handleRejectSchedule)
		private.Post("/tasks/{id}/assign", s.handleAssignTask)
		private.Post("/tasks/{id}/cancel", s.handleCancelTask)
		private.Put("/tasks/{id}/status", s.handleUpdateTaskStatus)

		private.Route("/admin", func(admin chi.Router) {
			admin.Use(s.requireRole(models.RoleAdmin))

			admin.Get("/stats", s.handleAdminStats)
			admin.Get("/users", s.handleAdminListUsers)
			admin.Get("/tasks", s.handleAdminListTasks)
			admin.Get("/contractors", s.handleAdminListContractors)
			admin.Get("/pending-contractors", s.handleAdminPendingContractors)
			admin.Patch("/users/{id}", s.handleAdminPatchUser)
			admin.Post("/verify-contractor/{id}", s.handleAdminVerifyContractor)
			admin.Post("/tasks/{id}/assign", s.handleAssignTask)
			admin.Patch("/tasks/{id}/unassign", s.handleUnassignTask)
		})
	})

	return router
}
