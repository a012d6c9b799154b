package api

import (
	"database/sql"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskdeck/pkg/audit"
	"github.com/platinummonkey/taskdeck/pkg/auth"
	"github.com/platinummonkey/taskdeck/pkg/middleware"
	"github.com/platinummonkey/taskdeck/pkg/observability"
	"github.com/platinummonkey/taskdeck/pkg/projects"
	"github.com/platinummonkey/taskdeck/pkg/tasks"
	"github.com/platinummonkey/taskdeck/pkg/tenants"
	"github.com/platinummonkey/taskdeck/pkg/users"
)

// Server is the HTTP API server.
type Server struct {
	router  *mux.Router
	logger  *observability.Logger
	metrics *observability.Metrics

	issuer   *auth.Issuer
	recorder *audit.Recorder

	tenantService  *tenants.PostgresService
	userService    *users.PostgresService
	projectService *projects.PostgresService
	taskService    *tasks.PostgresService
	auditStore     audit.Store
}

// Options configures a new server. DB, Issuer, and Logger are required;
// the rest degrade gracefully when absent.
type Options struct {
	DB        *sql.DB
	Issuer    *auth.Issuer
	Logger    *observability.Logger
	Metrics   *observability.Metrics
	Health    *observability.HealthChecker
	Recorder  *audit.Recorder
	Redis     *redis.Client
	RateLimit *middleware.RateLimitConfig

	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
}

// NewServer wires the services and routes.
func NewServer(opts Options) *Server {
	tenantService := tenants.NewPostgresService(opts.DB)
	s := &Server{
		router:         mux.NewRouter(),
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		issuer:         opts.Issuer,
		recorder:       opts.Recorder,
		tenantService:  tenantService,
		userService:    users.NewPostgresService(opts.DB, tenantService),
		projectService: projects.NewPostgresService(opts.DB, tenantService),
		taskService:    tasks.NewPostgresService(opts.DB),
		auditStore:     audit.NewPostgresStore(opts.DB),
	}
	s.setupRoutes(opts)
	return s
}

// setupRoutes configures all the API routes. Public routes are registered
// on the root router first so they never pass through the auth middleware
// on the /api subrouter.
func (s *Server) setupRoutes(opts Options) {
	s.router.Use(middleware.RequestID)
	if s.logger != nil {
		s.router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := observability.WithLogger(r.Context(), s.logger)
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
	}
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics, routeTemplate))
	}

	var limiter func(http.Handler) http.Handler
	if opts.Redis != nil {
		rl := middleware.NewDistributedRateLimitMiddleware(opts.Redis, opts.RateLimit, s.logger, s.metrics)
		limiter = rl.Handler
	}
	public := func(h http.HandlerFunc) http.Handler {
		if limiter != nil {
			return limiter(h)
		}
		return h
	}

	// Health and metrics
	if opts.Health != nil {
		s.router.HandleFunc("/api/health", opts.Health.Liveness).Methods("GET")
		s.router.HandleFunc("/api/health/ready", opts.Health.Readiness).Methods("GET")
	}
	if opts.MetricsHandler != nil {
		s.router.Handle("/metrics", opts.MetricsHandler).Methods("GET")
	}

	// Public auth routes
	s.router.Handle("/api/auth/register-tenant", public(s.registerTenant)).Methods("POST")
	s.router.Handle("/api/auth/login", public(s.login)).Methods("POST")

	// Everything else requires a valid token
	authed := s.router.PathPrefix("/api").Subrouter()
	authed.Use(middleware.NewAuthMiddleware(s.issuer, s.metrics).Handler)
	if limiter != nil {
		authed.Use(limiter)
	}

	authed.HandleFunc("/auth/me", s.me).Methods("GET")
	authed.HandleFunc("/auth/logout", s.logout).Methods("POST")

	authed.HandleFunc("/tenants", s.listTenants).Methods("GET")
	authed.HandleFunc("/tenants/{tenantId}", s.getTenant).Methods("GET")
	authed.HandleFunc("/tenants/{tenantId}", s.updateTenant).Methods("PUT")

	authed.HandleFunc("/tenants/{tenantId}/users", s.createUser).Methods("POST")
	authed.HandleFunc("/tenants/{tenantId}/users", s.listUsers).Methods("GET")
	authed.HandleFunc("/users/{userId}", s.updateUser).Methods("PUT")
	authed.HandleFunc("/users/{userId}", s.deleteUser).Methods("DELETE")

	authed.HandleFunc("/projects", s.createProject).Methods("POST")
	authed.HandleFunc("/projects", s.listProjects).Methods("GET")
	authed.HandleFunc("/projects/{projectId}", s.updateProject).Methods("PUT")
	authed.HandleFunc("/projects/{projectId}", s.deleteProject).Methods("DELETE")

	authed.HandleFunc("/projects/{projectId}/tasks", s.createTask).Methods("POST")
	authed.HandleFunc("/projects/{projectId}/tasks", s.listTasks).Methods("GET")
	authed.HandleFunc("/tasks/{taskId}", s.updateTask).Methods("PUT")
	authed.HandleFunc("/tasks/{taskId}/status", s.updateTaskStatus).Methods("PATCH")

	authed.HandleFunc("/audit-logs", s.listAuditLogs).Methods("GET")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routeTemplate resolves the mux route template for metrics labels so
// path parameters do not explode label cardinality.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
