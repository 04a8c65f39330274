// Package httpapi is the HTTP surface. Requests flow through a fixed
// middleware chain: request id, logging, security headers, CORS, rate limit,
// authentication, tenant resolution. Handlers only run with a resolved (or
// deliberately exempt) tenant context.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"taskgrid.org/internal/audit"
	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/notify"
	"taskgrid.org/internal/obs"
	"taskgrid.org/internal/task"
	"taskgrid.org/internal/tenant"
)

// ReadyProbe reports whether downstream dependencies are reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API wires handlers to services.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	accounts *auth.Service
	tenants  *tenant.Service
	resolver *tenant.Resolver
	tasks    *task.Service
	auditor  *audit.Recorder
	notices  *notify.Service
	hub      *notify.Hub
}

type Config struct {
	ReadyProbe ReadyProbe
	Version    string

	Accounts *auth.Service
	Tenants  *tenant.Service
	Resolver *tenant.Resolver
	Tasks    *task.Service
	Auditor  *audit.Recorder
	Notices  *notify.Service
	Hub      *notify.Hub
}

func New(cfg Config) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: cfg.ReadyProbe,
		version:    cfg.Version,
		accounts:   cfg.Accounts,
		tenants:    cfg.Tenants,
		resolver:   cfg.Resolver,
		tasks:      cfg.Tasks,
		auditor:    cfg.Auditor,
		notices:    cfg.Notices,
		hub:        cfg.Hub,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/account/register", a.handleRegister)
	a.mux.HandleFunc("/api/account/login", a.handleLogin)

	a.mux.HandleFunc("/api/tenants", a.handleTenants)
	a.mux.HandleFunc("/api/tenants/", a.handleTenantByID)

	a.mux.HandleFunc("/api/projects", a.handleProjects)
	a.mux.HandleFunc("/api/projects/", a.handleProjectScoped)

	a.mux.HandleFunc("/api/tasks", a.handleTasks)
	a.mux.HandleFunc("/api/tasks/", a.handleTaskScoped)

	a.mux.HandleFunc("/api/comments/", a.handleCommentScoped)

	a.mux.HandleFunc("/api/users", a.handleUsers)
	a.mux.HandleFunc("/api/users/", a.handleUserByID)

	a.mux.HandleFunc("/api/notifications", a.handleNotifications)
	a.mux.HandleFunc("/api/notifications/stream", a.StreamNotifications)
	a.mux.HandleFunc("/api/notifications/", a.handleNotificationScoped)

	a.mux.HandleFunc("/api/logs", a.handleAuditLog)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the full chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withTenant(h)
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 50, 25)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = obs.Instrument(h)
	h = Logging(h)
	h = RequestID(h)
	return h
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "taskgrid-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "taskgrid-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
