package http

import (
	"net/http"

	"github.com/disasterline/alert-backend/internal/application"
	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Handler is the HTTP adapter entrypoint for the backend use-cases.
type Handler struct {
	service *application.Service
	metrics *Metrics
	ready   func(*http.Request) error
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithMetrics records request and auth outcome metrics and exposes /metrics.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithReadiness makes /readyz report the result of check.
func WithReadiness(check func(*http.Request) error) HandlerOption {
	return func(h *Handler) { h.ready = check }
}

// NewHandler constructs an HTTP handler bound to application service.
func NewHandler(service *application.Service, opts ...HandlerOption) *Handler {
	h := &Handler{service: service}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter registers the HTTP routes and middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	r.Use(handler.metrics.middleware)
	r.Use(corsMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	if handler.metrics != nil {
		r.Method(http.MethodGet, "/metrics", handler.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", handler.signup)
			r.Post("/login", handler.login)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Get("/me", handler.profileMe)
			r.Put("/update", handler.profileUpdate)
			r.Delete("/delete", handler.profileDelete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Use(handler.requireRole(domain.RoleAdmin))
			r.Get("/users", handler.adminListUsers)
			r.Delete("/user/{id}", handler.adminDeleteUser)
		})

		r.Route("/report", func(r chi.Router) {
			r.Get("/reports/{user_id}", handler.listReports)
			r.Post("/reports", handler.createReport)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Post("/add-alert", handler.addAlert)
			r.Get("/get-alerts", handler.getAlerts)
		})

		r.Route("/sms", func(r chi.Router) {
			r.Post("/send-sms", handler.sendSMS)
			r.Get("/history", handler.smsHistory)
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r); err != nil {
			logHTTPOperationError(r.Context(), "readyz", http.StatusServiceUnavailable, "NOT_READY", "not ready", err)
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", "not ready")
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}
