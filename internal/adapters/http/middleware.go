package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyClaims    ctxKey = "auth_claims"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpLogger().ErrorContext(r.Context(), "panic recovered",
					"operation", "http_panic_recovery",
					"outcome", "failure",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware allows any origin; the mobile and web clients call the API cross-origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) status() int {
	if r.statusCode == 0 {
		return http.StatusOK
	}
	return r.statusCode
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.status()
		outcome := "success"
		if statusCode >= 400 {
			outcome = "failure"
		}

		fields := []any{
			"operation", "http_request",
			"outcome", outcome,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		}
		logAtStatus(r.Context(), statusCode, "http request completed", fields)
	})
}

// authMiddleware verifies the bearer token and attaches its claims to the request context.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			h.metrics.observeAuth("verify_token", "missing")
			writeMappedError(r.Context(), w, "verify_token", fmt.Errorf("%w: %w", domain.ErrTokenMissing, err))
			return
		}

		claims, err := h.service.ValidateToken(r.Context(), raw)
		if err != nil {
			h.metrics.observeAuth("verify_token", "invalid")
			writeMappedError(r.Context(), w, "verify_token", err)
			return
		}
		h.metrics.observeAuth("verify_token", "success")
		next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
	})
}

// requireRole admits only requests whose verified role equals role.
// It must run after authMiddleware; a request without claims is refused.
func (h *Handler) requireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				h.metrics.observeAuth("require_role", "denied")
				writeMappedError(r.Context(), w, "require_role", fmt.Errorf("%w: no verified claims", domain.ErrForbidden))
				return
			}
			if err := h.service.RequireRole(claims, role); err != nil {
				h.metrics.observeAuth("require_role", "denied")
				writeMappedError(r.Context(), w, "require_role", err)
				return
			}
			h.metrics.observeAuth("require_role", "success")
			next.ServeHTTP(w, r)
		})
	}
}

func contextWithClaims(ctx context.Context, claims ports.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, claims)
}

// ClaimsFromContext returns the verified claims attached by the session middleware.
func ClaimsFromContext(ctx context.Context) (ports.AuthClaims, bool) {
	v := ctx.Value(ctxKeyClaims)
	claims, ok := v.(ports.AuthClaims)
	return claims, ok
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(ctxKeyRequestID)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func bearerTokenFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("missing bearer token")
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

const (
	msgServerError   = "Server error"
	msgTokenMissing  = "Access denied, no token provided"
	msgTokenInvalid  = "Invalid or expired token"
	msgAccessDenied  = "Access denied"
	msgInvalidInput  = "Invalid request"
	msgNotFound      = "Resource not found"
	msgAuthFailed    = "Authentication failed"
	msgDuplicateMail = "Email already registered"
)

// mapDomainError is the only place domain errors become HTTP status, code and message.
func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", clientMessageOr(err, msgInvalidInput)
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusBadRequest, "DUPLICATE_EMAIL", msgDuplicateMail
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusBadRequest, "USER_NOT_FOUND", "User not found"
	case errors.Is(err, domain.ErrInvalidPassword):
		return http.StatusUnauthorized, "INVALID_PASSWORD", "Invalid password"
	case errors.Is(err, domain.ErrAuthenticationFailed):
		return http.StatusUnauthorized, "AUTHENTICATION_FAILED", msgAuthFailed
	case errors.Is(err, domain.ErrTokenMissing):
		return http.StatusUnauthorized, "TOKEN_MISSING", msgTokenMissing
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusForbidden, "TOKEN_INVALID", msgTokenInvalid
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", msgAccessDenied
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", clientMessageOr(err, msgNotFound)
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", msgServerError
	}
}

func clientMessageOr(err error, fallback string) string {
	if msg, ok := domain.ClientMessage(err); ok {
		return msg
	}
	return fallback
}
