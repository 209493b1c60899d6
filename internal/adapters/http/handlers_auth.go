package http

import (
	"net/http"

	"github.com/disasterline/alert-backend/internal/application"
)

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req application.SignupRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "signup", err)
		return
	}

	res, err := h.service.Signup(r.Context(), req)
	if err != nil {
		h.metrics.observeAuth("signup", "failure")
		writeMappedError(r.Context(), w, "signup", err)
		return
	}
	h.metrics.observeAuth("signup", "success")
	writeSuccess(w, http.StatusCreated, map[string]any{
		"user":    res.User,
		"message": "User registered successfully",
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "login", err)
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.metrics.observeAuth("login", "failure")
		writeMappedError(r.Context(), w, "login", err)
		return
	}
	h.metrics.observeAuth("login", "success")
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   res.Token,
		"user":    res.User,
	})
}
