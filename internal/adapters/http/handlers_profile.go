package http

import (
	"net/http"

	"github.com/disasterline/alert-backend/internal/application"
)

func (h *Handler) profileMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustClaims(w, r, "profile_me")
	if !ok {
		return
	}
	view, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		writeMappedError(r.Context(), w, "profile_me", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": view})
}

func (h *Handler) profileUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustClaims(w, r, "profile_update")
	if !ok {
		return
	}
	var req application.UpdateProfileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "profile_update", err)
		return
	}
	if err := h.service.UpdateProfile(r.Context(), userID, req); err != nil {
		writeMappedError(r.Context(), w, "profile_update", err)
		return
	}
	writeMessage(w, http.StatusOK, "Profile updated successfully")
}

func (h *Handler) profileDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := mustClaims(w, r, "profile_delete")
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		writeMappedError(r.Context(), w, "profile_delete", err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}
