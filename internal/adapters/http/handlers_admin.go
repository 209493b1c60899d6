package http

import (
	"net/http"
)

func (h *Handler) adminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "admin_list_users", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := int64URLParam(r, "id")
	if err != nil {
		writeMappedError(r.Context(), w, "admin_delete_user", err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		writeMappedError(r.Context(), w, "admin_delete_user", err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}
