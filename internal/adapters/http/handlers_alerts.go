package http

import (
	"net/http"

	"github.com/disasterline/alert-backend/internal/application"
)

func (h *Handler) addAlert(w http.ResponseWriter, r *http.Request) {
	var req application.CreateAlertRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "add_alert", err)
		return
	}
	alert, err := h.service.CreateAlert(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "add_alert", err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"message": "Alert added successfully",
		"data":    alert,
	})
}

func (h *Handler) getAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ListAlerts(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "get_alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}
