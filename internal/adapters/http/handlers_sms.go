package http

import (
	"net/http"

	"github.com/disasterline/alert-backend/internal/application"
)

func (h *Handler) sendSMS(w http.ResponseWriter, r *http.Request) {
	var req application.SendSMSRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "send_sms", err)
		return
	}
	if _, err := h.service.RecordSMSAlert(r.Context(), req); err != nil {
		writeMappedError(r.Context(), w, "send_sms", err)
		return
	}
	writeMessage(w, http.StatusCreated, "SMS alert recorded successfully (simulated send).")
}

func (h *Handler) smsHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.ListSMSHistory(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "sms_history", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
