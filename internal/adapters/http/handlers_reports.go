package http

import (
	"net/http"

	"github.com/disasterline/alert-backend/internal/application"
)

// Report endpoints answer with bare rows, which is what the mobile client parses.

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	userID, err := int64URLParam(r, "user_id")
	if err != nil {
		writeMappedError(r.Context(), w, "list_reports", err)
		return
	}
	reports, err := h.service.ListReports(r.Context(), userID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_reports", err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) createReport(w http.ResponseWriter, r *http.Request) {
	var req application.CreateReportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_report", err)
		return
	}
	report, err := h.service.CreateReport(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
