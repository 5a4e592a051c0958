package handler

import (
	"net/http"

	"tastetrail/internal/service"
)

// InsightHandler handles taste summary and export endpoints
type InsightHandler struct {
	insightSvc *service.InsightService
	exportSvc  *service.ExportService
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(insightSvc *service.InsightService, exportSvc *service.ExportService) *InsightHandler {
	return &InsightHandler{insightSvc: insightSvc, exportSvc: exportSvc}
}

// TasteSummary handles GET /v1/insights/summary
func (h *InsightHandler) TasteSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.insightSvc.TasteSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Export handles GET /v1/export
func (h *InsightHandler) Export(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.exportSvc.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="tastetrail-export.json"`)
	writeJSON(w, http.StatusOK, bundle)
}
