package handlers

import (
	"net/http"

	"github.com/ecotrack/waste-server/internal/analytics"
	"github.com/ecotrack/waste-server/internal/services"
	"go.uber.org/zap"
)

// AnalyticsHandler serves the management analytics dashboard data.
type AnalyticsHandler struct {
	analyticsSvc *services.AnalyticsService
	logger       *zap.SugaredLogger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(as *services.AnalyticsService, logger *zap.SugaredLogger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: as, logger: logger}
}

// Summary handles GET /api/v1/analytics/summary?window=week|month|year
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	window := analytics.Window(r.URL.Query().Get("window"))
	if window == "" {
		window = analytics.WindowWeek
	}
	if !window.Valid() {
		respondError(w, http.StatusBadRequest, "window must be one of week, month, year")
		return
	}

	summary, err := h.analyticsSvc.Summary(r.Context(), window)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
