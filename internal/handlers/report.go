// Package handlers contains HTTP request handlers for the waste-reporting
// API. Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ecotrack/waste-server/internal/apperr"
	"github.com/ecotrack/waste-server/internal/middleware"
	"github.com/ecotrack/waste-server/internal/models"
	"github.com/ecotrack/waste-server/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportHandler handles waste report HTTP endpoints
type ReportHandler struct {
	reportSvc    *services.ReportService
	analyticsSvc *services.AnalyticsService
	geocoder     *services.Geocoder
	logger       *zap.SugaredLogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(rs *services.ReportService, as *services.AnalyticsService, g *services.Geocoder, logger *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{reportSvc: rs, analyticsSvc: as, geocoder: g, logger: logger}
}

// Create handles POST /api/v1/reports
// Citizens submit a new waste report; it enters the lifecycle as pending.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}
	if principal.Role != models.RoleUser {
		respondError(w, http.StatusForbidden, "Only citizens submit waste reports")
		return
	}

	var req models.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Best-effort address; a geocoding failure degrades to a placeholder.
	address := h.geocoder.Reverse(r.Context(), req.Latitude, req.Longitude)

	report, err := h.reportSvc.Create(r.Context(), principal.ID, &req, address)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.analyticsSvc.Invalidate(r.Context())

	h.logger.Infow("Report submitted",
		"id", report.ID,
		"waste_type", report.WasteType,
	)
	respondJSON(w, http.StatusCreated, report)
}

// List handles GET /api/v1/reports
// Returns the reports visible to the caller's role, newest first.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	reports, err := h.reportSvc.List(r.Context(), principal)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if reports == nil {
		reports = []models.WasteReport{}
	}
	respondJSON(w, http.StatusOK, reports)
}

// Get handles GET /api/v1/reports/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	report, err := h.reportSvc.Get(r.Context(), id, principal)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Update handles PATCH /api/v1/reports/{id}
// The body is a lifecycle change set; the lifecycle engine decides whether
// the caller may apply it.
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	var change models.UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.reportSvc.ApplyChange(r.Context(), id, principal, &change)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.analyticsSvc.Invalidate(r.Context())
	respondJSON(w, http.StatusOK, report)
}

// Feedback handles POST /api/v1/reports/{id}/feedback
// The reporting citizen rates completed work, exactly once.
func (h *ReportHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	var req models.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.reportSvc.SubmitFeedback(r.Context(), id, principal, &req)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.analyticsSvc.Invalidate(r.Context())
	respondJSON(w, http.StatusOK, report)
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondAppError maps the application error taxonomy onto HTTP statuses.
func respondAppError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindForbidden:
		respondError(w, http.StatusForbidden, apperr.Message(err))
	case apperr.KindPreconditionFailed:
		respondError(w, http.StatusPreconditionFailed, apperr.Message(err))
	case apperr.KindNotFound:
		respondError(w, http.StatusNotFound, apperr.Message(err))
	case apperr.KindExternal:
		logger.Errorw("External service failure", "error", err)
		respondError(w, http.StatusBadGateway, apperr.Message(err))
	default:
		logger.Errorw("Unexpected error", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
	}
}
