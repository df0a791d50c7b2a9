package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ecotrack/waste-server/internal/models"
	"github.com/ecotrack/waste-server/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkerHandler handles the management-facing worker endpoints: listing,
// provisioning, and per-worker workload stats.
type WorkerHandler struct {
	accountSvc *services.AccountService
	reportSvc  *services.ReportService
	logger     *zap.SugaredLogger
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(as *services.AccountService, rs *services.ReportService, logger *zap.SugaredLogger) *WorkerHandler {
	return &WorkerHandler{accountSvc: as, reportSvc: rs, logger: logger}
}

// List handles GET /api/v1/workers
func (h *WorkerHandler) List(w http.ResponseWriter, r *http.Request) {
	workers, err := h.accountSvc.ListWorkers(r.Context())
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if workers == nil {
		workers = []models.Account{}
	}
	respondJSON(w, http.StatusOK, workers)
}

// Create handles POST /api/v1/workers
func (h *WorkerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	worker, err := h.accountSvc.CreateWorker(r.Context(), &req)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.logger.Infow("Worker provisioned", "id", worker.ID)
	respondJSON(w, http.StatusCreated, worker)
}

// Stats handles GET /api/v1/workers/{id}/stats
// Returns the worker's task counts plus their assigned reports.
func (h *WorkerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid worker id")
		return
	}

	worker, err := h.accountSvc.Get(r.Context(), id)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	stats, err := h.reportSvc.WorkerStats(r.Context(), id)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	reports, err := h.reportSvc.ListByWorker(r.Context(), id)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if reports == nil {
		reports = []models.WasteReport{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"worker":  worker,
		"stats":   stats,
		"reports": reports,
	})
}
