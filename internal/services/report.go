// Package services contains business logic layers.
// Services are called by handlers and interact with the database.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecotrack/waste-server/internal/access"
	"github.com/ecotrack/waste-server/internal/apperr"
	"github.com/ecotrack/waste-server/internal/lifecycle"
	"github.com/ecotrack/waste-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const reportColumns = `id, reporter_id, title, description, waste_type, image_url,
	latitude, longitude, address, status, worker_id, management_notes, worker_notes,
	cleaned_image_url, rating, feedback_text, feedback_date,
	created_at, assigned_date, started_at, completed_at, updated_at, version`

// ReportService handles waste report business logic: creation, scoped
// reads, and lifecycle mutations persisted as single conditional updates.
type ReportService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewReportService creates a new report service
func NewReportService(db *pgxpool.Pool, logger *zap.SugaredLogger) *ReportService {
	return &ReportService{db: db, logger: logger}
}

// Create stores a new citizen report in the pending state.
func (s *ReportService) Create(ctx context.Context, reporterID uuid.UUID, req *models.CreateReportRequest, address string) (*models.WasteReport, error) {
	if req.Title == "" {
		return nil, apperr.PreconditionFailed("title is required")
	}
	if req.ImageURL == "" {
		return nil, apperr.PreconditionFailed("a waste photo is required before submission")
	}
	if !req.WasteType.Valid() {
		return nil, apperr.PreconditionFailed("unknown waste type %q", req.WasteType)
	}

	now := time.Now().UTC()
	report := &models.WasteReport{
		ID:          uuid.New(),
		ReporterID:  reporterID,
		Title:       req.Title,
		Description: req.Description,
		WasteType:   req.WasteType,
		ImageURL:    req.ImageURL,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     address,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}

	query := `
		INSERT INTO waste_reports (id, reporter_id, title, description, waste_type, image_url,
			latitude, longitude, address, status, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.Exec(ctx, query,
		report.ID, report.ReporterID, report.Title, report.Description,
		report.WasteType, report.ImageURL, report.Latitude, report.Longitude,
		report.Address, report.Status, report.CreatedAt, report.UpdatedAt, report.Version,
	)
	if err != nil {
		return nil, apperr.External(err, "failed to store report")
	}

	return report, nil
}

// Get fetches a report visible to the given principal. Reports outside the
// principal's scope read as absent, matching the row-filtered queries the
// scoped views define.
func (s *ReportService) Get(ctx context.Context, id uuid.UUID, p models.Principal) (*models.WasteReport, error) {
	report, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.ScopeFor(p).Allows(*report) {
		return nil, apperr.NotFound("report %s not found", id)
	}
	return report, nil
}

func (s *ReportService) get(ctx context.Context, id uuid.UUID) (*models.WasteReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM waste_reports WHERE id = $1`, reportColumns)
	row := s.db.QueryRow(ctx, query, id)
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("report %s not found", id)
		}
		return nil, apperr.External(err, "failed to load report")
	}
	return report, nil
}

// List returns the reports visible to the principal, newest first.
func (s *ReportService) List(ctx context.Context, p models.Principal) ([]models.WasteReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM waste_reports`, reportColumns)
	args := []any{}

	scope := access.ScopeFor(p)
	switch {
	case scope.ReporterID != nil:
		query += ` WHERE reporter_id = $1`
		args = append(args, *scope.ReporterID)
	case scope.WorkerID != nil:
		query += ` WHERE worker_id = $1`
		args = append(args, *scope.WorkerID)
	}
	query += ` ORDER BY created_at DESC`

	return s.queryReports(ctx, query, args...)
}

// ListByWorker returns all reports bound to one worker, newest first.
// Management-only callers use this for the worker detail view.
func (s *ReportService) ListByWorker(ctx context.Context, workerID uuid.UUID) ([]models.WasteReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM waste_reports WHERE worker_id = $1 ORDER BY created_at DESC`, reportColumns)
	return s.queryReports(ctx, query, workerID)
}

// ListCreatedSince returns reports created at or after the given instant,
// the raw input for analytics aggregation.
func (s *ReportService) ListCreatedSince(ctx context.Context, since time.Time) ([]models.WasteReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM waste_reports WHERE created_at >= $1`, reportColumns)
	return s.queryReports(ctx, query, since)
}

// ApplyChange runs the requested change set through the lifecycle engine
// and persists the result with a version-conditional update. A lost race
// surfaces as PreconditionFailed rather than silently overwriting.
func (s *ReportService) ApplyChange(ctx context.Context, id uuid.UUID, actor models.Principal, change *models.UpdateReportRequest) (*models.WasteReport, error) {
	report, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.ScopeFor(actor).Allows(*report) {
		if actor.Role == models.RoleWorker {
			return nil, apperr.Forbidden("report is not assigned to this worker")
		}
		return nil, apperr.NotFound("report %s not found", id)
	}

	if change.WorkerID != nil {
		if err := s.checkWorker(ctx, *change.WorkerID); err != nil {
			return nil, err
		}
	}

	updated, err := lifecycle.Apply(*report, actor, *change, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, &updated, report.Version); err != nil {
		return nil, err
	}

	s.logger.Infow("Report updated",
		"id", updated.ID,
		"status", updated.Status,
		"actor_role", actor.Role,
	)
	return &updated, nil
}

// SubmitFeedback records the citizen's one-time rating of completed work.
// Reports outside the actor's scope read as absent, same as Get, so a
// probe cannot learn whether a foreign report id exists.
func (s *ReportService) SubmitFeedback(ctx context.Context, id uuid.UUID, actor models.Principal, req *models.FeedbackRequest) (*models.WasteReport, error) {
	report, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.ScopeFor(actor).Allows(*report) {
		return nil, apperr.NotFound("report %s not found", id)
	}

	updated, err := lifecycle.Feedback(*report, actor, *req, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, &updated, report.Version); err != nil {
		return nil, err
	}

	s.logger.Infow("Feedback submitted", "id", updated.ID, "rating", req.Rating)
	return &updated, nil
}

// WorkerStats aggregates one worker's task counts.
func (s *ReportService) WorkerStats(ctx context.Context, workerID uuid.UUID) (*models.WorkerStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM waste_reports WHERE worker_id = $1
	`
	var stats models.WorkerStats
	err := s.db.QueryRow(ctx, query, workerID).Scan(&stats.Assigned, &stats.InProgress, &stats.Completed)
	if err != nil {
		return nil, apperr.External(err, "failed to load worker stats")
	}
	return &stats, nil
}

// checkWorker verifies the assignment target exists and is provisioned as a
// worker.
func (s *ReportService) checkWorker(ctx context.Context, workerID uuid.UUID) error {
	var role models.Role
	err := s.db.QueryRow(ctx, `SELECT role FROM accounts WHERE id = $1`, workerID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("worker %s not found", workerID)
	}
	if err != nil {
		return apperr.External(err, "failed to look up worker")
	}
	if role != models.RoleWorker {
		return apperr.NotFound("account %s is not a worker", workerID)
	}
	return nil
}

// persist writes the validated report back, conditional on the version the
// change was computed from. The whole change set lands or none of it does.
func (s *ReportService) persist(ctx context.Context, r *models.WasteReport, fromVersion int) error {
	query := `
		UPDATE waste_reports SET
			status = $1, worker_id = $2, management_notes = $3, worker_notes = $4,
			cleaned_image_url = $5, rating = $6, feedback_text = $7, feedback_date = $8,
			assigned_date = $9, started_at = $10, completed_at = $11, updated_at = $12,
			version = version + 1
		WHERE id = $13 AND version = $14
	`
	tag, err := s.db.Exec(ctx, query,
		r.Status, r.WorkerID, r.ManagementNotes, r.WorkerNotes,
		r.CleanedImageURL, r.Rating, r.FeedbackText, r.FeedbackDate,
		r.AssignedDate, r.StartedAt, r.CompletedAt, r.UpdatedAt,
		r.ID, fromVersion,
	)
	if err != nil {
		return apperr.External(err, "failed to update report")
	}
	if tag.RowsAffected() == 0 {
		return apperr.PreconditionFailed("report was modified concurrently, reload and retry")
	}
	r.Version = fromVersion + 1
	return nil
}

func (s *ReportService) queryReports(ctx context.Context, query string, args ...any) ([]models.WasteReport, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.External(err, "failed to query reports")
	}
	defer rows.Close()

	var reports []models.WasteReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, apperr.External(err, "failed to scan report")
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.External(err, "failed to read reports")
	}
	return reports, nil
}

func scanReport(row pgx.Row) (*models.WasteReport, error) {
	var r models.WasteReport
	err := row.Scan(
		&r.ID, &r.ReporterID, &r.Title, &r.Description, &r.WasteType, &r.ImageURL,
		&r.Latitude, &r.Longitude, &r.Address, &r.Status, &r.WorkerID,
		&r.ManagementNotes, &r.WorkerNotes, &r.CleanedImageURL,
		&r.Rating, &r.FeedbackText, &r.FeedbackDate,
		&r.CreatedAt, &r.AssignedDate, &r.StartedAt, &r.CompletedAt, &r.UpdatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
