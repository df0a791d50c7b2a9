// Package access computes the per-role read and write projections over
// waste reports: which reports a principal may see and which fields a role
// may mutate. The report service applies the same scope as a SQL predicate;
// VisibleReports is the in-memory equivalent used on already-loaded slices.
package access

import (
	"github.com/ecotrack/waste-server/internal/models"
	"github.com/google/uuid"
)

// Field names a mutable column of a waste report.
type Field string

const (
	FieldStatus          Field = "status"
	FieldWorkerID        Field = "worker_id"
	FieldManagementNotes Field = "management_notes"
	FieldWorkerNotes     Field = "worker_notes"
	FieldCleanedImageURL Field = "cleaned_image_url"
	FieldRating          Field = "rating"
	FieldFeedbackText    Field = "feedback_text"
	FieldFeedbackDate    Field = "feedback_date"
)

// Scope describes the visibility filter for a principal.
type Scope struct {
	// All is true for management: no row filter.
	All bool
	// ReporterID filters to reports owned by this citizen, when set.
	ReporterID *uuid.UUID
	// WorkerID filters to reports assigned to this worker, when set.
	WorkerID *uuid.UUID
}

// ScopeFor returns the visibility scope of the given principal.
func ScopeFor(p models.Principal) Scope {
	id := p.ID
	switch p.Role {
	case models.RoleManagement:
		return Scope{All: true}
	case models.RoleWorker:
		return Scope{WorkerID: &id}
	default:
		return Scope{ReporterID: &id}
	}
}

// Allows reports whether the scope admits the given report.
func (s Scope) Allows(r models.WasteReport) bool {
	if s.All {
		return true
	}
	if s.ReporterID != nil {
		return r.ReporterID == *s.ReporterID
	}
	if s.WorkerID != nil {
		return r.WorkerID != nil && *r.WorkerID == *s.WorkerID
	}
	return false
}

// VisibleReports filters reports down to those the principal may read:
// the full set for management, own reports for a citizen, assigned reports
// for a worker.
func VisibleReports(p models.Principal, reports []models.WasteReport) []models.WasteReport {
	scope := ScopeFor(p)
	if scope.All {
		return reports
	}
	visible := make([]models.WasteReport, 0, len(reports))
	for _, r := range reports {
		if scope.Allows(r) {
			visible = append(visible, r)
		}
	}
	return visible
}

// MutableFields returns the set of report fields the role may write.
// Status writes by workers are further constrained by the lifecycle engine,
// and citizen feedback fields apply only to the citizen's own completed
// report.
func MutableFields(role models.Role) []Field {
	switch role {
	case models.RoleManagement:
		return []Field{FieldStatus, FieldWorkerID, FieldManagementNotes, FieldCleanedImageURL}
	case models.RoleWorker:
		return []Field{FieldStatus, FieldWorkerNotes, FieldCleanedImageURL}
	case models.RoleUser:
		return []Field{FieldRating, FieldFeedbackText, FieldFeedbackDate}
	}
	return nil
}

// CanMutate reports whether the role may write the given field.
func CanMutate(role models.Role, f Field) bool {
	for _, allowed := range MutableFields(role) {
		if allowed == f {
			return true
		}
	}
	return false
}
