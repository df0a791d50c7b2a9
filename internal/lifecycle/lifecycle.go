// Package lifecycle is the single authority deciding whether a mutation of
// a waste report is legal. It validates the requested change set against
// the status transition table and the acting principal's role, stamps the
// transition timestamps, and returns the updated report. Validation runs to
// completion before any field is written, so a rejected change is never
// partially applied.
package lifecycle

import (
	"time"

	"github.com/ecotrack/waste-server/internal/access"
	"github.com/ecotrack/waste-server/internal/apperr"
	"github.com/ecotrack/waste-server/internal/models"
)

// transitions is the set of legal status moves. Anything not listed here is
// rejected regardless of who asks.
var transitions = map[models.Status][]models.Status{
	models.StatusPending:    {models.StatusAssigned, models.StatusRejected},
	models.StatusAssigned:   {models.StatusInProgress, models.StatusRejected, models.StatusPending},
	models.StatusInProgress: {models.StatusCompleted, models.StatusAssigned},
	models.StatusCompleted:  {},
	models.StatusRejected:   {},
}

// roleTargets lists which target statuses each role may request.
// Citizens never move status directly; their only write is feedback.
var roleTargets = map[models.Role][]models.Status{
	models.RoleManagement: {
		models.StatusPending, models.StatusAssigned, models.StatusInProgress,
		models.StatusCompleted, models.StatusRejected,
	},
	models.RoleWorker: {
		models.StatusAssigned, models.StatusInProgress, models.StatusCompleted,
	},
}

func reachable(from, to models.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func roleMaySet(role models.Role, to models.Status) bool {
	for _, s := range roleTargets[role] {
		if s == to {
			return true
		}
	}
	return false
}

// Apply validates the change set requested by actor against report and
// returns the updated copy. The report argument is not modified.
//
// Failure modes: apperr.PreconditionFailed when the transition is not in the
// table or a required companion field is missing, apperr.Forbidden when the
// actor lacks rights for the change.
func Apply(report models.WasteReport, actor models.Principal, change models.UpdateReportRequest, now time.Time) (models.WasteReport, error) {
	if err := checkFieldRights(actor.Role, change); err != nil {
		return report, err
	}
	if err := checkReportRights(report, actor); err != nil {
		return report, err
	}

	// A worker binding exists only alongside an assigned-or-later status,
	// and clearing it is part of the unassign transition.
	effective := report.Status
	if change.Status != nil {
		effective = *change.Status
	}
	if change.ClearWorker {
		if change.WorkerID != nil {
			return report, apperr.PreconditionFailed("cannot both assign and clear a worker")
		}
		if effective != models.StatusPending {
			return report, apperr.PreconditionFailed("clearing the worker requires moving the report back to pending")
		}
	}
	if change.WorkerID != nil {
		switch effective {
		case models.StatusAssigned, models.StatusInProgress, models.StatusCompleted:
		default:
			return report, apperr.PreconditionFailed("a worker can only be bound to an assigned report")
		}
	}

	if change.Status != nil {
		target := *change.Status
		if !target.Valid() {
			return report, apperr.PreconditionFailed("unknown status %q", target)
		}
		if target != report.Status {
			if !reachable(report.Status, target) {
				return report, apperr.PreconditionFailed("cannot move report from %s to %s", report.Status, target)
			}
			if !roleMaySet(actor.Role, target) {
				return report, apperr.Forbidden("role %s may not set status %s", actor.Role, target)
			}
			if err := checkCompanions(report, change, target); err != nil {
				return report, err
			}
		}
	}

	// Validation done; apply the whole change set.
	updated := report
	if change.ManagementNotes != nil {
		updated.ManagementNotes = *change.ManagementNotes
	}
	if change.WorkerNotes != nil {
		updated.WorkerNotes = *change.WorkerNotes
	}
	if change.CleanedImageURL != nil {
		url := *change.CleanedImageURL
		updated.CleanedImageURL = &url
	}
	if change.WorkerID != nil {
		id := *change.WorkerID
		updated.WorkerID = &id
		if updated.AssignedDate == nil {
			updated.AssignedDate = &now
		}
	}

	if change.Status != nil && *change.Status != report.Status {
		stamp(&updated, report.Status, *change.Status, now)
	}

	updated.UpdatedAt = now
	return updated, nil
}

// Feedback applies the one-time citizen rating to a completed report.
func Feedback(report models.WasteReport, actor models.Principal, req models.FeedbackRequest, now time.Time) (models.WasteReport, error) {
	if actor.Role != models.RoleUser || actor.ID != report.ReporterID {
		return report, apperr.Forbidden("only the reporting citizen may rate this report")
	}
	if report.Status != models.StatusCompleted {
		return report, apperr.PreconditionFailed("feedback requires a completed report, status is %s", report.Status)
	}
	if report.FeedbackDate != nil {
		return report, apperr.PreconditionFailed("feedback was already submitted for this report")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return report, apperr.PreconditionFailed("rating must be between 1 and 5")
	}

	updated := report
	rating := req.Rating
	updated.Rating = &rating
	if req.FeedbackText != "" {
		text := req.FeedbackText
		updated.FeedbackText = &text
	}
	updated.FeedbackDate = &now
	updated.UpdatedAt = now
	return updated, nil
}

// checkFieldRights rejects change sets touching fields outside the role's
// writable set, before any report-specific checks. The writable sets
// themselves live in the access package.
func checkFieldRights(role models.Role, change models.UpdateReportRequest) error {
	if role != models.RoleManagement && role != models.RoleWorker {
		return apperr.Forbidden("role %s may not update reports", role)
	}
	if (change.WorkerID != nil || change.ClearWorker) && !access.CanMutate(role, access.FieldWorkerID) {
		return apperr.Forbidden("role %s may not change assignment", role)
	}
	if change.ManagementNotes != nil && !access.CanMutate(role, access.FieldManagementNotes) {
		return apperr.Forbidden("role %s may not edit management notes", role)
	}
	if change.WorkerNotes != nil && !access.CanMutate(role, access.FieldWorkerNotes) {
		return apperr.Forbidden("role %s may not edit worker notes", role)
	}
	return nil
}

// checkReportRights ensures the actor may touch this particular report.
func checkReportRights(report models.WasteReport, actor models.Principal) error {
	if actor.Role != models.RoleWorker {
		return nil
	}
	if report.WorkerID == nil || *report.WorkerID != actor.ID {
		return apperr.Forbidden("report is not assigned to this worker")
	}
	return nil
}

// checkCompanions enforces the required companion fields of a transition.
func checkCompanions(report models.WasteReport, change models.UpdateReportRequest, target models.Status) error {
	switch target {
	case models.StatusAssigned:
		if report.Status == models.StatusPending {
			if change.WorkerID == nil && report.WorkerID == nil {
				return apperr.PreconditionFailed("assignment requires a worker")
			}
		}
	case models.StatusCompleted:
		hasCleaned := report.CleanedImageURL != nil && *report.CleanedImageURL != ""
		if change.CleanedImageURL != nil {
			hasCleaned = *change.CleanedImageURL != ""
		}
		if !hasCleaned {
			return apperr.PreconditionFailed("completion requires a cleaned-area image")
		}
	}
	return nil
}

// stamp sets the timestamp and clears the fields tied to the transition
// actually taken.
func stamp(r *models.WasteReport, from, to models.Status, now time.Time) {
	r.Status = to
	switch to {
	case models.StatusAssigned:
		if from == models.StatusPending {
			r.AssignedDate = &now
		}
	case models.StatusInProgress:
		if from == models.StatusAssigned {
			r.StartedAt = &now
		}
	case models.StatusCompleted:
		r.CompletedAt = &now
	case models.StatusPending:
		// Unassign: the worker binding and its date no longer apply.
		r.WorkerID = nil
		r.AssignedDate = nil
	case models.StatusRejected:
		// Terminal; a rejected report holds no worker binding.
		r.WorkerID = nil
	}
}
