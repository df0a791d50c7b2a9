package lifecycle

import (
	"testing"
	"time"

	"github.com/ecotrack/waste-server/internal/apperr"
	"github.com/ecotrack/waste-server/internal/models"
	"github.com/google/uuid"
)

var (
	citizenID = uuid.New()
	managerID = uuid.New()
	workerID  = uuid.New()
	otherID   = uuid.New()

	citizen = models.Principal{ID: citizenID, Role: models.RoleUser}
	manager = models.Principal{ID: managerID, Role: models.RoleManagement}
	worker  = models.Principal{ID: workerID, Role: models.RoleWorker}
)

func newReport(status models.Status) models.WasteReport {
	now := time.Now().UTC().Add(-time.Hour)
	r := models.WasteReport{
		ID:         uuid.New(),
		ReporterID: citizenID,
		Title:      "Overflowing bins",
		WasteType:  models.WasteHousehold,
		ImageURL:   "img1",
		Latitude:   51.5,
		Longitude:  -0.1,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}
	switch status {
	case models.StatusAssigned, models.StatusInProgress, models.StatusCompleted:
		id := workerID
		r.WorkerID = &id
		r.AssignedDate = &now
	}
	if status == models.StatusInProgress || status == models.StatusCompleted {
		r.StartedAt = &now
	}
	if status == models.StatusCompleted {
		cleaned := "img2"
		r.CleanedImageURL = &cleaned
		r.CompletedAt = &now
	}
	return r
}

func statusPtr(s models.Status) *models.Status { return &s }
func strPtr(s string) *string                  { return &s }

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("Expected error kind %v, got %v (%v)", kind, got, err)
	}
}

func TestFullLifecycleScenario(t *testing.T) {
	now := time.Now().UTC()
	report := newReport(models.StatusPending)
	report.WorkerID = nil
	report.AssignedDate = nil

	if report.Status != models.StatusPending || report.WorkerID != nil {
		t.Fatal("New report should be pending and unassigned")
	}

	// Management assigns a worker.
	wid := workerID
	report, err := Apply(report, manager, models.UpdateReportRequest{
		Status:   statusPtr(models.StatusAssigned),
		WorkerID: &wid,
	}, now)
	if err != nil {
		t.Fatalf("Assignment failed: %v", err)
	}
	if report.AssignedDate == nil {
		t.Error("Assignment should stamp assigned_date")
	}
	if report.WorkerID == nil || *report.WorkerID != workerID {
		t.Error("Assignment should bind the worker")
	}

	// The assigned worker starts work.
	report, err = Apply(report, worker, models.UpdateReportRequest{
		Status: statusPtr(models.StatusInProgress),
	}, now)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if report.StartedAt == nil {
		t.Error("Starting should stamp started_at")
	}

	// Completion without proof is rejected.
	_, err = Apply(report, worker, models.UpdateReportRequest{
		Status: statusPtr(models.StatusCompleted),
	}, now)
	wantKind(t, err, apperr.KindPreconditionFailed)

	// Completion with the cleaned-area photo succeeds.
	report, err = Apply(report, worker, models.UpdateReportRequest{
		Status:          statusPtr(models.StatusCompleted),
		CleanedImageURL: strPtr("img2"),
	}, now)
	if err != nil {
		t.Fatalf("Completion failed: %v", err)
	}
	if report.CompletedAt == nil {
		t.Error("Completion should stamp completed_at")
	}
	if report.CleanedImageURL == nil || *report.CleanedImageURL != "img2" {
		t.Error("Completion should record the cleaned-area photo")
	}

	// The reporter rates the work.
	report, err = Feedback(report, citizen, models.FeedbackRequest{Rating: 5}, now)
	if err != nil {
		t.Fatalf("Feedback failed: %v", err)
	}
	if report.FeedbackDate == nil || report.Rating == nil || *report.Rating != 5 {
		t.Error("Feedback should record the rating and stamp feedback_date")
	}

	// A second rating attempt fails.
	_, err = Feedback(report, citizen, models.FeedbackRequest{Rating: 4}, now)
	wantKind(t, err, apperr.KindPreconditionFailed)
}

func TestOtherWorkerAlwaysForbidden(t *testing.T) {
	other := models.Principal{ID: otherID, Role: models.RoleWorker}
	for _, status := range []models.Status{
		models.StatusAssigned, models.StatusInProgress, models.StatusCompleted,
	} {
		report := newReport(status)
		_, err := Apply(report, other, models.UpdateReportRequest{
			WorkerNotes: strPtr("not my task"),
		}, time.Now())
		wantKind(t, err, apperr.KindForbidden)
	}
}

func TestOffTableTransitionsRejected(t *testing.T) {
	// Every move absent from the transition table must fail with a
	// precondition error even for management.
	cases := []struct {
		from, to models.Status
	}{
		{models.StatusPending, models.StatusInProgress},
		{models.StatusPending, models.StatusCompleted},
		{models.StatusAssigned, models.StatusCompleted},
		{models.StatusInProgress, models.StatusPending},
		{models.StatusInProgress, models.StatusRejected},
		{models.StatusCompleted, models.StatusPending},
		{models.StatusCompleted, models.StatusAssigned},
		{models.StatusCompleted, models.StatusInProgress},
		{models.StatusCompleted, models.StatusRejected},
		{models.StatusRejected, models.StatusPending},
		{models.StatusRejected, models.StatusAssigned},
		{models.StatusRejected, models.StatusInProgress},
		{models.StatusRejected, models.StatusCompleted},
	}
	for _, tc := range cases {
		report := newReport(tc.from)
		_, err := Apply(report, manager, models.UpdateReportRequest{
			Status:          statusPtr(tc.to),
			CleanedImageURL: strPtr("img2"),
		}, time.Now())
		if apperr.KindOf(err) != apperr.KindPreconditionFailed {
			t.Errorf("%s -> %s: expected precondition failure, got %v", tc.from, tc.to, err)
		}
	}
}

func TestAssignmentRequiresWorker(t *testing.T) {
	report := newReport(models.StatusPending)
	_, err := Apply(report, manager, models.UpdateReportRequest{
		Status: statusPtr(models.StatusAssigned),
	}, time.Now())
	wantKind(t, err, apperr.KindPreconditionFailed)
}

func TestWorkerMayNotAssignOrReject(t *testing.T) {
	report := newReport(models.StatusAssigned)

	wid := otherID
	_, err := Apply(report, worker, models.UpdateReportRequest{WorkerID: &wid}, time.Now())
	wantKind(t, err, apperr.KindForbidden)

	_, err = Apply(report, worker, models.UpdateReportRequest{
		Status: statusPtr(models.StatusRejected),
	}, time.Now())
	wantKind(t, err, apperr.KindForbidden)

	_, err = Apply(report, worker, models.UpdateReportRequest{
		ManagementNotes: strPtr("sneaky"),
	}, time.Now())
	wantKind(t, err, apperr.KindForbidden)
}

func TestCitizenMayNotMoveStatus(t *testing.T) {
	report := newReport(models.StatusPending)
	_, err := Apply(report, citizen, models.UpdateReportRequest{
		Status: statusPtr(models.StatusRejected),
	}, time.Now())
	wantKind(t, err, apperr.KindForbidden)
}

func TestUnassignReturnsToPending(t *testing.T) {
	report := newReport(models.StatusAssigned)
	updated, err := Apply(report, manager, models.UpdateReportRequest{
		Status:      statusPtr(models.StatusPending),
		ClearWorker: true,
	}, time.Now())
	if err != nil {
		t.Fatalf("Unassign failed: %v", err)
	}
	if updated.WorkerID != nil || updated.AssignedDate != nil {
		t.Error("Unassign should clear the worker binding and its date")
	}
}

func TestRejectClearsWorker(t *testing.T) {
	report := newReport(models.StatusAssigned)
	updated, err := Apply(report, manager, models.UpdateReportRequest{
		Status: statusPtr(models.StatusRejected),
	}, time.Now())
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if updated.WorkerID != nil {
		t.Error("Rejected report should hold no worker binding")
	}
}

func TestWorkerRevertToAssigned(t *testing.T) {
	report := newReport(models.StatusInProgress)
	updated, err := Apply(report, worker, models.UpdateReportRequest{
		Status: statusPtr(models.StatusAssigned),
	}, time.Now())
	if err != nil {
		t.Fatalf("Revert failed: %v", err)
	}
	if updated.Status != models.StatusAssigned {
		t.Errorf("Expected assigned, got %s", updated.Status)
	}
	if updated.WorkerID == nil {
		t.Error("Revert should keep the worker binding")
	}
}

func TestNotesOnlyUpdateKeepsStatus(t *testing.T) {
	now := time.Now().UTC()
	report := newReport(models.StatusInProgress)

	updated, err := Apply(report, worker, models.UpdateReportRequest{
		WorkerNotes: strPtr("half done, need a second truck"),
	}, now)
	if err != nil {
		t.Fatalf("Notes update failed: %v", err)
	}
	if updated.Status != models.StatusInProgress {
		t.Errorf("Status should be untouched, got %s", updated.Status)
	}
	if updated.WorkerNotes != "half done, need a second truck" {
		t.Error("Worker notes were not applied")
	}
	if !updated.UpdatedAt.Equal(now) {
		t.Error("updated_at should be stamped on every change")
	}
}

func TestWorkerBindingRequiresAssignedStatus(t *testing.T) {
	report := newReport(models.StatusPending)
	wid := workerID
	_, err := Apply(report, manager, models.UpdateReportRequest{WorkerID: &wid}, time.Now())
	wantKind(t, err, apperr.KindPreconditionFailed)
}

func TestFeedbackGuards(t *testing.T) {
	now := time.Now().UTC()

	// Feedback before completion.
	report := newReport(models.StatusInProgress)
	_, err := Feedback(report, citizen, models.FeedbackRequest{Rating: 4}, now)
	wantKind(t, err, apperr.KindPreconditionFailed)

	// Feedback by someone other than the reporter.
	report = newReport(models.StatusCompleted)
	stranger := models.Principal{ID: otherID, Role: models.RoleUser}
	_, err = Feedback(report, stranger, models.FeedbackRequest{Rating: 4}, now)
	wantKind(t, err, apperr.KindForbidden)

	// Feedback by management.
	_, err = Feedback(report, manager, models.FeedbackRequest{Rating: 4}, now)
	wantKind(t, err, apperr.KindForbidden)

	// Out-of-range ratings.
	for _, rating := range []int{0, 6, -1} {
		_, err = Feedback(report, citizen, models.FeedbackRequest{Rating: rating}, now)
		wantKind(t, err, apperr.KindPreconditionFailed)
	}

	// A valid rating stamps exactly once.
	updated, err := Feedback(report, citizen, models.FeedbackRequest{Rating: 3, FeedbackText: "ok"}, now)
	if err != nil {
		t.Fatalf("Feedback failed: %v", err)
	}
	if updated.FeedbackText == nil || *updated.FeedbackText != "ok" {
		t.Error("Feedback text was not applied")
	}
	_, err = Feedback(updated, citizen, models.FeedbackRequest{Rating: 3}, now)
	wantKind(t, err, apperr.KindPreconditionFailed)
}

func TestRejectedChangeLeavesInputUntouched(t *testing.T) {
	report := newReport(models.StatusInProgress)
	before := report

	_, err := Apply(report, worker, models.UpdateReportRequest{
		Status:      statusPtr(models.StatusCompleted),
		WorkerNotes: strPtr("done"),
	}, time.Now())
	wantKind(t, err, apperr.KindPreconditionFailed)

	if report.WorkerNotes != before.WorkerNotes || report.Status != before.Status {
		t.Error("A rejected change set must not be partially applied")
	}
}
