package analytics

import (
	"testing"
	"time"

	"github.com/ecotrack/waste-server/internal/models"
	"github.com/google/uuid"
)

func intPtr(i int) *int { return &i }

// fixture builds 10 reports spanning mixed windows relative to now:
// six in the last 7 days, two earlier in the current month, two in January.
func fixture(now time.Time) []models.WasteReport {
	mk := func(age time.Duration, status models.Status, wt models.WasteType, address string, rating *int) models.WasteReport {
		return models.WasteReport{
			ID:        uuid.New(),
			Status:    status,
			WasteType: wt,
			Address:   address,
			Rating:    rating,
			CreatedAt: now.Add(-age),
		}
	}
	day := 24 * time.Hour

	january := now.Sub(time.Date(now.Year(), 1, 10, 0, 0, 0, 0, time.UTC))

	return []models.WasteReport{
		// Last 7 days.
		mk(1*day, models.StatusPending, models.WasteHousehold, "3 Mill Rd, Brixton, UK", nil),
		mk(2*day, models.StatusPending, models.WasteHousehold, "9 Pond Ln, Brixton, UK", nil),
		mk(3*day, models.StatusAssigned, models.WasteGreen, "1 Oak Ave, Camden, UK", nil),
		mk(4*day, models.StatusInProgress, models.WasteGreen, "Greenfield", nil),
		mk(5*day, models.StatusCompleted, models.WasteHousehold, "7 Elm St, Brixton, UK", intPtr(5)),
		mk(6*day, models.StatusCompleted, "", "2 Bay Rd, Camden, UK", intPtr(4)),
		// Earlier this month, outside the week window.
		mk(10*day, models.StatusCompleted, models.WasteElectronic, "", intPtr(3)),
		mk(12*day, models.StatusRejected, models.WasteHazardous, "", nil),
		// January, current year only.
		mk(january, models.StatusCompleted, models.WasteConstruction, "", intPtr(1)),
		mk(january+day, models.StatusPending, models.WasteOther, "", nil),
	}
}

// now is mid-month so the 10- and 12-day-old reports stay inside the
// current calendar month.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestWeekWindowMembership(t *testing.T) {
	s := Summarize(fixture(testNow), WindowWeek, testNow)

	if s.Total != 6 {
		t.Fatalf("Week window should hold 6 reports, got %d", s.Total)
	}

	want := map[models.Status]int{
		models.StatusPending:    2,
		models.StatusAssigned:   1,
		models.StatusInProgress: 1,
		models.StatusCompleted:  2,
		models.StatusRejected:   0,
	}
	for status, count := range want {
		if got := s.ByStatus[status].Count; got != count {
			t.Errorf("Status %s: expected %d, got %d", status, count, got)
		}
	}
}

func TestStatusPercentagesBounded(t *testing.T) {
	for _, w := range []Window{WindowWeek, WindowMonth, WindowYear} {
		s := Summarize(fixture(testNow), w, testNow)
		sum := 0
		for _, bucket := range s.ByStatus {
			if bucket.Percent < 0 || bucket.Percent > 100 {
				t.Errorf("%s: percent out of range: %d", w, bucket.Percent)
			}
			sum += bucket.Percent
		}
		// Largest-remainder shares partition 100 exactly for a
		// non-empty window.
		if sum != 100 {
			t.Errorf("%s: status percentages sum to %d, want 100", w, sum)
		}
	}
}

func TestStatusPercentagesNeverOvershoot(t *testing.T) {
	// Month window holds 8 reports with status counts 2/1/1/3/1. Half-up
	// rounding per bucket would yield 25+13+13+38+13 = 102; the remainder
	// allocation must keep the sum at 100 with deterministic shares.
	s := Summarize(fixture(testNow), WindowMonth, testNow)
	if s.Total != 8 {
		t.Fatalf("Month window should hold 8 reports, got %d", s.Total)
	}

	want := map[models.Status]int{
		models.StatusPending:    25,
		models.StatusAssigned:   13,
		models.StatusInProgress: 13,
		models.StatusCompleted:  37,
		models.StatusRejected:   12,
	}
	for status, percent := range want {
		if got := s.ByStatus[status].Percent; got != percent {
			t.Errorf("Status %s: expected %d%%, got %d%%", status, percent, got)
		}
	}
}

func TestWasteTypeDistribution(t *testing.T) {
	s := Summarize(fixture(testNow), WindowWeek, testNow)

	if len(s.WasteTypes) != 3 {
		t.Fatalf("Expected 3 waste-type buckets, got %d", len(s.WasteTypes))
	}
	if s.WasteTypes[0].Type != "household" || s.WasteTypes[0].Count != 3 {
		t.Errorf("Top type should be household x3, got %s x%d", s.WasteTypes[0].Type, s.WasteTypes[0].Count)
	}
	if s.WasteTypes[1].Type != "green" || s.WasteTypes[1].Count != 2 {
		t.Errorf("Second type should be green x2, got %s x%d", s.WasteTypes[1].Type, s.WasteTypes[1].Count)
	}
	if s.WasteTypes[2].Type != "unknown" || s.WasteTypes[2].Count != 1 {
		t.Errorf("Missing type should bucket as unknown, got %s x%d", s.WasteTypes[2].Type, s.WasteTypes[2].Count)
	}
	if s.WasteTypes[0].Percent != 50 {
		t.Errorf("household should be 50%%, got %d%%", s.WasteTypes[0].Percent)
	}
}

func TestTopLocations(t *testing.T) {
	s := Summarize(fixture(testNow), WindowWeek, testNow)

	if len(s.TopLocations) != 3 {
		t.Fatalf("Expected 3 location buckets, got %d", len(s.TopLocations))
	}
	if s.TopLocations[0].Location != "Brixton" || s.TopLocations[0].Count != 3 {
		t.Errorf("Top location should be Brixton x3, got %s x%d", s.TopLocations[0].Location, s.TopLocations[0].Count)
	}
	if s.TopLocations[1].Location != "Camden" || s.TopLocations[1].Count != 2 {
		t.Errorf("Second location should be Camden x2, got %s x%d", s.TopLocations[1].Location, s.TopLocations[1].Count)
	}
	// No comma: the whole address is the label.
	if s.TopLocations[2].Location != "Greenfield" {
		t.Errorf("Comma-free address should group as itself, got %s", s.TopLocations[2].Location)
	}
}

func TestTopLocationsTruncatesToFive(t *testing.T) {
	var reports []models.WasteReport
	for i := 0; i < 8; i++ {
		reports = append(reports, models.WasteReport{
			Address:   string(rune('A'+i)) + " Street, Zone" + string(rune('A'+i)) + ", UK",
			CreatedAt: testNow.Add(-time.Hour),
		})
	}
	s := Summarize(reports, WindowWeek, testNow)
	if len(s.TopLocations) != 5 {
		t.Errorf("Top locations should truncate to 5, got %d", len(s.TopLocations))
	}
}

func TestAverageRating(t *testing.T) {
	// Week: completed ratings 5 and 4.
	s := Summarize(fixture(testNow), WindowWeek, testNow)
	if s.AverageRating != 4.5 {
		t.Errorf("Week average should be 4.5, got %v", s.AverageRating)
	}

	// Month adds a completed report rated 3: (5+4+3)/3 = 4.0.
	s = Summarize(fixture(testNow), WindowMonth, testNow)
	if s.AverageRating != 4.0 {
		t.Errorf("Month average should be 4.0, got %v", s.AverageRating)
	}

	// Year adds a completed report rated 1: 13/4 = 3.25, rounded to 3.3.
	s = Summarize(fixture(testNow), WindowYear, testNow)
	if s.AverageRating != 3.3 {
		t.Errorf("Year average should round to 3.3, got %v", s.AverageRating)
	}
}

func TestRatingIgnoredUnlessCompleted(t *testing.T) {
	reports := []models.WasteReport{
		{Status: models.StatusInProgress, Rating: intPtr(5), CreatedAt: testNow.Add(-time.Hour)},
		{Status: models.StatusCompleted, CreatedAt: testNow.Add(-time.Hour)},
	}
	s := Summarize(reports, WindowWeek, testNow)
	if s.AverageRating != 0 {
		t.Errorf("No completed-and-rated reports: average should be 0, got %v", s.AverageRating)
	}
}

func TestEmptyWindow(t *testing.T) {
	s := Summarize(nil, WindowWeek, testNow)
	if s.Total != 0 {
		t.Fatalf("Empty input should total 0, got %d", s.Total)
	}
	for status, bucket := range s.ByStatus {
		if bucket.Percent != 0 {
			t.Errorf("Status %s: percent should be 0 with no reports, got %d", status, bucket.Percent)
		}
	}
	if s.AverageRating != 0 {
		t.Errorf("Average rating should be 0 with no reports, got %v", s.AverageRating)
	}
}

func TestYearWindowIncludesEverything(t *testing.T) {
	s := Summarize(fixture(testNow), WindowYear, testNow)
	if s.Total != 10 {
		t.Errorf("Year window should hold all 10 reports, got %d", s.Total)
	}
}
