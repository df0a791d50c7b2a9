// Package analytics derives summary statistics from a time-windowed slice
// of waste reports. All aggregations are pure functions of the input
// collection and are safe to recompute on every window change.
package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ecotrack/waste-server/internal/models"
)

// Window selects the reporting period for a summary.
type Window string

const (
	WindowWeek  Window = "week"  // last 7 days
	WindowMonth Window = "month" // current calendar month
	WindowYear  Window = "year"  // current calendar year
)

// Valid reports whether w is a known window.
func (w Window) Valid() bool {
	switch w {
	case WindowWeek, WindowMonth, WindowYear:
		return true
	}
	return false
}

// Start returns the inclusive lower bound of the window relative to now.
func (w Window) Start(now time.Time) time.Time {
	switch w {
	case WindowMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case WindowYear:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		return now.AddDate(0, 0, -7)
	}
}

// StatusCount is one status bucket of the summary.
type StatusCount struct {
	Count   int `json:"count"`
	Percent int `json:"percent"`
}

// TypeCount is one waste-type bucket, ordered by descending count.
type TypeCount struct {
	Type    string `json:"type"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// LocationCount is one derived-location bucket.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// Summary is the full aggregation over one window.
type Summary struct {
	Window        Window                        `json:"window"`
	Total         int                           `json:"total"`
	ByStatus      map[models.Status]StatusCount `json:"by_status"`
	WasteTypes    []TypeCount                   `json:"waste_types"`
	TopLocations  []LocationCount               `json:"top_locations"`
	AverageRating float64                       `json:"average_rating"`
}

// Summarize filters reports to the window by created_at and computes the
// status breakdown, waste-type distribution, top five locations, and the
// average rating of completed reports.
func Summarize(reports []models.WasteReport, w Window, now time.Time) Summary {
	start := w.Start(now)
	var windowed []models.WasteReport
	for _, r := range reports {
		if !r.CreatedAt.Before(start) && !r.CreatedAt.After(now) {
			windowed = append(windowed, r)
		}
	}

	total := len(windowed)
	s := Summary{
		Window:   w,
		Total:    total,
		ByStatus: statusBreakdown(windowed, total),
	}
	s.WasteTypes = wasteTypeDistribution(windowed, total)
	s.TopLocations = topLocations(windowed, 5)
	s.AverageRating = averageRating(windowed)
	return s
}

// percentShares splits 100 points across counts using the largest
// remainder method. The counts must partition total; the shares then sum
// to exactly 100 when total is nonzero and a bucket never overshoots its
// true fraction by more than one point. Plain half-up rounding per bucket
// can sum past 100.
func percentShares(counts []int, total int) []int {
	shares := make([]int, len(counts))
	if total == 0 {
		return shares
	}

	used := 0
	order := make([]int, len(counts))
	for i, c := range counts {
		shares[i] = c * 100 / total
		used += shares[i]
		order[i] = i
	}

	// Hand the points lost to flooring to the largest remainders, ties
	// broken by input position.
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]]*100%total > counts[order[b]]*100%total
	})
	for i := 0; i < len(order) && used < 100; i++ {
		shares[order[i]]++
		used++
	}
	return shares
}

// statusOrder fixes the bucket order percentages are allocated in.
var statusOrder = []models.Status{
	models.StatusPending, models.StatusAssigned, models.StatusInProgress,
	models.StatusCompleted, models.StatusRejected,
}

func statusBreakdown(reports []models.WasteReport, total int) map[models.Status]StatusCount {
	index := make(map[models.Status]int, len(statusOrder))
	for i, st := range statusOrder {
		index[st] = i
	}
	counts := make([]int, len(statusOrder))
	for _, r := range reports {
		if i, ok := index[r.Status]; ok {
			counts[i]++
		}
	}

	shares := percentShares(counts, total)
	out := make(map[models.Status]StatusCount, len(statusOrder))
	for i, st := range statusOrder {
		out[st] = StatusCount{Count: counts[i], Percent: shares[i]}
	}
	return out
}

func wasteTypeDistribution(reports []models.WasteReport, total int) []TypeCount {
	byType := make(map[string]int)
	for _, r := range reports {
		t := string(r.WasteType)
		if t == "" {
			t = "unknown"
		}
		byType[t]++
	}
	out := make([]TypeCount, 0, len(byType))
	for t, c := range byType {
		out = append(out, TypeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})

	counts := make([]int, len(out))
	for i := range out {
		counts[i] = out[i].Count
	}
	for i, p := range percentShares(counts, total) {
		out[i].Percent = p
	}
	return out
}

// locationLabel derives a grouping key from a free-form address: the
// second-to-last comma-separated segment, which for typical geocoder output
// is the town or area name. Addresses without a comma group under the full
// string.
func locationLabel(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) > 1 {
		return strings.TrimSpace(parts[len(parts)-2])
	}
	return address
}

func topLocations(reports []models.WasteReport, limit int) []LocationCount {
	counts := make(map[string]int)
	for _, r := range reports {
		if r.Address == "" {
			continue
		}
		counts[locationLabel(r.Address)]++
	}
	out := make([]LocationCount, 0, len(counts))
	for loc, c := range counts {
		out = append(out, LocationCount{Location: loc, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Location < out[j].Location
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func averageRating(reports []models.WasteReport) float64 {
	var sum, n int
	for _, r := range reports {
		if r.Status == models.StatusCompleted && r.Rating != nil {
			sum += *r.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}
