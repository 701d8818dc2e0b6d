// ABOUTME: Mood aggregation over a date window: distribution, dominant mood, trend.
// ABOUTME: Pure and deterministic; ties resolve by canonical mood order.
package mood

import (
	"sort"
	"time"

	"github.com/harperreed/vigil/internal/models"
)

// TrendPoint is one (date, mood) pair in chronological order.
type TrendPoint struct {
	Date time.Time   `json:"date"`
	Mood models.Mood `json:"mood"`
}

// Insights summarizes the mood records inside a window.
type Insights struct {
	Distribution map[models.Mood]int `json:"distribution"`
	Dominant     models.Mood         `json:"dominant,omitempty"`
	Trend        []TrendPoint        `json:"trend"`
	Total        int                 `json:"total"`
}

// Aggregate computes the distribution, dominant mood, and trend of the
// records that fall inside window. Records with moods outside the
// enumeration are ignored.
func Aggregate(records []*models.MoodRecord, window models.DateRange) Insights {
	in := Filter(records, window)

	ins := Insights{
		Distribution: make(map[models.Mood]int),
		Trend:        make([]TrendPoint, 0, len(in)),
	}
	for _, r := range in {
		ins.Distribution[r.Mood]++
		ins.Trend = append(ins.Trend, TrendPoint{Date: models.Day(r.Date), Mood: r.Mood})
	}
	ins.Total = len(in)
	ins.Dominant = Dominant(ins.Distribution)
	return ins
}

// Filter returns the valid records inside window sorted ascending by date.
// Records sharing a date keep their input order.
func Filter(records []*models.MoodRecord, window models.DateRange) []*models.MoodRecord {
	out := make([]*models.MoodRecord, 0, len(records))
	for _, r := range records {
		if r == nil || !models.IsValidMood(string(r.Mood)) {
			continue
		}
		if window.Contains(r.Date) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return models.Day(out[i].Date).Before(models.Day(out[j].Date))
	})
	return out
}

// Dominant returns the most frequent mood, breaking ties by the order of
// models.AllMoods. It returns "" for an empty distribution.
func Dominant(dist map[models.Mood]int) models.Mood {
	var best models.Mood
	bestCount := 0
	for _, m := range models.AllMoods {
		if c := dist[m]; c > bestCount {
			best, bestCount = m, c
		}
	}
	return best
}

// NegativeCount counts the records inside window whose mood is in negative.
func NegativeCount(records []*models.MoodRecord, window models.DateRange, negative Set) int {
	n := 0
	for _, r := range Filter(records, window) {
		if negative.Has(r.Mood) {
			n++
		}
	}
	return n
}
