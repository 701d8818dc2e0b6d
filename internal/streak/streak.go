// ABOUTME: Habit streak computation over a set of completion dates.
// ABOUTME: Pure functions; the current streak is always recomputed from the full set.
package streak

import (
	"sort"
	"time"

	"github.com/harperreed/vigil/internal/models"
)

// RecordCompletion adds date to the habit's completion set and recomputes
// its streaks. The input habit is not modified. If the day is already
// present the habit is returned unchanged and changed is false.
func RecordCompletion(h models.Habit, date time.Time) (models.Habit, bool) {
	day := models.Day(date)
	if h.HasCompletion(day) {
		return h, false
	}

	out := h.Clone()
	out.Completions = append(out.Completions, day)
	sort.Slice(out.Completions, func(i, j int) bool {
		return out.Completions[i].Before(out.Completions[j])
	})

	// The new day may be a backfill, so the walk starts from the set's maximum.
	out.CurrentStreak = Current(out.Completions)
	if out.CurrentStreak > out.LongestStreak {
		out.LongestStreak = out.CurrentStreak
	}
	return out, true
}

// Current returns the run of consecutive days ending at the latest date.
// dates must be sorted ascending and unique.
func Current(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	streak := 1
	for i := len(dates) - 1; i > 0; i-- {
		if models.DaysBetween(dates[i-1], dates[i]) != 1 {
			break
		}
		streak++
	}
	return streak
}

// Longest returns the longest run of consecutive days anywhere in dates.
// dates must be sorted ascending and unique.
func Longest(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if models.DaysBetween(dates[i-1], dates[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// Rebuild normalizes a habit's completions (day granularity, sorted,
// deduplicated) and recomputes both counters from scratch. Used when
// habits arrive from an import rather than one completion at a time.
func Rebuild(h models.Habit) models.Habit {
	out := h.Clone()
	seen := make(map[time.Time]bool, len(out.Completions))
	days := out.Completions[:0]
	for _, c := range out.Completions {
		d := models.Day(c)
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	out.Completions = days
	out.CurrentStreak = Current(days)
	if l := Longest(days); l > out.LongestStreak {
		out.LongestStreak = l
	}
	return out
}
