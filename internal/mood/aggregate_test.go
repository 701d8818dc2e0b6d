// ABOUTME: Tests for mood aggregation and negative counting.
// ABOUTME: Covers window filtering, tie-breaks, and determinism.
package mood

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/vigil/internal/models"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func rec(t *testing.T, userID uuid.UUID, date string, m models.Mood) *models.MoodRecord {
	t.Helper()
	return models.NewMoodRecord(userID, day(t, date), m)
}

func TestAggregateScenario(t *testing.T) {
	u := uuid.New()
	records := []*models.MoodRecord{
		rec(t, u, "2024-01-01", models.MoodSad),
		rec(t, u, "2024-01-02", models.MoodSad),
		rec(t, u, "2024-01-03", models.MoodHappy),
	}

	ins := Aggregate(records, models.DateRange{})

	want := map[models.Mood]int{models.MoodSad: 2, models.MoodHappy: 1}
	if !reflect.DeepEqual(ins.Distribution, want) {
		t.Errorf("Distribution = %v, want %v", ins.Distribution, want)
	}
	if ins.Dominant != models.MoodSad {
		t.Errorf("Dominant = %s, want sad", ins.Dominant)
	}
	if ins.Total != 3 {
		t.Errorf("Total = %d, want 3", ins.Total)
	}
}

func TestAggregateWindowAndTrendOrder(t *testing.T) {
	u := uuid.New()
	records := []*models.MoodRecord{
		rec(t, u, "2024-01-09", models.MoodCalm),
		rec(t, u, "2024-01-01", models.MoodAngry), // outside
		rec(t, u, "2024-01-05", models.MoodExcited),
		rec(t, u, "2024-01-07", models.MoodNeutral),
		rec(t, u, "2024-01-12", models.MoodSad), // outside
	}
	window := models.DateRange{Start: day(t, "2024-01-05"), End: day(t, "2024-01-10")}

	ins := Aggregate(records, window)

	total := 0
	for _, c := range ins.Distribution {
		total += c
	}
	if total != 3 || ins.Total != 3 {
		t.Fatalf("distribution sum = %d, Total = %d, want 3", total, ins.Total)
	}

	wantTrend := []models.Mood{models.MoodExcited, models.MoodNeutral, models.MoodCalm}
	if len(ins.Trend) != len(wantTrend) {
		t.Fatalf("trend length = %d, want %d", len(ins.Trend), len(wantTrend))
	}
	for i, p := range ins.Trend {
		if p.Mood != wantTrend[i] {
			t.Errorf("Trend[%d] = %s, want %s", i, p.Mood, wantTrend[i])
		}
		if i > 0 && p.Date.Before(ins.Trend[i-1].Date) {
			t.Errorf("trend not ascending at %d", i)
		}
	}
}

func TestAggregateTieBreakUsesCanonicalOrder(t *testing.T) {
	u := uuid.New()
	// neutral is inserted first but sad precedes it in models.AllMoods.
	records := []*models.MoodRecord{
		rec(t, u, "2024-01-01", models.MoodNeutral),
		rec(t, u, "2024-01-02", models.MoodSad),
		rec(t, u, "2024-01-03", models.MoodNeutral),
		rec(t, u, "2024-01-04", models.MoodSad),
	}

	first := Aggregate(records, models.DateRange{})
	if first.Dominant != models.MoodSad {
		t.Errorf("Dominant = %s, want sad", first.Dominant)
	}

	for i := 0; i < 20; i++ {
		again := Aggregate(records, models.DateRange{})
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Aggregate is not deterministic on run %d", i)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	ins := Aggregate(nil, models.DateRange{})
	if ins.Dominant != "" {
		t.Errorf("Dominant = %q, want empty", ins.Dominant)
	}
	if len(ins.Distribution) != 0 || len(ins.Trend) != 0 || ins.Total != 0 {
		t.Error("expected empty insights")
	}
}

func TestAggregateSkipsUnknownMoods(t *testing.T) {
	u := uuid.New()
	records := []*models.MoodRecord{
		rec(t, u, "2024-01-01", models.Mood("bored")),
		rec(t, u, "2024-01-02", models.MoodCalm),
		nil,
	}
	ins := Aggregate(records, models.DateRange{})
	if ins.Total != 1 || ins.Dominant != models.MoodCalm {
		t.Errorf("Total = %d Dominant = %s, want 1/calm", ins.Total, ins.Dominant)
	}
}

func TestNegativeCount(t *testing.T) {
	u := uuid.New()
	records := []*models.MoodRecord{
		rec(t, u, "2024-01-01", models.MoodSad),
		rec(t, u, "2024-01-02", models.MoodAngry),
		rec(t, u, "2024-01-03", models.MoodHappy),
		rec(t, u, "2024-01-04", models.MoodAnxious),
		rec(t, u, "2023-12-20", models.MoodSad),
	}
	window := models.DateRange{Start: day(t, "2024-01-01"), End: day(t, "2024-01-07")}

	if got := NegativeCount(records, window, DefaultNegative()); got != 3 {
		t.Errorf("NegativeCount(default) = %d, want 3", got)
	}
	if got := NegativeCount(records, window, NewSet(models.MoodSad)); got != 1 {
		t.Errorf("NegativeCount({sad}) = %d, want 1", got)
	}
	if got := NegativeCount(records, window, NewSet()); got != 0 {
		t.Errorf("NegativeCount(empty set) = %d, want 0", got)
	}
}

func TestSetMoodsCanonicalOrder(t *testing.T) {
	s := NewSet(models.MoodAnxious, models.MoodSad, models.MoodAngry)
	want := []models.Mood{models.MoodSad, models.MoodAngry, models.MoodAnxious}
	if got := s.Moods(); !reflect.DeepEqual(got, want) {
		t.Errorf("Moods() = %v, want %v", got, want)
	}
}
