package weather

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"
)

// mapSummaries is a minimal SummaryStore for tests.
type mapSummaries struct {
	mu    sync.Mutex
	byKey map[string]DailySummary
}

func (m *mapSummaries) Upsert(_ context.Context, s DailySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byKey == nil {
		m.byKey = make(map[string]DailySummary)
	}
	m.byKey[s.City+":"+s.Day.Format("2006-01-02")] = s
	return nil
}

func (m *mapSummaries) ListAll(_ context.Context) ([]DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DailySummary
	for _, s := range m.byKey {
		out = append(out, s)
	}
	return out, nil
}

func dayObservation(city string, at time.Time, temp, humidity, wind float64, condition string) Observation {
	return Observation{
		City:          city,
		TempC:         temp,
		HumidityPct:   humidity,
		WindSpeed:     wind,
		ConditionMain: condition,
		IngestedAt:    at,
	}
}

func TestSummarize(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	obs := []Observation{
		dayObservation("Delhi", day.Add(1*time.Hour), 20, 40, 2, "Rain"),
		dayObservation("Delhi", day.Add(2*time.Hour), 25, 50, 4, "Rain"),
		dayObservation("Delhi", day.Add(3*time.Hour), 30, 60, 6, "Clear"),
	}

	got := Summarize("Delhi", day, obs)

	if got.AvgTemp != 25 {
		t.Errorf("AvgTemp = %v, want 25", got.AvgTemp)
	}
	if got.MinTemp != 20 {
		t.Errorf("MinTemp = %v, want 20", got.MinTemp)
	}
	if got.MaxTemp != 30 {
		t.Errorf("MaxTemp = %v, want 30", got.MaxTemp)
	}
	if got.AvgHumidity != 50 {
		t.Errorf("AvgHumidity = %v, want 50", got.AvgHumidity)
	}
	if math.Abs(got.AvgWindSpeed-4) > 1e-9 {
		t.Errorf("AvgWindSpeed = %v, want 4", got.AvgWindSpeed)
	}
	if got.DominantCondition != "Rain" {
		t.Errorf("DominantCondition = %q, want Rain", got.DominantCondition)
	}
	if !got.Day.Equal(day) {
		t.Errorf("Day = %v, want %v", got.Day, day)
	}
}

func TestDominantConditionTieBreaksTowardLater(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	obs := []Observation{
		dayObservation("Delhi", day.Add(1*time.Hour), 20, 40, 2, "Rain"),
		dayObservation("Delhi", day.Add(2*time.Hour), 25, 50, 4, "Clear"),
		dayObservation("Delhi", day.Add(3*time.Hour), 30, 60, 6, "Rain"),
		dayObservation("Delhi", day.Add(4*time.Hour), 30, 60, 6, "Clear"),
	}

	got := Summarize("Delhi", day, obs)
	if got.DominantCondition != "Clear" {
		t.Errorf("DominantCondition = %q, want Clear (tie broken toward later)", got.DominantCondition)
	}
}

func TestDominantReasonText(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	obs := []Observation{
		{City: "Delhi", ConditionMain: "Rain", ConditionDescription: "light rain", IngestedAt: day.Add(time.Hour)},
	}

	got := Summarize("Delhi", day, obs)
	want := "The dominant weather condition is light rain. This indicates that it's likely to be rain."
	if got.DominantReason != want {
		t.Errorf("DominantReason = %q, want %q", got.DominantReason, want)
	}
}

func TestDominantConditionMissingLabel(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	obs := []Observation{
		{City: "Delhi", IngestedAt: day.Add(time.Hour)},
	}

	got := Summarize("Delhi", day, obs)
	if got.DominantCondition != "Unknown" {
		t.Errorf("DominantCondition = %q, want Unknown", got.DominantCondition)
	}
}

func TestRunOnceSkipsEmptyCities(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	obsStore := &sliceObservations{}
	ctx := context.Background()

	// Only Delhi has observations for the day.
	_ = obsStore.Append(ctx, dayObservation("Delhi", day.Add(time.Hour), 22, 55, 3, "Haze"))

	summaries := &mapSummaries{}
	agg := NewSummaryAggregator(obsStore, summaries, []string{"Delhi", "Mumbai"})
	agg.RunOnce(ctx, day)

	got, _ := summaries.ListAll(ctx)
	if len(got) != 1 {
		t.Fatalf("summaries = %d, want 1", len(got))
	}
	if got[0].City != "Delhi" {
		t.Errorf("summary city = %q, want Delhi", got[0].City)
	}
}

func TestRunOnceRecomputeOverwrites(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	obsStore := &sliceObservations{}
	ctx := context.Background()

	_ = obsStore.Append(ctx, dayObservation("Delhi", day.Add(1*time.Hour), 20, 50, 3, "Clear"))

	summaries := &mapSummaries{}
	agg := NewSummaryAggregator(obsStore, summaries, []string{"Delhi"})
	agg.RunOnce(ctx, day)

	// More data arrives; a re-run for the same day replaces the record.
	_ = obsStore.Append(ctx, dayObservation("Delhi", day.Add(2*time.Hour), 30, 50, 3, "Clear"))
	agg.RunOnce(ctx, day)

	got, _ := summaries.ListAll(ctx)
	if len(got) != 1 {
		t.Fatalf("summaries = %d, want 1 (upsert by city and day)", len(got))
	}
	if got[0].AvgTemp != 25 {
		t.Errorf("AvgTemp after recompute = %v, want 25", got[0].AvgTemp)
	}
}
