package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/devanshc/weather-monitoring/internal/weather"
)

func setupTestStore(t *testing.T) *SQL {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewSQL(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func testObservation(city string, ingestedAt time.Time, temp float64) weather.Observation {
	return weather.Observation{
		City:                 city,
		TempC:                temp,
		FeelsLikeC:           temp + 1,
		HumidityPct:          55,
		WindSpeed:            3.5,
		ConditionMain:        "Haze",
		ConditionDescription: "haze",
		SourceTime:           ingestedAt.Unix(),
		IngestedAt:           ingestedAt,
	}
}

func TestObservationAppendAndQuery(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	for i, city := range []string{"Delhi", "Delhi", "Mumbai"} {
		obs := testObservation(city, base.Add(time.Duration(i)*time.Minute), 25+float64(i))
		if err := store.Observations.Append(ctx, obs); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := store.Observations.Query(ctx, "Delhi", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if !got[0].IngestedAt.Before(got[1].IngestedAt) {
		t.Error("observations not ordered by ingestion time ascending")
	}
	if got[0].City != "Delhi" || got[0].TempC != 25 {
		t.Errorf("got[0] = %+v, want Delhi at 25", got[0])
	}

	// Empty city matches all cities.
	all, err := store.Observations.Query(ctx, "", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Query all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}

	// Range end is exclusive.
	none, err := store.Observations.Query(ctx, "Delhi", base.Add(-time.Hour), base)
	if err != nil {
		t.Fatalf("Query before: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("len(none) = %d, want 0", len(none))
	}
}

func TestObservationLatest(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.Observations.Latest(ctx, "Delhi"); !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("Latest on empty store: err = %v, want ErrNotFound", err)
	}

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	_ = store.Observations.Append(ctx, testObservation("Delhi", base, 25))
	_ = store.Observations.Append(ctx, testObservation("Delhi", base.Add(time.Minute), 26))

	got, err := store.Observations.Latest(ctx, "Delhi")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.TempC != 26 {
		t.Errorf("Latest.TempC = %v, want 26", got.TempC)
	}
}

func TestThresholdUpsertMostRecentWins(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.Thresholds.Get(ctx, "Delhi"); !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("Get on empty store: err = %v, want ErrNotFound", err)
	}

	first := weather.Threshold{City: "Delhi", MaxTempC: 35, MaxHumidityPct: 90, MaxWindSpeed: 10}
	if _, err := store.Thresholds.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := weather.Threshold{City: "Delhi", MaxTempC: 32, MaxHumidityPct: 85, MaxWindSpeed: 8}
	if _, err := store.Thresholds.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert second: %v", err)
	}

	got, err := store.Thresholds.Get(ctx, "Delhi")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != second {
		t.Errorf("Get = %+v, want %+v", got, second)
	}

	list, err := store.Thresholds.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len(list) = %d, want 1 (upsert must not duplicate)", len(list))
	}
}

func TestSummaryUpsertRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	sum := weather.DailySummary{
		City:              "Delhi",
		Day:               day,
		AvgTemp:           25,
		MaxTemp:           30,
		MinTemp:           20,
		AvgHumidity:       50,
		AvgWindSpeed:      4,
		DominantCondition: "Rain",
		DominantReason:    "The dominant weather condition is light rain. This indicates that it's likely to be rain.",
	}
	if err := store.Summaries.Upsert(ctx, sum); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Recompute for the same day replaces the record.
	sum.AvgTemp = 26
	if err := store.Summaries.Upsert(ctx, sum); err != nil {
		t.Fatalf("Upsert second: %v", err)
	}

	got, err := store.Summaries.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if got[0].AvgTemp != 26 {
		t.Errorf("AvgTemp = %v, want 26", got[0].AvgTemp)
	}
	if !got[0].Day.Equal(day) {
		t.Errorf("Day = %v, want %v", got[0].Day, day)
	}
	if got[0].DominantCondition != "Rain" {
		t.Errorf("DominantCondition = %q, want Rain", got[0].DominantCondition)
	}
}

func TestAlertLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	alerts := []weather.Alert{
		{City: "Delhi", Metric: weather.MetricTemperature, Value: 38, Threshold: 35,
			Message: "The Temperature in Delhi is 38, which exceeds the threshold of 35.", CreatedAt: base},
		{City: "Mumbai", Metric: weather.MetricHumidity, Value: 95, Threshold: 90,
			Message: "The Humidity in Mumbai is 95, which exceeds the threshold of 90.", CreatedAt: base.Add(time.Minute)},
	}
	for _, a := range alerts {
		if err := store.Alerts.Append(ctx, a); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	all, err := store.Alerts.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}
	// Newest first.
	if all[0].City != "Mumbai" {
		t.Errorf("all[0].City = %q, want Mumbai", all[0].City)
	}
	if all[0].ID == "" {
		t.Error("expected an assigned alert ID")
	}

	byCity, err := store.Alerts.ListByCity(ctx, "Delhi")
	if err != nil {
		t.Fatalf("ListByCity: %v", err)
	}
	if len(byCity) != 1 || byCity[0].Metric != weather.MetricTemperature {
		t.Fatalf("ListByCity = %+v, want one Delhi temperature alert", byCity)
	}

	if err := store.Alerts.DeleteByID(ctx, byCity[0].ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if err := store.Alerts.DeleteByID(ctx, byCity[0].ID); !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("DeleteByID twice: err = %v, want ErrNotFound", err)
	}

	remaining, _ := store.Alerts.ListAll(ctx)
	if len(remaining) != 1 {
		t.Errorf("len(remaining) = %d, want 1", len(remaining))
	}
}
