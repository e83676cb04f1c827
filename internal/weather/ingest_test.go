package weather

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

// stubSource serves canned raw observations per city, failing listed cities.
type stubSource struct {
	byCity  map[string]RawObservation
	failing map[string]bool
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(_ context.Context, city string) (RawObservation, error) {
	if s.failing[city] {
		return RawObservation{}, errors.New("provider unavailable")
	}
	raw, ok := s.byCity[city]
	if !ok {
		return RawObservation{}, errors.New("unknown city")
	}
	return raw, nil
}

// sliceObservations is a minimal ObservationStore for tests.
type sliceObservations struct {
	mu           sync.Mutex
	observations []Observation
	failAll      bool
}

func (s *sliceObservations) Append(_ context.Context, obs Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("append failed")
	}
	obs.ID = int64(len(s.observations) + 1)
	s.observations = append(s.observations, obs)
	return nil
}

func (s *sliceObservations) Query(_ context.Context, city string, from, to time.Time) ([]Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Observation
	for _, o := range s.observations {
		if city != "" && o.City != city {
			continue
		}
		if o.IngestedAt.Before(from) || !o.IngestedAt.Before(to) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *sliceObservations) Latest(_ context.Context, city string) (Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.observations) - 1; i >= 0; i-- {
		if s.observations[i].City == city {
			return s.observations[i], nil
		}
	}
	return Observation{}, ErrNotFound
}

func kelvinRaw(city string, tempK float64) RawObservation {
	return RawObservation{
		City:          city,
		Temp:          tempK,
		FeelsLike:     tempK,
		HumidityPct:   50,
		WindSpeed:     3,
		ConditionMain: "Clear",
		SourceTime:    1700000000,
		Unit:          TempUnitKelvin,
	}
}

func TestRunOncePartialFailure(t *testing.T) {
	cities := []string{"Delhi", "Mumbai", "Chennai", "Bangalore", "Kolkata", "Hyderabad"}
	source := &stubSource{
		byCity:  make(map[string]RawObservation),
		failing: map[string]bool{"Chennai": true, "Kolkata": true},
	}
	for _, city := range cities {
		source.byCity[city] = kelvinRaw(city, 300.15)
	}

	obsStore := &sliceObservations{}
	ev, _, _ := newTestEvaluator(nil)
	pipeline := NewIngestionPipeline(source, obsStore, ev, cities, time.Second)

	got := pipeline.RunOnce(context.Background())

	if len(got) != 4 {
		t.Fatalf("observations returned = %d, want 4", len(got))
	}
	// Results keep city-list order with failed cities omitted.
	wantOrder := []string{"Delhi", "Mumbai", "Bangalore", "Hyderabad"}
	for i, city := range wantOrder {
		if got[i].City != city {
			t.Errorf("result[%d].City = %q, want %q", i, got[i].City, city)
		}
	}

	stored, _ := obsStore.Query(context.Background(), "", time.Time{}, time.Now().Add(time.Hour))
	if len(stored) != 4 {
		t.Errorf("observations stored = %d, want 4", len(stored))
	}
}

func TestNormalizeKelvinConversion(t *testing.T) {
	obs := Normalize(kelvinRaw("Delhi", 300.15), time.Now())

	if math.Abs(obs.TempC-27.0) > 0.01 {
		t.Errorf("TempC = %v, want 27.0", obs.TempC)
	}
	if math.Abs(obs.FeelsLikeC-27.0) > 0.01 {
		t.Errorf("FeelsLikeC = %v, want 27.0", obs.FeelsLikeC)
	}
}

func TestNormalizeCelsiusPassthrough(t *testing.T) {
	raw := kelvinRaw("Delhi", 27.0)
	raw.Unit = TempUnitCelsius

	obs := Normalize(raw, time.Now())
	if obs.TempC != 27.0 {
		t.Errorf("TempC = %v, want 27.0 (no conversion for celsius input)", obs.TempC)
	}
}

func TestRunOnceEvaluatesDespiteStoreFailure(t *testing.T) {
	source := &stubSource{byCity: map[string]RawObservation{
		"Delhi": kelvinRaw("Delhi", 320.15), // 47C, breaches default 35C
	}}
	obsStore := &sliceObservations{failAll: true}
	ev, alerts, _ := newTestEvaluator(nil)
	pipeline := NewIngestionPipeline(source, obsStore, ev, []string{"Delhi"}, time.Second)

	got := pipeline.RunOnce(context.Background())

	// A store write failure is logged; the observation is still returned and
	// evaluated.
	if len(got) != 1 {
		t.Fatalf("observations returned = %d, want 1", len(got))
	}
	if alerts.count() != 1 {
		t.Fatalf("alerts raised = %d, want 1", alerts.count())
	}
}
