package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devanshc/weather-monitoring/internal/weather"
)

// Memory bundles concurrency-safe in-memory implementations of all store
// contracts. It backs the service when no database path is configured and
// the test suites.
type Memory struct {
	Observations *MemoryObservations
	Thresholds   *MemoryThresholds
	Summaries    *MemorySummaries
	Alerts       *MemoryAlerts
}

// NewMemory creates an empty in-memory store set.
func NewMemory() *Memory {
	return &Memory{
		Observations: &MemoryObservations{byCity: make(map[string][]weather.Observation)},
		Thresholds:   &MemoryThresholds{byCity: make(map[string]weather.Threshold)},
		Summaries:    &MemorySummaries{byKey: make(map[string]weather.DailySummary)},
		Alerts:       &MemoryAlerts{},
	}
}

// MemoryObservations is an append-only in-memory observation store.
type MemoryObservations struct {
	mu     sync.RWMutex
	nextID int64
	byCity map[string][]weather.Observation
}

func (s *MemoryObservations) Append(ctx context.Context, obs weather.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	obs.ID = s.nextID
	s.byCity[obs.City] = append(s.byCity[obs.City], obs)
	return nil
}

func (s *MemoryObservations) Query(ctx context.Context, city string, from, to time.Time) ([]weather.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.Observation
	for c, list := range s.byCity {
		if city != "" && c != city {
			continue
		}
		for _, obs := range list {
			if !obs.IngestedAt.Before(from) && obs.IngestedAt.Before(to) {
				result = append(result, obs)
			}
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].IngestedAt.Before(result[j].IngestedAt)
	})
	return result, nil
}

func (s *MemoryObservations) Latest(ctx context.Context, city string) (weather.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byCity[city]
	if len(list) == 0 {
		return weather.Observation{}, weather.ErrNotFound
	}
	return list[len(list)-1], nil
}

// MemoryThresholds keys thresholds by city; the most recent upsert wins.
type MemoryThresholds struct {
	mu     sync.RWMutex
	byCity map[string]weather.Threshold
}

func (s *MemoryThresholds) Get(ctx context.Context, city string) (weather.Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	th, ok := s.byCity[city]
	if !ok {
		return weather.Threshold{}, weather.ErrNotFound
	}
	return th, nil
}

func (s *MemoryThresholds) Upsert(ctx context.Context, t weather.Threshold) (weather.Threshold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byCity[t.City] = t
	return t, nil
}

func (s *MemoryThresholds) List(ctx context.Context) ([]weather.Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]weather.Threshold, 0, len(s.byCity))
	for _, th := range s.byCity {
		result = append(result, th)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].City < result[j].City })
	return result, nil
}

// MemorySummaries keys summaries by (city, day); re-aggregation for the same
// day replaces the earlier record.
type MemorySummaries struct {
	mu    sync.RWMutex
	byKey map[string]weather.DailySummary
}

func summaryKey(city string, day time.Time) string {
	return city + ":" + day.UTC().Format("2006-01-02")
}

func (s *MemorySummaries) Upsert(ctx context.Context, sum weather.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[summaryKey(sum.City, sum.Day)] = sum
	return nil
}

func (s *MemorySummaries) ListAll(ctx context.Context) ([]weather.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]weather.DailySummary, 0, len(s.byKey))
	for _, sum := range s.byKey {
		result = append(result, sum)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Day.Equal(result[j].Day) {
			return result[i].Day.Before(result[j].Day)
		}
		return result[i].City < result[j].City
	})
	return result, nil
}

// MemoryAlerts holds raised alert records, newest first on listing.
type MemoryAlerts struct {
	mu   sync.RWMutex
	list []weather.Alert
}

func (s *MemoryAlerts) Append(ctx context.Context, a weather.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.list = append(s.list, a)
	return nil
}

func (s *MemoryAlerts) ListAll(ctx context.Context) ([]weather.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]weather.Alert, len(s.list))
	copy(result, s.list)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryAlerts) ListByCity(ctx context.Context, city string) ([]weather.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.Alert
	for _, a := range s.list {
		if a.City == city {
			result = append(result, a)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryAlerts) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.list {
		if a.ID == id {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return nil
		}
	}
	return weather.ErrNotFound
}
