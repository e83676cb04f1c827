package weather

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/devanshc/weather-monitoring/internal/metrics"
)

const kelvinOffset = 273.15

// IngestionPipeline fetches one observation per configured city, persists
// it, and feeds it to the alert evaluator.
type IngestionPipeline struct {
	source       ObservationSource
	observations ObservationStore
	evaluator    *AlertEvaluator
	cities       []string
	fetchTimeout time.Duration

	// Per-city locks serialize store-then-evaluate so overlapping runs
	// (scheduled plus manual) cannot reorder a city's evaluations.
	mu        sync.Mutex
	cityLocks map[string]*sync.Mutex
}

// NewIngestionPipeline creates a pipeline over the fixed, ordered city list.
func NewIngestionPipeline(source ObservationSource, observations ObservationStore, evaluator *AlertEvaluator, cities []string, fetchTimeout time.Duration) *IngestionPipeline {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &IngestionPipeline{
		source:       source,
		observations: observations,
		evaluator:    evaluator,
		cities:       cities,
		fetchTimeout: fetchTimeout,
	}
}

// RunOnce ingests every configured city, fanning out per city. A single
// city's failure (fetch error, timeout, malformed payload) is logged and
// skipped; the batch never fails as a whole. The result holds at most one
// observation per city, in city-list order, omitting failed cities.
func (p *IngestionPipeline) RunOnce(ctx context.Context) []Observation {
	results := make([]*Observation, len(p.cities))

	var wg sync.WaitGroup
	for i, city := range p.cities {
		wg.Add(1)
		go func(i int, city string) {
			defer wg.Done()
			if obs, ok := p.ingestCity(ctx, city); ok {
				results[i] = &obs
			}
		}(i, city)
	}
	wg.Wait()

	out := make([]Observation, 0, len(p.cities))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (p *IngestionPipeline) ingestCity(ctx context.Context, city string) (Observation, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	raw, err := p.source.Fetch(fetchCtx, city)
	if err != nil {
		log.Printf("ingest: fetch failed for %s: %v", city, err)
		metrics.FetchFailures.WithLabelValues(city).Inc()
		return Observation{}, false
	}

	obs := Normalize(raw, time.Now().UTC())

	lock := p.cityLock(city)
	lock.Lock()
	defer lock.Unlock()

	if err := p.observations.Append(ctx, obs); err != nil {
		log.Printf("ingest: store observation for %s: %v", city, err)
	} else {
		metrics.ObservationsIngested.WithLabelValues(city).Inc()
	}

	// Exactly one evaluation per successful fetch, after the store write
	// has completed or failed.
	p.evaluator.Evaluate(ctx, city, obs.TempC, obs.HumidityPct, obs.WindSpeed)

	return obs, true
}

func (p *IngestionPipeline) cityLock(city string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cityLocks == nil {
		p.cityLocks = make(map[string]*sync.Mutex)
	}
	lock, ok := p.cityLocks[city]
	if !ok {
		lock = &sync.Mutex{}
		p.cityLocks[city] = lock
	}
	return lock
}

// Normalize converts a raw provider reading into a stored Observation.
// Kelvin temperatures are converted to Celsius exactly once, here; humidity
// and wind speed pass through as provided.
func Normalize(raw RawObservation, ingestedAt time.Time) Observation {
	temp := raw.Temp
	feelsLike := raw.FeelsLike
	if raw.Unit == TempUnitKelvin {
		temp -= kelvinOffset
		feelsLike -= kelvinOffset
	}
	return Observation{
		City:                 raw.City,
		TempC:                temp,
		FeelsLikeC:           feelsLike,
		HumidityPct:          raw.HumidityPct,
		WindSpeed:            raw.WindSpeed,
		ConditionMain:        raw.ConditionMain,
		ConditionDescription: raw.ConditionDescription,
		SourceTime:           raw.SourceTime,
		IngestedAt:           ingestedAt.UTC(),
	}
}
