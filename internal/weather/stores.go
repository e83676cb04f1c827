package weather

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no record matches the query.
var ErrNotFound = errors.New("not found")

// ObservationSource abstracts a weather data provider (e.g. OpenWeatherMap).
type ObservationSource interface {
	Name() string
	Fetch(ctx context.Context, city string) (RawObservation, error)
}

// ObservationStore is the append-only store of raw observations.
type ObservationStore interface {
	Append(ctx context.Context, obs Observation) error
	// Query returns observations with IngestedAt in [from, to), ordered by
	// IngestedAt ascending. An empty city matches all cities.
	Query(ctx context.Context, city string, from, to time.Time) ([]Observation, error)
	// Latest returns the most recently ingested observation for a city.
	Latest(ctx context.Context, city string) (Observation, error)
}

// ThresholdStore holds the per-city threshold configuration.
type ThresholdStore interface {
	Get(ctx context.Context, city string) (Threshold, error)
	Upsert(ctx context.Context, t Threshold) (Threshold, error)
	List(ctx context.Context) ([]Threshold, error)
}

// SummaryStore holds one computed daily summary per (city, day).
type SummaryStore interface {
	Upsert(ctx context.Context, s DailySummary) error
	ListAll(ctx context.Context) ([]DailySummary, error)
}

// AlertStore holds raised alert records. List results are ordered newest
// first.
type AlertStore interface {
	Append(ctx context.Context, a Alert) error
	ListAll(ctx context.Context) ([]Alert, error)
	ListByCity(ctx context.Context, city string) ([]Alert, error)
	DeleteByID(ctx context.Context, id string) error
}

// Notifier delivers a human-readable alert message to the configured
// destination. Delivery is best effort; callers log failures and move on.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}
