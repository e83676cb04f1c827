package weather

import (
	"time"
)

// Metric identifies one of the monitored weather metrics. The values double
// as the condition type recorded on alerts.
type Metric string

const (
	MetricTemperature Metric = "Temperature"
	MetricHumidity    Metric = "Humidity"
	MetricWindSpeed   Metric = "Wind Speed"
)

// TempUnit describes the temperature scale a source reports in.
type TempUnit string

const (
	TempUnitKelvin  TempUnit = "kelvin"
	TempUnitCelsius TempUnit = "celsius"
)

// Observation is one normalized weather reading for one city. Observations
// are immutable once stored; only the ingestion pipeline creates them.
type Observation struct {
	ID          int64   `json:"id,omitempty"`
	City        string  `json:"city"`
	TempC       float64 `json:"temp"`
	FeelsLikeC  float64 `json:"feels_like"`
	HumidityPct float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	// ConditionMain is the short category label from the provider, e.g. "Rain".
	ConditionMain string `json:"weather_main"`
	// ConditionDescription is the longer provider text, e.g. "light rain".
	ConditionDescription string `json:"weather_description,omitempty"`
	// SourceTime is the provider-reported reading time in epoch seconds.
	SourceTime int64 `json:"dt"`
	// IngestedAt is the wall-clock write time, always UTC.
	IngestedAt time.Time `json:"timestamp"`
}

// RawObservation is a single provider reading in provider-native units,
// before normalization by the ingestion pipeline.
type RawObservation struct {
	City                 string
	Temp                 float64
	FeelsLike            float64
	HumidityPct          float64
	WindSpeed            float64
	ConditionMain        string
	ConditionDescription string
	SourceTime           int64
	Unit                 TempUnit
}

// Threshold holds the per-city alert limits. At most one record per city;
// the most recent upsert wins.
type Threshold struct {
	City           string  `json:"city"`
	MaxTempC       float64 `json:"temperature"`
	MaxHumidityPct float64 `json:"humidity"`
	MaxWindSpeed   float64 `json:"wind_speed"`
}

// Default limits applied when a city has no threshold record.
const (
	DefaultMaxTempC       = 35
	DefaultMaxHumidityPct = 90
	DefaultMaxWindSpeed   = 10
)

// DefaultThreshold returns the hardcoded fallback limits for a city.
func DefaultThreshold(city string) Threshold {
	return Threshold{
		City:           city,
		MaxTempC:       DefaultMaxTempC,
		MaxHumidityPct: DefaultMaxHumidityPct,
		MaxWindSpeed:   DefaultMaxWindSpeed,
	}
}

// DailySummary is the rollup of one city's observations for one UTC day.
type DailySummary struct {
	City string `json:"city"`
	// Day is midnight-aligned UTC.
	Day               time.Time `json:"date"`
	AvgTemp           float64   `json:"avg_temp"`
	MaxTemp           float64   `json:"max_temp"`
	MinTemp           float64   `json:"min_temp"`
	AvgHumidity       float64   `json:"avg_humidity"`
	AvgWindSpeed      float64   `json:"avg_wind_speed"`
	DominantCondition string    `json:"dominant_weather"`
	DominantReason    string    `json:"dominant_weather_reason"`
}

// Alert records one threshold breach event. Exactly one alert is created per
// rising edge of a (city, metric) pair.
type Alert struct {
	ID        string    `json:"id"`
	City      string    `json:"city"`
	Metric    Metric    `json:"conditionType"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
}

// StartOfDayUTC truncates t to midnight UTC.
func StartOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
