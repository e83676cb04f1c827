package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devanshc/weather-monitoring/internal/weather"
)

// SQL bundles sqlite-backed implementations of all store contracts over one
// database handle.
type SQL struct {
	db *sql.DB

	Observations *SQLObservations
	Thresholds   *SQLThresholds
	Summaries    *SQLSummaries
	Alerts       *SQLAlerts
}

// NewSQL wraps an open database handle. Call Migrate before first use.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{
		db:           db,
		Observations: &SQLObservations{db: db},
		Thresholds:   &SQLThresholds{db: db},
		Summaries:    &SQLSummaries{db: db},
		Alerts:       &SQLAlerts{db: db},
	}
}

// SQLObservations implements weather.ObservationStore.
type SQLObservations struct {
	db *sql.DB
}

func (s *SQLObservations) Append(ctx context.Context, obs weather.Observation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO observations (city, temp, feels_like, humidity, wind_speed, weather_main, weather_description, dt, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, obs.City, obs.TempC, obs.FeelsLikeC, obs.HumidityPct, obs.WindSpeed,
		obs.ConditionMain, obs.ConditionDescription, obs.SourceTime, obs.IngestedAt.UTC())
	return err
}

const observationColumns = `id, city, temp, feels_like, humidity, wind_speed, weather_main, weather_description, dt, ingested_at`

func scanObservation(row interface{ Scan(...any) error }) (weather.Observation, error) {
	var obs weather.Observation
	err := row.Scan(&obs.ID, &obs.City, &obs.TempC, &obs.FeelsLikeC, &obs.HumidityPct,
		&obs.WindSpeed, &obs.ConditionMain, &obs.ConditionDescription, &obs.SourceTime, &obs.IngestedAt)
	return obs, err
}

func (s *SQLObservations) Query(ctx context.Context, city string, from, to time.Time) ([]weather.Observation, error) {
	query := `SELECT ` + observationColumns + ` FROM observations WHERE ingested_at >= ? AND ingested_at < ?`
	args := []any{from.UTC(), to.UTC()}
	if city != "" {
		query += ` AND city = ?`
		args = append(args, city)
	}
	query += ` ORDER BY ingested_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []weather.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

func (s *SQLObservations) Latest(ctx context.Context, city string) (weather.Observation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+observationColumns+` FROM observations
		WHERE city = ?
		ORDER BY ingested_at DESC
		LIMIT 1
	`, city)

	obs, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Observation{}, weather.ErrNotFound
	}
	if err != nil {
		return weather.Observation{}, err
	}
	return obs, nil
}

// SQLThresholds implements weather.ThresholdStore.
type SQLThresholds struct {
	db *sql.DB
}

func (s *SQLThresholds) Get(ctx context.Context, city string) (weather.Threshold, error) {
	var th weather.Threshold
	err := s.db.QueryRowContext(ctx, `
		SELECT city, temperature, humidity, wind_speed FROM thresholds WHERE city = ?
	`, city).Scan(&th.City, &th.MaxTempC, &th.MaxHumidityPct, &th.MaxWindSpeed)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Threshold{}, weather.ErrNotFound
	}
	if err != nil {
		return weather.Threshold{}, err
	}
	return th, nil
}

func (s *SQLThresholds) Upsert(ctx context.Context, t weather.Threshold) (weather.Threshold, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO thresholds (city, temperature, humidity, wind_speed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(city) DO UPDATE SET
			temperature = excluded.temperature,
			humidity = excluded.humidity,
			wind_speed = excluded.wind_speed
	`, t.City, t.MaxTempC, t.MaxHumidityPct, t.MaxWindSpeed)
	if err != nil {
		return weather.Threshold{}, err
	}
	return t, nil
}

func (s *SQLThresholds) List(ctx context.Context) ([]weather.Threshold, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT city, temperature, humidity, wind_speed FROM thresholds ORDER BY city ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var thresholds []weather.Threshold
	for rows.Next() {
		var th weather.Threshold
		if err := rows.Scan(&th.City, &th.MaxTempC, &th.MaxHumidityPct, &th.MaxWindSpeed); err != nil {
			return nil, err
		}
		thresholds = append(thresholds, th)
	}
	return thresholds, rows.Err()
}

// SQLSummaries implements weather.SummaryStore.
type SQLSummaries struct {
	db *sql.DB
}

func (s *SQLSummaries) Upsert(ctx context.Context, sum weather.DailySummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_summaries (city, date, avg_temp, max_temp, min_temp, avg_humidity, avg_wind_speed, dominant_weather, dominant_weather_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(city, date) DO UPDATE SET
			avg_temp = excluded.avg_temp,
			max_temp = excluded.max_temp,
			min_temp = excluded.min_temp,
			avg_humidity = excluded.avg_humidity,
			avg_wind_speed = excluded.avg_wind_speed,
			dominant_weather = excluded.dominant_weather,
			dominant_weather_reason = excluded.dominant_weather_reason
	`, sum.City, sum.Day.UTC().Format("2006-01-02"), sum.AvgTemp, sum.MaxTemp, sum.MinTemp,
		sum.AvgHumidity, sum.AvgWindSpeed, sum.DominantCondition, sum.DominantReason)
	return err
}

func (s *SQLSummaries) ListAll(ctx context.Context) ([]weather.DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT city, date, avg_temp, max_temp, min_temp, avg_humidity, avg_wind_speed, dominant_weather, dominant_weather_reason
		FROM daily_summaries
		ORDER BY date ASC, city ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []weather.DailySummary
	for rows.Next() {
		var sum weather.DailySummary
		var dateStr string
		if err := rows.Scan(&sum.City, &dateStr, &sum.AvgTemp, &sum.MaxTemp, &sum.MinTemp,
			&sum.AvgHumidity, &sum.AvgWindSpeed, &sum.DominantCondition, &sum.DominantReason); err != nil {
			return nil, err
		}
		day, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
		if err != nil {
			return nil, fmt.Errorf("parse summary date %q: %w", dateStr, err)
		}
		sum.Day = day
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// SQLAlerts implements weather.AlertStore. IDs are assigned on append.
type SQLAlerts struct {
	db *sql.DB
}

func (s *SQLAlerts) Append(ctx context.Context, a weather.Alert) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, city, condition_type, value, threshold, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.City, string(a.Metric), a.Value, a.Threshold, a.Message, a.CreatedAt.UTC())
	return err
}

const alertColumns = `id, city, condition_type, value, threshold, message, created_at`

func scanAlert(row interface{ Scan(...any) error }) (weather.Alert, error) {
	var a weather.Alert
	var metric string
	err := row.Scan(&a.ID, &a.City, &metric, &a.Value, &a.Threshold, &a.Message, &a.CreatedAt)
	a.Metric = weather.Metric(metric)
	return a, err
}

func (s *SQLAlerts) ListAll(ctx context.Context) ([]weather.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+alertColumns+` FROM alerts ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []weather.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *SQLAlerts) ListByCity(ctx context.Context, city string) ([]weather.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+alertColumns+` FROM alerts WHERE city = ? ORDER BY created_at DESC
	`, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []weather.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *SQLAlerts) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return weather.ErrNotFound
	}
	return nil
}
