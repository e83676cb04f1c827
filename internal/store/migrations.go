package store

import (
	"fmt"
	"log"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS observations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    city TEXT NOT NULL,
    temp REAL NOT NULL,
    feels_like REAL NOT NULL,
    humidity REAL NOT NULL,
    wind_speed REAL NOT NULL,
    weather_main TEXT,
    weather_description TEXT,
    dt INTEGER,
    ingested_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS thresholds (
    city TEXT PRIMARY KEY,
    temperature REAL NOT NULL,
    humidity REAL NOT NULL,
    wind_speed REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_summaries (
    city TEXT NOT NULL,
    date DATE NOT NULL,
    avg_temp REAL,
    max_temp REAL,
    min_temp REAL,
    avg_humidity REAL,
    avg_wind_speed REAL,
    dominant_weather TEXT,
    dominant_weather_reason TEXT,
    PRIMARY KEY (city, date)
);

CREATE TABLE IF NOT EXISTS alerts (
    id TEXT PRIMARY KEY,
    city TEXT NOT NULL,
    condition_type TEXT NOT NULL,
    value REAL NOT NULL,
    threshold REAL NOT NULL,
    message TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_obs_city_time ON observations(city, ingested_at);
CREATE INDEX IF NOT EXISTS idx_obs_time ON observations(ingested_at);
CREATE INDEX IF NOT EXISTS idx_alerts_city ON alerts(city, created_at);
`,
	},
}

// Migrate applies any pending schema migrations.
func (s *SQL) Migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if _, err := s.db.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := s.db.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		log.Printf("store: applied migration %d: %s", m.Version, m.Description)
	}
	return nil
}
