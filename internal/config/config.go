package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultCities = "Delhi,Mumbai,Chennai,Bangalore,Kolkata,Hyderabad"

type AppConfig struct {
	OpenWeatherAPIKey string

	// FetchInterval controls how often observations are pulled for each city.
	FetchInterval time.Duration

	// FetchTimeout bounds a single provider call end to end.
	FetchTimeout time.Duration

	// HTTPTimeout is the outbound HTTP client timeout.
	HTTPTimeout time.Duration

	// Cities to monitor.
	Cities []string

	// DBPath is the sqlite file path. Empty selects the in-memory store.
	DBPath string

	SMTP SMTPConfig

	Port string
}

// SMTPConfig holds the mail settings for alert notifications. Sending is
// skipped when Username or Password is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")

	// Scheduler interval: default 5 minutes.
	intervalStr := getenvDefault("FETCH_INTERVAL", "5m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	if interval < time.Minute {
		return nil, fmt.Errorf("FETCH_INTERVAL must be at least 1m, got %s", interval)
	}
	cfg.FetchInterval = interval

	timeoutStr := getenvDefault("FETCH_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}
	cfg.FetchTimeout = timeout

	httpTimeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	httpTimeout, err := time.ParseDuration(httpTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = httpTimeout

	cfg.Cities = loadCities()
	cfg.DBPath = getenvDefault("DB_PATH", "weather.db")
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.SMTP = SMTPConfig{
		Host:     getenvDefault("SMTP_HOST", "smtp.gmail.com"),
		Port:     getenvInt("SMTP_PORT", 587),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     getenvDefault("SMTP_FROM", os.Getenv("SMTP_USERNAME")),
		To:       os.Getenv("ALERT_EMAIL"),
	}

	return cfg, nil
}

func loadCities() []string {
	raw := getenvDefault("WEATHER_CITIES", defaultCities)
	var cities []string
	for _, c := range strings.Split(raw, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			cities = append(cities, c)
		}
	}
	return cities
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
