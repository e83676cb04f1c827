package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/devanshc/weather-monitoring/internal/weather"
	"github.com/sony/gobreaker"
)

// OpenWeatherSource implements weather.ObservationSource for OpenWeatherMap's
// current-weather endpoint. Readings are requested without a units parameter,
// so temperatures arrive in Kelvin and are normalized downstream.
type OpenWeatherSource struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherSource(client *http.Client, apiKey string) *OpenWeatherSource {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenWeatherSource{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

func (s *OpenWeatherSource) Name() string {
	return s.name
}

func (s *OpenWeatherSource) Fetch(ctx context.Context, city string) (weather.RawObservation, error) {
	if s.apiKey == "" {
		return weather.RawObservation{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", s.apiKey)
		values.Set("q", city)

		u := fmt.Sprintf("%s?%s", s.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return weather.RawObservation{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.RawObservation{}, fmt.Errorf("decode openweather payload: %w", err)
	}

	raw := weather.RawObservation{
		City:        city,
		Temp:        payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		HumidityPct: payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
		SourceTime:  payload.Dt,
		Unit:        weather.TempUnitKelvin,
	}
	if len(payload.Weather) > 0 {
		raw.ConditionMain = payload.Weather[0].Main
		raw.ConditionDescription = payload.Weather[0].Description
	}
	if raw.SourceTime == 0 {
		raw.SourceTime = time.Now().UTC().Unix()
	}

	return raw, nil
}
