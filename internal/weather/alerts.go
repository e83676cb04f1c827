package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/devanshc/weather-monitoring/internal/metrics"
)

type stateKey struct {
	city   string
	metric Metric
}

type metricState struct {
	elevated  bool
	lastValue float64
}

// AlertEvaluator applies the per-city, per-metric hysteresis rule to new
// observations. A rising edge (value crossing above its threshold) raises
// exactly one alert; repeat breaches are suppressed until the value falls
// back to or under the threshold.
//
// Hysteresis state lives only in process memory: a restart re-arms every
// pair, so a breach outstanding across a restart fires a second alert.
type AlertEvaluator struct {
	thresholds ThresholdStore
	alerts     AlertStore
	notifier   Notifier

	mu     sync.Mutex
	states map[stateKey]*metricState
}

// NewAlertEvaluator creates an evaluator with all pairs initially not
// elevated.
func NewAlertEvaluator(thresholds ThresholdStore, alerts AlertStore, notifier Notifier) *AlertEvaluator {
	return &AlertEvaluator{
		thresholds: thresholds,
		alerts:     alerts,
		notifier:   notifier,
		states:     make(map[stateKey]*metricState),
	}
}

// Evaluate checks one observation's metrics against the city's thresholds.
// The three metrics are evaluated independently; a failure persisting or
// delivering one metric's alert never blocks the others.
func (e *AlertEvaluator) Evaluate(ctx context.Context, city string, temp, humidity, windSpeed float64) {
	th, err := e.thresholds.Get(ctx, city)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("alerts: threshold lookup for %s failed, using defaults: %v", city, err)
		}
		th = DefaultThreshold(city)
	}

	e.evaluateMetric(ctx, city, MetricTemperature, temp, th.MaxTempC)
	e.evaluateMetric(ctx, city, MetricHumidity, humidity, th.MaxHumidityPct)
	e.evaluateMetric(ctx, city, MetricWindSpeed, windSpeed, th.MaxWindSpeed)
}

func (e *AlertEvaluator) evaluateMetric(ctx context.Context, city string, metric Metric, value, threshold float64) {
	key := stateKey{city: city, metric: metric}

	e.mu.Lock()
	st, ok := e.states[key]
	if !ok {
		st = &metricState{}
		e.states[key] = st
	}
	st.lastValue = value

	if value <= threshold {
		// Falling edge (or still clear): re-arm alerting for this pair.
		st.elevated = false
		e.mu.Unlock()
		return
	}
	if st.elevated {
		// Breach persists; suppress repeat firing.
		e.mu.Unlock()
		return
	}
	// Rising edge. Mark elevated before attempting side effects so a
	// store or delivery failure does not retrigger on every observation.
	st.elevated = true
	e.mu.Unlock()

	alert := Alert{
		City:      city,
		Metric:    metric,
		Value:     value,
		Threshold: threshold,
		Message: fmt.Sprintf("The %s in %s is %v, which exceeds the threshold of %v.",
			metric, city, value, threshold),
		CreatedAt: time.Now().UTC(),
	}

	log.Printf("alerts: %s %s exceeded threshold: %v", city, metric, value)
	metrics.AlertsRaised.WithLabelValues(city, string(metric)).Inc()

	if err := e.alerts.Append(ctx, alert); err != nil {
		log.Printf("alerts: persist alert for %s %s: %v", city, metric, err)
	}

	subject := fmt.Sprintf("Weather Alert for %s", city)
	if err := e.notifier.Send(ctx, subject, alert.Message); err != nil {
		log.Printf("alerts: send notification for %s %s: %v", city, metric, err)
	}
}

// Elevated reports whether an alert is currently outstanding for the pair.
func (e *AlertEvaluator) Elevated(city string, metric Metric) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[stateKey{city: city, metric: metric}]
	return ok && st.elevated
}
