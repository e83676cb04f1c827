package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ObservationsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weathermon_observations_ingested_total",
			Help: "Total observations successfully ingested",
		},
		[]string{"city"},
	)

	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weathermon_fetch_failures_total",
			Help: "Total failed observation fetches",
		},
		[]string{"city"},
	)

	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weathermon_alerts_raised_total",
			Help: "Total alerts raised on threshold rising edges",
		},
		[]string{"city", "metric"},
	)

	SummariesComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weathermon_daily_summaries_computed_total",
			Help: "Total daily summaries computed and stored",
		},
		[]string{"city"},
	)
)
