package weather

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/devanshc/weather-monitoring/internal/metrics"
)

// SummaryAggregator rolls each city's observations for a UTC day into one
// DailySummary record.
type SummaryAggregator struct {
	observations ObservationStore
	summaries    SummaryStore
	cities       []string
}

// NewSummaryAggregator creates an aggregator over the fixed city list.
func NewSummaryAggregator(observations ObservationStore, summaries SummaryStore, cities []string) *SummaryAggregator {
	return &SummaryAggregator{
		observations: observations,
		summaries:    summaries,
		cities:       cities,
	}
}

// RunOnce computes and upserts a daily summary per city for the UTC day
// containing day. Cities with zero observations are skipped without error;
// a store failure for one city is logged and does not abort the rest.
func (a *SummaryAggregator) RunOnce(ctx context.Context, day time.Time) {
	start := StartOfDayUTC(day)
	end := start.Add(24 * time.Hour)

	computed := 0
	for _, city := range a.cities {
		obs, err := a.observations.Query(ctx, city, start, end)
		if err != nil {
			log.Printf("summary: query observations for %s: %v", city, err)
			continue
		}
		if len(obs) == 0 {
			continue
		}

		summary := Summarize(city, start, obs)
		if err := a.summaries.Upsert(ctx, summary); err != nil {
			log.Printf("summary: store summary for %s: %v", city, err)
			continue
		}
		metrics.SummariesComputed.WithLabelValues(city).Inc()
		computed++
	}
	log.Printf("summary: computed %d summaries for %s", computed, start.Format("2006-01-02"))
}

// Summarize rolls a city's observations for one day into a DailySummary.
// Averages are simple arithmetic means over all observations. The caller
// guarantees obs is non-empty and ordered by ingestion time ascending.
func Summarize(city string, day time.Time, obs []Observation) DailySummary {
	var sumTemp, sumHumidity, sumWind float64
	minTemp := obs[0].TempC
	maxTemp := obs[0].TempC

	for _, o := range obs {
		sumTemp += o.TempC
		sumHumidity += o.HumidityPct
		sumWind += o.WindSpeed
		if o.TempC < minTemp {
			minTemp = o.TempC
		}
		if o.TempC > maxTemp {
			maxTemp = o.TempC
		}
	}
	n := float64(len(obs))

	dominant, description := dominantCondition(obs)

	return DailySummary{
		City:              city,
		Day:               StartOfDayUTC(day),
		AvgTemp:           sumTemp / n,
		MaxTemp:           maxTemp,
		MinTemp:           minTemp,
		AvgHumidity:       sumHumidity / n,
		AvgWindSpeed:      sumWind / n,
		DominantCondition: dominant,
		DominantReason:    dominantReason(dominant, description),
	}
}

// dominantCondition returns the condition label with the highest occurrence
// count, ties broken toward the label appearing later in the sequence. The
// returned description is the last provider description seen for that label.
func dominantCondition(obs []Observation) (label, description string) {
	counts := make(map[string]int)
	lastIndex := make(map[string]int)
	lastDescription := make(map[string]string)

	for i, o := range obs {
		l := o.ConditionMain
		if l == "" {
			l = "Unknown"
		}
		counts[l]++
		lastIndex[l] = i
		if o.ConditionDescription != "" {
			lastDescription[l] = o.ConditionDescription
		}
	}

	best := ""
	for l := range counts {
		if best == "" {
			best = l
			continue
		}
		if counts[l] > counts[best] || (counts[l] == counts[best] && lastIndex[l] > lastIndex[best]) {
			best = l
		}
	}
	return best, lastDescription[best]
}

// dominantReason builds the human-readable reason text for a summary.
func dominantReason(label, description string) string {
	if description == "" {
		description = label
	}
	reason := fmt.Sprintf("The dominant weather condition is %s.", description)
	if label != "" {
		reason += fmt.Sprintf(" This indicates that it's likely to be %s.", strings.ToLower(label))
	}
	return reason
}
