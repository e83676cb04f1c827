package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/devanshc/weather-monitoring/internal/weather"
)

// Scheduler runs the periodic ingestion job and the daily summary job.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	pipeline   *weather.IngestionPipeline
	aggregator *weather.SummaryAggregator
	interval   time.Duration
}

// New creates a new Scheduler. Jobs run on UTC wall time.
func New(interval time.Duration, pipeline *weather.IngestionPipeline, aggregator *weather.SummaryAggregator) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:  s,
		pipeline:   pipeline,
		aggregator: aggregator,
		interval:   interval,
	}
}

// Start schedules both jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 5
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running weather ingest job")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		observations := s.pipeline.RunOnce(ctx)
		log.Printf("scheduler: completed weather ingest job, %d observations", len(observations))
	})
	if err != nil {
		return err
	}

	// Summaries for a day are computed just after it ends.
	_, err = s.scheduler.Every(1).Day().At("00:00").Do(func() {
		log.Println("scheduler: running daily summary job")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		day := time.Now().UTC().AddDate(0, 0, -1)
		s.aggregator.RunOnce(ctx, day)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
