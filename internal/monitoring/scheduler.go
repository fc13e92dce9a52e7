package monitoring

import (
	"fmt"
	"time"

	"github.com/remember-me/care-monitor/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// SummaryReportTopic is the hub topic scheduled summaries are published on.
const SummaryReportTopic = "summary_report"

// Scheduler periodically computes the completion summary for a fixed set of
// todos and pushes it to real-time listeners.
type Scheduler struct {
	eventSvc  services.CareEventServiceProvider
	publisher services.Publisher
	schedule  cron.Schedule
	todos     services.Todos
	interval  time.Duration
	nextRunAt time.Time
	ticker    *time.Ticker
	done      chan bool
}

// NewScheduler creates a scheduler for a standard 5-field cron expression.
func NewScheduler(spec string, todos services.Todos, eventSvc services.CareEventServiceProvider, publisher services.Publisher) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return &Scheduler{
		eventSvc:  eventSvc,
		publisher: publisher,
		schedule:  schedule,
		todos:     todos,
		interval:  30 * time.Second,
		nextRunAt: schedule.Next(time.Now()),
		done:      make(chan bool),
	}, nil
}

// Run starts the scheduler's ticking loop.
func (s *Scheduler) Run() {
	log.Info().Time("next_run_at", s.nextRunAt).Msg("Starting summary scheduler...")
	s.ticker = time.NewTicker(s.interval)
	defer s.ticker.Stop()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping summary scheduler.")
			return
		case now := <-s.ticker.C:
			s.checkAndRun(now)
		}
	}
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.done <- true
}

// NextRunAt reports when the summary is next due.
func (s *Scheduler) NextRunAt() time.Time {
	return s.nextRunAt
}

// checkAndRun publishes a summary if the next run time has passed and returns
// whether it ran.
func (s *Scheduler) checkAndRun(now time.Time) bool {
	if now.Before(s.nextRunAt) {
		return false
	}
	s.nextRunAt = s.schedule.Next(now)

	summary, err := s.eventSvc.Summarize(s.todos)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to compute summary")
		return true
	}

	for _, line := range summary {
		log.Info().Str("summary", line).Msg("Scheduled summary")
	}
	if err := s.publisher.Publish(SummaryReportTopic, map[string][]string{"summary": summary}); err != nil {
		log.Warn().Err(err).Msg("Scheduler: Failed to publish summary")
	}
	return true
}
