package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"gymdesk/internal/service"
)

// Scheduler runs the daily expiry sweep on a cron schedule.
type Scheduler struct {
	cron  *cron.Cron
	sweep *service.ExpirySweep
}

// New creates a scheduler. A panic inside a job is recovered and logged
// rather than taking the server down.
func New(sweep *service.ExpirySweep) *Scheduler {
	cronLogger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		cron:  cron.New(cron.WithChain(cron.Recover(cronLogger))),
		sweep: sweep,
	}
}

// Start registers the sweep at the given cron schedule ("0 9 * * *" runs
// every day at 09:00 server time) and starts the scheduler.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		report, err := s.sweep.Run(context.Background())
		if err != nil {
			log.Printf("[Scheduler] Expiry sweep failed: %v", err)
			return
		}
		log.Printf("[Scheduler] Expiry sweep done: demoted=%d today=%d week=%d failures=%d",
			report.Demoted, report.NotifiedToday, report.NotifiedWeek, report.SendFailures)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("[Scheduler] Expiry sweep scheduled at %q", schedule)
	return nil
}

// Stop stops scheduling new runs and returns a context that is done when
// any in-flight run finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
