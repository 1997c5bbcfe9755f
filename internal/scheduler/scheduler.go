// internal/scheduler/scheduler.go
package scheduler

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrEmptyCronExpr = errors.New("cron expression is required")

// Scheduler owns the cron runner for the background sweeps. Jobs are
// registered before Start; Stop is safe to call more than once and
// waits for running jobs to finish.
type Scheduler struct {
	cron     gocron.Scheduler
	stopOnce sync.Once
	stopErr  error
}

// New builds a Scheduler whose jobs log and survive panics in their
// tasks instead of taking the process down.
func New() (*Scheduler, error) {
	cron, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Scheduler job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: cron}, nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	log.Info().Msg("Scheduler starting")
	s.cron.Start()
}

// Stop shuts the scheduler down.
func (s *Scheduler) Stop() error {
	s.stopOnce.Do(func() {
		log.Info().Msg("Scheduler stopping")
		s.stopErr = s.cron.Shutdown()
	})
	return s.stopErr
}

func (s *Scheduler) addJob(name, cronExpr string, task func()) error {
	if strings.TrimSpace(cronExpr) == "" {
		return ErrEmptyCronExpr
	}

	jobLogger := log.With().Str("job_name", name).Str("cron", cronExpr).Logger()
	wrapped := func() {
		jobLogger.Debug().Msg("Job started")
		task()
		jobLogger.Debug().Msg("Job completed")
	}

	_, err := s.cron.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(wrapped),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}
	jobLogger.Info().Msg("Job registered")
	return nil
}
