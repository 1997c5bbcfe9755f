// internal/scheduler/sweeps.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hnvivek/game-management-sub002/internal/db"
)

const sweepTimeout = 2 * time.Minute

// RegisterSweeps wires the table-tidying sweeps onto the scheduler:
// occupancies whose window has fully elapsed move to completed, and
// pending suggestions whose window has passed are cancelled as expired.
// Neither sweep touches rows that still consume capacity for a future
// window.
func (s *Scheduler) RegisterSweeps(database *db.DB, cronExpr string) error {
	if database == nil {
		return fmt.Errorf("sweeps require a database")
	}

	sweeps := []struct {
		name string
		run  func(context.Context, time.Time) (int64, error)
	}{
		{"complete_past_occupancies", database.Queries.CompletePastOccupancies},
		{"expire_stale_suggestions", database.Queries.ExpireStaleSuggestions},
	}
	for _, sweep := range sweeps {
		if err := s.addJob(sweep.name, cronExpr, sweepTask(sweep.name, sweep.run)); err != nil {
			return fmt.Errorf("register %s sweep: %w", sweep.name, err)
		}
	}
	return nil
}

// sweepTask adapts one bulk update into a job body with its own timeout
// and result logging.
func sweepTask(name string, run func(context.Context, time.Time) (int64, error)) func() {
	sweepLogger := log.With().Str("sweep", name).Logger()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		ctx = sweepLogger.WithContext(ctx)

		moved, err := run(ctx, time.Now().UTC())
		if err != nil {
			sweepLogger.Error().Err(err).Msg("Sweep failed")
			return
		}
		if moved > 0 {
			sweepLogger.Info().Int64("rows", moved).Msg("Sweep moved rows")
		}
	}
}
