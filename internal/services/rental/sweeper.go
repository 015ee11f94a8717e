package rental

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the overdue sweep runs
const DefaultSweepInterval = 30 * time.Second

// Sweeper periodically marks rented lockers past their due date as
// overdue. It runs once immediately, then on each interval tick, until
// the context is cancelled.
type Sweeper struct {
	controller *Controller
	interval   time.Duration
	logger     *slog.Logger
}

// NewSweeper creates a new overdue sweeper
func NewSweeper(controller *Controller, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		controller: controller,
		interval:   interval,
		logger:     logger,
	}
}

// Run blocks, sweeping immediately and then on each tick, until ctx is
// cancelled. Sweep failures are logged and do not stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("overdue sweeper started", slog.Duration("interval", s.interval))

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("overdue sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	marked, err := s.controller.SweepOverdue(ctx)
	if err != nil {
		s.logger.Error("overdue sweep failed", slog.String("error", err.Error()))
		return
	}
	if marked > 0 {
		s.logger.Info("overdue sweep complete", slog.Int("marked", marked))
	}
}
