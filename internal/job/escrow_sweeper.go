package job

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
)

// EscrowSweeper periodically releases HELD escrows whose auto-release time has passed.
type EscrowSweeper struct {
	escrows  portssvc.EscrowSweeperSvc
	interval time.Duration
	batch    int
	now      func() time.Time
	logger   *slog.Logger
}

func NewEscrowSweeper(escrows portssvc.EscrowSweeperSvc, interval time.Duration, batch int, logger *slog.Logger) *EscrowSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &EscrowSweeper{
		escrows:  escrows,
		interval: interval,
		batch:    batch,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "escrow_sweeper")),
	}
}

// Run sweeps once per interval until ctx is cancelled.
func (s *EscrowSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Escrow sweeper started", slog.Duration("interval", s.interval), slog.Int("batch", s.batch))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Escrow sweeper stopped")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass and returns the number of escrows released. The
// escrow service records the released count in its metrics.
func (s *EscrowSweeper) Sweep(ctx context.Context) int {
	released, err := s.escrows.ReleaseDueEscrows(ctx, s.now().UTC(), s.batch)
	if released > 0 {
		s.logger.Info("Released due escrows", slog.Int("count", released))
	}
	if err != nil && ctx.Err() == nil {
		s.logger.Error("Escrow sweep failed", slog.Int("released", released), slog.String("error", err.Error()))
	}
	return released
}
