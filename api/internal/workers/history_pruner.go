package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/irgordon/helix/api/internal/core/domain"
)

// HistoryPruner trims the analytics log so it cannot grow without bound.
type HistoryPruner struct {
	repo      domain.HistoryRepository
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewHistoryPruner(
	repo domain.HistoryRepository,
	logger *slog.Logger,
	interval time.Duration,
	retention time.Duration,
) *HistoryPruner {
	return &HistoryPruner{
		repo:      repo,
		logger:    logger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

// Start blocks until ctx is cancelled, pruning once per interval.
func (p *HistoryPruner) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune runs a single pass and reports how many entries were dropped.
func (p *HistoryPruner) Prune(ctx context.Context) int64 {
	// 🛡️ SLA: A slow database must not stall the next tick
	pruneCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := p.now().Add(-p.retention)
	removed, err := p.repo.PruneBefore(pruneCtx, cutoff)
	if err != nil {
		p.logger.Error("History prune failed", slog.Time("cutoff", cutoff), slog.Any("error", err))
		return 0
	}
	if removed > 0 {
		p.logger.Info("History pruned", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
	}
	return removed
}
