// Package memory holds the in-process history log used when no database is
// configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/irgordon/helix/api/internal/core/domain"
)

// HistoryRepository is an append-only slice guarded by a RWMutex.
type HistoryRepository struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	now     func() time.Time
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{now: time.Now}
}

func (r *HistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *HistoryRepository) List(ctx context.Context, kind domain.OperationKind, limit int) ([]domain.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.HistoryEntry, 0, min(len(r.entries), max(limit, 0)))
	for i := len(r.entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if kind != "" && r.entries[i].Kind != kind {
			continue
		}
		out = append(out, r.entries[i])
	}
	return out, nil
}

func (r *HistoryRepository) Summary(ctx context.Context) (*domain.HistorySummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.Summarize(r.entries), nil
}

func (r *HistoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	return nil
}

func (r *HistoryRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	for _, e := range r.entries {
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := int64(len(r.entries) - len(kept))
	r.entries = kept
	return removed, nil
}

func (r *HistoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
