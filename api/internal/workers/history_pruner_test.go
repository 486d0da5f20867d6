package workers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/db/memory"
)

func TestHistoryPruner_DropsExpiredEntries(t *testing.T) {
	// 1. Setup
	ctx := context.Background()
	repo := memory.NewHistoryRepository()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, age := range []time.Duration{48 * time.Hour, 25 * time.Hour, time.Hour} {
		require.NoError(t, repo.Append(ctx, &domain.HistoryEntry{
			Kind:      domain.KindEncode,
			CreatedAt: now.Add(-age),
		}))
	}

	p := NewHistoryPruner(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Minute, 24*time.Hour)
	p.now = func() time.Time { return now }

	// 2. Execution
	removed := p.Prune(ctx)

	// 3. Verification
	assert.Equal(t, int64(2), removed)
	left, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, now.Add(-time.Hour), left[0].CreatedAt)
}

func TestHistoryPruner_StopsOnCancel(t *testing.T) {
	repo := memory.NewHistoryRepository()
	p := NewHistoryPruner(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Pruner did not stop after cancel")
	}
}
