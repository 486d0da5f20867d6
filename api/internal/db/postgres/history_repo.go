package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/irgordon/helix/api/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS operation_history (
	id              UUID PRIMARY KEY,
	kind            TEXT NOT NULL CHECK (kind IN ('encode', 'decode')),
	message_length  INTEGER NOT NULL DEFAULT 0,
	dna_length      INTEGER NOT NULL DEFAULT 0,
	encryption_time DOUBLE PRECISION NOT NULL DEFAULT 0,
	embedding_time  DOUBLE PRECISION NOT NULL DEFAULT 0,
	extraction_time DOUBLE PRECISION NOT NULL DEFAULT 0,
	decryption_time DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_time      DOUBLE PRECISION NOT NULL DEFAULT 0,
	psnr            DOUBLE PRECISION,
	ssim            DOUBLE PRECISION,
	used_cipher     BOOLEAN NOT NULL DEFAULT false,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS operation_history_created_at_idx ON operation_history (created_at DESC);
`

// HistoryRepository persists the analytics log in PostgreSQL.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// EnsureSchema creates the table and index if they are missing.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Append(ctx context.Context, e *domain.HistoryEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	const query = `
		INSERT INTO operation_history (
			id, kind, message_length, dna_length, encryption_time, embedding_time,
			extraction_time, decryption_time, total_time, psnr, ssim, used_cipher
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		e.ID,
		string(e.Kind),
		e.MessageLength,
		e.DNALength,
		e.EncryptionTime,
		e.EmbeddingTime,
		e.ExtractionTime,
		e.DecryptionTime,
		e.TotalTime,
		e.PSNR,
		e.SSIM,
		e.UsedCipher,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: append history: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context, kind domain.OperationKind, limit int) ([]domain.HistoryEntry, error) {
	// 🛡️ SLA Pagination Limits
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	query := `SELECT id, kind, message_length, dna_length, encryption_time, embedding_time,
		extraction_time, decryption_time, total_time, psnr, ssim, used_cipher, created_at
		FROM operation_history`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, string(kind))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list history: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.HistoryEntry])
	if err != nil {
		return nil, fmt.Errorf("postgres: scan history: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	return entries, nil
}

func (r *HistoryRepository) Summary(ctx context.Context) (*domain.HistorySummary, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE kind = 'encode'),
			COUNT(*) FILTER (WHERE kind = 'decode'),
			COALESCE(AVG(encryption_time) FILTER (WHERE kind = 'encode'), 0),
			COALESCE(AVG(embedding_time) FILTER (WHERE kind = 'encode'), 0),
			COALESCE(AVG(message_length) FILTER (WHERE kind = 'encode'), 0),
			COALESCE(AVG(extraction_time) FILTER (WHERE kind = 'decode'), 0),
			COALESCE(AVG(decryption_time) FILTER (WHERE kind = 'decode'), 0),
			COALESCE(AVG(total_time) FILTER (WHERE kind = 'decode'), 0),
			AVG(psnr) FILTER (WHERE kind = 'encode'),
			AVG(ssim) FILTER (WHERE kind = 'encode')
		FROM operation_history
	`
	var s domain.HistorySummary
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.EncodeCount,
		&s.DecodeCount,
		&s.AvgEncryptionTime,
		&s.AvgEmbeddingTime,
		&s.AvgEncodeLength,
		&s.AvgExtractionTime,
		&s.AvgDecryptionTime,
		&s.AvgDecodeTotalTime,
		&s.AvgPSNR,
		&s.AvgSSIM,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: summarize history: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	return &s, nil
}

func (r *HistoryRepository) Clear(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM operation_history`); err != nil {
		return fmt.Errorf("postgres: clear history: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	return nil
}

func (r *HistoryRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM operation_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: prune history: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

func (r *HistoryRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w: %w", domain.ErrHistoryUnavailable, err)
	}
	return nil
}
