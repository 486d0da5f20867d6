package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type OperationKind string

const (
	KindEncode OperationKind = "encode"
	KindDecode OperationKind = "decode"
)

// HistoryEntry is one row of the analytics log. Encode rows fill the
// encryption/embedding/quality columns, decode rows the extraction/decryption ones.
type HistoryEntry struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	Kind           OperationKind `json:"kind" db:"kind"`
	MessageLength  int           `json:"message_length" db:"message_length"`
	DNALength      int           `json:"dna_length" db:"dna_length"`
	EncryptionTime float64       `json:"encryption_time" db:"encryption_time"`
	EmbeddingTime  float64       `json:"embedding_time" db:"embedding_time"`
	ExtractionTime float64       `json:"extraction_time" db:"extraction_time"`
	DecryptionTime float64       `json:"decryption_time" db:"decryption_time"`
	TotalTime      float64       `json:"total_time" db:"total_time"`
	PSNR           *float64      `json:"psnr" db:"psnr"`
	SSIM           *float64      `json:"ssim" db:"ssim"`
	UsedCipher     bool          `json:"used_cipher" db:"used_cipher"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}

// HistorySummary holds the per-kind aggregates shown on the analytics page.
type HistorySummary struct {
	EncodeCount        int      `json:"encode_count"`
	DecodeCount        int      `json:"decode_count"`
	AvgEncryptionTime  float64  `json:"avg_encryption_time"`
	AvgEmbeddingTime   float64  `json:"avg_embedding_time"`
	AvgEncodeLength    float64  `json:"avg_encode_message_length"`
	AvgExtractionTime  float64  `json:"avg_extraction_time"`
	AvgDecryptionTime  float64  `json:"avg_decryption_time"`
	AvgDecodeTotalTime float64  `json:"avg_decode_total_time"`
	AvgPSNR            *float64 `json:"avg_psnr"`
	AvgSSIM            *float64 `json:"avg_ssim"`
}

// HistoryRepository is an append-only log owned outside the core.
type HistoryRepository interface {
	Append(ctx context.Context, entry *HistoryEntry) error

	// List returns newest first. An empty kind matches both kinds.
	List(ctx context.Context, kind OperationKind, limit int) ([]HistoryEntry, error)

	Summary(ctx context.Context) (*HistorySummary, error)
	Clear(ctx context.Context) error

	// PruneBefore drops entries created before cutoff and reports how many went.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// Summarize aggregates entries in memory. Quality averages stay nil until at
// least one encode carried a finite value.
func Summarize(entries []HistoryEntry) *HistorySummary {
	s := &HistorySummary{}
	var encTotal, decTotal float64
	var psnrSum, ssimSum float64
	var psnrN, ssimN int

	for _, e := range entries {
		switch e.Kind {
		case KindEncode:
			s.EncodeCount++
			s.AvgEncryptionTime += e.EncryptionTime
			s.AvgEmbeddingTime += e.EmbeddingTime
			encTotal += float64(e.MessageLength)
			if e.PSNR != nil {
				psnrSum += *e.PSNR
				psnrN++
			}
			if e.SSIM != nil {
				ssimSum += *e.SSIM
				ssimN++
			}
		case KindDecode:
			s.DecodeCount++
			s.AvgExtractionTime += e.ExtractionTime
			s.AvgDecryptionTime += e.DecryptionTime
			s.AvgDecodeTotalTime += e.TotalTime
			decTotal++
		}
	}

	if s.EncodeCount > 0 {
		n := float64(s.EncodeCount)
		s.AvgEncryptionTime /= n
		s.AvgEmbeddingTime /= n
		s.AvgEncodeLength = encTotal / n
	}
	if decTotal > 0 {
		s.AvgExtractionTime /= decTotal
		s.AvgDecryptionTime /= decTotal
		s.AvgDecodeTotalTime /= decTotal
	}
	if psnrN > 0 {
		v := psnrSum / float64(psnrN)
		s.AvgPSNR = &v
	}
	if ssimN > 0 {
		v := ssimSum / float64(ssimN)
		s.AvgSSIM = &v
	}
	return s
}
