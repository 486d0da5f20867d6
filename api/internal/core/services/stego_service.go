package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/irgordon/helix/api/internal/core/dna"
	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/core/metrics"
	"github.com/irgordon/helix/api/internal/core/stego"
)

// CipherFactory turns per-call options into a cipher stage (nil when AES is off).
type CipherFactory func(opts domain.CipherOptions) (domain.CipherService, error)

// Broadcaster receives every history entry after it is stored.
type Broadcaster interface {
	Broadcast(entry domain.HistoryEntry)
}

// EncryptOutcome carries the effective key so callers can hand it out of band.
type EncryptOutcome struct {
	*domain.EncryptionResult
	KeyBase64 string `json:"key,omitempty"`
}

type EncodeOutcome struct {
	Stego      *stego.Raster            `json:"-"`
	Encryption *domain.EncryptionResult `json:"encryption"`
	Embedding  *domain.EmbeddingResult  `json:"embedding"`
	Quality    *metrics.Report          `json:"quality,omitempty"`
	KeyBase64  string                   `json:"key,omitempty"`
	HistoryID  uuid.UUID                `json:"history_id"`
}

type DecodeOutcome struct {
	Extraction *domain.ExtractionResult `json:"extraction"`
	Decryption *domain.DecryptionResult `json:"decryption"`
	TotalTime  float64                  `json:"total_time"`
	HistoryID  uuid.UUID                `json:"history_id"`
}

// StegoService wires the stateless core to the externally owned history log.
type StegoService struct {
	encryptCipher CipherFactory
	decryptCipher CipherFactory
	lsb           *stego.LSB
	history       domain.HistoryRepository
	hub           Broadcaster
	logger        *slog.Logger
}

func NewStegoService(
	encryptCipher CipherFactory,
	decryptCipher CipherFactory,
	lsb *stego.LSB,
	history domain.HistoryRepository,
	hub Broadcaster,
	logger *slog.Logger,
) *StegoService {
	return &StegoService{
		encryptCipher: encryptCipher,
		decryptCipher: decryptCipher,
		lsb:           lsb,
		history:       history,
		hub:           hub,
		logger:        logger,
	}
}

// ==============================================================================
// 1. The four core operations
// ==============================================================================

func (s *StegoService) Encrypt(ctx context.Context, text string, opts domain.CipherOptions) (*EncryptOutcome, error) {
	cipher, err := s.encryptCipher(opts)
	if err != nil {
		return nil, err
	}

	res, err := dna.NewPipeline(cipher).Encrypt(ctx, text, opts.UseAES)
	if err != nil {
		return nil, err
	}

	out := &EncryptOutcome{EncryptionResult: res}
	if cipher != nil {
		out.KeyBase64 = cipher.KeyBase64()
	}
	return out, nil
}

// GenerateKey returns a fresh random AES-256 key as standard Base64.
func (s *StegoService) GenerateKey() (string, error) {
	cipher, err := s.encryptCipher(domain.CipherOptions{UseAES: true})
	if err != nil {
		return "", err
	}
	return cipher.KeyBase64(), nil
}

func (s *StegoService) Decrypt(ctx context.Context, seq string, opts domain.CipherOptions) (*domain.DecryptionResult, error) {
	cipher, err := s.decryptCipher(opts)
	if err != nil {
		return nil, err
	}
	return dna.NewPipeline(cipher).Decrypt(ctx, seq, opts.UseAES)
}

func (s *StegoService) Embed(ctx context.Context, cover *stego.Raster, payload string) (*stego.Raster, *domain.EmbeddingResult, error) {
	return s.lsb.Embed(ctx, cover, payload)
}

func (s *StegoService) Extract(ctx context.Context, img *stego.Raster) (*domain.ExtractionResult, error) {
	res, err := s.lsb.Extract(ctx, img)
	if err != nil {
		return nil, err
	}
	if !res.MarkerFound {
		s.logger.Warn("End marker not found; decoded the whole image", slog.Int("bits", res.BinaryLength))
	}
	return res, nil
}

// ==============================================================================
// 2. Composite flows (encrypt -> embed, extract -> decrypt)
// ==============================================================================

func (s *StegoService) EncodeMessage(ctx context.Context, cover *stego.Raster, message string, opts domain.CipherOptions) (*EncodeOutcome, error) {
	enc, err := s.Encrypt(ctx, message, opts)
	if err != nil {
		return nil, err
	}

	stegoImg, emb, err := s.lsb.Embed(ctx, cover, enc.EncryptedDNA)
	if err != nil {
		return nil, err
	}

	out := &EncodeOutcome{
		Stego:      stegoImg,
		Encryption: enc.EncryptionResult,
		Embedding:  emb,
		KeyBase64:  enc.KeyBase64,
	}

	entry := domain.HistoryEntry{
		Kind:           domain.KindEncode,
		MessageLength:  enc.OriginalLength,
		DNALength:      enc.DNALength,
		EncryptionTime: enc.EncryptionTime,
		EmbeddingTime:  emb.EmbeddingTime,
		TotalTime:      enc.EncryptionTime + emb.EmbeddingTime,
		UsedCipher:     enc.UsedCipher,
	}

	// Quality is advisory; a cover too small for SSIM still encodes.
	report, err := metrics.Compare(cover, stegoImg)
	switch {
	case err == nil:
		out.Quality = report
		ssim := report.SSIM
		entry.SSIM = &ssim
		if psnr := report.PSNR; !math.IsInf(psnr, 0) {
			entry.PSNR = &psnr
		}
	case errors.Is(err, domain.ErrImageTooSmall):
		s.logger.Warn("Skipping quality metrics", slog.String("error", err.Error()))
	default:
		return nil, err
	}

	out.HistoryID = s.record(ctx, &entry)

	s.logger.Info("Message encoded",
		slog.Int("message_length", enc.OriginalLength),
		slog.Int("dna_length", enc.DNALength),
		slog.Bool("aes", enc.UsedCipher),
		slog.Float64("total_time", entry.TotalTime),
	)
	return out, nil
}

func (s *StegoService) DecodeMessage(ctx context.Context, img *stego.Raster, opts domain.CipherOptions) (*DecodeOutcome, error) {
	ext, err := s.Extract(ctx, img)
	if err != nil {
		return nil, err
	}

	dec, err := s.Decrypt(ctx, ext.ExtractedText, opts)
	if err != nil {
		return nil, err
	}

	total := ext.ExtractionTime + dec.DecryptionTime
	entry := domain.HistoryEntry{
		Kind:           domain.KindDecode,
		MessageLength:  len([]rune(dec.DecryptedText)),
		DNALength:      len(ext.ExtractedText),
		ExtractionTime: ext.ExtractionTime,
		DecryptionTime: dec.DecryptionTime,
		TotalTime:      total,
		UsedCipher:     opts.UseAES,
	}

	out := &DecodeOutcome{
		Extraction: ext,
		Decryption: dec,
		TotalTime:  total,
		HistoryID:  s.record(ctx, &entry),
	}

	s.logger.Info("Message decoded",
		slog.Int("message_length", entry.MessageLength),
		slog.Bool("aes", opts.UseAES),
		slog.Float64("total_time", total),
	)
	return out, nil
}

// record appends to the history and broadcasts. A storage failure never
// fails the operation that produced the entry.
func (s *StegoService) record(ctx context.Context, entry *domain.HistoryEntry) uuid.UUID {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()

	if err := s.history.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append history", slog.String("id", entry.ID.String()), slog.String("error", err.Error()))
		return entry.ID
	}
	if s.hub != nil {
		s.hub.Broadcast(*entry)
	}
	return entry.ID
}

// ==============================================================================
// 3. Analytics
// ==============================================================================

func (s *StegoService) History(ctx context.Context, kind domain.OperationKind, limit int) ([]domain.HistoryEntry, error) {
	return s.history.List(ctx, kind, limit)
}

func (s *StegoService) Summary(ctx context.Context) (*domain.HistorySummary, error) {
	return s.history.Summary(ctx)
}

func (s *StegoService) ClearHistory(ctx context.Context) error {
	if err := s.history.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("History cleared")
	return nil
}
