package services_test

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/core/services"
	"github.com/irgordon/helix/api/internal/core/stego"
	"github.com/irgordon/helix/api/internal/db/memory"
	"github.com/irgordon/helix/api/internal/infrastructure/crypto"
	"github.com/irgordon/helix/api/internal/telemetry"
)

func newTestService(repo domain.HistoryRepository, hub services.Broadcaster) *services.StegoService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return services.NewStegoService(crypto.NewCipher, crypto.NewDecryptCipher, stego.New(), repo, hub, logger)
}

func noiseCover(w, h int) *stego.Raster {
	r := rand.New(rand.NewSource(7))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	r.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return stego.NewRaster(img)
}

// failingRepo rejects every write so we can prove history is best-effort.
type failingRepo struct{ *memory.HistoryRepository }

func (failingRepo) Append(context.Context, *domain.HistoryEntry) error {
	return errors.New("disk full")
}

func TestStegoService_EncodeDecodePlain(t *testing.T) {
	// 1. Setup
	ctx := context.Background()
	repo := memory.NewHistoryRepository()
	hub := telemetry.NewHub()
	svc := newTestService(repo, hub)
	events := hub.Subscribe("")

	// 2. Execution
	enc, err := svc.EncodeMessage(ctx, noiseCover(32, 32), "Hello, Helix", domain.CipherOptions{})
	require.NoError(t, err)

	// 3. Verification
	assert.Empty(t, enc.KeyBase64)
	assert.False(t, enc.Encryption.UsedCipher)
	assert.Equal(t, 12, enc.Encryption.OriginalLength)
	require.NotNil(t, enc.Quality)
	assert.Greater(t, enc.Quality.PSNR, 50.0)
	assert.Greater(t, enc.Quality.SSIM, 0.99)

	dec, err := svc.DecodeMessage(ctx, enc.Stego, domain.CipherOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Helix", dec.Decryption.DecryptedText)
	assert.True(t, dec.Extraction.MarkerFound)

	// 4. History and telemetry
	entries, err := svc.History(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.KindDecode, entries[0].Kind)
	assert.Equal(t, dec.HistoryID, entries[0].ID)
	assert.Equal(t, enc.HistoryID, entries[1].ID)
	require.NotNil(t, entries[1].PSNR)
	require.NotNil(t, entries[1].SSIM)

	for _, want := range []domain.OperationKind{domain.KindEncode, domain.KindDecode} {
		select {
		case got := <-events:
			assert.Equal(t, want, got.Kind)
		case <-time.After(time.Second):
			t.Fatalf("no %s event", want)
		}
	}
}

func TestStegoService_EncodeDecodeAES(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewHistoryRepository(), nil)

	enc, err := svc.EncodeMessage(ctx, noiseCover(48, 48), "top secret", domain.CipherOptions{UseAES: true})
	require.NoError(t, err)
	require.NotEmpty(t, enc.KeyBase64, "A generated key must be handed back")
	assert.True(t, enc.Encryption.UsedCipher)

	dec, err := svc.DecodeMessage(ctx, enc.Stego, domain.CipherOptions{UseAES: true, KeyBase64: enc.KeyBase64})
	require.NoError(t, err)
	assert.Equal(t, "top secret", dec.Decryption.DecryptedText)
}

func TestStegoService_PassphraseRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewHistoryRepository(), nil)
	opts := domain.CipherOptions{UseAES: true, Passphrase: "correct horse"}

	enc, err := svc.Encrypt(ctx, "pass me", opts)
	require.NoError(t, err)

	dec, err := svc.Decrypt(ctx, enc.EncryptedDNA, opts)
	require.NoError(t, err)
	assert.Equal(t, "pass me", dec.DecryptedText)
}

func TestStegoService_DecryptWithoutKey(t *testing.T) {
	svc := newTestService(memory.NewHistoryRepository(), nil)

	_, err := svc.Decrypt(context.Background(), "ATGC", domain.CipherOptions{UseAES: true})
	assert.ErrorIs(t, err, domain.ErrKeyFormat)
}

func TestStegoService_CapacityErrorSkipsHistory(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewHistoryRepository()
	svc := newTestService(repo, nil)

	_, err := svc.EncodeMessage(ctx, noiseCover(4, 4), "this will never fit in sixteen pixels", domain.CipherOptions{})
	require.ErrorIs(t, err, domain.ErrCapacity)

	entries, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStegoService_TinyCoverSkipsQuality(t *testing.T) {
	// 6x6 carries 108 bits: enough for "A" (4 nucleotides, 32 bits) but too
	// small for a 7x7 SSIM window.
	ctx := context.Background()
	svc := newTestService(memory.NewHistoryRepository(), nil)

	enc, err := svc.EncodeMessage(ctx, noiseCover(6, 6), "A", domain.CipherOptions{})
	require.NoError(t, err)
	assert.Nil(t, enc.Quality)

	entries, err := svc.History(ctx, domain.KindEncode, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].PSNR)
}

func TestStegoService_HistoryFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	hub := telemetry.NewHub()
	svc := newTestService(failingRepo{memory.NewHistoryRepository()}, hub)
	events := hub.Subscribe("")

	enc, err := svc.EncodeMessage(ctx, noiseCover(16, 16), "ok", domain.CipherOptions{})
	require.NoError(t, err)
	assert.NotNil(t, enc.Stego)

	select {
	case <-events:
		t.Fatal("Nothing should be broadcast for an unstored entry")
	default:
	}
}

func TestStegoService_SummaryAndClear(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewHistoryRepository(), nil)

	_, err := svc.EncodeMessage(ctx, noiseCover(16, 16), "one", domain.CipherOptions{})
	require.NoError(t, err)
	_, err = svc.EncodeMessage(ctx, noiseCover(16, 16), "three", domain.CipherOptions{})
	require.NoError(t, err)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.EncodeCount)
	assert.InDelta(t, 4.0, sum.AvgEncodeLength, 1e-9)
	require.NotNil(t, sum.AvgSSIM)

	require.NoError(t, svc.ClearHistory(ctx))
	sum, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.EncodeCount)
}
