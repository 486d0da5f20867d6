// Package stego hides a bitstring in the least-significant bits of an RGB
// raster, terminated by a fixed 12-bit end marker.
package stego

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/irgordon/helix/api/internal/core/dna"
	"github.com/irgordon/helix/api/internal/core/domain"
)

// EndMarker terminates every payload. Changing it breaks every stego image
// already produced.
const EndMarker = "000111000111"

// parallelThreshold is the bit count above which the LSB write is split
// across goroutines. Each chunk owns a disjoint byte range.
const parallelThreshold = 1 << 16

type Option func(*LSB)

// WithStrictMarker makes Extract fail with ErrMarkerNotFound instead of
// decoding the whole image when no marker is present.
func WithStrictMarker(strict bool) Option {
	return func(l *LSB) { l.strict = strict }
}

// WithBitwiseScan accepts a marker match at any bit offset, like the
// legacy scanner. Payloads whose last character ends in 000111 (any
// DNA string ending in 'G') then lose that character, because the marker
// matches six bits early.
func WithBitwiseScan(bitwise bool) Option {
	return func(l *LSB) { l.bitwise = bitwise }
}

// LSB embeds and extracts payloads. It is stateless apart from its policy.
type LSB struct {
	strict  bool
	bitwise bool
}

func New(opts ...Option) *LSB {
	l := &LSB{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Embed returns a new raster carrying payload; cover is left untouched.
func (l *LSB) Embed(ctx context.Context, cover *Raster, payload string) (*Raster, *domain.EmbeddingResult, error) {
	start := time.Now()

	binary, err := dna.TextToBinary(payload)
	if err != nil {
		return nil, nil, err
	}
	bits := binary + EndMarker

	if len(bits) > len(cover.Pix) {
		return nil, nil, &domain.CapacityError{Required: len(bits), Available: len(cover.Pix)}
	}

	stego := cover.Clone()
	if err := writeBits(ctx, stego.Pix, bits); err != nil {
		return nil, nil, err
	}

	return stego, &domain.EmbeddingResult{
		PayloadSize:   len([]rune(payload)),
		BinarySize:    len(binary),
		EmbeddingTime: time.Since(start).Seconds(),
		ImageSize:     cover.Dimensions(),
	}, nil
}

func writeBits(ctx context.Context, pix []uint8, bits string) error {
	if len(bits) < parallelThreshold {
		setLSBs(pix, bits, 0, len(bits))
		return nil
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(bits) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(bits); lo += chunk {
		lo, hi := lo, min(lo+chunk, len(bits))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			setLSBs(pix, bits, lo, hi)
			return nil
		})
	}
	return g.Wait()
}

func setLSBs(pix []uint8, bits string, lo, hi int) {
	for i := lo; i < hi; i++ {
		pix[i] = (pix[i] & 0xFE) | (bits[i] - '0')
	}
}

// Extract scans LSBs in embed order and stops at the first end marker. By
// default a match only counts when the bits before it form whole bytes,
// which is the only place Embed can put it. The scan is sequential because
// the stop point depends on every earlier bit.
func (l *LSB) Extract(ctx context.Context, img *Raster) (*domain.ExtractionResult, error) {
	start := time.Now()

	const markerLen = len(EndMarker)
	var marker uint16
	for i := 0; i < markerLen; i++ {
		marker = marker<<1 | uint16(EndMarker[i]-'0')
	}
	const window = 1<<markerLen - 1

	bits := make([]byte, 0, min(len(img.Pix), 1<<16))
	var recent uint16
	found := false

	for _, b := range img.Pix {
		bit := b & 1
		bits = append(bits, '0'+bit)
		recent = (recent<<1 | uint16(bit)) & window

		if len(bits) >= markerLen && recent == marker &&
			(l.bitwise || (len(bits)-markerLen)%8 == 0) {
			bits = bits[:len(bits)-markerLen]
			found = true
			break
		}
	}

	if !found && l.strict {
		return nil, fmt.Errorf("stego: %w after %d bytes", domain.ErrMarkerNotFound, len(img.Pix))
	}

	return &domain.ExtractionResult{
		ExtractedText:  dna.BinaryToText(string(bits)),
		ExtractionTime: time.Since(start).Seconds(),
		BinaryLength:   len(bits),
		MarkerFound:    found,
	}, nil
}
