package dna

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/irgordon/helix/api/internal/core/domain"
)

// ErrCipherRequired is returned when a cipher pass is requested on a
// pipeline that was built without a cipher stage.
var ErrCipherRequired = errors.New("dna: cipher stage requested but not configured")

// Pipeline runs text -> (optional cipher) -> binary -> DNA -> substitution
// and the inverse. It holds no per-call state.
type Pipeline struct {
	cipher domain.CipherService
}

// NewPipeline builds a pipeline. A nil cipher leaves only the plain path.
func NewPipeline(cipher domain.CipherService) *Pipeline {
	return &Pipeline{cipher: cipher}
}

func (p *Pipeline) Encrypt(ctx context.Context, text string, useCipher bool) (*domain.EncryptionResult, error) {
	start := time.Now()

	source := text
	if useCipher {
		if p.cipher == nil {
			return nil, ErrCipherRequired
		}
		blob, err := p.cipher.Encrypt(ctx, []byte(text))
		if err != nil {
			return nil, fmt.Errorf("dna: cipher stage: %w", err)
		}
		source = blob
	}

	binary, err := TextToBinary(source)
	if err != nil {
		return nil, err
	}

	encrypted, err := Substitute(BinaryToDNA(binary))
	if err != nil {
		return nil, err
	}

	return &domain.EncryptionResult{
		EncryptedDNA:   encrypted,
		OriginalLength: utf8.RuneCountInString(text),
		BinaryLength:   len(binary),
		DNALength:      len(encrypted),
		EncryptionTime: time.Since(start).Seconds(),
		UsedCipher:     useCipher,
	}, nil
}

// Decrypt must be called with the same useCipher flag as Encrypt; a mismatch
// yields garbage or a decode error.
func (p *Pipeline) Decrypt(ctx context.Context, seq string, useCipher bool) (*domain.DecryptionResult, error) {
	start := time.Now()

	if useCipher && p.cipher == nil {
		return nil, ErrCipherRequired
	}

	plain, err := Unsubstitute(seq)
	if err != nil {
		return nil, err
	}

	binary, err := DNAToBinary(plain)
	if err != nil {
		return nil, err
	}

	text := BinaryToText(binary)
	if useCipher {
		raw, err := p.cipher.Decrypt(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("dna: cipher stage: %w", err)
		}
		text = string(raw)
	}

	return &domain.DecryptionResult{
		DecryptedText:  text,
		DecryptionTime: time.Since(start).Seconds(),
	}, nil
}
