package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCharacterRange is returned when text holds a code point above 255.
	ErrCharacterRange = errors.New("character outside the 8-bit range")

	// ErrInvalidUTF8 is returned when text is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("text is not valid UTF-8")

	// ErrInvalidNucleotide is returned for any symbol outside {A,T,C,G}.
	ErrInvalidNucleotide = errors.New("invalid nucleotide")

	ErrKeyFormat       = errors.New("invalid key length/format: expected Base64 of exactly 32 bytes")
	ErrCipherIntegrity = errors.New("decryption failed: wrong key or corrupted ciphertext")

	// ErrCapacity is matched by every *CapacityError.
	ErrCapacity = errors.New("payload exceeds image capacity")

	ErrMarkerNotFound     = errors.New("end marker not found in image")
	ErrInvalidImage       = errors.New("invalid image")
	ErrImageTooSmall      = errors.New("image too small for windowed comparison")
	ErrHistoryUnavailable = errors.New("operation history unavailable")
)

// CapacityError reports how many carrier bytes an embed needed versus had.
type CapacityError struct {
	Required  int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("image too small: need %d bytes, have %d", e.Required, e.Available)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}
