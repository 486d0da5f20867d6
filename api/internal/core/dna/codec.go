// Package dna implements the reversible text -> binary -> nucleotide encoding
// and the fixed A<->T, C<->G substitution layered on top of it.
package dna

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/irgordon/helix/api/internal/core/domain"
)

// Fixed 2-bit alphabet: 00->A, 01->T, 10->C, 11->G.
var (
	bitsToBase = [4]byte{'A', 'T', 'C', 'G'}
	baseToBits = map[byte]string{
		'A': "00",
		'T': "01",
		'C': "10",
		'G': "11",
	}
)

// TextToBinary emits 8 bits per character, most significant bit first.
// Characters above U+00FF have no 8-bit form and fail with ErrCharacterRange;
// bytes that are not valid UTF-8 fail with ErrInvalidUTF8. Positions in both
// errors are byte offsets into text.
func TextToBinary(text string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(text) * 8)

	for pos, r := range text {
		if r == utf8.RuneError {
			if _, width := utf8.DecodeRuneInString(text[pos:]); width == 1 {
				return "", fmt.Errorf("dna: %w: byte 0x%02x at offset %d", domain.ErrInvalidUTF8, text[pos], pos)
			}
		}
		if r < 0 || r > 0xFF {
			return "", fmt.Errorf("dna: %w: %U at offset %d", domain.ErrCharacterRange, r, pos)
		}
		for i := 7; i >= 0; i-- {
			if (r>>i)&1 == 1 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String(), nil
}

// BinaryToText reads 8-bit groups left to right. A trailing group shorter
// than 8 bits is dropped. Any symbol other than '0' counts as a set bit.
func BinaryToText(bits string) string {
	var sb strings.Builder
	sb.Grow(len(bits) / 8)

	for i := 0; i+8 <= len(bits); i += 8 {
		var v rune
		for j := 0; j < 8; j++ {
			v <<= 1
			if bits[i+j] != '0' {
				v |= 1
			}
		}
		sb.WriteRune(v)
	}
	return sb.String()
}

// BinaryToDNA maps each 2-bit group to a nucleotide. An odd-length input gets
// a single '0' appended first, so the trailing pad is not recoverable.
func BinaryToDNA(bits string) string {
	if len(bits)%2 != 0 {
		bits += "0"
	}

	out := make([]byte, 0, len(bits)/2)
	for i := 0; i < len(bits); i += 2 {
		var idx byte
		if bits[i] != '0' {
			idx |= 2
		}
		if bits[i+1] != '0' {
			idx |= 1
		}
		out = append(out, bitsToBase[idx])
	}
	return string(out)
}

// DNAToBinary expands every nucleotide back to its 2-bit group.
func DNAToBinary(seq string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(seq) * 2)

	for i := 0; i < len(seq); i++ {
		group, ok := baseToBits[seq[i]]
		if !ok {
			return "", fmt.Errorf("dna: %w: %q at position %d", domain.ErrInvalidNucleotide, seq[i], i)
		}
		sb.WriteString(group)
	}
	return sb.String(), nil
}
