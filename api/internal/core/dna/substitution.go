package dna

import (
	"fmt"

	"github.com/irgordon/helix/api/internal/core/domain"
)

var complement = map[byte]byte{
	'A': 'T',
	'T': 'A',
	'C': 'G',
	'G': 'C',
}

// Substitute applies A<->T, C<->G. The table is its own inverse, so the same
// call undoes it.
func Substitute(seq string) (string, error) {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		b, ok := complement[seq[i]]
		if !ok {
			return "", fmt.Errorf("dna: %w: %q at position %d", domain.ErrInvalidNucleotide, seq[i], i)
		}
		out[i] = b
	}
	return string(out), nil
}

// Unsubstitute exists for readability at call sites; it is Substitute.
func Unsubstitute(seq string) (string, error) {
	return Substitute(seq)
}
