package dna_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irgordon/helix/api/internal/core/dna"
	"github.com/irgordon/helix/api/internal/core/domain"
)

func TestTextToBinary(t *testing.T) {
	bits, err := dna.TextToBinary("HI")
	require.NoError(t, err)
	assert.Equal(t, "0100100001001001", bits)

	bits, err = dna.TextToBinary("ÿ\x00")
	require.NoError(t, err)
	assert.Equal(t, "1111111100000000", bits)

	bits, err = dna.TextToBinary("")
	require.NoError(t, err)
	assert.Empty(t, bits)
}

func TestTextToBinary_RejectsWideCharacters(t *testing.T) {
	_, err := dna.TextToBinary("ok → no")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCharacterRange)
	assert.Contains(t, err.Error(), "U+2192 at offset 3")

	// Offsets count bytes, so the two-byte é shifts the report to 5.
	_, err = dna.TextToBinary("é ok→")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 5")
}

func TestTextToBinary_RejectsInvalidUTF8(t *testing.T) {
	// 1. Setup: 0xff is a raw byte, not the Latin-1 character ÿ
	text := "é\xff"

	// 2. Execution
	_, err := dna.TextToBinary(text)

	// 3. Verification
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidUTF8)
	assert.NotErrorIs(t, err, domain.ErrCharacterRange)
	assert.Contains(t, err.Error(), "byte 0xff at offset 2")

	// A literal U+FFFD is valid UTF-8 and simply out of range.
	_, err = dna.TextToBinary("\uFFFD")
	assert.ErrorIs(t, err, domain.ErrCharacterRange)
}

func TestBinaryToText_DropsIncompleteGroup(t *testing.T) {
	assert.Equal(t, "HI", dna.BinaryToText("0100100001001001"))
	assert.Equal(t, "H", dna.BinaryToText("0100100001001"))
	assert.Equal(t, "", dna.BinaryToText("0101"))
}

func TestBinaryToDNA(t *testing.T) {
	assert.Equal(t, "TACATACT", dna.BinaryToDNA("0100100001001001"))
	assert.Equal(t, "ATCG", dna.BinaryToDNA("00011011"))

	// Odd input gets one '0' appended
	assert.Equal(t, "TC", dna.BinaryToDNA("011"))
}

func TestDNAToBinary(t *testing.T) {
	bits, err := dna.DNAToBinary("ATCG")
	require.NoError(t, err)
	assert.Equal(t, "00011011", bits)

	_, err = dna.DNAToBinary("ATXG")
	assert.ErrorIs(t, err, domain.ErrInvalidNucleotide)
}

func TestCodec_RoundTrip_AllBytes(t *testing.T) {
	var sb strings.Builder
	for r := rune(0); r <= 0xFF; r++ {
		sb.WriteRune(r)
	}
	text := sb.String()

	bits, err := dna.TextToBinary(text)
	require.NoError(t, err)
	require.Len(t, bits, 256*8)

	seq := dna.BinaryToDNA(bits)
	assert.Len(t, seq, len(bits)/2)

	back, err := dna.DNAToBinary(seq)
	require.NoError(t, err)
	assert.Equal(t, text, dna.BinaryToText(back))
}

func TestSubstitute(t *testing.T) {
	out, err := dna.Substitute("TACATACT")
	require.NoError(t, err)
	assert.Equal(t, "ATGTATGA", out)

	_, err = dna.Substitute("ATGU")
	assert.ErrorIs(t, err, domain.ErrInvalidNucleotide)
}

func TestSubstitute_IsInvolution(t *testing.T) {
	for _, seq := range []string{"", "A", "ATCG", "GGGGCCCCAAAATTTT", "TACATACTGCA"} {
		once, err := dna.Substitute(seq)
		require.NoError(t, err)
		twice, err := dna.Unsubstitute(once)
		require.NoError(t, err)
		assert.Equal(t, seq, twice)
	}
}
