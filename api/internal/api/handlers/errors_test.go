package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/irgordon/helix/api/internal/core/domain"
)

func TestHandleError_StatusMapping(t *testing.T) {
	type probe struct {
		Name string `validate:"required"`
	}
	valErr := validate.Struct(probe{})

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", valErr, http.StatusBadRequest, "name failed required"},
		{"capacity", &domain.CapacityError{Required: 28, Available: 27}, http.StatusUnprocessableEntity, `"required":28`},
		{"wrapped capacity", fmt.Errorf("embed: %w", &domain.CapacityError{Required: 9, Available: 3}), http.StatusUnprocessableEntity, `"available":3`},
		{"key format", fmt.Errorf("crypto: %w", domain.ErrKeyFormat), http.StatusBadRequest, "32 bytes"},
		{"cipher integrity", fmt.Errorf("crypto: %w: bad padding", domain.ErrCipherIntegrity), http.StatusUnprocessableEntity, "wrong key or corrupted"},
		{"character range", fmt.Errorf("dna: %w", domain.ErrCharacterRange), http.StatusUnprocessableEntity, "8-bit"},
		{"invalid utf-8", fmt.Errorf("dna: %w: byte 0xff at offset 2", domain.ErrInvalidUTF8), http.StatusUnprocessableEntity, "offset 2"},
		{"nucleotide", domain.ErrInvalidNucleotide, http.StatusUnprocessableEntity, "nucleotide"},
		{"image", domain.ErrInvalidImage, http.StatusUnprocessableEntity, "invalid image"},
		{"too small", domain.ErrImageTooSmall, http.StatusUnprocessableEntity, "too small"},
		{"marker", domain.ErrMarkerNotFound, http.StatusNotFound, "marker"},
		{"history", domain.ErrHistoryUnavailable, http.StatusServiceUnavailable, "history"},
		{"max bytes", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "10 bytes"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestHandleError_CipherIntegrityHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil),
		fmt.Errorf("crypto: %w: padding byte 0x3f", domain.ErrCipherIntegrity))

	assert.NotContains(t, rec.Body.String(), "0x3f")
}
