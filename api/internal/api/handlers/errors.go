package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/irgordon/helix/api/internal/core/domain"
)

// Use a single instance of Validate, it caches struct info
var validate = validator.New()

type errorResponse struct {
	Message  string `json:"message"`
	Required int    `json:"required,omitempty"`
	Have     int    `json:"available,omitempty"`
}

// HandleError maps domain failures onto HTTP status codes. Anything it does
// not recognise is logged and reported as a bare 500.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		capErr  *domain.CapacityError
		valErrs validator.ValidationErrors
		maxErr  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &valErrs):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: describeValidation(valErrs)})

	case errors.As(err, &maxErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Message: fmt.Sprintf("Upload exceeds %d bytes", maxErr.Limit),
		})

	case errors.As(err, &capErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Message:  capErr.Error(),
			Required: capErr.Required,
			Have:     capErr.Available,
		})

	case errors.Is(err, domain.ErrKeyFormat):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: domain.ErrKeyFormat.Error()})

	// 🛡️ Zero-Trust: Never hint whether the key or the ciphertext was at fault
	case errors.Is(err, domain.ErrCipherIntegrity):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: domain.ErrCipherIntegrity.Error()})

	case errors.Is(err, domain.ErrCharacterRange),
		errors.Is(err, domain.ErrInvalidUTF8),
		errors.Is(err, domain.ErrInvalidNucleotide),
		errors.Is(err, domain.ErrInvalidImage),
		errors.Is(err, domain.ErrImageTooSmall):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: err.Error()})

	case errors.Is(err, domain.ErrMarkerNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: domain.ErrMarkerNotFound.Error()})

	case errors.Is(err, domain.ErrHistoryUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Message: domain.ErrHistoryUnavailable.Error()})

	default:
		slog.Default().ErrorContext(r.Context(), "Unhandled request error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
	}
}

func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "Invalid request: " + strings.Join(parts, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: msg})
}
