package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/core/services"
)

// ==============================================================================
// 1. Request Payloads (Input Validation)
// ==============================================================================

type EncryptRequest struct {
	Text string `json:"text" validate:"max=1048576"`
	domain.CipherOptions
}

type DecryptRequest struct {
	DNA string `json:"dna" validate:"max=8388608"`
	domain.CipherOptions
}

type KeyResponse struct {
	Key string `json:"key"`
}

// ==============================================================================
// 2. The Handler Struct (Dependency Injection)
// ==============================================================================

type DNAHandler struct {
	Service *services.StegoService
}

func NewDNAHandler(service *services.StegoService) *DNAHandler {
	return &DNAHandler{Service: service}
}

// ==============================================================================
// 3. HTTP Methods
// ==============================================================================

// Encrypt handles POST /api/v1/dna/encrypt
func (h *DNAHandler) Encrypt(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	out, err := h.Service.Encrypt(r.Context(), req.Text, req.CipherOptions)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Decrypt handles POST /api/v1/dna/decrypt
func (h *DNAHandler) Decrypt(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	res, err := h.Service.Decrypt(r.Context(), req.DNA, req.CipherOptions)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GenerateKey handles POST /api/v1/keys
func (h *DNAHandler) GenerateKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.Service.GenerateKey()
	if err != nil {
		HandleError(w, r, err)
		return
	}
	// 🛡️ Zero-Trust: Keys must never land in a shared cache
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusCreated, KeyResponse{Key: key})
}
