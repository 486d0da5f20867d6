package handlers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/core/metrics"
	"github.com/irgordon/helix/api/internal/core/services"
	"github.com/irgordon/helix/api/internal/core/stego"
)

// multipartMemory is how much of a form is buffered in RAM before spilling to
// temp files. The request body itself is capped by the MaxBytes middleware.
const multipartMemory = 8 << 20

// ==============================================================================
// 1. Form Payloads (Input Validation)
// ==============================================================================

type EmbedForm struct {
	Payload string `validate:"required,max=1048576"`
}

type EncodeForm struct {
	Message string `validate:"required,max=1048576"`
	domain.CipherOptions
}

type EncodeResponse struct {
	*services.EncodeOutcome
	ImagePNG string `json:"image_png"`
}

type QualityResponse struct {
	Quality    *metrics.Report `json:"quality"`
	HeatmapPNG string          `json:"heatmap_png,omitempty"`
}

// ==============================================================================
// 2. The Handler Struct (Dependency Injection)
// ==============================================================================

type StegoHandler struct {
	Service *services.StegoService
}

func NewStegoHandler(service *services.StegoService) *StegoHandler {
	return &StegoHandler{Service: service}
}

// ==============================================================================
// 3. HTTP Methods
// ==============================================================================

// Embed handles POST /api/v1/stego/embed and streams back the stego PNG.
func (h *StegoHandler) Embed(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	cover, ok := formRaster(w, r, "image")
	if !ok {
		return
	}

	form := EmbedForm{Payload: r.FormValue("payload")}
	if err := validate.Struct(form); err != nil {
		HandleError(w, r, err)
		return
	}

	out, res, err := h.Service.Embed(r.Context(), cover, form.Payload)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := stego.EncodePNG(&buf, out); err != nil {
		HandleError(w, r, err)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "image/png")
	hdr.Set("Content-Disposition", `attachment; filename="stego.png"`)
	hdr.Set("X-Helix-Payload-Size", strconv.Itoa(res.PayloadSize))
	hdr.Set("X-Helix-Binary-Size", strconv.Itoa(res.BinarySize))
	hdr.Set("X-Helix-Embedding-Time", strconv.FormatFloat(res.EmbeddingTime, 'f', -1, 64))
	hdr.Set("X-Helix-Image-Size", fmt.Sprintf("%dx%dx%d", res.ImageSize.Width, res.ImageSize.Height, res.ImageSize.Channels))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Extract handles POST /api/v1/stego/extract
func (h *StegoHandler) Extract(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	img, ok := formRaster(w, r, "image")
	if !ok {
		return
	}

	res, err := h.Service.Extract(r.Context(), img)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// EncodeMessage handles POST /api/v1/messages/encode
func (h *StegoHandler) EncodeMessage(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	cover, ok := formRaster(w, r, "image")
	if !ok {
		return
	}
	opts, ok := formCipherOptions(w, r)
	if !ok {
		return
	}

	form := EncodeForm{Message: r.FormValue("message"), CipherOptions: opts}
	if err := validate.Struct(form); err != nil {
		HandleError(w, r, err)
		return
	}

	out, err := h.Service.EncodeMessage(r.Context(), cover, form.Message, form.CipherOptions)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := stego.EncodePNG(&buf, out.Stego); err != nil {
		HandleError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, EncodeResponse{
		EncodeOutcome: out,
		ImagePNG:      base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

// DecodeMessage handles POST /api/v1/messages/decode
func (h *StegoHandler) DecodeMessage(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	img, ok := formRaster(w, r, "image")
	if !ok {
		return
	}
	opts, ok := formCipherOptions(w, r)
	if !ok {
		return
	}
	if err := validate.Struct(opts); err != nil {
		HandleError(w, r, err)
		return
	}

	out, err := h.Service.DecodeMessage(r.Context(), img, opts)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, out)
}

// Quality handles POST /api/v1/metrics/quality. Pass heatmap=true to get the
// difference map back as a base64 PNG.
func (h *StegoHandler) Quality(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	original, ok := formRaster(w, r, "original")
	if !ok {
		return
	}
	stegoImg, ok := formRaster(w, r, "stego")
	if !ok {
		return
	}

	report, err := metrics.Compare(original, stegoImg)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	resp := QualityResponse{Quality: report}
	if want, _ := strconv.ParseBool(r.FormValue("heatmap")); want {
		if report.Resized {
			stegoImg = metrics.Resize(stegoImg, original.Width, original.Height)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, metrics.Heatmap(original, stegoImg)); err != nil {
			HandleError(w, r, err)
			return
		}
		resp.HeatmapPNG = base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	writeJSON(w, http.StatusOK, resp)
}

// Info handles POST /api/v1/images/info
func (h *StegoHandler) Info(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	img, format, ok := formImage(w, r, "image")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, metrics.Info(img, format))
}

// ==============================================================================
// 4. Multipart Helpers
// ==============================================================================

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			HandleError(w, r, err)
			return false
		}
		badRequest(w, "Expected a multipart/form-data body")
		return false
	}
	return true
}

func formImage(w http.ResponseWriter, r *http.Request, field string) (image.Image, string, bool) {
	file, _, err := r.FormFile(field)
	if err != nil {
		badRequest(w, fmt.Sprintf("Missing %q image upload", field))
		return nil, "", false
	}
	defer file.Close()

	img, format, err := stego.DecodeImage(file)
	if err != nil {
		HandleError(w, r, err)
		return nil, "", false
	}
	return img, format, true
}

func formRaster(w http.ResponseWriter, r *http.Request, field string) (*stego.Raster, bool) {
	img, _, ok := formImage(w, r, field)
	if !ok {
		return nil, false
	}
	return stego.NewRaster(img), true
}

func formCipherOptions(w http.ResponseWriter, r *http.Request) (domain.CipherOptions, bool) {
	opts := domain.CipherOptions{
		KeyBase64:  r.FormValue("key"),
		Passphrase: r.FormValue("passphrase"),
	}
	if raw := r.FormValue("use_aes"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, "use_aes must be a boolean")
			return opts, false
		}
		opts.UseAES = v
	}
	return opts, true
}
