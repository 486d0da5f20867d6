package stego

import (
	"fmt"
	"image"
	"image/png"
	"io"

	// Registered decoders for cover and stego uploads.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/irgordon/helix/api/internal/core/domain"
)

// DecodeImage reads PNG, JPEG, GIF, BMP, TIFF or WebP and reports the format.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("stego: %w: %v", domain.ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("stego: %w: empty bounds", domain.ErrInvalidImage)
	}
	return img, format, nil
}

// DecodeRaster is DecodeImage followed by NewRaster.
func DecodeRaster(r io.Reader) (*Raster, string, error) {
	img, format, err := DecodeImage(r)
	if err != nil {
		return nil, "", err
	}
	return NewRaster(img), format, nil
}

// EncodePNG writes the raster losslessly. Stego output must never go through
// a lossy codec or the LSB plane is destroyed.
func EncodePNG(w io.Writer, r *Raster) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, r.Image()); err != nil {
		return fmt.Errorf("stego: png encode: %w", err)
	}
	return nil
}
