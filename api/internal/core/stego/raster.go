package stego

import (
	"image"
	"image/draw"

	"github.com/irgordon/helix/api/internal/core/domain"
)

// Channels is fixed: every carrier is flattened as 8-bit RGB.
const Channels = 3

// Raster is an 8-bit RGB pixel grid flattened row-major with interleaved
// channels, i.e. Pix[(y*Width+x)*3+c].
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRaster converts any image to RGB. Alpha is dropped, not composited.
func NewRaster(img image.Image) *Raster {
	bounds := img.Bounds()

	// Non-premultiplied destination keeps colour values intact for
	// translucent sources.
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}

	r := &Raster{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pix:    make([]uint8, bounds.Dx()*bounds.Dy()*Channels),
	}

	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			src := nrgba.PixOffset(x, y)
			dst := (y*r.Width + x) * Channels
			r.Pix[dst+0] = nrgba.Pix[src+0]
			r.Pix[dst+1] = nrgba.Pix[src+1]
			r.Pix[dst+2] = nrgba.Pix[src+2]
		}
	}
	return r
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Pix: pix}
}

// Image returns an opaque NRGBA view suitable for lossless encoding.
func (r *Raster) Image() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i, j := 0, 0; i < len(r.Pix); i, j = i+Channels, j+4 {
		out.Pix[j+0] = r.Pix[i+0]
		out.Pix[j+1] = r.Pix[i+1]
		out.Pix[j+2] = r.Pix[i+2]
		out.Pix[j+3] = 0xFF
	}
	return out
}

// Dimensions reports the raster shape.
func (r *Raster) Dimensions() domain.ImageDimensions {
	return domain.ImageDimensions{Width: r.Width, Height: r.Height, Channels: Channels}
}

// Capacity is the longest payload, in characters, the raster can carry
// alongside the end marker.
func Capacity(r *Raster) int {
	free := len(r.Pix) - len(EndMarker)
	if free < 0 {
		return 0
	}
	return free / 8
}
