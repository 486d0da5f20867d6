// Package metrics compares a cover raster with its stego counterpart. Nothing
// in the embed/extract path depends on these numbers.
package metrics

import (
	"encoding/json"
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/core/stego"
)

const (
	dataRange = 255.0
	winSize   = 7
	k1        = 0.01
	k2        = 0.03
)

// DiffStats summarises per-sample differences.
type DiffStats struct {
	ChangedBytes  int     `json:"changed_bytes"`
	ChangedPixels int     `json:"changed_pixels"`
	MaxAbsDiff    int     `json:"max_abs_diff"`
	MeanAbsDiff   float64 `json:"mean_abs_diff"`
}

// Report bundles every comparison. PSNR is +Inf for identical inputs.
type Report struct {
	PSNR    float64   `json:"-"`
	SSIM    float64   `json:"ssim"`
	Diff    DiffStats `json:"diff"`
	Resized bool      `json:"resized"`
}

// MarshalJSON renders an infinite PSNR as null.
func (r Report) MarshalJSON() ([]byte, error) {
	type alias Report
	var psnr *float64
	if !math.IsInf(r.PSNR, 0) && !math.IsNaN(r.PSNR) {
		psnr = &r.PSNR
	}
	return json.Marshal(struct {
		alias
		PSNR *float64 `json:"psnr"`
	}{alias(r), psnr})
}

// Compare resizes b to a's dimensions when they differ, then computes PSNR,
// SSIM and diff statistics.
func Compare(a, b *stego.Raster) (*Report, error) {
	resized := false
	if a.Width != b.Width || a.Height != b.Height {
		b = Resize(b, a.Width, a.Height)
		resized = true
	}

	ssim, err := SSIM(a, b)
	if err != nil {
		return nil, err
	}

	return &Report{
		PSNR:    PSNR(a, b),
		SSIM:    ssim,
		Diff:    Diff(a, b),
		Resized: resized,
	}, nil
}

// PSNR over every RGB sample. Inputs must share dimensions.
func PSNR(a, b *stego.Raster) float64 {
	var sum float64
	for i := range a.Pix {
		d := float64(a.Pix[i]) - float64(b.Pix[i])
		sum += d * d
	}
	if sum == 0 {
		return math.Inf(1)
	}
	mse := sum / float64(len(a.Pix))
	return 10 * math.Log10(dataRange*dataRange/mse)
}

// SSIM on luma with 7x7 uniform windows and sample covariance. The mean is
// taken over window centres at least 3 pixels from every edge.
func SSIM(a, b *stego.Raster) (float64, error) {
	if a.Width < winSize || a.Height < winSize {
		return 0, fmt.Errorf("metrics: %w: %dx%d", domain.ErrImageTooSmall, a.Width, a.Height)
	}

	w, h := a.Width, a.Height
	x := luma(a)
	y := luma(b)

	// Summed-area tables with a zero row and column in front.
	stride := w + 1
	sx := make([]float64, stride*(h+1))
	sy := make([]float64, len(sx))
	sxx := make([]float64, len(sx))
	syy := make([]float64, len(sx))
	sxy := make([]float64, len(sx))

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			p := x[j*w+i]
			q := y[j*w+i]
			at := (j+1)*stride + i + 1
			up := j*stride + i + 1
			left := (j+1)*stride + i
			diag := j*stride + i
			sx[at] = p + sx[up] + sx[left] - sx[diag]
			sy[at] = q + sy[up] + sy[left] - sy[diag]
			sxx[at] = p*p + sxx[up] + sxx[left] - sxx[diag]
			syy[at] = q*q + syy[up] + syy[left] - syy[diag]
			sxy[at] = p*q + sxy[up] + sxy[left] - sxy[diag]
		}
	}

	box := func(t []float64, x0, y0 int) float64 {
		x1, y1 := x0+winSize, y0+winSize
		return t[y1*stride+x1] - t[y0*stride+x1] - t[y1*stride+x0] + t[y0*stride+x0]
	}

	const n = winSize * winSize
	const covNorm = float64(n) / float64(n-1)
	c1 := (k1 * dataRange) * (k1 * dataRange)
	c2 := (k2 * dataRange) * (k2 * dataRange)

	var total float64
	count := 0
	for y0 := 0; y0+winSize <= h; y0++ {
		for x0 := 0; x0+winSize <= w; x0++ {
			ux := box(sx, x0, y0) / n
			uy := box(sy, x0, y0) / n
			uxx := box(sxx, x0, y0) / n
			uyy := box(syy, x0, y0) / n
			uxy := box(sxy, x0, y0) / n

			vx := covNorm * (uxx - ux*ux)
			vy := covNorm * (uyy - uy*uy)
			vxy := covNorm * (uxy - ux*uy)

			num := (2*ux*uy + c1) * (2*vxy + c2)
			den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
			total += num / den
			count++
		}
	}
	return total / float64(count), nil
}

// Diff counts changed samples and pixels. Inputs must share dimensions.
func Diff(a, b *stego.Raster) DiffStats {
	var s DiffStats
	var sum int
	for px := 0; px < len(a.Pix); px += stego.Channels {
		changed := false
		for c := 0; c < stego.Channels; c++ {
			d := absDiff(a.Pix[px+c], b.Pix[px+c])
			if d == 0 {
				continue
			}
			changed = true
			s.ChangedBytes++
			sum += d
			s.MaxAbsDiff = max(s.MaxAbsDiff, d)
		}
		if changed {
			s.ChangedPixels++
		}
	}
	if len(a.Pix) > 0 {
		s.MeanAbsDiff = float64(sum) / float64(len(a.Pix))
	}
	return s
}

// Heatmap paints |a-b| summed over channels, amplified so that a single LSB
// flip per pixel is visible.
func Heatmap(a, b *stego.Raster) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, a.Width, a.Height))
	for i, px := 0, 0; px < len(a.Pix); i, px = i+1, px+stego.Channels {
		d := 0
		for c := 0; c < stego.Channels; c++ {
			d += absDiff(a.Pix[px+c], b.Pix[px+c])
		}
		out.Pix[i] = uint8(min(d*85, 255))
	}
	return out
}

// Resize scales r with bilinear interpolation.
func Resize(r *stego.Raster, w, h int) *stego.Raster {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), r.Image(), image.Rect(0, 0, r.Width, r.Height), xdraw.Src, nil)
	return stego.NewRaster(dst)
}

// luma uses the ITU-R BT.601 weights, rounded to 8 bits.
func luma(r *stego.Raster) []float64 {
	out := make([]float64, r.Width*r.Height)
	for i, px := 0, 0; px < len(r.Pix); i, px = i+1, px+stego.Channels {
		v := 0.299*float64(r.Pix[px]) + 0.587*float64(r.Pix[px+1]) + 0.114*float64(r.Pix[px+2])
		out[i] = math.Round(v)
	}
	return out
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
