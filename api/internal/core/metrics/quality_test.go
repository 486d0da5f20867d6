package metrics_test

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/core/metrics"
	"github.com/irgordon/helix/api/internal/core/stego"
)

func noise(w, h int, seed int64) *stego.Raster {
	r := rand.New(rand.NewSource(seed))
	pix := make([]uint8, w*h*3)
	r.Read(pix)
	return &stego.Raster{Width: w, Height: h, Pix: pix}
}

func TestPSNR(t *testing.T) {
	a := noise(16, 16, 1)
	assert.True(t, math.IsInf(metrics.PSNR(a, a.Clone()), 1))

	b := a.Clone()
	for i := range b.Pix {
		b.Pix[i] ^= 1
	}
	// Every sample off by exactly one: MSE = 1
	assert.InDelta(t, 20*math.Log10(255), metrics.PSNR(a, b), 1e-9)
}

func TestSSIM(t *testing.T) {
	a := noise(32, 32, 2)

	same, err := metrics.SSIM(a, a.Clone())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same, 1e-9)

	other, err := metrics.SSIM(a, noise(32, 32, 3))
	require.NoError(t, err)
	assert.Less(t, other, 0.5)

	_, err = metrics.SSIM(noise(6, 6, 4), noise(6, 6, 5))
	assert.ErrorIs(t, err, domain.ErrImageTooSmall)
}

func TestDiff_And_Heatmap(t *testing.T) {
	a := &stego.Raster{Width: 2, Height: 1, Pix: []uint8{10, 10, 10, 20, 20, 20}}
	b := &stego.Raster{Width: 2, Height: 1, Pix: []uint8{11, 10, 9, 20, 20, 20}}

	d := metrics.Diff(a, b)
	assert.Equal(t, 2, d.ChangedBytes)
	assert.Equal(t, 1, d.ChangedPixels)
	assert.Equal(t, 1, d.MaxAbsDiff)
	assert.InDelta(t, 2.0/6.0, d.MeanAbsDiff, 1e-9)

	hm := metrics.Heatmap(a, b)
	assert.Equal(t, color.Gray{Y: 170}, hm.GrayAt(0, 0))
	assert.Equal(t, color.Gray{Y: 0}, hm.GrayAt(1, 0))
}

func TestCompare_LSBEmbedIsNearlyInvisible(t *testing.T) {
	cover := noise(64, 64, 9)
	out, _, err := stego.New().Embed(context.Background(), cover, "ATGTATGAATGTATGA")
	require.NoError(t, err)

	rep, err := metrics.Compare(cover, out)
	require.NoError(t, err)
	assert.False(t, rep.Resized)
	assert.Greater(t, rep.PSNR, 60.0)
	assert.Greater(t, rep.SSIM, 0.999)
	assert.LessOrEqual(t, rep.Diff.MaxAbsDiff, 1)
}

func TestCompare_ResizesMismatchedInput(t *testing.T) {
	rep, err := metrics.Compare(noise(20, 20, 1), noise(10, 10, 2))
	require.NoError(t, err)
	assert.True(t, rep.Resized)
}

func TestReport_JSON_InfinitePSNR(t *testing.T) {
	a := noise(8, 8, 1)
	rep, err := metrics.Compare(a, a.Clone())
	require.NoError(t, err)

	raw, err := json.Marshal(rep)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Nil(t, out["psnr"])
	assert.InDelta(t, 1.0, out["ssim"], 1e-9)
}

func TestInfo(t *testing.T) {
	info := metrics.Info(image.NewGray(image.Rect(0, 0, 10, 10)), "png")
	assert.Equal(t, metrics.ImageInfo{Width: 10, Height: 10, Mode: "L", Format: "png", Capacity: 36}, info)
}
