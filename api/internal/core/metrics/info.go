package metrics

import (
	"image"
	"image/color"
)

// ImageInfo describes an uploaded image before conversion to RGB.
type ImageInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Mode     string `json:"mode"`
	Format   string `json:"format"`
	Capacity int    `json:"capacity_chars"`
}

// Info reports size, colour mode and payload capacity.
func Info(img image.Image, format string) ImageInfo {
	b := img.Bounds()
	bytes := b.Dx() * b.Dy() * 3
	capacity := 0
	if bytes > 12 {
		capacity = (bytes - 12) / 8
	}
	return ImageInfo{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Mode:     colorMode(img.ColorModel()),
		Format:   format,
		Capacity: capacity,
	}
}

func colorMode(m color.Model) string {
	switch m {
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA"
	case color.RGBA64Model, color.NRGBA64Model:
		return "RGBA;16"
	case color.YCbCrModel:
		return "YCbCr"
	case color.CMYKModel:
		return "CMYK"
	}
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	return "unknown"
}
