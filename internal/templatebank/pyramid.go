package templatebank

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/draw"
)

// byteReader adapts a decoded file's bytes into an io.Reader for
// image.Decode without an intermediate file handle.
func byteReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}

// toGrayscale derives the grayscale variant matched when config's
// grayscale flag is set (spec §4.5/§4.6).
func toGrayscale(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(src.At(x, y)))
		}
	}
	return gray
}

// buildPyramid renders src and its grayscale counterpart at every
// configured scale using a Catmull-Rom resampler, matching the quality
// level a preview-accurate template match needs.
func buildPyramid(bgr image.Image, gray image.Image, scales []float64) map[float64]Variant {
	out := make(map[float64]Variant, len(scales))
	for _, scale := range scales {
		if scale == 1.0 {
			out[scale] = Variant{Scale: scale, BGR: bgr, Grayscale: gray}
			continue
		}
		out[scale] = Variant{
			Scale:     scale,
			BGR:       resize(bgr, scale),
			Grayscale: resize(gray, scale),
		}
	}
	return out
}

func resize(src image.Image, scale float64) image.Image {
	b := src.Bounds()
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
