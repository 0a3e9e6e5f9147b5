// Package matcher runs normalized cross-correlation template matching
// over captured frames (spec §4.6, C6), backed by gocv's OpenCV
// bindings for the actual correlation math.
package matcher

import (
	"errors"
	"image"
	"math"

	"gocv.io/x/gocv"

	"autoapprove/internal/framecache"
	"autoapprove/internal/geometry"
	"autoapprove/internal/templatebank"
)

// ErrFrameTooSmall means the frame is smaller than the template at
// every configured scale — spec §4.6 treats this as a non-match, not
// an error, so callers should check it with errors.Is and continue.
var ErrFrameTooSmall = errors.New("matcher: frame smaller than template at all scales")

// MatchResult is one qualifying match, in frame coordinates (the ROI
// offset has already been added back in, per spec §4.6).
type MatchResult struct {
	TemplateID string
	Scale      float64
	Score      float32
	Location   image.Point // top-left of the matched region, frame coords
	Size       image.Point // width/height of the matched template region
}

// Matcher holds the configuration needed to score a frame against a
// template bank: grayscale vs BGR and the acceptance threshold.
type Matcher struct {
	Grayscale bool
	Threshold float64
}

// New returns a matcher configured per spec §6's grayscale/threshold keys.
func New(grayscale bool, threshold float64) *Matcher {
	return &Matcher{Grayscale: grayscale, Threshold: threshold}
}

// Match implements spec §4.6: templates are evaluated in bank order
// with early-exit on the first qualifying match; within a template,
// scales are evaluated and the highest score wins, not the first over
// threshold. roi is in frame coordinates; a zero roi means full frame.
func (m *Matcher) Match(frame *framecache.Frame, roi ROI, bank *templatebank.Bank) (*MatchResult, error) {
	region := roi.Resolve(frame.Width, frame.Height)
	if region.Width() <= 0 || region.Height() <= 0 {
		return nil, nil
	}

	searchMat, err := m.frameSearchMat(frame, region)
	if err != nil {
		return nil, err
	}
	defer searchMat.Close()

	allTooSmall := true
	for _, tmpl := range bank.All() {
		best, tooSmall, err := m.bestAcrossScales(searchMat, tmpl)
		if err != nil {
			return nil, err
		}
		if !tooSmall {
			allTooSmall = false
		}
		if best == nil {
			continue
		}

		// Map the match location back to frame coordinates (add the
		// ROI offset back in, per spec §4.6's "pre-ROI-offset added").
		best.Location.X += region.Left
		best.Location.Y += region.Top
		return best, nil
	}

	if allTooSmall {
		return nil, ErrFrameTooSmall
	}
	return nil, nil
}

// bestAcrossScales scores tmpl against searchMat at every pyramid
// scale and returns the highest-scoring qualifying result, applying
// the tie-break rule from spec §4.6: equal scores prefer the smaller
// |1-scale|, then the top-left-most location.
func (m *Matcher) bestAcrossScales(searchMat gocv.Mat, tmpl *templatebank.Template) (*MatchResult, bool, error) {
	var best *MatchResult
	tooSmall := true

	for scale, variant := range tmpl.Pyramid {
		templMat, err := variantMat(variant, m.Grayscale)
		if err != nil {
			return nil, tooSmall, err
		}

		if templMat.Cols() > searchMat.Cols() || templMat.Rows() > searchMat.Rows() {
			templMat.Close()
			continue
		}
		tooSmall = false

		result := gocv.NewMat()
		gocv.MatchTemplate(searchMat, templMat, &result, gocv.TmCcoeffNormed, gocv.NewMat())
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
		result.Close()
		templW, templH := templMat.Cols(), templMat.Rows()
		templMat.Close()

		if float64(maxVal) < m.Threshold {
			continue
		}

		candidate := &MatchResult{
			TemplateID: tmpl.ID,
			Scale:      scale,
			Score:      maxVal,
			Location:   maxLoc,
			Size:       image.Pt(templW, templH),
		}

		if best == nil || betterMatch(candidate, best) {
			best = candidate
		}
	}

	return best, tooSmall, nil
}

// betterMatch reports whether a should replace b as the current best,
// per spec §4.6's scale-then-location tie-break.
func betterMatch(a, b *MatchResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	da, db := math.Abs(1-a.Scale), math.Abs(1-b.Scale)
	if da != db {
		return da < db
	}
	if a.Location.Y != b.Location.Y {
		return a.Location.Y < b.Location.Y
	}
	return a.Location.X < b.Location.X
}

// frameSearchMat builds the search area Mat honoring row pitch: the
// frame's Pix buffer is RowPitch bytes per row, so the Mat is first
// constructed RowPitch/4 columns wide and then cropped to the true
// content width — never reading past Width*4 bytes per row.
func (m *Matcher) frameSearchMat(frame *framecache.Frame, region geometry.Rect) (gocv.Mat, error) {
	strideMat, err := gocv.NewMatFromBytes(frame.Height, frame.RowPitch/4, gocv.MatTypeCV8UC4, frame.Pix)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer strideMat.Close()

	full := strideMat.Region(image.Rect(0, 0, frame.Width, frame.Height))
	defer full.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(full, &bgr, gocv.ColorBGRAToBGR)
	defer bgr.Close()

	cropped := bgr.Region(image.Rect(region.Left, region.Top, region.Right, region.Bottom))
	defer cropped.Close()

	if !m.Grayscale {
		out := gocv.NewMat()
		cropped.CopyTo(&out)
		return out, nil
	}

	gray := gocv.NewMat()
	gocv.CvtColor(cropped, &gray, gocv.ColorBGRToGray)
	return gray, nil
}

// variantMat converts a pre-scaled template variant into the Mat
// colorspace the search Mat uses.
func variantMat(v templatebank.Variant, grayscale bool) (gocv.Mat, error) {
	if grayscale {
		return grayImageToMat(v.Grayscale)
	}
	return gocv.ImageToMatRGB(v.BGR)
}

func grayImageToMat(img image.Image) (gocv.Mat, error) {
	gray, ok := img.(*image.Gray)
	if !ok {
		rgbMat, err := gocv.ImageToMatRGB(img)
		if err != nil {
			return gocv.Mat{}, err
		}
		defer rgbMat.Close()
		out := gocv.NewMat()
		gocv.CvtColor(rgbMat, &out, gocv.ColorRGBToGray)
		return out, nil
	}

	strideMat, err := gocv.NewMatFromBytes(gray.Bounds().Dy(), gray.Stride, gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer strideMat.Close()

	cropped := strideMat.Region(image.Rect(0, 0, gray.Bounds().Dx(), gray.Bounds().Dy()))
	defer cropped.Close()

	out := gocv.NewMat()
	cropped.CopyTo(&out)
	return out, nil
}
