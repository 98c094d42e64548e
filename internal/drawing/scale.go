package drawing

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// BytesPerPixel is the decoded size of one pixel in the RGBA buffers the
// pipeline works with.
const BytesPerPixel = 4

// ErrNoContent reports an image that cannot be shown, such as one with a
// zero dimension.
var ErrNoContent = errors.New("image has no content")

// Resampler is used for both scaling stages. Catmull-Rom is slow but
// sharp, which suits a device that has seconds per slide.
var Resampler = draw.CatmullRom

// EstimateBytes returns the uncompressed size of a w x h RGBA buffer.
func EstimateBytes(w, h int) uint64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	return uint64(w) * uint64(h) * BytesPerPixel
}

// BudgetSize returns the dimensions an image of w x h is reduced to so
// its estimated size fits budget. It never enlarges.
func BudgetSize(w, h int, budget uint64) (int, int) {
	size := EstimateBytes(w, h)
	if size <= budget {
		return w, h
	}
	f := math.Sqrt(float64(budget) / float64(size))
	nw := int(math.Floor(float64(w) * f))
	nh := int(math.Floor(float64(h) * f))
	// Floating point can land one pixel over.
	for nw > 0 && nh > 0 && EstimateBytes(nw, nh) > budget {
		if nw*h > nh*w {
			nw--
		} else {
			nh--
		}
	}
	return nw, nh
}

// ScaleToBudget downscales img uniformly until its estimated size fits
// budget. Images already within budget are returned as they are.
func ScaleToBudget(img image.Image, budget uint64) (image.Image, error) {
	if img == nil {
		return nil, ErrNoContent
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrNoContent, b.Dx(), b.Dy())
	}
	nw, nh := BudgetSize(b.Dx(), b.Dy(), budget)
	if nw == b.Dx() && nh == b.Dy() {
		return img, nil
	}
	if nw <= 0 || nh <= 0 {
		return nil, fmt.Errorf("%w: byte budget %d too small for %dx%d", ErrNoContent, budget, b.Dx(), b.Dy())
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	Resampler.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}

// FitRect returns where an image of size src lands inside a w x h surface
// when scaled to fit with its aspect ratio kept and centred.
func FitRect(src image.Point, w, h int) image.Rectangle {
	if src.X <= 0 || src.Y <= 0 || w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	var sw, sh int
	// Compare w/src.X with h/src.Y without dividing.
	if w*src.Y <= h*src.X {
		sw = w
		sh = int(math.Round(float64(src.Y) * float64(w) / float64(src.X)))
	} else {
		sh = h
		sw = int(math.Round(float64(src.X) * float64(h) / float64(src.Y)))
	}
	sw = min(max(sw, 1), w)
	sh = min(max(sh, 1), h)
	offX := (w - sw) / 2
	offY := (h - sh) / 2
	return image.Rect(offX, offY, offX+sw, offY+sh)
}

// FitToSurface scales img up or down to fit a w x h buffer, keeping its
// aspect ratio and centring it. The margins are filled with bg. Nothing
// is cropped.
func FitToSurface(img image.Image, w, h int, bg color.Color) (*image.RGBA, error) {
	if img == nil {
		return nil, ErrNoContent
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrNoContent, b.Dx(), b.Dy())
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid surface %dx%d", w, h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	Resampler.Scale(dst, FitRect(b.Size(), w, h), img, b, draw.Over, nil)
	return dst, nil
}
