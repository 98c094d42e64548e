package drawing

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/gift"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrTooLarge reports an image whose decoded pixels would exceed the
// decoder's ceiling.
var ErrTooLarge = errors.New("image too large to decode")

// Decoder turns encoded image bytes into pixels. When MaxBytes is set the
// header is read first and images whose RGBA buffer would be larger are
// refused without decoding.
type Decoder struct {
	MaxBytes uint64
}

// Decode decodes data with any registered format.
func (d Decoder) Decode(data []byte) (image.Image, error) {
	if d.MaxBytes > 0 {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode image header: %w", err)
		}
		if size := EstimateBytes(cfg.Width, cfg.Height); size > d.MaxBytes {
			return nil, fmt.Errorf("%w: %s is %dx%d, %d bytes decoded, limit %d",
				ErrTooLarge, format, cfg.Width, cfg.Height, size, d.MaxBytes)
		}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrNoContent, format, b.Dx(), b.Dy())
	}
	return img, nil
}

// Orient rotates and flips img according to an EXIF orientation value.
// Orientation 1 and unknown values return img untouched.
func Orient(img image.Image, orientation int) image.Image {
	g := gift.New()
	switch orientation {
	case 2:
		g.Add(gift.FlipHorizontal())
	case 3:
		g.Add(gift.Rotate180())
	case 4:
		g.Add(gift.FlipVertical())
	case 5:
		g.Add(gift.Transpose())
	case 6:
		g.Add(gift.Rotate270())
	case 7:
		g.Add(gift.Transverse())
	case 8:
		g.Add(gift.Rotate90())
	default:
		return img
	}
	oriented := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(oriented, img)
	return oriented
}
