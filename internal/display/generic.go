package display

import (
	"fmt"
	"image"

	"github.com/bfanger/framebuffer"
	"github.com/drummonds/slideframe/internal/fb"
	"github.com/drummonds/slideframe/internal/fbimage"
)

// genericImage wraps the visible page of a mapped framebuffer whose pixel
// layout has no dedicated fbimage type.
func genericImage(buf []byte, stride int, info *framebuffer.VarScreenInfo) (*fbimage.Packed, error) {
	if info.BitsPerPixel%8 != 0 || info.BitsPerPixel < 8 || info.BitsPerPixel > 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", fb.ErrUnsupportedFormat, info.BitsPerPixel)
	}
	bpp := int(info.BitsPerPixel) / 8
	w, h := int(info.Xres), int(info.Yres)
	if w <= 0 || h <= 0 || stride < w*bpp {
		return nil, fmt.Errorf("framebuffer reports %dx%d with a %d byte line", w, h, stride)
	}
	start := int(info.Yoffset)*stride + int(info.Xoffset)*bpp
	end := start + (h-1)*stride + w*bpp
	if end > len(buf) {
		return nil, fmt.Errorf("framebuffer memory of %d bytes is too small for %dx%d", len(buf), w, h)
	}
	return &fbimage.Packed{
		Pix:           buf[start:end],
		Stride:        stride,
		Rect:          image.Rect(0, 0, w, h),
		BytesPerPixel: bpp,
		Red:           bitfield(info.Red),
		Green:         bitfield(info.Green),
		Blue:          bitfield(info.Blue),
		Alpha:         bitfield(info.Alpha),
	}, nil
}

func bitfield(b framebuffer.BitField) fbimage.Bitfield {
	return fbimage.Bitfield{Offset: b.Offset, Length: b.Length}
}
