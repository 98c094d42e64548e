package drawing

import (
	"image"
	"image/color"

	"github.com/drummonds/slideframe/internal/fbimage"
)

// CopyRGBAtoBGR565 is an inlined version of the hot pixel copying loop for the
// special case of copying from an *image.RGBA to an *fbimage.BGR565.
//
// This specialization brings down copying time to 137ms (from 1.8s!) on the
// Raspberry Pi 4. src and dst must have the same bounds.
func CopyRGBAtoBGR565(dst *fbimage.BGR565, src *image.RGBA) {
	bounds := dst.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var c color.NRGBA

			i := src.PixOffset(x, y)
			// Small cap improves performance, see https://golang.org/issue/27857
			s := src.Pix[i : i+4 : i+4]
			switch s[3] {
			case 0xff:
				c = color.NRGBA{s[0], s[1], s[2], 0xff}
			case 0:
				c = color.NRGBA{0, 0, 0, 0}
			default:
				r := uint32(s[0])
				r |= r << 8
				g := uint32(s[1])
				g |= g << 8
				b := uint32(s[2])
				b |= b << 8
				a := uint32(s[3])
				a |= a << 8

				// Since Color.RGBA returns an alpha-premultiplied color, we
				// should have r <= a && g <= a && b <= a.
				r = (r * 0xffff) / a
				g = (g * 0xffff) / a
				b = (b * 0xffff) / a
				c = color.NRGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
			}

			pix := dst.Pix[dst.PixOffset(x, y):]
			pix[0] = (c.B >> 3) | ((c.G >> 2) << 5)
			pix[1] = (c.G >> 5) | ((c.R >> 3) << 3)
		}
	}
}

// CopyRGBAtoBGRA swaps the red and blue channels row by row, so a
// destination stride wider than the visible line is fine.
//
// This specialization brings down copying time to 5ms (from 60-70ms) on an
// amd64 qemu VM with virtio VGA.
func CopyRGBAtoBGRA(dst *fbimage.BGRA, src *image.RGBA) {
	bounds := dst.Bounds()
	rowBytes := bounds.Dx() * 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		si := src.PixOffset(bounds.Min.X, y)
		di := dst.PixOffset(bounds.Min.X, y)
		srow := src.Pix[si : si+rowBytes : si+rowBytes]
		drow := dst.Pix[di : di+rowBytes : di+rowBytes]
		for i := 0; i < rowBytes; i += 4 {
			s := srow[i : i+4 : i+4]
			d := drow[i : i+4 : i+4]
			d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
		}
	}
}

// CopyRGBA copies rows between two RGBA images of equal bounds.
func CopyRGBA(dst, src *image.RGBA) {
	bounds := dst.Bounds()
	rowBytes := bounds.Dx() * 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		copy(dst.Pix[dst.PixOffset(bounds.Min.X, y):][:rowBytes], src.Pix[src.PixOffset(bounds.Min.X, y):][:rowBytes])
	}
}
