// Package fbimage provides draw.Image implementations over the pixel
// layouts Linux framebuffers commonly expose, so a mapped framebuffer can
// be written to like any other image.
package fbimage

import (
	"image"
	"image/color"
)

// BGR565 is a 16 bit little endian image: 5 bits blue, 6 bits green and 5
// bits red, starting at the least significant bit.
type BGR565 struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// NewBGR565 allocates an in-memory BGR565 image, mainly for tests.
func NewBGR565(r image.Rectangle) *BGR565 {
	return &BGR565{
		Pix:    make([]byte, 2*r.Dx()*r.Dy()),
		Stride: 2 * r.Dx(),
		Rect:   r,
	}
}

func (i *BGR565) Bounds() image.Rectangle { return i.Rect }

func (i *BGR565) ColorModel() color.Model { return color.RGBAModel }

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (i *BGR565) PixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Stride + (x-i.Rect.Min.X)*2
}

func (i *BGR565) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(i.Rect)) {
		return color.RGBA{}
	}
	pix := i.Pix[i.PixOffset(x, y):]
	v := uint16(pix[0]) | uint16(pix[1])<<8
	b := uint8(v&0x1f) << 3
	g := uint8((v>>5)&0x3f) << 2
	r := uint8(v>>11) << 3
	return color.RGBA{R: r | r>>5, G: g | g>>6, B: b | b>>5, A: 0xff}
}

func (i *BGR565) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(i.Rect)) {
		return
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	pix := i.Pix[i.PixOffset(x, y):]
	pix[0] = (n.B >> 3) | ((n.G >> 2) << 5)
	pix[1] = (n.G >> 5) | ((n.R >> 3) << 3)
}

// BGRA is a 32 bit image with bytes ordered blue, green, red, alpha, the
// layout of most 32bpp framebuffers on little endian machines.
type BGRA struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// NewBGRA allocates an in-memory BGRA image.
func NewBGRA(r image.Rectangle) *BGRA {
	return &BGRA{
		Pix:    make([]byte, 4*r.Dx()*r.Dy()),
		Stride: 4 * r.Dx(),
		Rect:   r,
	}
}

func (i *BGRA) Bounds() image.Rectangle { return i.Rect }

func (i *BGRA) ColorModel() color.Model { return color.RGBAModel }

func (i *BGRA) PixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Stride + (x-i.Rect.Min.X)*4
}

func (i *BGRA) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(i.Rect)) {
		return color.RGBA{}
	}
	s := i.Pix[i.PixOffset(x, y):]
	return color.RGBA{R: s[2], G: s[1], B: s[0], A: s[3]}
}

func (i *BGRA) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(i.Rect)) {
		return
	}
	r, g, b, a := c.RGBA()
	s := i.Pix[i.PixOffset(x, y):]
	s[0], s[1], s[2], s[3] = uint8(b>>8), uint8(g>>8), uint8(r>>8), uint8(a>>8)
}

// Bitfield locates one colour channel inside a packed pixel.
type Bitfield struct {
	Offset uint32
	Length uint32
}

func (b Bitfield) pack(v uint8) uint32 {
	if b.Length == 0 {
		return 0
	}
	if b.Length >= 8 {
		return uint32(v) << (b.Offset + b.Length - 8)
	}
	return uint32(v>>(8-b.Length)) << b.Offset
}

func (b Bitfield) unpack(p uint32) uint8 {
	if b.Length == 0 {
		return 0
	}
	if b.Length >= 8 {
		return uint8(p >> (b.Offset + b.Length - 8))
	}
	v := (p >> b.Offset) & (1<<b.Length - 1)
	// Replicate the high bits so full intensity maps to 0xff.
	out := v << (8 - b.Length)
	for shift := b.Length; shift < 8; shift += b.Length {
		out |= v << (8 - b.Length) >> shift
	}
	return uint8(out)
}

// Packed is a little endian image of 1 to 4 bytes per pixel whose channel
// positions are given by bitfields, as reported by the framebuffer
// variable screen info. It is slower than the fixed layouts above.
type Packed struct {
	Pix           []byte
	Stride        int
	Rect          image.Rectangle
	BytesPerPixel int

	Red, Green, Blue, Alpha Bitfield
}

func (i *Packed) Bounds() image.Rectangle { return i.Rect }

func (i *Packed) ColorModel() color.Model { return color.RGBAModel }

func (i *Packed) PixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Stride + (x-i.Rect.Min.X)*i.BytesPerPixel
}

func (i *Packed) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(i.Rect)) {
		return color.RGBA{}
	}
	s := i.Pix[i.PixOffset(x, y):]
	var p uint32
	for n := 0; n < i.BytesPerPixel; n++ {
		p |= uint32(s[n]) << (8 * n)
	}
	a := uint8(0xff)
	if i.Alpha.Length > 0 {
		a = i.Alpha.unpack(p)
	}
	return color.RGBA{R: i.Red.unpack(p), G: i.Green.unpack(p), B: i.Blue.unpack(p), A: a}
}

func (i *Packed) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(i.Rect)) {
		return
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	p := i.Red.pack(n.R) | i.Green.pack(n.G) | i.Blue.pack(n.B) | i.Alpha.pack(n.A)
	s := i.Pix[i.PixOffset(x, y):]
	for k := 0; k < i.BytesPerPixel; k++ {
		s[k] = uint8(p >> (8 * k))
	}
}
