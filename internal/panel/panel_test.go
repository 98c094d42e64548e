package panel

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"golang.org/x/image/font/basicfont"
)

func TestImagePanelCopiesAtLocation(t *testing.T) {
	buf := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	red := color.RGBA{255, 0, 0, 255}
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.SetRGBA(x, y, red)
		}
	}
	p := NewImagePanel(image.Rect(4, 4, 6, 6), color.RGBA{A: 255})
	p.SetImage(img)
	p.Render(buf)
	if got := buf.RGBAAt(5, 5); got != red {
		t.Fatalf("pixel = %v, want %v", got, red)
	}
	if got := buf.RGBAAt(3, 3); got != (color.RGBA{}) {
		t.Fatalf("outside pixel touched: %v", got)
	}
}

func TestTextPanelDrawsText(t *testing.T) {
	face := basicfont.Face7x13
	h := TextHeight(face)
	buf := image.NewRGBA(image.Rect(0, 0, 200, h))
	black := color.RGBA{A: 255}
	p := NewTextPanel(buf.Bounds(), face, color.White, black, AlignLeft)
	p.SetText("Hello")
	p.Render(buf)
	lit := 0
	for i := 0; i < len(buf.Pix); i += 4 {
		if buf.Pix[i] > 128 {
			lit++
		}
	}
	if lit == 0 {
		t.Fatalf("no text pixels drawn")
	}
}

func TestTextPanelLongTextStaysInside(t *testing.T) {
	face := basicfont.Face7x13
	h := TextHeight(face)
	buf := image.NewRGBA(image.Rect(0, 0, 120, 2*h))
	loc := image.Rect(0, h, 60, 2*h)
	p := NewTextPanel(loc, face, color.White, color.Black, AlignRight)
	p.SetText(strings.Repeat("x", 50))
	p.Render(buf)
	if got := buf.RGBAAt(100, h+h/2); got != (color.RGBA{}) {
		t.Fatalf("text spilled outside the panel: %v", got)
	}
	// Overflowing text is anchored left, so the first glyph is visible.
	lit := false
	for y := h; y < 2*h; y++ {
		for x := Padding; x < Padding+7; x++ {
			if buf.RGBAAt(x, y).R > 128 {
				lit = true
			}
		}
	}
	if !lit {
		t.Fatalf("start of the text was clipped")
	}
}

func TestParseAlign(t *testing.T) {
	if ParseAlign("right") != AlignRight || ParseAlign("center") != AlignCenter || ParseAlign("bogus") != AlignLeft {
		t.Fatalf("ParseAlign mismatch")
	}
}
