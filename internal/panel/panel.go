// Package panel holds the rectangular pieces a picture frame is built
// from. Each panel paints itself into its Location on a shared buffer.
package panel

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// ImagePanel shows a picture. Images the size of Location are copied
// directly; anything else is scaled into it.
type ImagePanel struct {
	img      image.Image
	bgcolor  color.RGBA
	Location image.Rectangle // Where panel is to be rendered
}

func NewImagePanel(location image.Rectangle, bg color.RGBA) *ImagePanel {
	return &ImagePanel{Location: location, bgcolor: bg}
}

func (p *ImagePanel) SetImage(img image.Image) { p.img = img }

// Render draws the panel content onto buffer.
func (p *ImagePanel) Render(buffer *image.RGBA) {
	if p.img == nil {
		draw.Draw(buffer, p.Location, &image.Uniform{p.bgcolor}, image.Point{}, draw.Src)
		return
	}
	b := p.img.Bounds()
	if b.Size() == p.Location.Size() {
		draw.Draw(buffer, p.Location, p.img, b.Min, draw.Src)
		return
	}
	draw.Draw(buffer, p.Location, &image.Uniform{p.bgcolor}, image.Point{}, draw.Src)
	xdraw.BiLinear.Scale(buffer, p.Location, p.img, b, draw.Over, nil)
}

// Align is the horizontal placement of text.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// ParseAlign maps "left", "center" and "right"; anything else is left.
func ParseAlign(s string) Align {
	switch s {
	case "center", "centre":
		return AlignCenter
	case "right":
		return AlignRight
	}
	return AlignLeft
}

// Padding is the gap around status text in pixels.
const Padding = 4

// TextHeight returns the height of a panel able to hold one line of text
// in face.
func TextHeight(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil() + 2*Padding
}

// TextPanel shows one line of text. Text wider than the panel is drawn
// from the left and cut at the right edge, never wrapped.
type TextPanel struct {
	face     font.Face
	fg, bg   color.Color
	align    Align
	text     string
	g        *gg.Context
	Location image.Rectangle // Where panel is to be rendered
}

func NewTextPanel(location image.Rectangle, face font.Face, fg, bg color.Color, align Align) *TextPanel {
	p := &TextPanel{face: face, fg: fg, bg: bg, align: align, Location: location}
	p.g = gg.NewContext(location.Dx(), location.Dy())
	p.g.SetFontFace(face)
	return p
}

func (p *TextPanel) SetText(text string) { p.text = text }

func (p *TextPanel) Text() string { return p.text }

// Render paints the background and the text onto buffer.
func (p *TextPanel) Render(buffer *image.RGBA) {
	g := p.g
	g.SetColor(p.bg)
	g.Clear()

	if p.text != "" {
		m := p.face.Metrics()
		baseline := float64(Padding + m.Ascent.Ceil())
		align := p.align
		if w, _ := g.MeasureString(p.text); w > float64(p.Location.Dx()-2*Padding) {
			align = AlignLeft
		}
		var x, ax float64
		switch align {
		case AlignCenter:
			x, ax = float64(p.Location.Dx())/2, 0.5
		case AlignRight:
			x, ax = float64(p.Location.Dx()-Padding), 1
		default:
			x, ax = Padding, 0
		}
		g.SetColor(p.fg)
		g.DrawStringAnchored(p.text, x, baseline, ax, 0)
	}
	draw.Draw(buffer, p.Location, g.Image(), image.Point{}, draw.Src)
}
