/*
A picture frame represents a complete rectangular area which presents a
slide: the picture on top and, optionally, a status bar below it.

The frame is rendered by pasting panels on it.
This is done in two stages:

- Layout, once the output size is known
- Rendering dynamic content for each slide
*/
package frame

import (
	"image"
	"image/color"
	"image/draw"
)

type Panelled interface {
	Render(buffer *image.RGBA)
}

// This is the structure which holds the screen data.
type PictureFrame struct {
	Bounds   image.Rectangle
	W, H     int
	Buffer   *image.RGBA // This is what is output to the screen
	BGColour color.RGBA
	panels   []Panelled
	layout   Layout
}

// Create a new picture frame of the output size.
func NewPictureFrame(bounds image.Rectangle, bg color.RGBA) *PictureFrame {
	pf := new(PictureFrame)
	pf.Bounds = bounds
	pf.W = pf.Bounds.Dx()
	pf.H = pf.Bounds.Dy()
	pf.BGColour = bg
	pf.Buffer = image.NewRGBA(pf.Bounds)
	pf.RepaintBackground()
	pf.panels = make([]Panelled, 0, 2)
	return pf
}

func (pf *PictureFrame) RepaintBackground() {
	draw.Draw(pf.Buffer, pf.Bounds, &image.Uniform{pf.BGColour}, image.Point{}, draw.Src)
}

func (pf *PictureFrame) AddPanel(panel Panelled) {
	pf.panels = append(pf.panels, panel)
}

// Calls all the child panels to rerender them
func (pf *PictureFrame) Render() {
	for _, panel := range pf.panels {
		panel.Render(pf.Buffer)
	}
}
