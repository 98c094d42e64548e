package frame

import (
	"image"
	"image/color"

	"github.com/drummonds/slideframe/internal/panel"
	"golang.org/x/image/font"
)

// Layout is the split of a frame into picture and status bar.
type Layout struct {
	Picture *panel.ImagePanel
	Status  *panel.TextPanel // nil when there is no status bar
}

// ImageRect is where pictures go; callers fit images to its size.
func (pf *PictureFrame) ImageRect() image.Rectangle {
	if pf.layout.Picture == nil {
		return pf.Bounds
	}
	return pf.layout.Picture.Location
}

// SetupFullImage gives the whole frame to the picture.
func (pf *PictureFrame) SetupFullImage() {
	pf.panels = pf.panels[:0]
	pf.layout = Layout{Picture: panel.NewImagePanel(pf.Bounds, pf.BGColour)}
	pf.AddPanel(pf.layout.Picture)
}

// SetupStatusBar puts the picture on top and a one line status bar in
// face along the bottom. A frame too short for both gets the picture
// only.
func (pf *PictureFrame) SetupStatusBar(face font.Face, fg color.Color, align panel.Align) {
	bar := panel.TextHeight(face)
	if bar >= pf.H {
		pf.SetupFullImage()
		return
	}
	split := pf.Bounds.Max.Y - bar
	pictureRect := image.Rect(pf.Bounds.Min.X, pf.Bounds.Min.Y, pf.Bounds.Max.X, split)
	statusRect := image.Rect(pf.Bounds.Min.X, split, pf.Bounds.Max.X, pf.Bounds.Max.Y)

	pf.panels = pf.panels[:0]
	pf.layout = Layout{
		Picture: panel.NewImagePanel(pictureRect, pf.BGColour),
		Status:  panel.NewTextPanel(statusRect, face, fg, pf.BGColour, align),
	}
	pf.AddPanel(pf.layout.Picture)
	pf.AddPanel(pf.layout.Status)
}

// Compose renders img and text into Buffer. img should already be the
// size of ImageRect.
func (pf *PictureFrame) Compose(img image.Image, text string) *image.RGBA {
	if pf.layout.Picture == nil {
		pf.SetupFullImage()
	}
	pf.layout.Picture.SetImage(img)
	if pf.layout.Status != nil {
		pf.layout.Status.SetText(text)
	}
	pf.Render()
	return pf.Buffer
}
