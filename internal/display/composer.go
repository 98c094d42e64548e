package display

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/drummonds/slideframe/internal/frame"
)

// composer owns the off-screen frame every renderer builds a slide in
// before committing it.
type composer struct {
	mu   sync.Mutex
	pf   *frame.PictureFrame
	last *image.RGBA
}

func newComposer(w, h int, bg color.RGBA, f Font) *composer {
	pf := frame.NewPictureFrame(image.Rect(0, 0, w, h), bg)
	pf.SetupStatusBar(f.Face, f.Colour, f.Align)
	return &composer{pf: pf}
}

func (c *composer) surface() Surface {
	r := c.pf.ImageRect()
	return Surface{Width: r.Dx(), Height: r.Dy()}
}

// compose returns the full frame for buf and text. The result is reused
// by the next call.
func (c *composer) compose(buf *image.RGBA, text string) (*image.RGBA, error) {
	want := c.surface()
	if got := buf.Bounds().Size(); got.X != want.Width || got.Y != want.Height {
		return nil, fmt.Errorf("buffer is %dx%d, surface is %s", got.X, got.Y, want)
	}
	out := c.pf.Compose(buf, text)
	c.mu.Lock()
	if c.last == nil {
		c.last = image.NewRGBA(out.Bounds())
	}
	copy(c.last.Pix, out.Pix)
	c.mu.Unlock()
	return out, nil
}

// Snapshot returns a copy of the last composed frame, or nil.
func (c *composer) Snapshot() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil
	}
	cp := image.NewRGBA(c.last.Bounds())
	copy(cp.Pix, c.last.Pix)
	return cp
}
