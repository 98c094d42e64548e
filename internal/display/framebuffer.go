package display

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/drummonds/slideframe/internal/config"
	"github.com/drummonds/slideframe/internal/console"
	"github.com/drummonds/slideframe/internal/drawing"
	"github.com/drummonds/slideframe/internal/fb"
	"github.com/drummonds/slideframe/internal/fbimage"
)

// Framebuffer renders onto a Linux framebuffer device. When the device
// has room for two pages it draws into the hidden one and pans, otherwise
// the composed frame is copied in a single pass.
type Framebuffer struct {
	cfg  config.Display
	font Font
	log  *slog.Logger

	mu       sync.Mutex
	cons     *console.Console
	dev      *fb.Device
	generic  io.Closer
	pages    []draw.Image
	front    int
	comp     *composer
	shown    *image.RGBA
	done     chan struct{}
	closed   bool
	slowPath bool
}

func NewFramebuffer(cfg config.Display, font Font, logger *slog.Logger) *Framebuffer {
	return &Framebuffer{cfg: cfg, font: font, log: logger, done: make(chan struct{})}
}

// Prepare takes over the console and maps the device.
func (f *Framebuffer) Prepare(ctx context.Context) (Surface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Surface{}, err
	}
	f.release()

	if f.cfg.TTY != "" {
		cons, err := console.LeaseForGraphics(f.cfg.TTY)
		if err != nil {
			f.log.Warn("console not switched to graphics mode", "tty", f.cfg.TTY, "error", err)
		} else {
			f.cons = cons
			go f.redrawOnSwitch(cons)
		}
	}

	dev, err := fb.Open(f.cfg.Device)
	if err != nil {
		f.release()
		return Surface{}, err
	}
	if info, err := dev.VarScreeninfo(); err == nil {
		f.log.Debug("framebuffer screeninfo", "xres", info.Xres, "yres", info.Yres,
			"bpp", info.BitsPerPixel, "yres_virtual", info.YresVirtual)
	}

	var bounds image.Rectangle
	first, err := dev.Image()
	switch {
	case errors.Is(err, fb.ErrUnsupportedFormat):
		dev.Close()
		f.log.Info("framebuffer pixel format has no fast path, using generic device", "error", err)
		closer, img, gerr := openGeneric(f.cfg.Device)
		if gerr != nil {
			f.release()
			return Surface{}, gerr
		}
		f.generic = closer
		f.pages = []draw.Image{img}
		bounds = img.Bounds()
	case err != nil:
		dev.Close()
		f.release()
		return Surface{}, err
	default:
		f.dev = dev
		f.pages = []draw.Image{first.(draw.Image)}
		if dev.Pages() >= 2 {
			if back, err := dev.PageImage(1); err == nil {
				f.pages = append(f.pages, back.(draw.Image))
			}
		}
		bounds = first.Bounds()
		f.log.Info("framebuffer opened", "device", f.cfg.Device, "format", formatName(first),
			"size", bounds.Size().String(), "pages", len(f.pages))
	}
	f.front = 0
	f.comp = newComposer(bounds.Dx(), bounds.Dy(), f.cfg.BackgroundColour, f.font)
	return f.comp.surface(), nil
}

// Draw composes the slide off-screen and commits it.
func (f *Framebuffer) Draw(buf *image.RGBA, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.comp == nil {
		return errors.New("framebuffer not prepared")
	}
	if f.dev != nil {
		if _, err := f.dev.VarScreeninfo(); err != nil {
			return deviceError("framebuffer", err)
		}
	}
	out, err := f.comp.compose(buf, text)
	if err != nil {
		return err
	}
	f.shown = out
	if f.cons != nil && !f.cons.Visible() {
		// Another terminal is in front; redrawOnSwitch paints it later.
		return nil
	}
	return f.commit(out)
}

func (f *Framebuffer) commit(out *image.RGBA) error {
	start := time.Now()
	target := f.front
	if len(f.pages) > 1 {
		target = 1 - f.front
	}
	f.copyTo(f.pages[target], out)
	if len(f.pages) > 1 {
		if err := f.dev.Pan(target); err != nil {
			return deviceError("framebuffer", err)
		}
		f.front = target
	}
	f.log.Debug("framebuffer commit", "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

func (f *Framebuffer) copyTo(dst draw.Image, src *image.RGBA) {
	switch x := dst.(type) {
	case *fbimage.BGR565:
		drawing.CopyRGBAtoBGR565(x, src)
	case *fbimage.BGRA:
		drawing.CopyRGBAtoBGRA(x, src)
	case *image.RGBA:
		drawing.CopyRGBA(x, src)
	default:
		if !f.slowPath {
			f.log.Info("framebuffer falling back to slow path", "type", formatName(dst))
			f.slowPath = true
		}
		draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
	}
}

func (f *Framebuffer) redrawOnSwitch(cons *console.Console) {
	for {
		select {
		case <-f.done:
			return
		case <-cons.Redraw():
			f.mu.Lock()
			if f.shown != nil && !f.closed && f.cons == cons {
				if err := f.commit(f.shown); err != nil {
					f.log.Warn("redraw after console switch failed", "error", err)
				}
			}
			f.mu.Unlock()
		}
	}
}

func (f *Framebuffer) Done() <-chan struct{} { return f.done }

// Snapshot returns the last composed frame.
func (f *Framebuffer) Snapshot() image.Image {
	f.mu.Lock()
	comp := f.comp
	f.mu.Unlock()
	if comp == nil {
		return nil
	}
	return comp.Snapshot()
}

// Close restores the console and releases the device.
func (f *Framebuffer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.done)
	return f.release()
}

func (f *Framebuffer) release() error {
	var first error
	if f.dev != nil {
		first = f.dev.Close()
		f.dev = nil
	}
	if f.generic != nil {
		f.generic.Close()
		f.generic = nil
	}
	f.pages = nil
	if f.cons != nil {
		if err := f.cons.Cleanup(); err != nil {
			f.log.Warn("console cleanup", "error", err)
		}
		f.cons = nil
	}
	return first
}

func formatName(img image.Image) string {
	switch img.(type) {
	case *fbimage.BGR565:
		return "BGR565"
	case *fbimage.BGRA:
		return "BGRA"
	case *image.RGBA:
		return "RGBA"
	case *fbimage.Packed:
		return "packed"
	}
	return "generic"
}
