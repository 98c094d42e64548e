package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/drummonds/slideframe/internal/config"
)

// Window renders into an X11 window, for development away from the
// device. Frames are uploaded to a pixmap and copied to the window in one
// request.
type Window struct {
	cfg  config.Display
	font Font
	log  *slog.Logger

	mu     sync.Mutex
	X      *xgb.Conn
	wid    xproto.Window
	pixmap xproto.Pixmap
	gc     xproto.Gcontext
	depth  byte
	maxReq int
	comp   *composer
	bgra   []byte
	done   chan struct{}
	once   sync.Once
}

func NewWindow(cfg config.Display, font Font, logger *slog.Logger) *Window {
	return &Window{cfg: cfg, font: font, log: logger, done: make(chan struct{})}
}

// Prepare connects to the X server named by $DISPLAY and maps the window.
func (w *Window) Prepare(ctx context.Context) (Surface, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Surface{}, err
	}
	if w.X != nil {
		w.X.Close()
		w.X = nil
	}

	X, err := xgb.NewConn()
	if err != nil {
		return Surface{}, fmt.Errorf("connect to X server: %w", err)
	}
	width, height := w.cfg.Width, w.cfg.Height

	setup := xproto.Setup(X)
	screen := setup.DefaultScreen(X)
	wid, err := xproto.NewWindowId(X)
	if err != nil {
		X.Close()
		return Surface{}, err
	}
	bg := w.cfg.BackgroundColour
	xproto.CreateWindow(X, screen.RootDepth, wid, screen.Root,
		0, 0, uint16(width), uint16(height), 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{
			uint32(bg.R)<<16 | uint32(bg.G)<<8 | uint32(bg.B),
			xproto.EventMaskExposure | xproto.EventMaskKeyPress | xproto.EventMaskStructureNotify,
		})

	title := "slideframe"
	xproto.ChangeProperty(X, xproto.PropModeReplace, wid, xproto.AtomWmName, xproto.AtomString, 8, uint32(len(title)), []byte(title))

	// Set WM_PROTOCOLS to handle window close
	atomWmDeleteWindow, err := xproto.InternAtom(X, false, uint16(len("WM_DELETE_WINDOW")), "WM_DELETE_WINDOW").Reply()
	if err != nil {
		X.Close()
		return Surface{}, err
	}
	atomWmProtocols, err := xproto.InternAtom(X, false, uint16(len("WM_PROTOCOLS")), "WM_PROTOCOLS").Reply()
	if err != nil {
		X.Close()
		return Surface{}, err
	}
	atom := make([]byte, 4)
	xgb.Put32(atom, uint32(atomWmDeleteWindow.Atom))
	xproto.ChangeProperty(X, xproto.PropModeReplace, wid, atomWmProtocols.Atom, xproto.AtomAtom, 32, 1, atom)

	pixmap, err := xproto.NewPixmapId(X)
	if err != nil {
		X.Close()
		return Surface{}, err
	}
	xproto.CreatePixmap(X, screen.RootDepth, pixmap, xproto.Drawable(wid), uint16(width), uint16(height))
	gc, err := xproto.NewGcontextId(X)
	if err != nil {
		X.Close()
		return Surface{}, err
	}
	xproto.CreateGC(X, gc, xproto.Drawable(wid), 0, nil)

	if err := xproto.MapWindowChecked(X, wid).Check(); err != nil {
		X.Close()
		return Surface{}, fmt.Errorf("map window: %w", err)
	}

	w.X, w.wid, w.pixmap, w.gc, w.depth = X, wid, pixmap, gc, screen.RootDepth
	w.maxReq = int(setup.MaximumRequestLength) * 4
	w.comp = newComposer(width, height, bg, w.font)
	w.bgra = make([]byte, width*height*4)

	quit := map[xproto.Keycode]bool{}
	count := int(setup.MaxKeycode) - int(setup.MinKeycode) + 1
	if mapping, err := xproto.GetKeyboardMapping(X, setup.MinKeycode, byte(count)).Reply(); err == nil {
		quit = quitKeycodes(setup.MinKeycode, int(mapping.KeysymsPerKeycode), mapping.Keysyms)
	} else {
		w.log.Warn("no keyboard mapping, keys will not close the window", "error", err)
	}
	go w.events(X, atomWmProtocols.Atom, atomWmDeleteWindow.Atom, quit)

	s := w.comp.surface()
	w.log.Info("window opened", "size", fmt.Sprintf("%dx%d", width, height), "surface", s.String())
	return s, nil
}

// Keysyms that close the window.
const (
	keysymEscape xproto.Keysym = 0xff1b
	keysymQ      xproto.Keysym = 0x0071
)

// quitKeycodes returns the keycodes whose keysyms include Escape or q.
func quitKeycodes(first xproto.Keycode, perCode int, keysyms []xproto.Keysym) map[xproto.Keycode]bool {
	quit := map[xproto.Keycode]bool{}
	if perCode <= 0 {
		return quit
	}
	for i, sym := range keysyms {
		if sym == keysymEscape || sym == keysymQ {
			quit[first+xproto.Keycode(i/perCode)] = true
		}
	}
	return quit
}

func (w *Window) events(X *xgb.Conn, protocols, deleteWindow xproto.Atom, quit map[xproto.Keycode]bool) {
	for {
		ev, err := X.WaitForEvent()
		if ev == nil && err == nil {
			// Connection closed.
			w.finish()
			return
		}
		if err != nil {
			w.log.Debug("x11 error", "error", err)
			continue
		}
		switch e := ev.(type) {
		case xproto.ExposeEvent:
			if e.Count == 0 {
				w.mu.Lock()
				if w.X == X {
					w.copyArea()
				}
				w.mu.Unlock()
			}
		case xproto.ClientMessageEvent:
			if e.Type == protocols && e.Data.Data32[0] == uint32(deleteWindow) {
				w.finish()
				return
			}
		case xproto.KeyPressEvent:
			if quit[e.Detail] {
				w.finish()
				return
			}
		case xproto.DestroyNotifyEvent:
			w.finish()
			return
		}
	}
}

func (w *Window) finish() {
	w.once.Do(func() { close(w.done) })
}

// Draw uploads the composed frame in strips and copies it to the window.
func (w *Window) Draw(buf *image.RGBA, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
		return ErrClosed
	default:
	}
	if w.X == nil || w.comp == nil {
		return errors.New("window not prepared")
	}
	out, err := w.comp.compose(buf, text)
	if err != nil {
		return err
	}
	toBGRX(w.bgra, out)

	width, height := out.Bounds().Dx(), out.Bounds().Dy()
	stride := width * 4
	// PutImage has a 24 byte header.
	rows := (w.maxReq - 24) / stride
	if rows < 1 {
		return fmt.Errorf("window too wide for X request size")
	}
	for y := 0; y < height; y += rows {
		n := min(rows, height-y)
		xproto.PutImage(w.X, xproto.ImageFormatZPixmap, xproto.Drawable(w.pixmap), w.gc,
			uint16(width), uint16(n), 0, int16(y), 0, w.depth, w.bgra[y*stride:(y+n)*stride])
	}
	if err := w.copyArea(); err != nil {
		return deviceError("x11", err)
	}
	return nil
}

func (w *Window) copyArea() error {
	return xproto.CopyAreaChecked(w.X, xproto.Drawable(w.pixmap), xproto.Drawable(w.wid), w.gc,
		0, 0, 0, 0, uint16(w.cfg.Width), uint16(w.cfg.Height)).Check()
}

// toBGRX converts RGBA to the little endian 32 bit layout of a TrueColor
// visual.
func toBGRX(dst []byte, src *image.RGBA) {
	b := src.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, y):][:b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			dst[i], dst[i+1], dst[i+2], dst[i+3] = row[x+2], row[x+1], row[x], 0
			i += 4
		}
	}
}

func (w *Window) Done() <-chan struct{} { return w.done }

func (w *Window) Snapshot() image.Image {
	w.mu.Lock()
	comp := w.comp
	w.mu.Unlock()
	if comp == nil {
		return nil
	}
	return comp.Snapshot()
}

func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.finish()
	if w.X != nil {
		xproto.FreePixmap(w.X, w.pixmap)
		xproto.DestroyWindow(w.X, w.wid)
		w.X.Close()
		w.X = nil
	}
	return nil
}
