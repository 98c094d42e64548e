package display

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bfanger/framebuffer"
	"github.com/drummonds/slideframe/internal/config"
	"github.com/drummonds/slideframe/internal/fb"
	"github.com/drummonds/slideframe/internal/panel"
	"golang.org/x/image/font/basicfont"
)

func builtinFont() Font {
	return Font{Face: basicfont.Face7x13, Colour: color.RGBA{255, 255, 255, 255}, Align: panel.AlignLeft}
}

func TestLoadFontBuiltin(t *testing.T) {
	f, err := LoadFont(config.Font{Size: 24, Align: "right"})
	if err != nil {
		t.Fatalf("LoadFont: %v", err)
	}
	if f.Face == nil || f.Align != panel.AlignRight {
		t.Fatalf("unexpected font %+v", f)
	}
}

func TestLoadFontBuiltinHonoursSize(t *testing.T) {
	small, err := LoadFont(config.Font{Size: 12})
	if err != nil {
		t.Fatalf("LoadFont: %v", err)
	}
	large, err := LoadFont(config.Font{Size: 36})
	if err != nil {
		t.Fatalf("LoadFont: %v", err)
	}
	hs, hl := small.Face.Metrics().Height, large.Face.Metrics().Height
	if hl <= hs {
		t.Fatalf("36pt height %v not larger than 12pt height %v", hl, hs)
	}
	if got := panel.TextHeight(large.Face); got < 36 {
		t.Fatalf("36pt text height = %d", got)
	}
}

func TestLoadFontMissingFile(t *testing.T) {
	_, err := LoadFont(config.Font{Path: filepath.Join(t.TempDir(), "nope.ttf"), Size: 12})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not exist", err)
	}
}

func TestLoadFontGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(path, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFont(config.Font{Path: path, Size: 12}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMemoryDrawChecksSurface(t *testing.T) {
	m := NewMemory(200, 100, color.RGBA{A: 255}, builtinFont())
	s, err := m.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if s.Width != 200 || s.Height >= 100 {
		t.Fatalf("surface = %v, want 200 wide with room for a status bar", s)
	}
	if err := m.Draw(image.NewRGBA(image.Rect(0, 0, 10, 10)), "x"); err == nil {
		t.Fatalf("expected size mismatch error")
	}
	if err := m.Draw(image.NewRGBA(image.Rect(0, 0, s.Width, s.Height)), "hello"); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if m.Frames() != 1 || m.Texts()[0] != "hello" {
		t.Fatalf("frames=%d texts=%v", m.Frames(), m.Texts())
	}
	snap := m.Snapshot()
	if snap == nil || snap.Bounds() != image.Rect(0, 0, 200, 100) {
		t.Fatalf("snapshot bounds wrong: %v", snap)
	}
}

func TestMemoryDrawAfterClose(t *testing.T) {
	m := NewMemory(50, 50, color.RGBA{A: 255}, builtinFont())
	s, err := m.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	m.Close()
	err = m.Draw(image.NewRGBA(image.Rect(0, 0, s.Width, s.Height)), "")
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	select {
	case <-m.Done():
	default:
		t.Fatalf("Done not closed")
	}
}

func TestToBGRX(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.Pix[0], src.Pix[1], src.Pix[2], src.Pix[3] = 1, 2, 3, 255
	dst := make([]byte, 4)
	toBGRX(dst, src)
	if dst[0] != 3 || dst[1] != 2 || dst[2] != 1 || dst[3] != 0 {
		t.Fatalf("dst = %v", dst)
	}
}

func TestNewUnknownKind(t *testing.T) {
	cfg := config.Default()
	cfg.Display.Kind = "hologram"
	if _, err := New(&cfg, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func rgb888Info() *framebuffer.VarScreenInfo {
	return &framebuffer.VarScreenInfo{
		Xres:         4,
		Yres:         2,
		XresVirtual:  4,
		YresVirtual:  4,
		Yoffset:      2,
		BitsPerPixel: 24,
		Red:          framebuffer.BitField{Offset: 16, Length: 8},
		Green:        framebuffer.BitField{Offset: 8, Length: 8},
		Blue:         framebuffer.BitField{Offset: 0, Length: 8},
	}
}

func TestGenericImageUsesVisiblePage(t *testing.T) {
	const stride = 16 // 4 pixels of 3 bytes plus padding
	buf := make([]byte, stride*4)
	img, err := genericImage(buf, stride, rgb888Info())
	if err != nil {
		t.Fatalf("genericImage: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	img.Set(1, 0, color.RGBA{R: 255, A: 255})
	off := 2*stride + 3
	if buf[off] != 0 || buf[off+1] != 0 || buf[off+2] != 255 {
		t.Fatalf("pixel written at wrong place: %v", buf)
	}
	if got := img.At(1, 0); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("At = %v", got)
	}
}

func TestGenericImageRejectsBadLayouts(t *testing.T) {
	info := rgb888Info()
	info.BitsPerPixel = 12
	if _, err := genericImage(make([]byte, 64), 16, info); !errors.Is(err, fb.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want unsupported format", err)
	}
	if _, err := genericImage(make([]byte, 40), 16, rgb888Info()); err == nil {
		t.Fatalf("expected error for short memory")
	}
	if _, err := genericImage(make([]byte, 64), 8, rgb888Info()); err == nil {
		t.Fatalf("expected error for a stride shorter than a line")
	}
}

func TestQuitKeycodes(t *testing.T) {
	// Two keysyms per keycode starting at keycode 8: 8 is a/A, 9 is
	// Escape, 10 is q/Q.
	syms := []xproto.Keysym{0x61, 0x41, keysymEscape, 0, keysymQ, 0x51}
	got := quitKeycodes(8, 2, syms)
	if len(got) != 2 || !got[9] || !got[10] || got[8] {
		t.Fatalf("quit keycodes = %v, want 9 and 10", got)
	}
	if len(quitKeycodes(8, 0, syms)) != 0 {
		t.Fatalf("zero keysyms per keycode should match nothing")
	}
}
