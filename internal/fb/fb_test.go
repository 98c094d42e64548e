package fb

import (
	"errors"
	"image"
	"testing"

	"github.com/drummonds/slideframe/internal/fbimage"
)

func fakeDevice(bpp, red, blue uint32, pages int) *Device {
	d := &Device{}
	d.VInfo.Xres, d.VInfo.Yres = 4, 3
	d.VInfo.YresVirtual = 3 * uint32(pages)
	d.VInfo.BitsPerPixel = bpp
	d.VInfo.Red.Offset = red
	d.VInfo.Green.Offset = 8
	d.VInfo.Blue.Offset = blue
	if bpp == 16 {
		d.VInfo.Green.Offset = 5
	}
	d.FInfo.Line_length = 4 * bpp / 8
	d.mmap = make([]byte, int(d.FInfo.Line_length)*3*pages)
	return d
}

func TestPageImageFormats(t *testing.T) {
	if img, err := fakeDevice(16, 11, 0, 1).Image(); err != nil {
		t.Fatalf("16bpp: %v", err)
	} else if _, ok := img.(*fbimage.BGR565); !ok {
		t.Fatalf("16bpp image is %T", img)
	}
	if img, err := fakeDevice(32, 16, 0, 1).Image(); err != nil {
		t.Fatalf("32bpp bgra: %v", err)
	} else if _, ok := img.(*fbimage.BGRA); !ok {
		t.Fatalf("32bpp bgra image is %T", img)
	}
	if img, err := fakeDevice(32, 0, 16, 1).Image(); err != nil {
		t.Fatalf("32bpp rgba: %v", err)
	} else if _, ok := img.(*image.RGBA); !ok {
		t.Fatalf("32bpp rgba image is %T", img)
	}
	if _, err := fakeDevice(32, 24, 8, 1).Image(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestPagesAndPageImage(t *testing.T) {
	d := fakeDevice(32, 16, 0, 2)
	if got := d.Pages(); got != 2 {
		t.Fatalf("Pages = %d, want 2", got)
	}
	img, err := d.PageImage(1)
	if err != nil {
		t.Fatalf("PageImage(1): %v", err)
	}
	bgra := img.(*fbimage.BGRA)
	bgra.Pix[0] = 7
	if d.mmap[16*3] != 7 {
		t.Fatalf("page 1 does not start after page 0")
	}
	if _, err := d.PageImage(2); err == nil {
		t.Fatalf("expected out of range error")
	}
}
