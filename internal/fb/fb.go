// Package fb talks to a Linux framebuffer device: screen info ioctls,
// mapping its memory and panning between pages.
package fb

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/drummonds/slideframe/internal/fbimage"
	"golang.org/x/sys/unix"
)

// ioctl requests from linux/fb.h.
const (
	FBIOGET_VSCREENINFO = 0x4600
	FBIOPUT_VSCREENINFO = 0x4601
	FBIOGET_FSCREENINFO = 0x4602
	FBIOPAN_DISPLAY     = 0x4606
)

// ErrUnsupportedFormat is returned by Image for pixel layouts without a
// fast path.
var ErrUnsupportedFormat = errors.New("unsupported framebuffer pixel format")

// Bitfield describes where one colour channel sits inside a pixel.
type Bitfield struct {
	Offset   uint32
	Length   uint32
	MsbRight uint32
}

// VarScreeninfo mirrors struct fb_var_screeninfo.
type VarScreeninfo struct {
	Xres         uint32
	Yres         uint32
	XresVirtual  uint32
	YresVirtual  uint32
	Xoffset      uint32
	Yoffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	Red          Bitfield
	Green        Bitfield
	Blue         Bitfield
	Transp       Bitfield
	Nonstd       uint32
	Activate     uint32
	Height       uint32
	Width        uint32
	AccelFlags   uint32
	Pixclock     uint32
	LeftMargin   uint32
	RightMargin  uint32
	UpperMargin  uint32
	LowerMargin  uint32
	HsyncLen     uint32
	VsyncLen     uint32
	Sync         uint32
	Vmode        uint32
	Rotate       uint32
	Colorspace   uint32
	Reserved     [4]uint32
}

// FixScreeninfo mirrors struct fb_fix_screeninfo.
type FixScreeninfo struct {
	Id           [16]byte
	Smem_start   uintptr
	Smem_len     uint32
	Type         uint32
	Type_aux     uint32
	Visual       uint32
	Xpanstep     uint16
	Ypanstep     uint16
	Ywrapstep    uint16
	Line_length  uint32
	Mmio_start   uintptr
	Mmio_len     uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

// Device is an open framebuffer.
type Device struct {
	Fd    uintptr
	FInfo FixScreeninfo
	VInfo VarScreeninfo
	mmap  []byte
}

// Open opens and maps the framebuffer at path, e.g. /dev/fb0.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if int(uintptr(fd)) != fd {
		unix.Close(fd)
		return nil, errors.New("fd overflows")
	}
	d := &Device{Fd: uintptr(fd)}

	if err := d.ioctl(FBIOGET_FSCREENINFO, unsafe.Pointer(&d.FInfo)); err != nil {
		d.Close()
		return nil, fmt.Errorf("FBIOGET_FSCREENINFO: %w", err)
	}
	if err := d.ioctl(FBIOGET_VSCREENINFO, unsafe.Pointer(&d.VInfo)); err != nil {
		d.Close()
		return nil, fmt.Errorf("FBIOGET_VSCREENINFO: %w", err)
	}

	d.mmap, err = unix.Mmap(fd, 0, int(d.FInfo.Smem_len), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return d, nil
}

// Query reads the fixed and variable screen info of the device at path
// without mapping its memory.
func Query(path string) (FixScreeninfo, VarScreeninfo, error) {
	var (
		finfo FixScreeninfo
		vinfo VarScreeninfo
	)
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return finfo, vinfo, fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)
	d := &Device{Fd: uintptr(fd)}
	if err := d.ioctl(FBIOGET_FSCREENINFO, unsafe.Pointer(&finfo)); err != nil {
		return finfo, vinfo, fmt.Errorf("FBIOGET_FSCREENINFO: %w", err)
	}
	if err := d.ioctl(FBIOGET_VSCREENINFO, unsafe.Pointer(&vinfo)); err != nil {
		return finfo, vinfo, fmt.Errorf("FBIOGET_VSCREENINFO: %w", err)
	}
	return finfo, vinfo, nil
}

func (d *Device) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, eno := unix.Syscall(unix.SYS_IOCTL, d.Fd, req, uintptr(arg))
	if eno != 0 {
		return eno
	}
	return nil
}

// VarScreeninfo queries the current variable screen info. It fails once
// the device has gone away, so callers use it as a liveness check.
func (d *Device) VarScreeninfo() (VarScreeninfo, error) {
	var info VarScreeninfo
	if err := d.ioctl(FBIOGET_VSCREENINFO, unsafe.Pointer(&info)); err != nil {
		return info, fmt.Errorf("FBIOGET_VSCREENINFO: %w", err)
	}
	return info, nil
}

// Pages returns how many full visible screens fit in the virtual
// resolution and the mapped memory.
func (d *Device) Pages() int {
	if d.VInfo.Yres == 0 || d.FInfo.Line_length == 0 {
		return 0
	}
	pageBytes := int(d.FInfo.Line_length) * int(d.VInfo.Yres)
	n := int(d.VInfo.YresVirtual / d.VInfo.Yres)
	if byMem := len(d.mmap) / pageBytes; byMem < n {
		n = byMem
	}
	return n
}

// Image returns the first page as a draw.Image in the device's native
// pixel layout.
func (d *Device) Image() (image.Image, error) {
	return d.PageImage(0)
}

// PageImage returns page n of the mapped memory.
func (d *Device) PageImage(n int) (image.Image, error) {
	if n < 0 || n >= max(d.Pages(), 1) {
		return nil, fmt.Errorf("page %d out of range", n)
	}
	stride := int(d.FInfo.Line_length)
	height := int(d.VInfo.Yres)
	start := n * stride * height
	end := start + stride*height
	if end > len(d.mmap) {
		return nil, fmt.Errorf("page %d beyond mapped memory", n)
	}
	pix := d.mmap[start:end:end]
	r := image.Rect(0, 0, int(d.VInfo.Xres), height)

	v := d.VInfo
	switch {
	case v.BitsPerPixel == 16 && v.Red.Offset == 11 && v.Green.Offset == 5 && v.Blue.Offset == 0:
		return &fbimage.BGR565{Pix: pix, Stride: stride, Rect: r}, nil
	case v.BitsPerPixel == 32 && v.Red.Offset == 16 && v.Green.Offset == 8 && v.Blue.Offset == 0:
		return &fbimage.BGRA{Pix: pix, Stride: stride, Rect: r}, nil
	case v.BitsPerPixel == 32 && v.Red.Offset == 0 && v.Green.Offset == 8 && v.Blue.Offset == 16:
		return &image.RGBA{Pix: pix, Stride: stride, Rect: r}, nil
	}
	return nil, fmt.Errorf("%w: %dbpp red@%d green@%d blue@%d", ErrUnsupportedFormat,
		v.BitsPerPixel, v.Red.Offset, v.Green.Offset, v.Blue.Offset)
}

// Pan makes page n the visible one.
func (d *Device) Pan(n int) error {
	info := d.VInfo
	info.Xoffset = 0
	info.Yoffset = uint32(n) * d.VInfo.Yres
	if err := d.ioctl(FBIOPAN_DISPLAY, unsafe.Pointer(&info)); err != nil {
		return fmt.Errorf("FBIOPAN_DISPLAY: %w", err)
	}
	return nil
}

// Close unmaps the memory and closes the device.
func (d *Device) Close() error {
	var first error
	if d.mmap != nil {
		first = unix.Munmap(d.mmap)
		d.mmap = nil
	}
	if d.Fd != 0 {
		if err := unix.Close(int(d.Fd)); err != nil && first == nil {
			first = err
		}
		d.Fd = 0
	}
	return first
}
