// Package console takes a Linux virtual terminal out of text mode while
// the framebuffer is in use and tracks VT switches so drawing can pause
// while another terminal is in front.
package console

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// From linux/kd.h and linux/vt.h.
const (
	kdSetMode   = 0x4B3A
	kdText      = 0x00
	kdGraphics  = 0x01
	vtSetMode   = 0x5602
	vtRelDisp   = 0x5605
	vtAckAcq    = 0x02
	vtAuto      = 0x00
	vtProcess   = 0x01
	releaseSign = unix.SIGUSR1
	acquireSign = unix.SIGUSR2
)

type vtMode struct {
	Mode   int8
	Waitv  int8
	Relsig int16
	Acqsig int16
	Frsig  int16
}

// Console is a leased terminal.
type Console struct {
	f       *os.File
	visible atomic.Bool
	redraw  chan struct{}
	sigs    chan os.Signal
	done    chan struct{}
}

// LeaseForGraphics switches tty (e.g. /dev/tty0) into graphics mode and
// asks the kernel to signal VT switches to this process.
func LeaseForGraphics(tty string) (*Console, error) {
	f, err := os.OpenFile(tty, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", tty, err)
	}
	c := &Console{
		f:      f,
		redraw: make(chan struct{}, 1),
		sigs:   make(chan os.Signal, 2),
		done:   make(chan struct{}),
	}
	c.visible.Store(true)

	if err := unix.IoctlSetInt(int(f.Fd()), kdSetMode, kdGraphics); err != nil {
		f.Close()
		return nil, fmt.Errorf("KDSETMODE graphics: %w", err)
	}

	signal.Notify(c.sigs, releaseSign, acquireSign)
	mode := vtMode{Mode: vtProcess, Relsig: int16(releaseSign), Acqsig: int16(acquireSign)}
	if err := c.setMode(&mode); err != nil {
		signal.Stop(c.sigs)
		unix.IoctlSetInt(int(f.Fd()), kdSetMode, kdText)
		f.Close()
		return nil, fmt.Errorf("VT_SETMODE: %w", err)
	}
	go c.handleSignals()
	return c, nil
}

func (c *Console) setMode(m *vtMode) error {
	_, _, eno := unix.Syscall(unix.SYS_IOCTL, c.f.Fd(), vtSetMode, uintptr(unsafe.Pointer(m)))
	if eno != 0 {
		return eno
	}
	return nil
}

func (c *Console) handleSignals() {
	for {
		select {
		case <-c.done:
			return
		case sig := <-c.sigs:
			switch sig {
			case releaseSign:
				c.visible.Store(false)
				unix.IoctlSetInt(int(c.f.Fd()), vtRelDisp, 1)
			case acquireSign:
				unix.IoctlSetInt(int(c.f.Fd()), vtRelDisp, vtAckAcq)
				c.visible.Store(true)
				select {
				case c.redraw <- struct{}{}:
				default:
				}
			}
		}
	}
}

// Visible reports whether our terminal is the one on screen.
func (c *Console) Visible() bool { return c.visible.Load() }

// Redraw fires when our terminal comes back to the front.
func (c *Console) Redraw() <-chan struct{} { return c.redraw }

// Cleanup restores text mode and automatic VT switching.
func (c *Console) Cleanup() error {
	close(c.done)
	signal.Stop(c.sigs)
	defer c.f.Close()
	mode := vtMode{Mode: vtAuto}
	if err := c.setMode(&mode); err != nil {
		return fmt.Errorf("VT_SETMODE auto: %w", err)
	}
	if err := unix.IoctlSetInt(int(c.f.Fd()), kdSetMode, kdText); err != nil {
		return fmt.Errorf("KDSETMODE text: %w", err)
	}
	return nil
}
