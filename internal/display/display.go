// Package display draws composed slides onto a physical output. A run
// uses exactly one Renderer, chosen from configuration at startup.
package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/drummonds/slideframe/internal/config"
	"github.com/drummonds/slideframe/internal/logging"
)

var (
	// ErrDevice marks failures of the output device itself. They end the
	// run.
	ErrDevice = errors.New("output device failure")
	// ErrClosed is returned by Draw once the output has been closed, for
	// example by the user closing the window.
	ErrClosed = errors.New("display closed")
)

// Surface is the size of the picture region a renderer expects Draw to
// be given. The status bar is outside it.
type Surface struct {
	Width, Height int
}

func (s Surface) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Renderer is an output sink for slides.
type Renderer interface {
	// Prepare opens the output and reports the picture surface. It may be
	// retried if it fails.
	Prepare(ctx context.Context) (Surface, error)
	// Draw shows buf, which must match the prepared Surface, with text in
	// the status bar. The viewer never sees a half drawn frame.
	Draw(buf *image.RGBA, text string) error
	// Done is closed when the output goes away on its own.
	Done() <-chan struct{}
	Close() error
}

// Snapshotter is implemented by renderers that keep the last frame they
// showed.
type Snapshotter interface {
	Snapshot() image.Image
}

// New builds the renderer selected by cfg.Display.Kind. The font is
// loaded here so a bad font fails before anything is opened.
func New(cfg *config.Config, logger *slog.Logger) (Renderer, error) {
	font, err := LoadFont(cfg.Font)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	switch cfg.Display.Kind {
	case config.DisplayFramebuffer:
		return NewFramebuffer(cfg.Display, font, logger), nil
	case config.DisplayWindow:
		return NewWindow(cfg.Display, font, logger), nil
	}
	return nil, fmt.Errorf("unknown display kind %q", cfg.Display.Kind)
}

func deviceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDevice, err)
}
