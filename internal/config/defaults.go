package config

import "github.com/drummonds/slideframe/internal/statusline"

const (
	DisplayFramebuffer = "framebuffer"
	DisplayWindow      = "window"

	defaultDelay         = "90s"
	defaultMaxImageBytes = "8 MB"
	// 64 megapixels as RGBA.
	defaultMaxDecodeBytes = "256 MB"
	defaultFontSize       = 24
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Slideshow: Slideshow{
			Delay:          defaultDelay,
			MaxImageBytes:  defaultMaxImageBytes,
			MaxDecodeBytes: defaultMaxDecodeBytes,
			Prefetch:       true,
		},
		Display: Display{
			Kind:           DisplayFramebuffer,
			Device:         "/dev/fb0",
			TTY:            "/dev/tty0",
			Width:          1280,
			Height:         800,
			Background:     "#000000",
			PrepareRetries: 3,
			PrepareBackoff: "500ms",
		},
		Font: Font{
			Size:  defaultFontSize,
			Color: "white",
			Align: "left",
		},
		StatusLine: StatusLine{
			Separator:      statusline.DefaultSeparator,
			Uniquify:       true,
			HideEmpty:      true,
			StrictPatterns: true,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
