package display

import (
	"fmt"
	"image/color"
	"os"

	"github.com/drummonds/slideframe/internal/config"
	"github.com/drummonds/slideframe/internal/panel"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Font is what the status bar is drawn with.
type Font struct {
	Face   font.Face
	Colour color.RGBA
	Align  panel.Align
}

// LoadFont opens the TrueType font at cfg.Path at cfg.Size points. An
// empty path selects the embedded Go Regular face.
func LoadFont(cfg config.Font) (Font, error) {
	f := Font{Colour: cfg.Colour, Align: panel.ParseAlign(cfg.Align)}
	data, name := goregular.TTF, "Go Regular"
	if cfg.Path != "" {
		b, err := os.ReadFile(cfg.Path)
		if err != nil {
			return f, fmt.Errorf("load font: %w", err)
		}
		data, name = b, cfg.Path
	}
	ttf, err := truetype.Parse(data)
	if err != nil {
		return f, fmt.Errorf("parse font %s: %w", name, err)
	}
	f.Face = truetype.NewFace(ttf, &truetype.Options{
		Size:    cfg.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return f, nil
}
