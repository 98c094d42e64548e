//go:build linux && cgo

package display

import (
	"image/draw"
	"io"

	"github.com/bfanger/framebuffer"
)

// openGeneric maps the device through the cgo framebuffer package. Only the
// visible page is used: the package's pan call does not pass the screen
// info through correctly, so there is no page flipping on this path.
func openGeneric(path string) (io.Closer, draw.Image, error) {
	dev, err := framebuffer.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := dev.VarScreenInfo()
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	img, err := genericImage(dev.Buffer, int(dev.FixScreenInfo.LineLength), info)
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return dev, img, nil
}
