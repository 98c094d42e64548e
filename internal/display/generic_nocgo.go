//go:build !(linux && cgo)

package display

import (
	"errors"
	"image/draw"
	"io"
)

func openGeneric(path string) (io.Closer, draw.Image, error) {
	return nil, nil, errors.New("generic framebuffer access needs a linux build with cgo")
}
