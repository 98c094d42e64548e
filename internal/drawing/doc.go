// Package drawing holds the pixel work of the pipeline: decoding, EXIF
// orientation, the two scaling stages (byte budget, then fit to surface)
// and fast copies from the RGBA composition buffer into framebuffer
// pixel formats.
package drawing
