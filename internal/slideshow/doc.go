// Package slideshow drives the slide cycle: load the image at the
// cursor, scale it, build its status line, draw it, wait out the delay
// and move on. A slide that fails is skipped; a setup or device failure
// ends the run.
package slideshow
