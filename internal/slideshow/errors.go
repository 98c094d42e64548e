package slideshow

import (
	"errors"
	"fmt"
)

// SetupError means the run could not start: no images, no usable
// display, a bad font or a bad status line rule.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string { return fmt.Sprintf("setup: %s: %v", e.Op, e.Err) }

func (e *SetupError) Unwrap() error { return e.Err }

// SlideError is a failure confined to one slide. The loop logs it and
// moves on; it never leaves Run.
type SlideError struct {
	Path  string
	Index int
	Phase string
	Err   error
}

func (e *SlideError) Error() string {
	return fmt.Sprintf("slide %d (%s): %s: %v", e.Index, e.Path, e.Phase, e.Err)
}

func (e *SlideError) Unwrap() error { return e.Err }

// DeviceError means the output went away mid-run.
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string { return fmt.Sprintf("output device: %v", e.Err) }

func (e *DeviceError) Unwrap() error { return e.Err }

func IsSetup(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}

func IsDevice(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}
