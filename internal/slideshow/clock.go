package slideshow

import "time"

// Clock is the loop's view of time.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// waitSlice bounds a single wait so interrupts are noticed promptly.
const waitSlice = 250 * time.Millisecond

// ceilToSecond rounds t up to the next whole second. Times already on a
// second boundary are returned unchanged.
func ceilToSecond(t time.Time) time.Time {
	r := t.Truncate(time.Second)
	if r.Equal(t) {
		return t
	}
	return r.Add(time.Second)
}

// NextTarget is when the slide after one finished at loaded should start.
func NextTarget(loaded time.Time, delay time.Duration) time.Time {
	return ceilToSecond(loaded).Add(delay)
}
