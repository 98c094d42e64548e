package slideshow

import (
	"context"
	"errors"
	"fmt"
	"image"
	"reflect"
	"testing"
	"time"

	"github.com/drummonds/slideframe/internal/display"
	"github.com/drummonds/slideframe/internal/drawing"
)

func TestRunTimingAnchoredToWholeSeconds(t *testing.T) {
	h := newHarness("a", "b", "c")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stopAfter(3, cancel)

	err := h.loop(t).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if got := h.renderer.texts(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("texts = %v", got)
	}
	want := []time.Time{at(0, 500_000_000), at(4, 0), at(7, 0)}
	if got := h.renderer.times(); !reflect.DeepEqual(got, want) {
		t.Fatalf("draw times = %v, want %v", got, want)
	}
}

func TestRunWaitAccountsForProcessing(t *testing.T) {
	h := newHarness("a", "b", "c")
	h.decoder.cost = 1200 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stopAfter(3, cancel)

	h.loop(t).Run(ctx)

	draws := h.renderer.times()
	starts := h.decoder.starts
	if len(draws) != 3 || len(starts) < 3 {
		t.Fatalf("draws=%v starts=%v", draws, starts)
	}
	for i := 0; i+1 < len(draws); i++ {
		// Processing finished at the draw time in this harness.
		earliest := NextTarget(draws[i], h.settings.Delay)
		if starts[i+1].Before(earliest) {
			t.Fatalf("slide %d started at %v, before %v", i+1, starts[i+1], earliest)
		}
		if !starts[i+1].Equal(earliest) {
			t.Fatalf("slide %d started at %v, want exactly %v", i+1, starts[i+1], earliest)
		}
	}
}

func TestRunNoSleepWhenBehindSchedule(t *testing.T) {
	h := newHarness("a", "b")
	h.settings.Delay = time.Second
	h.renderer.drawCost = 5 * time.Second
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stopAfter(2, cancel)

	h.loop(t).Run(ctx)

	want := []time.Time{at(0, 500_000_000), at(5, 500_000_000)}
	if got := h.renderer.times(); !reflect.DeepEqual(got, want) {
		t.Fatalf("draw times = %v, want %v", got, want)
	}
}

func TestRunSkipsFailedSlideWithoutWaiting(t *testing.T) {
	h := newHarness("a", "bad", "c")
	h.decoder.fail["bad"] = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stopAfter(2, cancel)

	l := h.loop(t)
	l.Run(ctx)

	if got := h.renderer.texts(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("texts = %v", got)
	}
	want := []time.Time{at(0, 500_000_000), at(4, 0)}
	if got := h.renderer.times(); !reflect.DeepEqual(got, want) {
		t.Fatalf("draw times = %v, want %v", got, want)
	}
	if st := l.Status(); st == nil || st.Skipped != 1 || st.Shown != 2 {
		t.Fatalf("status = %+v", st)
	}
}

func TestRunCursorWraps(t *testing.T) {
	h := newHarness("a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stopAfter(5, cancel)

	h.loop(t).Run(ctx)

	if got := h.renderer.texts(); !reflect.DeepEqual(got, []string{"a", "b", "a", "b", "a"}) {
		t.Fatalf("texts = %v", got)
	}
}

func TestRunBuffersMatchSurface(t *testing.T) {
	h := newHarness("a")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stopAfter(1, cancel)

	h.loop(t).Run(ctx)

	h.renderer.mu.Lock()
	defer h.renderer.mu.Unlock()
	if got := h.renderer.draws[0].size; got != (image.Point{64, 48}) {
		t.Fatalf("buffer size = %v, want 64x48", got)
	}
}

func TestRunPrefetchKeepsOrderAndTiming(t *testing.T) {
	h := newHarness("a", "b", "c")
	h.settings.Prefetch = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stopAfter(4, cancel)

	h.loop(t).Run(ctx)

	if got := h.renderer.texts(); !reflect.DeepEqual(got, []string{"a", "b", "c", "a"}) {
		t.Fatalf("texts = %v", got)
	}
	want := []time.Time{at(0, 500_000_000), at(4, 0), at(7, 0), at(10, 0)}
	if got := h.renderer.times(); !reflect.DeepEqual(got, want) {
		t.Fatalf("draw times = %v, want %v", got, want)
	}
}

func TestRunPrefetchFailureStillSkips(t *testing.T) {
	h := newHarness("a", "bad", "c")
	h.settings.Prefetch = true
	h.decoder.fail["bad"] = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stopAfter(3, cancel)

	h.loop(t).Run(ctx)

	if got := h.renderer.texts(); !reflect.DeepEqual(got, []string{"a", "c", "a"}) {
		t.Fatalf("texts = %v", got)
	}
}

func TestRunAllSlidesFailingPauses(t *testing.T) {
	h := newHarness("x", "y")
	h.decoder.fail["x"] = true
	h.decoder.fail["y"] = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		// Stop once the loop has paused a few times.
		for h.clock.slept() < 3*h.settings.Delay {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	err := h.loop(t).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if len(h.renderer.texts()) != 0 {
		t.Fatalf("nothing should have been drawn")
	}
}

func TestRunDeviceErrorIsFatal(t *testing.T) {
	h := newHarness("a", "b")
	h.renderer.onDraw = func(int) error {
		return fmt.Errorf("write: %w", display.ErrDevice)
	}
	l := h.loop(t)
	err := l.Run(context.Background())
	if !IsDevice(err) {
		t.Fatalf("Run = %v, want a DeviceError", err)
	}
	if l.State() != Failed {
		t.Fatalf("state = %v, want failed", l.State())
	}
}

func TestRunTransientDrawErrorSkips(t *testing.T) {
	h := newHarness("a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.renderer.onDraw = func(n int) error {
		switch n {
		case 1:
			return errors.New("glitch")
		case 2:
			cancel()
		}
		return nil
	}
	h.loop(t).Run(ctx)
	if got := h.renderer.texts(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("texts = %v", got)
	}
	// The failed draw of a is not waited out.
	if got := h.renderer.times(); !got[1].Equal(got[0]) {
		t.Fatalf("draw times = %v, want no wait after a failed draw", got)
	}
}

func TestRunStopsCleanlyWhenDisplayCloses(t *testing.T) {
	h := newHarness("a", "b")
	h.renderer.onDraw = func(n int) error {
		if n == 1 {
			close(h.renderer.done)
		}
		return nil
	}
	if err := h.loop(t).Run(context.Background()); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
}

func TestRunEmptyListIsSetupError(t *testing.T) {
	h := newHarness()
	err := h.loop(t).Run(context.Background())
	if !IsSetup(err) {
		t.Fatalf("Run = %v, want SetupError", err)
	}
	if h.renderer.prepares != 0 {
		t.Fatalf("display prepared despite empty list")
	}
}

func TestRunPrepareRetriedThenSetupError(t *testing.T) {
	h := newHarness("a")
	h.renderer.prepareErr = errors.New("no such device")
	err := h.loop(t).Run(context.Background())
	if !IsSetup(err) {
		t.Fatalf("Run = %v, want SetupError", err)
	}
	if h.renderer.prepares != 3 {
		t.Fatalf("prepares = %d, want 3", h.renderer.prepares)
	}
	if got := h.clock.slept(); got != 2*time.Second {
		t.Fatalf("backoff slept %v, want 2s", got)
	}
}

func TestRunReloadsBetweenSlides(t *testing.T) {
	h := newHarness("a", "b")
	h.source = watchedSource{h.src}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.renderer.onDraw = func(n int) error {
		switch n {
		case 1:
			h.src.setPaths([]string{"x", "y"})
			h.src.changed <- struct{}{}
		case 3:
			cancel()
		}
		return nil
	}
	h.loop(t).Run(ctx)
	if got := h.renderer.texts(); !reflect.DeepEqual(got, []string{"a", "x", "y"}) {
		t.Fatalf("texts = %v", got)
	}
}

func TestShowOnce(t *testing.T) {
	h := newHarness("a", "b")
	l := h.loop(t)
	if err := l.ShowOnce(context.Background()); err != nil {
		t.Fatalf("ShowOnce: %v", err)
	}
	if got := h.renderer.texts(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("texts = %v", got)
	}
	if st := l.Status(); st == nil || st.Path != "a" || st.Count != 2 {
		t.Fatalf("status = %+v", st)
	}
}

func TestNewRejectsBadSettings(t *testing.T) {
	h := newHarness("a")
	h.settings.Delay = 0
	if _, err := New(h.settings, Deps{Source: h.src, Renderer: h.renderer}); !IsSetup(err) {
		t.Fatalf("New = %v, want SetupError", err)
	}
}

func TestNewDefaultDecoderCarriesLimit(t *testing.T) {
	h := newHarness("a")
	h.settings.DecodeLimit = 64 << 20
	h.decoder = nil
	l := h.loop(t)
	if got, ok := l.decoder.(drawing.Decoder); !ok || got.MaxBytes != 64<<20 {
		t.Fatalf("decoder = %#v", l.decoder)
	}
}
