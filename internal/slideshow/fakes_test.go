package slideshow

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/drummonds/slideframe/internal/display"
	"github.com/drummonds/slideframe/internal/metadata"
	"github.com/drummonds/slideframe/internal/source"
	"github.com/drummonds/slideframe/internal/statusline"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 10, 0, 0, 500_000_000, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, d := range c.sleeps {
		total += d
	}
	return total
}

type fakeSource struct {
	mu      sync.Mutex
	paths   []string
	listErr error
	changed chan struct{}
}

func (s *fakeSource) List(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...), s.listErr
}

func (s *fakeSource) Fetch(_ context.Context, path string) ([]byte, error) {
	return []byte(path), nil
}

func (s *fakeSource) setPaths(paths []string) {
	s.mu.Lock()
	s.paths = paths
	s.mu.Unlock()
}

// watchedSource adds change notification to fakeSource.
type watchedSource struct {
	*fakeSource
}

func (s watchedSource) Changed() <-chan struct{} { return s.changed }
func (s watchedSource) Close() error             { return nil }

type fakeDecoder struct {
	mu     sync.Mutex
	clock  *fakeClock
	cost   time.Duration
	fail   map[string]bool
	starts []time.Time
	calls  int
}

func (d *fakeDecoder) Decode(data []byte) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.clock != nil {
		d.starts = append(d.starts, d.clock.Now())
		d.clock.Advance(d.cost)
	}
	if d.fail[string(data)] {
		return nil, errors.New("corrupt image")
	}
	return image.NewRGBA(image.Rect(0, 0, 40, 30)), nil
}

// nameTags exposes the fetched bytes, which the fake source sets to the
// path, as the Name tag.
type nameTags struct{}

func (nameTags) ReadTags(data []byte) (Tags, error) {
	return metadata.FromMap(map[string]string{"Name": string(data)}), nil
}

type drawRecord struct {
	text string
	at   time.Time
	size image.Point
}

type fakeRenderer struct {
	mu         sync.Mutex
	clock      *fakeClock
	surface    display.Surface
	prepareErr error
	prepares   int
	draws      []drawRecord
	drawCost   time.Duration
	onDraw     func(n int) error
	done       chan struct{}
}

func newFakeRenderer(clock *fakeClock) *fakeRenderer {
	return &fakeRenderer{clock: clock, surface: display.Surface{Width: 64, Height: 48}, done: make(chan struct{})}
}

func (r *fakeRenderer) Prepare(context.Context) (display.Surface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepares++
	if r.prepareErr != nil {
		return display.Surface{}, r.prepareErr
	}
	return r.surface, nil
}

func (r *fakeRenderer) Draw(buf *image.RGBA, text string) error {
	r.mu.Lock()
	r.draws = append(r.draws, drawRecord{text: text, at: r.clock.Now(), size: buf.Bounds().Size()})
	n := len(r.draws)
	hook := r.onDraw
	r.mu.Unlock()
	r.clock.Advance(r.drawCost)
	if hook != nil {
		return hook(n)
	}
	return nil
}

func (r *fakeRenderer) Done() <-chan struct{} { return r.done }
func (r *fakeRenderer) Close() error          { return nil }

func (r *fakeRenderer) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.draws))
	for i, d := range r.draws {
		out[i] = d.text
	}
	return out
}

func (r *fakeRenderer) times() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Time, len(r.draws))
	for i, d := range r.draws {
		out[i] = d.at
	}
	return out
}

type harness struct {
	clock    *fakeClock
	src      *fakeSource
	source   source.Source
	decoder  *fakeDecoder
	renderer *fakeRenderer
	settings Settings
}

func newHarness(paths ...string) *harness {
	clock := newFakeClock()
	return &harness{
		clock:    clock,
		src:      &fakeSource{paths: paths, changed: make(chan struct{}, 1)},
		decoder:  &fakeDecoder{clock: clock, fail: map[string]bool{}},
		renderer: newFakeRenderer(clock),
		settings: Settings{Delay: 3 * time.Second, ByteBudget: 1 << 20, PrepareRetries: 2, PrepareBackoff: time.Second},
	}
}

// stopAfter cancels the run once n slides have been drawn.
func (h *harness) stopAfter(n int, cancel context.CancelFunc) {
	h.renderer.onDraw = func(i int) error {
		if i >= n {
			cancel()
		}
		return nil
	}
}

func (h *harness) loop(t *testing.T) *Loop {
	t.Helper()
	f, err := statusline.Compile(statusline.Spec{
		Elements: []statusline.ElementSpec{{Tags: []string{"Name"}}},
		Settings: statusline.DefaultLineSettings(),
	}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	deps := Deps{
		Source:    h.source,
		Renderer:  h.renderer,
		Formatter: f,
		Tags:      nameTags{},
		Clock:     h.clock,
	}
	if h.decoder != nil {
		deps.Decoder = h.decoder
	}
	if deps.Source == nil {
		deps.Source = h.src
	}
	l, err := New(h.settings, deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func at(sec, nsec int) time.Time {
	return time.Date(2024, 1, 1, 10, 0, sec, nsec, time.UTC)
}
