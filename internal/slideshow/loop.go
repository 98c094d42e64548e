package slideshow

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drummonds/slideframe/internal/config"
	"github.com/drummonds/slideframe/internal/display"
	"github.com/drummonds/slideframe/internal/drawing"
	"github.com/drummonds/slideframe/internal/logging"
	"github.com/drummonds/slideframe/internal/metadata"
	"github.com/drummonds/slideframe/internal/source"
	"github.com/drummonds/slideframe/internal/statusline"
)

// State is the phase the loop is in.
type State int32

const (
	Idle State = iota
	Loading
	Processing
	Displaying
	Waiting
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Processing:
		return "processing"
	case Displaying:
		return "displaying"
	case Waiting:
		return "waiting"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Decoder turns fetched bytes into an image.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// Tags answers metadata lookups for one image.
type Tags interface {
	Lookup(tag string) string
	Orientation() int
}

// TagReader extracts Tags from fetched bytes.
type TagReader interface {
	ReadTags(data []byte) (Tags, error)
}

// ExifReader reads EXIF metadata with the metadata package.
type ExifReader struct{}

func (ExifReader) ReadTags(data []byte) (Tags, error) {
	t, err := metadata.Read(data)
	return t, err
}

// Settings are the run parameters, fixed for the life of a Loop.
type Settings struct {
	Delay          time.Duration
	ByteBudget     uint64
	DecodeLimit    uint64
	Background     color.RGBA
	Prefetch       bool
	PrepareRetries int
	PrepareBackoff time.Duration
	RunID          string
}

// Deps are the collaborators of a Loop. Decoder, Tags, Clock and Logger
// have defaults.
type Deps struct {
	Source    source.Source
	Renderer  display.Renderer
	Formatter *statusline.Formatter
	Decoder   Decoder
	Tags      TagReader
	Clock     Clock
	Logger    *slog.Logger
}

// Status describes the slide on screen, for the web page.
type Status struct {
	RunID   string    `json:"run_id"`
	State   string    `json:"state"`
	Path    string    `json:"path"`
	Index   int       `json:"index"`
	Count   int       `json:"count"`
	Text    string    `json:"text"`
	ShownAt time.Time `json:"shown_at"`
	Shown   uint64    `json:"shown"`
	Skipped uint64    `json:"skipped"`
}

// Loop is one slideshow run.
type Loop struct {
	set       Settings
	src       source.Source
	renderer  display.Renderer
	formatter *statusline.Formatter
	decoder   Decoder
	tags      TagReader
	clock     Clock
	log       *slog.Logger

	cursor       *Cursor
	surface      display.Surface
	slot         slot
	prefetchDone chan struct{}
	failures     int

	state  atomic.Int32
	status atomic.Pointer[Status]
	shown  atomic.Uint64
	skip   atomic.Uint64
}

// New checks settings and deps and returns a Loop ready to Run.
func New(set Settings, deps Deps) (*Loop, error) {
	switch {
	case deps.Source == nil:
		return nil, &SetupError{Op: "new", Err: errors.New("no image source")}
	case deps.Renderer == nil:
		return nil, &SetupError{Op: "new", Err: errors.New("no renderer")}
	case deps.Formatter == nil:
		return nil, &SetupError{Op: "new", Err: errors.New("no status line formatter")}
	case set.Delay <= 0:
		return nil, &SetupError{Op: "new", Err: errors.New("delay must be positive")}
	case set.ByteBudget == 0:
		return nil, &SetupError{Op: "new", Err: errors.New("byte budget must be positive")}
	}
	l := &Loop{
		set:       set,
		src:       deps.Source,
		renderer:  deps.Renderer,
		formatter: deps.Formatter,
		decoder:   deps.Decoder,
		tags:      deps.Tags,
		clock:     deps.Clock,
		log:       deps.Logger,
	}
	if l.decoder == nil {
		l.decoder = drawing.Decoder{MaxBytes: set.DecodeLimit}
	}
	if l.tags == nil {
		l.tags = ExifReader{}
	}
	if l.clock == nil {
		l.clock = realClock{}
	}
	if l.log == nil {
		l.log = logging.NewNop()
	}
	return l, nil
}

// FromConfig builds a Loop from a validated configuration.
func FromConfig(cfg *config.Config, src source.Source, renderer display.Renderer, runID string, logger *slog.Logger) (*Loop, error) {
	spec, err := cfg.StatusLine.Spec()
	if err != nil {
		return nil, &SetupError{Op: "status line", Err: err}
	}
	formatter, err := statusline.Compile(spec, logger)
	if err != nil {
		return nil, &SetupError{Op: "status line", Err: err}
	}
	return New(Settings{
		Delay:          cfg.Slideshow.DelayDuration,
		ByteBudget:     cfg.Slideshow.ByteBudget,
		DecodeLimit:    cfg.Slideshow.DecodeLimit,
		Background:     cfg.Display.BackgroundColour,
		Prefetch:       cfg.Slideshow.Prefetch,
		PrepareRetries: cfg.Display.PrepareRetries,
		PrepareBackoff: cfg.Display.Backoff,
		RunID:          runID,
	}, Deps{
		Source:    src,
		Renderer:  renderer,
		Formatter: formatter,
		Logger:    logger,
	})
}

func (l *Loop) State() State { return State(l.state.Load()) }

func (l *Loop) setState(s State) {
	if old := State(l.state.Swap(int32(s))); old != s {
		l.log.Debug("state", "from", old.String(), "to", s.String())
	}
}

// Status returns the last shown slide, or nil before the first.
func (l *Loop) Status() *Status {
	s := l.status.Load()
	if s == nil {
		return nil
	}
	cp := *s
	cp.State = l.State().String()
	cp.Shown = l.shown.Load()
	cp.Skipped = l.skip.Load()
	return &cp
}

// Run shows slides until ctx is cancelled, the display is closed, or a
// setup or device error occurs. Closing the display returns nil.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.setup(ctx); err != nil {
		l.setState(Failed)
		return err
	}
	l.log.Info("slideshow started", "images", l.cursor.Len(), "surface", l.surface.String(),
		"delay", l.set.Delay.String(), "prefetch", l.set.Prefetch)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.reloadIfChanged(ctx)

		loadedAt, err := l.show(ctx)
		if err == nil {
			l.setState(Waiting)
			if l.set.Prefetch {
				l.startPrefetch(ctx)
			}
			err = l.waitUntil(ctx, NextTarget(loadedAt, l.set.Delay))
			if err == nil {
				l.cursor.Advance()
				continue
			}
		}

		var se *SlideError
		switch {
		case errors.As(err, &se):
			if err := l.skipSlide(ctx, se); err != nil {
				return l.finish(ctx, err)
			}
		default:
			return l.finish(ctx, err)
		}
	}
}

func (l *Loop) finish(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, display.ErrClosed):
		l.log.Info("display closed, stopping")
		l.setState(Idle)
		return nil
	case ctx.Err() != nil:
		l.setState(Idle)
		return ctx.Err()
	}
	l.setState(Failed)
	return err
}

// ShowOnce sets up and draws the first slide without waiting.
func (l *Loop) ShowOnce(ctx context.Context) error {
	if err := l.setup(ctx); err != nil {
		l.setState(Failed)
		return err
	}
	_, err := l.show(ctx)
	l.setState(Idle)
	return err
}

func (l *Loop) setup(ctx context.Context) error {
	paths, err := l.src.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &SetupError{Op: "list images", Err: err}
	}
	if len(paths) == 0 {
		return &SetupError{Op: "list images", Err: source.ErrEmpty}
	}
	l.cursor = NewCursor(paths)

	surface, err := l.prepareDisplay(ctx)
	if err != nil {
		return err
	}
	l.surface = surface
	return nil
}

// prepareDisplay retries Prepare a bounded number of times. This is the
// only place the loop retries device access.
func (l *Loop) prepareDisplay(ctx context.Context) (display.Surface, error) {
	attempts := 1 + max(l.set.PrepareRetries, 0)
	var err error
	for i := 1; i <= attempts; i++ {
		var s display.Surface
		s, err = l.renderer.Prepare(ctx)
		if err == nil {
			if s.Width <= 0 || s.Height <= 0 {
				return s, &SetupError{Op: "prepare display", Err: fmt.Errorf("invalid output surface %s", s)}
			}
			return s, nil
		}
		if ctx.Err() != nil {
			return s, ctx.Err()
		}
		l.log.Warn("display not ready", "attempt", i, "of", attempts, logging.Error(err))
		if i < attempts {
			select {
			case <-ctx.Done():
				return s, ctx.Err()
			case <-l.clock.After(l.set.PrepareBackoff):
			}
		}
	}
	return display.Surface{}, &SetupError{Op: "prepare display", Err: err}
}

// show loads, processes and draws the slide at the cursor. It returns
// when processing finished, which anchors the next slide's start.
func (l *Loop) show(ctx context.Context) (time.Time, error) {
	c := l.cursor
	c.Start(l.clock.Now())
	key := slideKey{index: c.Index(), path: c.Path(), generation: c.Generation()}

	l.setState(Loading)
	p, err := l.takePrefetched(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	if p == nil {
		ld, err := await(ctx, func() (*loaded, error) { return l.load(ctx, key) })
		if err != nil {
			return time.Time{}, err
		}
		l.setState(Processing)
		p, err = await(ctx, func() (*prepared, error) { return l.process(ld, key) })
		if err != nil {
			return time.Time{}, err
		}
	} else {
		l.setState(Processing)
		l.log.Debug("using prefetched slide", logging.FieldIndex, key.index)
	}
	loadedAt := l.clock.Now()
	l.log.Debug("slide prepared", logging.FieldIndex, key.index, "prepare", loadedAt.Sub(c.StartedAt()).String())

	l.setState(Displaying)
	start := time.Now()
	if err := l.renderer.Draw(p.buf, p.text); err != nil {
		switch {
		case errors.Is(err, display.ErrClosed):
			return time.Time{}, err
		case errors.Is(err, display.ErrDevice):
			return time.Time{}, &DeviceError{Err: err}
		}
		return time.Time{}, l.slideErr(key, "draw", err)
	}
	l.log.Debug("slide drawn", logging.FieldIndex, key.index, logging.Since(start))

	l.failures = 0
	l.shown.Add(1)
	l.status.Store(&Status{
		RunID:   l.set.RunID,
		Path:    key.path,
		Index:   key.index,
		Count:   c.Len(),
		Text:    p.text,
		ShownAt: loadedAt,
	})
	l.log.Info("slide shown", logging.FieldIndex, key.index, logging.FieldPath, key.path, "status", p.text)
	return loadedAt, nil
}

type loaded struct {
	img  image.Image
	tags Tags
}

// load fetches the slide and decodes it while its metadata is read.
func (l *Loop) load(ctx context.Context, key slideKey) (*loaded, error) {
	start := time.Now()
	data, err := l.src.Fetch(ctx, key.path)
	if err != nil {
		return nil, l.slideErr(key, "fetch", err)
	}

	var (
		tags   Tags
		tagErr error
		wg     sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		tags, tagErr = l.tags.ReadTags(data)
	}()
	img, err := l.decoder.Decode(data)
	wg.Wait()
	if err != nil {
		return nil, l.slideErr(key, "decode", err)
	}
	if tagErr != nil {
		// Images without metadata are shown with an empty status line.
		l.log.Debug("no usable metadata", logging.FieldPath, key.path, logging.Error(tagErr))
	}
	if tags == nil {
		tags = metadata.FromMap(nil)
	}
	l.log.Debug("slide loaded", logging.FieldPath, key.path, logging.Since(start))
	return &loaded{img: img, tags: tags}, nil
}

// process scales the image to the byte budget and then to the surface,
// and builds the status line.
func (l *Loop) process(ld *loaded, key slideKey) (*prepared, error) {
	start := time.Now()
	img, err := drawing.ScaleToBudget(ld.img, l.set.ByteBudget)
	if err != nil {
		return nil, l.slideErr(key, "scale", err)
	}
	img = drawing.Orient(img, ld.tags.Orientation())
	buf, err := drawing.FitToSurface(img, l.surface.Width, l.surface.Height, l.set.Background)
	if err != nil {
		return nil, l.slideErr(key, "scale", err)
	}
	text := l.formatter.Format(ld.tags)
	l.log.Debug("slide processed", logging.FieldPath, key.path, logging.Since(start))
	return &prepared{key: key, buf: buf, text: text}, nil
}

func (l *Loop) slideErr(key slideKey, phase string, err error) *SlideError {
	return &SlideError{Path: key.path, Index: key.index, Phase: phase, Err: err}
}

// skipSlide logs a failed slide and moves on without waiting. When every
// slide has failed in a row the loop pauses for one delay.
func (l *Loop) skipSlide(ctx context.Context, se *SlideError) error {
	l.skip.Add(1)
	l.failures++
	l.log.Warn("skipping slide",
		logging.FieldIndex, se.Index,
		logging.FieldPath, se.Path,
		logging.FieldPhase, se.Phase,
		logging.Error(se.Err))
	l.cursor.Advance()
	if l.failures < l.cursor.Len() {
		return nil
	}
	l.failures = 0
	l.log.Error("no slide could be shown, pausing", "images", l.cursor.Len(), "pause", l.set.Delay.String())
	l.setState(Waiting)
	return l.waitUntil(ctx, l.clock.Now().Add(l.set.Delay))
}

// waitUntil sleeps in short slices until target, returning early when
// ctx is cancelled or the display goes away.
func (l *Loop) waitUntil(ctx context.Context, target time.Time) error {
	for {
		remaining := target.Sub(l.clock.Now())
		if remaining <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.renderer.Done():
			return display.ErrClosed
		case <-l.clock.After(min(remaining, waitSlice)):
		}
	}
}

func (l *Loop) reloadIfChanged(ctx context.Context) {
	w, ok := l.src.(source.Watcher)
	if !ok {
		return
	}
	select {
	case <-w.Changed():
	default:
		return
	}
	paths, err := l.src.List(ctx)
	if err != nil {
		l.log.Warn("image list reload failed, keeping the old list", logging.Error(err))
		return
	}
	if l.cursor.Replace(paths) {
		l.log.Info("image list reloaded", "images", len(paths))
	}
}

func (l *Loop) startPrefetch(ctx context.Context) {
	idx, path := l.cursor.PathAt(1)
	key := slideKey{index: idx, path: path, generation: l.cursor.Generation()}
	done := make(chan struct{})
	l.prefetchDone = done
	go func() {
		defer close(done)
		ld, err := l.load(ctx, key)
		if err != nil {
			l.log.Debug("prefetch failed", logging.FieldPath, path, logging.Error(err))
			return
		}
		p, err := l.process(ld, key)
		if err != nil {
			l.log.Debug("prefetch failed", logging.FieldPath, path, logging.Error(err))
			return
		}
		l.slot.put(p)
	}()
}

// takePrefetched waits for any running prefetch and returns its slide if
// it is the one wanted.
func (l *Loop) takePrefetched(ctx context.Context, key slideKey) (*prepared, error) {
	if l.prefetchDone != nil {
		select {
		case <-l.prefetchDone:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		l.prefetchDone = nil
	}
	return l.slot.take(key), nil
}

func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
