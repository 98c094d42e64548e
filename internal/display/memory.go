package display

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
)

// Memory renders into an in-memory frame. It backs the snapshot tool and
// tests.
type Memory struct {
	W, H int
	BG   color.RGBA
	Font Font

	mu     sync.Mutex
	comp   *composer
	frames int
	texts  []string
	done   chan struct{}
	once   sync.Once
}

func NewMemory(w, h int, bg color.RGBA, font Font) *Memory {
	return &Memory{W: w, H: h, BG: bg, Font: font, done: make(chan struct{})}
}

func (m *Memory) Prepare(ctx context.Context) (Surface, error) {
	if err := ctx.Err(); err != nil {
		return Surface{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comp = newComposer(m.W, m.H, m.BG, m.Font)
	return m.comp.surface(), nil
}

func (m *Memory) Draw(buf *image.RGBA, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	if m.comp == nil {
		return errors.New("memory display not prepared")
	}
	if _, err := m.comp.compose(buf, text); err != nil {
		return err
	}
	m.frames++
	m.texts = append(m.texts, text)
	return nil
}

// Frames returns how many slides were drawn.
func (m *Memory) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// Texts returns the status lines drawn so far, in order.
func (m *Memory) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

func (m *Memory) Snapshot() image.Image {
	m.mu.Lock()
	comp := m.comp
	m.mu.Unlock()
	if comp == nil {
		return nil
	}
	return comp.Snapshot()
}

func (m *Memory) Done() <-chan struct{} { return m.done }

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}
