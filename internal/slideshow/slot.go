package slideshow

import (
	"image"
	"sync"
)

// slideKey identifies which slide a prepared buffer belongs to.
type slideKey struct {
	index      int
	path       string
	generation uint64
}

// prepared is a slide ready to draw.
type prepared struct {
	key  slideKey
	buf  *image.RGBA
	text string
}

// slot hands one prepared slide from the prefetcher to the loop. The
// producer overwrites; the consumer takes and clears.
type slot struct {
	mu      sync.Mutex
	slide   *prepared
	dropped uint64
}

func (s *slot) put(p *prepared) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slide != nil {
		s.dropped++
	}
	s.slide = p
}

// take returns the held slide if it is for key. The slot is emptied
// either way, so a stale slide is never shown later.
func (s *slot) take(key slideKey) *prepared {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.slide
	s.slide = nil
	if p == nil || p.key != key {
		if p != nil {
			s.dropped++
		}
		return nil
	}
	return p
}
