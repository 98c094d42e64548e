package slideshow

import "time"

// Cursor is the position in the path list. The list only changes between
// slides, through Replace.
type Cursor struct {
	paths      []string
	index      int
	generation uint64
	startedAt  time.Time
}

func NewCursor(paths []string) *Cursor {
	return &Cursor{paths: paths}
}

func (c *Cursor) Len() int { return len(c.paths) }

func (c *Cursor) Index() int { return c.index }

func (c *Cursor) Path() string { return c.paths[c.index] }

// PathAt returns the path i slides ahead of the current one.
func (c *Cursor) PathAt(ahead int) (int, string) {
	i := (c.index + ahead) % len(c.paths)
	return i, c.paths[i]
}

// Generation changes every time the list is replaced.
func (c *Cursor) Generation() uint64 { return c.generation }

// Start records when loading of the current slide began.
func (c *Cursor) Start(t time.Time) { c.startedAt = t }

func (c *Cursor) StartedAt() time.Time { return c.startedAt }

// Advance moves to the next path, wrapping after the last.
func (c *Cursor) Advance() {
	c.index = (c.index + 1) % len(c.paths)
}

// Replace swaps in a reloaded list. The cursor stays on the path it was
// on when that path is still listed, otherwise it restarts at the top.
// An empty list is ignored.
func (c *Cursor) Replace(paths []string) bool {
	if len(paths) == 0 {
		return false
	}
	current := ""
	if len(c.paths) > 0 {
		current = c.paths[c.index]
	}
	c.paths = paths
	c.index = 0
	for i, p := range paths {
		if p == current {
			c.index = i
			break
		}
	}
	c.generation++
	return true
}
