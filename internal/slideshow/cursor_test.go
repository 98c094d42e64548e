package slideshow

import (
	"image"
	"testing"
	"time"
)

func TestCursorAdvanceWraps(t *testing.T) {
	c := NewCursor([]string{"a", "b", "c"})
	var seen []string
	for i := 0; i < 4; i++ {
		seen = append(seen, c.Path())
		c.Advance()
	}
	if got := seen[3]; got != "a" {
		t.Fatalf("after the last path got %q, want a", got)
	}
}

func TestCursorReplaceKeepsCurrentPath(t *testing.T) {
	c := NewCursor([]string{"a", "b", "c"})
	c.Advance()
	if !c.Replace([]string{"new", "b", "c"}) {
		t.Fatalf("Replace refused a non-empty list")
	}
	if c.Path() != "b" || c.Index() != 1 || c.Generation() != 1 {
		t.Fatalf("cursor at %q/%d gen %d", c.Path(), c.Index(), c.Generation())
	}
	c.Replace([]string{"z"})
	if c.Path() != "z" || c.Index() != 0 {
		t.Fatalf("cursor at %q/%d", c.Path(), c.Index())
	}
	if c.Replace(nil) {
		t.Fatalf("Replace accepted an empty list")
	}
	if c.Path() != "z" {
		t.Fatalf("empty reload changed the list")
	}
}

func TestCursorPathAt(t *testing.T) {
	c := NewCursor([]string{"a", "b"})
	c.Advance()
	if i, p := c.PathAt(1); i != 0 || p != "a" {
		t.Fatalf("PathAt(1) = %d %q", i, p)
	}
}

func TestNextTarget(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		loaded time.Time
		want   time.Time
	}{
		{base, base.Add(90 * time.Second)},
		{base.Add(time.Nanosecond), base.Add(91 * time.Second)},
		{base.Add(999 * time.Millisecond), base.Add(91 * time.Second)},
	}
	for _, tc := range cases {
		if got := NextTarget(tc.loaded, 90*time.Second); !got.Equal(tc.want) {
			t.Fatalf("NextTarget(%v) = %v, want %v", tc.loaded, got, tc.want)
		}
	}
}

func TestSlotTakeClears(t *testing.T) {
	var s slot
	key := slideKey{index: 1, path: "b"}
	s.put(&prepared{key: key, buf: image.NewRGBA(image.Rect(0, 0, 1, 1))})
	if s.take(slideKey{index: 2, path: "c"}) != nil {
		t.Fatalf("took a slide for the wrong key")
	}
	if s.take(key) != nil {
		t.Fatalf("stale slide survived a mismatched take")
	}
	s.put(&prepared{key: key})
	if s.take(key) == nil {
		t.Fatalf("matching slide not returned")
	}
	if s.take(key) != nil {
		t.Fatalf("slide returned twice")
	}
}
