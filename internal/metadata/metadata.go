// Package metadata reads EXIF tags from image bytes and answers lookups by
// tag name.
package metadata

import (
	"bytes"
	"sort"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Tags holds the metadata of one image. The zero value and a nil *Tags
// answer every lookup with "".
type Tags struct {
	x      *exif.Exif
	values map[string]string
}

// Read parses EXIF data out of an encoded image. Images without EXIF, or
// with EXIF goexif cannot use, yield empty Tags; the error is returned for
// logging only.
func Read(data []byte) (*Tags, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return &Tags{}, err
	}
	return &Tags{x: x}, nil
}

// FromMap builds Tags from fixed values, used by tests and sources that
// carry their own metadata.
func FromMap(values map[string]string) *Tags {
	return &Tags{values: values}
}

// Lookup returns the interpreted value of tag, or "" if missing. Names
// are goexif field names ("Model", "DateTimeOriginal"); exiv2 style keys
// such as "Exif.Image.Model" are reduced to their last segment.
func (t *Tags) Lookup(tag string) string {
	if t == nil {
		return ""
	}
	if v, ok := t.values[tag]; ok {
		return v
	}
	if t.x == nil {
		return ""
	}
	name := tag
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return ""
	}
	tg, err := t.x.Get(exif.FieldName(name))
	if err != nil {
		return ""
	}
	return tagString(tg)
}

// Orientation returns the EXIF orientation (1-8), or 1 when unknown.
func (t *Tags) Orientation() int {
	if t == nil {
		return 1
	}
	if v, ok := t.values[string(exif.Orientation)]; ok {
		switch v {
		case "2", "3", "4", "5", "6", "7", "8":
			return int(v[0] - '0')
		}
		return 1
	}
	if t.x == nil {
		return 1
	}
	tg, err := t.x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tg.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// All returns every tag as name/value pairs sorted by name.
func (t *Tags) All() [][2]string {
	if t == nil {
		return nil
	}
	seen := map[string]string{}
	for k, v := range t.values {
		seen[k] = v
	}
	if t.x != nil {
		_ = t.x.Walk(walkFunc(func(name exif.FieldName, tg *tiff.Tag) error {
			if _, ok := seen[string(name)]; !ok {
				seen[string(name)] = tagString(tg)
			}
			return nil
		}))
	}
	out := make([][2]string, 0, len(seen))
	for k, v := range seen {
		out = append(out, [2]string{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

type walkFunc func(exif.FieldName, *tiff.Tag) error

func (f walkFunc) Walk(name exif.FieldName, tag *tiff.Tag) error { return f(name, tag) }

func tagString(tg *tiff.Tag) string {
	var s string
	if tg.Format() == tiff.StringVal {
		v, err := tg.StringVal()
		if err != nil {
			return ""
		}
		s = v
	} else {
		s = strings.Trim(tg.String(), `"`)
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
