package metadata

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestFromMapLookup(t *testing.T) {
	tags := FromMap(map[string]string{"Model": "EOS R5", "Orientation": "6"})
	if got := tags.Lookup("Model"); got != "EOS R5" {
		t.Fatalf("Lookup(Model) = %q", got)
	}
	if got := tags.Lookup("Artist"); got != "" {
		t.Fatalf("Lookup(Artist) = %q", got)
	}
	if got := tags.Orientation(); got != 6 {
		t.Fatalf("Orientation = %d", got)
	}
}

func TestOrientationDefaults(t *testing.T) {
	var nilTags *Tags
	tests := []*Tags{
		nilTags,
		{},
		FromMap(map[string]string{"Orientation": "9"}),
		FromMap(map[string]string{"Orientation": "x"}),
	}
	for i, tags := range tests {
		if got := tags.Orientation(); got != 1 {
			t.Fatalf("case %d: Orientation = %d, want 1", i, got)
		}
	}
}

func TestNilTagsAreEmpty(t *testing.T) {
	var tags *Tags
	if tags.Lookup("Model") != "" || tags.All() != nil {
		t.Fatalf("nil tags returned values")
	}
}

func TestReadWithoutExif(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	tags, err := Read(buf.Bytes())
	if err == nil {
		t.Fatalf("expected an error for an image without EXIF")
	}
	if tags == nil || tags.Lookup("Exif.Image.Model") != "" || tags.Orientation() != 1 {
		t.Fatalf("tags should be empty, got %+v", tags)
	}
}

func TestAllSorted(t *testing.T) {
	all := FromMap(map[string]string{"b": "2", "a": "1"}).All()
	if len(all) != 2 || all[0] != [2]string{"a", "1"} || all[1] != [2]string{"b", "2"} {
		t.Fatalf("All = %v", all)
	}
}
