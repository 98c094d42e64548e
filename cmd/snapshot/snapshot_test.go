package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshotWritesFrame(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 40, 30)
	writePNG(t, filepath.Join(dir, "a.png"), 30, 40)
	out := filepath.Join(dir, "out.png")

	var stdout bytes.Buffer
	err := run(context.Background(), options{out: out, width: 160, height: 120}, []string{dir}, &stdout)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "a.png") {
		t.Fatalf("expected the first image in sorted order, got %q", stdout.String())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 120 {
		t.Fatalf("bounds = %v, want 160x120", img.Bounds())
	}
}

func TestSnapshotNoImages(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	err := run(context.Background(), options{out: filepath.Join(dir, "out.png")}, []string{dir}, &bytes.Buffer{})
	if err == nil {
		t.Fatalf("expected an error for an empty directory")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out.png")); statErr == nil {
		t.Fatalf("output written despite the error")
	}
}
