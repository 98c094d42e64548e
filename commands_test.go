package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/drummonds/slideframe/internal/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output missing %q:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := runCLI(t, "config", "init", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", target); err == nil {
		t.Fatalf("expected an error when the file exists")
	}
	if _, err := runCLI(t, "config", "init", "--overwrite", target); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, err = runCLI(t, "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "1m30s")
}

func TestInspectImageWithoutExif(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if err := config.CreateSample(cfgPath); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	imgPath := filepath.Join(dir, "plain.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(imgPath, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "--config", cfgPath, "inspect", imgPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, imgPath)
	requireContains(t, out, "(missing)")
	requireContains(t, out, `Status line: ""`)
}

func TestInspectRequiresFiles(t *testing.T) {
	if _, err := runCLI(t, "inspect"); err == nil {
		t.Fatalf("expected an argument error")
	}
}

func TestShowFlagsOverrideConfig(t *testing.T) {
	cfg := config.Default()
	var flags showFlags
	cmd := newShowCommand(new(string))
	if err := cmd.ParseFlags([]string{"--delay", "5s", "--display", "window", "--shuffle"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	flags.delay, _ = cmd.Flags().GetString("delay")
	flags.display, _ = cmd.Flags().GetString("display")
	flags.shuffle, _ = cmd.Flags().GetBool("shuffle")

	applyShowFlags(cmd, &cfg, flags, []string{"/photos"})
	if err := cfg.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if cfg.Slideshow.DelayDuration != 5*time.Second {
		t.Fatalf("delay = %v, want 5s", cfg.Slideshow.DelayDuration)
	}
	if cfg.Display.Kind != config.DisplayWindow || !cfg.Slideshow.Shuffle {
		t.Fatalf("overrides not applied: %+v", cfg.Display)
	}
	if len(cfg.Slideshow.Paths) != 1 || cfg.Slideshow.Paths[0] != "/photos" {
		t.Fatalf("paths = %v", cfg.Slideshow.Paths)
	}
	if cfg.Font.Path != "" {
		t.Fatalf("unset --font changed font path to %q", cfg.Font.Path)
	}
}

func TestLockPathPerDevice(t *testing.T) {
	if lockPath("/dev/fb0") == lockPath("/dev/fb1") {
		t.Fatalf("devices share a lock")
	}
	if got := filepath.Base(lockPath("/dev/fb0")); got != "slideframe-fb0.lock" {
		t.Fatalf("lock name = %q", got)
	}
}
