package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

func (c *Config) normalize() error {
	paths := make([]string, 0, len(c.Slideshow.Paths))
	for _, p := range c.Slideshow.Paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		expanded, err := expandPath(p)
		if err != nil {
			return err
		}
		paths = append(paths, expanded)
	}
	c.Slideshow.Paths = paths

	delay, err := time.ParseDuration(strings.TrimSpace(c.Slideshow.Delay))
	if err != nil {
		return fmt.Errorf("slideshow.delay: %w", err)
	}
	c.Slideshow.DelayDuration = delay

	budget, err := humanize.ParseBytes(strings.TrimSpace(c.Slideshow.MaxImageBytes))
	if err != nil {
		return fmt.Errorf("slideshow.max_image_bytes: %w", err)
	}
	c.Slideshow.ByteBudget = budget

	limit, err := humanize.ParseBytes(strings.TrimSpace(c.Slideshow.MaxDecodeBytes))
	if err != nil {
		return fmt.Errorf("slideshow.max_decode_bytes: %w", err)
	}
	c.Slideshow.DecodeLimit = limit

	c.Display.Kind = strings.ToLower(strings.TrimSpace(c.Display.Kind))
	c.Display.Device = strings.TrimSpace(c.Display.Device)
	c.Display.TTY = strings.TrimSpace(c.Display.TTY)
	if c.Display.BackgroundColour, err = ParseColour(c.Display.Background); err != nil {
		return fmt.Errorf("display.background: %w", err)
	}
	if c.Display.Backoff, err = time.ParseDuration(strings.TrimSpace(c.Display.PrepareBackoff)); err != nil {
		return fmt.Errorf("display.prepare_backoff: %w", err)
	}

	if c.Font.Path, err = expandPath(strings.TrimSpace(c.Font.Path)); err != nil {
		return err
	}
	if c.Font.Colour, err = ParseColour(c.Font.Color); err != nil {
		return fmt.Errorf("font.color: %w", err)
	}
	c.Font.Align = strings.ToLower(strings.TrimSpace(c.Font.Align))

	if c.PhotoPrism.URL == "" {
		c.PhotoPrism.URL = os.Getenv("PHOTOPRISM_DOMAIN")
	}
	if c.PhotoPrism.Token == "" {
		c.PhotoPrism.Token = os.Getenv("PHOTOPRISM_TOKEN")
	}
	if c.PhotoPrism.Album == "" {
		c.PhotoPrism.Album = os.Getenv("ALBUM_UID")
	}
	c.PhotoPrism.URL = strings.TrimRight(strings.TrimSpace(c.PhotoPrism.URL), "/")

	c.Web.Listen = strings.TrimSpace(c.Web.Listen)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}
