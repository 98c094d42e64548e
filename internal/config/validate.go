package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/drummonds/slideframe/internal/logging"
	"github.com/drummonds/slideframe/internal/statusline"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSlideshow(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	if err := c.validateFont(); err != nil {
		return err
	}
	if _, err := c.StatusLine.Spec(); err != nil {
		return err
	}
	if err := c.validatePhotoPrism(); err != nil {
		return err
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateSlideshow() error {
	if len(c.Slideshow.Paths) == 0 && !c.PhotoPrism.Enabled {
		return errors.New("slideshow.paths must list at least one file, directory or glob (or enable photoprism)")
	}
	if c.Slideshow.DelayDuration <= 0 {
		return errors.New("slideshow.delay must be positive")
	}
	if c.Slideshow.ByteBudget == 0 || c.Slideshow.ByteBudget > math.MaxInt64 {
		return errors.New("slideshow.max_image_bytes must be a finite positive size")
	}
	if c.Slideshow.DecodeLimit < c.Slideshow.ByteBudget {
		return errors.New("slideshow.max_decode_bytes must be at least slideshow.max_image_bytes")
	}
	return nil
}

func (c *Config) validateDisplay() error {
	switch c.Display.Kind {
	case DisplayFramebuffer:
		if c.Display.Device == "" {
			return errors.New("display.device must be set for the framebuffer display")
		}
	case DisplayWindow:
		if c.Display.Width <= 0 || c.Display.Height <= 0 {
			return errors.New("display.width and display.height must be positive for the window display")
		}
	default:
		return fmt.Errorf("display.kind: unsupported value %q (want %s or %s)", c.Display.Kind, DisplayFramebuffer, DisplayWindow)
	}
	if c.Display.PrepareRetries < 0 {
		return errors.New("display.prepare_retries must not be negative")
	}
	if c.Display.Backoff < 0 {
		return errors.New("display.prepare_backoff must not be negative")
	}
	return nil
}

func (c *Config) validateFont() error {
	if c.Font.Size <= 0 || math.IsInf(c.Font.Size, 0) || math.IsNaN(c.Font.Size) {
		return errors.New("font.size must be positive")
	}
	switch c.Font.Align {
	case "left", "center", "right":
	default:
		return fmt.Errorf("font.align: unsupported value %q (want left, center or right)", c.Font.Align)
	}
	return nil
}

func (c *Config) validatePhotoPrism() error {
	if !c.PhotoPrism.Enabled {
		return nil
	}
	if c.PhotoPrism.URL == "" {
		return errors.New("photoprism.url must be set when photoprism.enabled is true (or set PHOTOPRISM_DOMAIN)")
	}
	if c.PhotoPrism.Token == "" {
		return errors.New("photoprism.token must be set when photoprism.enabled is true (or set PHOTOPRISM_TOKEN)")
	}
	return nil
}

// Spec converts the status line settings into a statusline.Spec. Case
// names and tag policies are always checked; regexes are checked here
// only when strict_patterns is set.
func (s StatusLine) Spec() (statusline.Spec, error) {
	spec := statusline.Spec{
		Settings: statusline.LineSettings{
			Separator: s.Separator,
			Uniquify:  s.Uniquify,
			HideEmpty: s.HideEmpty,
		},
		Strict: s.StrictPatterns,
		Line:   patterns(s.Replace),
	}

	for i, el := range s.Elements {
		if len(el.ExifTags) == 0 {
			return spec, fmt.Errorf("status_line.element[%d].exif_tags must not be empty", i)
		}
		policy, err := statusline.ParsePolicy(el.TagPolicy)
		if err != nil {
			return spec, fmt.Errorf("status_line.element[%d].tag_policy: %w", i, err)
		}
		es := statusline.ElementSpec{
			Tags:         el.ExifTags,
			Policy:       policy,
			TagSeparator: el.TagSeparator,
			Patterns:     patterns(el.Replace),
		}
		if es.TagSeparator == "" {
			es.TagSeparator = " "
		}
		if el.Case != "" {
			to, err := statusline.ParseCase(el.Case)
			if err != nil {
				return spec, fmt.Errorf("status_line.element[%d].case: %w", i, err)
			}
			es.Conversions = append(es.Conversions, statusline.CaseConversion{To: to})
		}
		if cc := el.CaseConversion; cc != nil {
			from, err := statusline.ParseCase(cc.From)
			if err != nil {
				return spec, fmt.Errorf("status_line.element[%d].case_conversion.from: %w", i, err)
			}
			to, err := statusline.ParseCase(cc.To)
			if err != nil {
				return spec, fmt.Errorf("status_line.element[%d].case_conversion.to: %w", i, err)
			}
			es.Conversions = append(es.Conversions, statusline.CaseConversion{From: from, To: to})
		}
		if el.Capitalize {
			es.Conversions = append(es.Conversions, statusline.Capitalize)
		}
		if s.StrictPatterns {
			for _, p := range es.Patterns {
				if _, err := statusline.CompilePattern(p); err != nil {
					return spec, &statusline.PatternError{Element: i, Pattern: p.Regex, Err: err}
				}
			}
		}
		spec.Elements = append(spec.Elements, es)
	}

	if s.StrictPatterns {
		for _, p := range spec.Line {
			if _, err := statusline.CompilePattern(p); err != nil {
				return spec, &statusline.PatternError{Element: -1, Pattern: p.Regex, Err: err}
			}
		}
	}
	return spec, nil
}

func patterns(rs []Replacement) []statusline.Pattern {
	out := make([]statusline.Pattern, 0, len(rs))
	for _, r := range rs {
		out = append(out, statusline.Pattern{Regex: r.Regex, Replace: r.Replace})
	}
	return out
}
