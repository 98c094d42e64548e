package config

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Slideshow contains the image list and pacing settings.
type Slideshow struct {
	// Paths lists files, directories and glob patterns (`**` allowed once).
	Paths   []string `toml:"paths"`
	Watch   bool     `toml:"watch"`
	Shuffle bool     `toml:"shuffle"`
	// Delay is the minimum time a slide stays visible, e.g. "90s".
	Delay string `toml:"delay"`
	// MaxImageBytes is the decoded pixel buffer ceiling, e.g. "8 MB".
	MaxImageBytes string `toml:"max_image_bytes"`
	// MaxDecodeBytes refuses images whose full decode would be larger.
	MaxDecodeBytes string `toml:"max_decode_bytes"`
	Prefetch       bool   `toml:"prefetch"`

	DelayDuration time.Duration `toml:"-"`
	ByteBudget    uint64        `toml:"-"`
	DecodeLimit   uint64        `toml:"-"`
}

// Display selects and tunes the output sink.
type Display struct {
	Kind           string `toml:"kind"`
	Device         string `toml:"device"`
	TTY            string `toml:"tty"`
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
	Background     string `toml:"background"`
	PrepareRetries int    `toml:"prepare_retries"`
	PrepareBackoff string `toml:"prepare_backoff"`

	BackgroundColour color.RGBA    `toml:"-"`
	Backoff          time.Duration `toml:"-"`
}

// Font describes the face used for the status line.
type Font struct {
	// Path to a TrueType font; empty selects the built-in bitmap face.
	Path  string  `toml:"path"`
	Size  float64 `toml:"size"`
	Color string  `toml:"color"`
	Align string  `toml:"align"`

	Colour color.RGBA `toml:"-"`
}

// Replacement is one regex substitution step.
type Replacement struct {
	Regex   string `toml:"regex"`
	Replace string `toml:"replace"`
}

// CaseConversion converts a value from one letter case to another.
type CaseConversion struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// Element is one status line entry built from metadata tags.
type Element struct {
	ExifTags       []string        `toml:"exif_tags"`
	TagPolicy      string          `toml:"tag_policy"`
	TagSeparator   string          `toml:"tag_separator"`
	Case           string          `toml:"case"`
	CaseConversion *CaseConversion `toml:"case_conversion"`
	Capitalize     bool            `toml:"capitalize"`
	Replace        []Replacement   `toml:"replace"`
}

// StatusLine holds the per-element rules plus the line level settings.
type StatusLine struct {
	Separator      string        `toml:"separator"`
	Uniquify       bool          `toml:"uniquify"`
	HideEmpty      bool          `toml:"hide_empty"`
	StrictPatterns bool          `toml:"strict_patterns"`
	Elements       []Element     `toml:"element"`
	Replace        []Replacement `toml:"replace"`
}

// PhotoPrism contains the album source settings.
type PhotoPrism struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Token   string `toml:"token"`
	Album   string `toml:"album"`
}

// Web contains the optional status server settings.
type Web struct {
	Listen string `toml:"listen"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the immutable, fully resolved slideshow configuration.
//
// Sections:
//   - Slideshow: image list, delay, byte budget, prefetch
//   - Display: framebuffer or window sink
//   - Font: status line face, size, colour and alignment
//   - StatusLine: metadata tag rules and line settings
//   - PhotoPrism: optional album source
//   - Web: optional status server
//   - Logging: log format and level
type Config struct {
	Slideshow  Slideshow  `toml:"slideshow"`
	Display    Display    `toml:"display"`
	Font       Font       `toml:"font"`
	StatusLine StatusLine `toml:"status_line"`
	PhotoPrism PhotoPrism `toml:"photoprism"`
	Web        Web        `toml:"web"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/slideframe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has paths expanded and durations, sizes and colours resolved.
func Load(path string) (*Config, string, bool, error) {
	cfg, resolvedPath, exists, err := Read(path)
	if err != nil {
		return nil, "", false, err
	}
	if err := cfg.Finish(); err != nil {
		return nil, "", false, err
	}
	return cfg, resolvedPath, exists, nil
}

// Read locates and decodes a configuration file on top of the defaults
// without validating it, so callers can apply overrides before Finish.
// A missing file yields the defaults.
func Read(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}
	return &cfg, resolvedPath, exists, nil
}

// Parse decodes TOML text on top of the defaults and finishes the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Finish normalizes and validates the config. Call it again after
// applying command line overrides.
func (c *Config) Finish() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("slideframe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
