// Package source supplies the ordered list of slides and the bytes behind
// each one. Local files, directories and globs are read from disk;
// PhotoPrism albums are fetched over HTTP.
package source

import (
	"context"
	"errors"
	"log/slog"

	"github.com/drummonds/slideframe/internal/config"
)

// ErrEmpty is returned by List when nothing matched.
var ErrEmpty = errors.New("no images found")

// Source lists slides and fetches their contents.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Watcher is implemented by sources that can tell when List would return
// something new.
type Watcher interface {
	Changed() <-chan struct{}
	Close() error
}

// New builds the source described by cfg. PhotoPrism takes precedence
// over local paths when enabled.
func New(cfg *config.Config, logger *slog.Logger) (Source, error) {
	if cfg.PhotoPrism.Enabled {
		return NewPhotoPrism(cfg.PhotoPrism, logger)
	}
	return NewLocal(cfg.Slideshow.Paths, LocalOptions{
		Shuffle: cfg.Slideshow.Shuffle,
		Watch:   cfg.Slideshow.Watch,
	}, logger)
}
