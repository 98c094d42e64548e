package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/drummonds/slideframe/internal/logging"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// IsImage reports whether name has an image file extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

type LocalOptions struct {
	Shuffle bool
	Watch   bool
	// Rand is used for shuffling; nil means a randomly seeded source.
	Rand *rand.Rand
}

// Local lists files, directories and glob patterns on disk. Directories
// contribute the images directly inside them. Patterns may use ** to
// match any number of directories.
type Local struct {
	entries []string
	opts    LocalOptions
	log     *slog.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	watcher *fsnotify.Watcher
	trees   []string
	changed chan struct{}
	done    chan struct{}
}

func NewLocal(entries []string, opts LocalOptions, logger *slog.Logger) (*Local, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no paths given")
	}
	l := &Local{
		entries: entries,
		opts:    opts,
		log:     logger,
		rng:     opts.Rand,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if l.log == nil {
		l.log = logging.NewNop()
	}
	if opts.Watch {
		if err := l.startWatch(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// List expands every entry, drops duplicates and sorts the result
// lexically, or shuffles it when configured to.
func (l *Local) List(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, entry := range l.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if hasMeta(entry) {
			matches, err := Glob(entry)
			if err != nil {
				return nil, fmt.Errorf("glob %q: %w", entry, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}
		info, err := os.Stat(entry)
		if err != nil {
			l.log.Warn("skipping path", "path", entry, "error", err)
			continue
		}
		if !info.IsDir() {
			add(entry)
			continue
		}
		files, err := os.ReadDir(entry)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", entry, err)
		}
		for _, f := range files {
			if !f.IsDir() && IsImage(f.Name()) {
				add(filepath.Join(entry, f.Name()))
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	sort.Strings(out)
	if l.opts.Shuffle {
		l.mu.Lock()
		l.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		l.mu.Unlock()
	}
	return out, nil
}

// Fetch reads the file at path.
func (l *Local) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, `*?[`)
}

// Glob returns the image files matching pattern. Besides filepath.Match
// syntax a path element of ** matches zero or more directories.
func Glob(pattern string) ([]string, error) {
	if !strings.Contains(pattern, "**") {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		out := matches[:0]
		for _, m := range matches {
			if !IsImage(m) {
				continue
			}
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				out = append(out, m)
			}
		}
		return out, nil
	}

	parts := strings.Split(filepath.ToSlash(pattern), "/")
	i := 0
	for i < len(parts) && !hasMeta(parts[i]) {
		i++
	}
	root := filepath.FromSlash(strings.Join(parts[:i], "/"))
	if root == "" {
		root = "."
	}
	if strings.HasPrefix(pattern, "/") && i == 1 {
		root = "/"
	}
	rest := parts[i:]
	// Check the syntax once up front.
	for _, p := range rest {
		if p != "**" {
			if _, err := filepath.Match(p, ""); err != nil {
				return nil, err
			}
		}
	}

	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() || !IsImage(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if matchParts(rest, strings.Split(filepath.ToSlash(rel), "/")) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return out, nil
}

func matchParts(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			for k := 0; k <= len(name); k++ {
				if matchParts(pattern[1:], name[k:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, _ := filepath.Match(pattern[0], name[0]); !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}

type watchDir struct {
	path      string
	recursive bool
}

// watchDirs returns the directories behind the entries. Patterns using **
// need their whole tree watched.
func (l *Local) watchDirs() []watchDir {
	seen := map[string]int{}
	var dirs []watchDir
	for _, entry := range l.entries {
		dir, recursive := entry, false
		if hasMeta(entry) {
			parts := strings.Split(filepath.ToSlash(entry), "/")
			i := 0
			for i < len(parts) && !hasMeta(parts[i]) {
				i++
			}
			dir = filepath.FromSlash(strings.Join(parts[:i], "/"))
			if strings.HasPrefix(entry, "/") && i == 1 {
				dir = "/"
			}
			recursive = strings.Contains(entry, "**")
		} else if info, err := os.Stat(entry); err != nil || !info.IsDir() {
			dir = filepath.Dir(entry)
		}
		if dir == "" {
			dir = "."
		}
		if n, ok := seen[dir]; ok {
			dirs[n].recursive = dirs[n].recursive || recursive
			continue
		}
		seen[dir] = len(dirs)
		dirs = append(dirs, watchDir{path: dir, recursive: recursive})
	}
	return dirs
}

func (l *Local) startWatch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	added := 0
	for _, dir := range l.watchDirs() {
		if dir.recursive {
			l.trees = append(l.trees, dir.path)
			added += l.addTree(w, dir.path)
			continue
		}
		if err := w.Add(dir.path); err != nil {
			l.log.Warn("cannot watch directory", "path", dir.path, "error", err)
			continue
		}
		added++
	}
	if added == 0 {
		w.Close()
		return fmt.Errorf("no directory could be watched")
	}
	l.watcher = w
	go l.watch(w)
	return nil
}

// addTree watches root and every directory below it.
func (l *Local) addTree(w *fsnotify.Watcher, root string) int {
	added := 0
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			l.log.Warn("cannot watch directory", "path", path, "error", err)
			return nil
		}
		added++
		return nil
	})
	return added
}

func (l *Local) inTree(path string) bool {
	for _, root := range l.trees {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (l *Local) watch(w *fsnotify.Watcher) {
	for {
		select {
		case <-l.done:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && l.inTree(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					// May have been moved in with images already inside.
					l.addTree(w, event.Name)
					l.signal()
					continue
				}
			}
			if !IsImage(event.Name) {
				continue
			}
			l.log.Debug("image directory changed", "path", event.Name, "op", event.Op.String())
			l.signal()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.log.Warn("file watcher error", "error", err)
		}
	}
}

func (l *Local) signal() {
	select {
	case l.changed <- struct{}{}:
	default:
	}
}

// Changed fires, coalesced, after an image file in a watched directory
// changes. It never fires when watching is off.
func (l *Local) Changed() <-chan struct{} { return l.changed }

func (l *Local) Close() error {
	select {
	case <-l.done:
		return nil
	default:
	}
	close(l.done)
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}
