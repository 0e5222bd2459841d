// Package watch rescans the category directories when their contents change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oukeidos/walldisplay/internal/logger"
	"github.com/oukeidos/walldisplay/internal/menu"
	"github.com/oukeidos/walldisplay/internal/scan"
)

// DefaultDebounce groups bursts of events, such as a folder being copied in.
const DefaultDebounce = 500 * time.Millisecond

type Watcher struct {
	root     string
	cats     []menu.Category
	debounce time.Duration
	fsw      *fsnotify.Watcher
	watched  map[string]bool
	out      chan scan.Catalog
}

// New watches root and the directory of every category. Category
// directories that do not exist yet are picked up once they are created.
func New(root string, cats []menu.Category, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		root:     root,
		cats:     cats,
		debounce: debounce,
		fsw:      fsw,
		watched:  make(map[string]bool),
		out:      make(chan scan.Catalog, 1),
	}
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, err
	}
	w.watched[root] = true
	w.addCategoryDirs()
	return w, nil
}

// Poll returns the most recent rescanned catalogue without waiting.
func (w *Watcher) Poll() (scan.Catalog, bool) {
	select {
	case c := <-w.out:
		return c, true
	default:
		return nil, false
	}
}

func (w *Watcher) Close() error { return w.fsw.Close() }

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			w.forget(ev)
			logger.Debug("Content change", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Content watcher error", "error", err)
		case <-timer.C:
			w.addCategoryDirs()
			catalog := scan.Build(w.root, w.cats)
			logger.Info("Content rescanned", "images", catalog.Total())
			w.publish(catalog)
		}
	}
}

func (w *Watcher) publish(c scan.Catalog) {
	select {
	case w.out <- c:
		return
	default:
	}
	select {
	case <-w.out:
	default:
	}
	select {
	case w.out <- c:
	default:
	}
}

func (w *Watcher) addCategoryDirs() {
	for _, c := range w.cats {
		dir := filepath.Join(w.root, c.Dir)
		if w.watched[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("Cannot watch category directory", "dir", dir, "error", err)
			}
			continue
		}
		w.watched[dir] = true
	}
}

// forget drops a removed or renamed category directory from the watched set.
// The kernel has already released its watch, so the next rescan adds it again
// once the directory exists.
func (w *Watcher) forget(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	dir := filepath.Clean(ev.Name)
	if dir == filepath.Clean(w.root) || !w.watched[dir] {
		return
	}
	delete(w.watched, dir)
	_ = w.fsw.Remove(dir)
	logger.Debug("Category directory gone", "dir", dir)
}

func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	return !strings.HasPrefix(filepath.Base(ev.Name), ".")
}
