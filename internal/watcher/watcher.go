// Package watcher re-runs validation when the documentation tree
// changes, with debouncing so editor save bursts trigger one run.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is invoked once per debounced change burst.
type ChangeHandler func(ctx context.Context, paths []string)

// FileFilter reports whether a changed path is interesting.
type FileFilter func(path string) bool

// DocFilter accepts the files a documentation tree is built from.
func DocFilter(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".yml", ".yaml":
		return true
	}
	return false
}

// Watcher watches a doc root and debounces change events.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	filter   FileFilter
}

// New creates a watcher with the given debounce window.
func New(debounce time.Duration, filter FileFilter) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = DocFilter
	}
	return &Watcher{watcher: fw, debounce: debounce, filter: filter}, nil
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// AddTree watches root and every directory beneath it. fsnotify does not
// recurse on its own, so each directory is registered individually.
func (w *Watcher) AddTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run blocks, invoking handler after each debounced burst of changes to
// interesting files, until the context is cancelled.
func (w *Watcher) Run(ctx context.Context, handler ChangeHandler) error {
	var timer *time.Timer
	var timerC <-chan time.Time
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need registering before changes inside
			// them are visible.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.AddTree(event.Name)
					continue
				}
			}
			if !w.filter(event.Name) {
				continue
			}

			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			pending = make(map[string]struct{})
			timer = nil
			timerC = nil

			handler(ctx, paths)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}
