package treehugger

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jward/treehugger/internal/lang"
)

const defaultDebounce = 300 * time.Millisecond

// Watch analyzes root and then re-analyzes it each time source files
// under it change, until ctx is done. fn receives the result of every
// run, including the first. Events are coalesced for the WithDebounce
// interval before a run starts.
func (e *Engine) Watch(ctx context.Context, root string, fn func(*Summary, error)) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("treehugger: watch: %w", err)
	}
	defer w.Close()
	if err := watchTree(w, abs); err != nil {
		return fmt.Errorf("treehugger: watch %s: %w", abs, err)
	}

	fn(e.AnalyzeDirectory(ctx, abs))

	timer := time.NewTimer(e.opts.debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if e.triggers(w, ev) {
				timer.Reset(e.opts.debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.opts.logger.Warn("watch error", "err", err)
		case <-timer.C:
			fn(e.AnalyzeDirectory(ctx, abs))
		}
	}
}

// triggers reports whether ev should cause a re-analysis. New directories
// are added to the watch.
func (e *Engine) triggers(w *fsnotify.Watcher, ev fsnotify.Event) bool {
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return true
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if skipped(filepath.Base(ev.Name)) {
				return false
			}
			if err := watchTree(w, ev.Name); err != nil {
				e.opts.logger.Debug("watch: adding directory", "path", ev.Name, "err", err)
			}
			return true
		}
	case !ev.Has(fsnotify.Write):
		return false
	}
	return e.opts.language != "" || lang.Supported(ev.Name)
}

// watchTree adds dir and its subdirectories to w, skipping the directories
// the filesystem walk skips. A non-directory is ignored.
func watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipped(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
