package pixelmorph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debouncer coalesces a burst of events into one callback after delay. Each
// trigger replaces the pending timer; a timer whose generation is no longer
// current does nothing, so a burst fires exactly once.
type debouncer struct {
	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	last   string
	delay  time.Duration
	onFire func(path string)
}

func newDebouncer(delay time.Duration, onFire func(path string)) *debouncer {
	return &debouncer{delay: delay, onFire: onFire}
}

func (d *debouncer) trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = path
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	path := d.last
	d.timer = nil
	d.mu.Unlock()
	d.onFire(path)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// WatchImages calls onChange whenever one of paths is written, created or
// atomically replaced, coalescing bursts within debounce. Parent directories
// are watched so editors that replace files by rename are seen. It blocks
// until ctx is done.
func WatchImages(ctx context.Context, paths []string, debounce time.Duration, onChange func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	wanted := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		wanted[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	db := newDebouncer(debounce, onChange)
	defer db.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || !wanted[name] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if _, err := os.Stat(name); err != nil {
				continue
			}
			db.trigger(name)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			_, _ = fmt.Fprintf(os.Stderr, "[pixelmorph] watcher error: %v\n", err)
		}
	}
}
