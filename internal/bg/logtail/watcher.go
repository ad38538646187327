package logtail

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher triggers parse passes when the host's log file is written to,
// with an interval ticker as backup for missed file events. Write bursts
// are debounced so a flurry of log lines costs one parse, not dozens.
type Watcher struct {
	path     string
	debounce time.Duration
	interval time.Duration
	onChange func()
}

// NewWatcher builds a watcher over the log path. onChange runs on the
// watcher goroutine after each (debounced) change or backup tick.
func NewWatcher(path string, debounce, interval time.Duration, onChange func()) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Watcher{path: path, debounce: debounce, interval: interval, onChange: onChange}
}

// Run watches until the context is cancelled. The returned error reflects
// setup failures only; runtime watch errors are logged and survived.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close() //nolint:errcheck // Ignore error on cleanup
	}()

	if err := watcher.Add(w.path); err != nil {
		return fmt.Errorf("watch log file: %w", err)
	}

	// Backup ticker in case file events are delayed or missed.
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-watcher.Events:
			if event.Op&fsnotify.Write != fsnotify.Write {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			w.onChange()
		case <-ticker.C:
			w.onChange()
		case err := <-watcher.Errors:
			log.Printf("[logtail] file watcher error: %v", err)
		}
	}
}
