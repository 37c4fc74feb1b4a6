// Package watch re-runs the review when new extracts land in a directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// TriggerFunc is called with the extract files that changed since the last
// call. Calls never overlap.
type TriggerFunc func(ctx context.Context, changed []string)

// Watcher monitors a directory for extract files.
type Watcher struct {
	dir      string
	debounce time.Duration
	trigger  TriggerFunc
	logger   zerolog.Logger
}

func New(dir string, debounce time.Duration, trigger TriggerFunc, logger zerolog.Logger) *Watcher {
	return &Watcher{dir: dir, debounce: debounce, trigger: trigger, logger: logger}
}

// Start begins watching and returns once the directory is registered. Events
// are handled on a background goroutine until ctx is cancelled; the returned
// channel is closed when that goroutine exits.
func (w *Watcher) Start(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer watcher.Close()
		w.loop(ctx, watcher)
	}()
	w.logger.Info().Str("dir", w.dir).Dur("debounce", w.debounce).Msg("watching for extracts")
	return done, nil
}

func (w *Watcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) == 0 || !IsExtract(evt.Name) {
				continue
			}
			w.logger.Debug().Str("file", evt.Name).Str("op", evt.Op.String()).Msg("extract changed")
			pending[evt.Name] = true
			timer.Reset(w.debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			clear(pending)
			w.trigger(ctx, changed)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// Backfill returns the extracts already present in the directory.
func (w *Watcher) Backfill() ([]string, error) {
	entries, err := filepath.Glob(filepath.Join(w.dir, "*"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if IsExtract(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// IsExtract reports whether path names a CSV or Excel extract. Editor and
// spreadsheet lock files are ignored.
func IsExtract(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	default:
		return false
	}
}
