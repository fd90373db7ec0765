package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/timesflying/internal/db"
	"github.com/alexanderramin/timesflying/internal/event"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces a burst of filesystem writes (db, -wal, -shm)
// into one refresh.
const watchDebounce = 100 * time.Millisecond

// ErrNoFile is returned by WatchFile for in-memory stores.
var ErrNoFile = errors.New("store: in-memory database has no file to watch")

// WatchFile publishes an OpExternal change for every collection whenever
// the database file is modified, so live queries pick up writes made by
// other processes. Writes from this process also trigger it, which costs
// one extra re-evaluation. The watcher stops when ctx is done.
func (s *Store) WatchFile(ctx context.Context) error {
	if s.path == db.MemoryPath {
		return ErrNoFile
	}

	abs, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("store: resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("store: create watcher: %w", err)
	}
	// Watch the directory: SQLite replaces and creates the -wal/-shm siblings.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("store: watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()

		timer := time.NewTimer(watchDebounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.WarnContext(ctx, "store_watch_error", "error", err.Error())
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasPrefix(filepath.Clean(evt.Name), abs) {
					continue
				}
				if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
					continue
				}
				timer.Reset(watchDebounce)
			case <-timer.C:
				for _, c := range []event.Collection{event.TimeEntries, event.Projects} {
					_ = s.bus.Publish(event.Change{Collection: c, Op: event.OpExternal})
				}
			}
		}
	}()
	return nil
}
