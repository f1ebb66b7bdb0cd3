package daemon

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kanyini-os/kanyini/internal/logging"
	"github.com/kanyini-os/kanyini/internal/source"
)

// dataWatcher signals when fixture files in the data directory change.
// Bursts of events within the debounce window produce a single signal.
type dataWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      logging.Logger
	changed  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newDataWatcher(dir string, debounce time.Duration, log logging.Logger) (*dataWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	return &dataWatcher{
		watcher:  w,
		debounce: debounce,
		log:      log,
		changed:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Changed delivers one value per debounced batch of fixture changes.
func (dw *dataWatcher) Changed() <-chan struct{} {
	return dw.changed
}

func (dw *dataWatcher) run(ctx context.Context) {
	defer close(dw.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			dw.log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("fixture changed")
			if timer == nil {
				timer = time.NewTimer(dw.debounce)
			} else {
				timer.Reset(dw.debounce)
			}
			fire = timer.C

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.log.Warn().Err(err).Msg("watcher error")

		case <-fire:
			fire = nil
			select {
			case dw.changed <- struct{}{}:
			default:
			}
		}
	}
}

// stop closes the watcher and waits for run to return.
func (dw *dataWatcher) stop() {
	dw.stopOnce.Do(func() {
		_ = dw.watcher.Close()
		<-dw.done
	})
}

func relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return source.ClassifyName(filepath.Base(ev.Name)) != source.KindUnknown
}
