package snapshot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce     = 50 * time.Millisecond
	defaultPollInterval = 500 * time.Millisecond
)

// WatcherConfig configures a Watcher. Zero values fall back to defaults.
type WatcherConfig struct {
	Debounce     time.Duration
	PollInterval time.Duration
	Logger       *slog.Logger
}

// fileStamp is what the poll fallback compares to detect a rewrite.
type fileStamp struct {
	modTime time.Time
	size    int64
}

// Watcher reloads snapshot files into a Store when they change. fsnotify
// events are debounced per file; a slower stat poll catches anything the
// notifier coalesced or dropped.
type Watcher struct {
	store  *Store
	cfg    WatcherConfig
	logger *slog.Logger

	stamps map[Kind]fileStamp

	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	fw        *fsnotify.Watcher
}

// NewWatcher creates a watcher feeding store.
func NewWatcher(store *Store, cfg WatcherConfig) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "snapshot-watcher"),
		stamps: make(map[Kind]fileStamp),
		done:   make(chan struct{}),
	}
}

// Start performs the initial load of every kind and begins watching.
func (w *Watcher) Start(ctx context.Context) error {
	w.startOnce.Do(func() {
		w.pollOnce()

		fw, err := fsnotify.NewWatcher()
		if err != nil {
			w.logger.Warn("snapshot: notifier unavailable, polling only", "error", err)
		} else if err := fw.Add(w.store.Dir()); err != nil {
			w.logger.Warn("snapshot: watch unavailable, polling only", "dir", w.store.Dir(), "error", err)
			fw.Close()
		} else {
			w.fw = fw
		}

		w.wg.Add(1)
		go w.loop(ctx)
	})
	return nil
}

// Stop halts the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.fw != nil {
			w.fw.Close()
		}
	})
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	pending := make(map[Kind]time.Time)
	debounce := time.NewTicker(w.cfg.Debounce)
	defer debounce.Stop()
	poll := time.NewTicker(w.cfg.PollInterval)
	defer poll.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if w.fw != nil {
		events = w.fw.Events
		errs = w.fw.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			kind, match := KindForFile(event.Name)
			if !match {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending[kind] = time.Now()
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Debug("snapshot: notifier error", "error", err)

		case <-debounce.C:
			now := time.Now()
			for kind, t := range pending {
				if now.Sub(t) >= w.cfg.Debounce {
					w.reload(kind)
					delete(pending, kind)
				}
			}

		case <-poll.C:
			w.pollOnce()
		}
	}
}

// pollOnce reloads every kind whose file stamp changed since the last
// successful load. Absent files are skipped until they appear.
func (w *Watcher) pollOnce() {
	for _, kind := range Kinds() {
		stamp, err := statStamp(filepath.Join(w.store.Dir(), kind.FileName()))
		if err != nil {
			continue
		}
		if prev, ok := w.stamps[kind]; ok && prev == stamp {
			continue
		}
		w.reload(kind)
	}
}

// reload loads kind and records its stamp only on success, so a file caught
// mid-write is retried on the next poll.
func (w *Watcher) reload(kind Kind) {
	path := filepath.Join(w.store.Dir(), kind.FileName())
	stamp, statErr := statStamp(path)
	if err := w.store.Load(kind); err != nil {
		w.logger.Debug("snapshot: load failed, will retry", "kind", kind.String(), "error", err)
		delete(w.stamps, kind)
		return
	}
	if statErr == nil {
		w.stamps[kind] = stamp
	}
}

func statStamp(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}, nil
}
