package journal

import "github.com/fsnotify/fsnotify"

// ensureWatch subscribes a started tailer to directory notifications once the
// directory can be listed. A failure other than the directory being absent leaves the
// tailer polling only, and is not retried.
func (t *Tailer) ensureWatch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started || t.watcher != nil || t.noNotify {
		return
	}
	select {
	case <-t.done:
		return
	default:
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		t.logger.Warn("journal: notifier unavailable, polling only", "error", err)
		t.noNotify = true
		return
	}
	if err := fw.Add(t.cfg.Dir); err != nil {
		t.logger.Warn("journal: watch unavailable, polling only", "dir", t.cfg.Dir, "error", err)
		fw.Close()
		t.noNotify = true
		return
	}
	t.watcher = fw
	t.wg.Add(1)
	go t.watchLoop(fw)
}

// watchLoop forwards filesystem notifications as best-effort wake-ups.
func (t *Tailer) watchLoop(fw *fsnotify.Watcher) {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !IsJournalFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				t.Wake()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			// Overflow and friends only cost latency; the ticker still runs.
			t.logger.Debug("journal: notifier error", "error", err)
		}
	}
}
