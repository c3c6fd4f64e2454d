package journal

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultPollInterval     = 100 * time.Millisecond
	defaultCatchupWindow    = 5 * time.Minute
	defaultCatchupTailBytes = 10 * 1024
	defaultEventBuffer      = 256
)

// TailerConfig configures a Tailer. Zero values fall back to defaults.
type TailerConfig struct {
	Dir              string
	PollInterval     time.Duration
	CatchupWindow    time.Duration
	CatchupTailBytes int64

	// CatchupKinds defaults to CriticalKinds.
	CatchupKinds map[string]bool

	// Kinds restricts emitted events. Nil emits every line with an event field.
	Kinds map[string]bool

	// EventBuffer is the capacity of the Events channel.
	EventBuffer int

	// Logger receives parse and I/O diagnostics. Nil discards them.
	Logger *slog.Logger

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Tailer follows every journal file in a directory. A fixed-period ticker is
// the source of truth for progress; filesystem notifications only wake the
// same pass early.
type Tailer struct {
	cfg    TailerConfig
	logger *slog.Logger

	mu      sync.Mutex
	offsets map[string]int64
	primed  bool
	started bool
	// watcher is nil until the directory can be watched; noNotify records
	// that it never will be.
	watcher  *fsnotify.Watcher
	noNotify bool

	events chan Event
	wake   chan struct{}
	busy   atomic.Bool

	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup

	// openFile is swapped in tests to simulate a writer holding a lock.
	openFile func(name string) (*os.File, error)
}

// NewTailer creates a Tailer for cfg.Dir. It does not touch the filesystem
// until Start or Prime is called.
func NewTailer(cfg TailerConfig) *Tailer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.CatchupWindow <= 0 {
		cfg.CatchupWindow = defaultCatchupWindow
	}
	if cfg.CatchupTailBytes <= 0 {
		cfg.CatchupTailBytes = defaultCatchupTailBytes
	}
	if cfg.CatchupKinds == nil {
		cfg.CatchupKinds = CriticalKinds()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tailer{
		cfg:      cfg,
		logger:   logger.With("component", "journal"),
		offsets:  make(map[string]int64),
		events:   make(chan Event, cfg.EventBuffer),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		openFile: os.Open,
	}
}

// Events returns the stream of decoded events. The channel is never closed;
// select on Done to observe shutdown.
func (t *Tailer) Events() <-chan Event {
	return t.events
}

// Done is closed once Stop has been called.
func (t *Tailer) Done() <-chan struct{} {
	return t.done
}

// Offset returns the stored byte offset for path.
func (t *Tailer) Offset(path string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offsets[path]
}

// Start primes offsets, then runs the catch-up replay and the poll loop in a
// background goroutine. A directory that does not exist yet is not an error:
// the loop keeps listing it and every journal that appears is read from its
// start. A missing fsnotify backend degrades to polling only. Cancelling ctx
// stops the tailer as Stop does.
func (t *Tailer) Start(ctx context.Context) error {
	t.startOnce.Do(func() {
		t.mu.Lock()
		t.started = true
		t.mu.Unlock()

		newest, err := t.Prime()
		if err != nil {
			t.logger.Warn("journal: directory not readable yet, waiting for it", "dir", t.cfg.Dir, "error", err)
		} else {
			t.ensureWatch()
		}

		t.wg.Add(1)
		go t.loop(ctx, newest)
		context.AfterFunc(ctx, t.Stop)
	})
	return nil
}

// Stop halts the poll loop and releases the notification subscription. It is
// safe to call more than once, and before Start.
func (t *Tailer) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		close(t.done)
		fw := t.watcher
		t.mu.Unlock()
		if fw != nil {
			fw.Close()
		}
	})
	t.wg.Wait()
}

// Prime sets every existing journal's offset to its current size so history
// is not replayed, and returns the most recently modified file ("" if none).
// Calling it again does not move offsets that are already known. A missing
// directory primes as empty.
func (t *Tailer) Prime() (string, error) {
	files, err := List(t.cfg.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.mu.Lock()
			t.primed = true
			t.mu.Unlock()
		}
		return "", err
	}
	return t.prime(files), nil
}

func (t *Tailer) prime(files []FileInfo) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, f := range files {
		if _, ok := t.offsets[f.Path]; !ok {
			t.offsets[f.Path] = f.Size
		}
	}
	t.primed = true
	if len(files) == 0 {
		return ""
	}
	return files[len(files)-1].Path
}

func (t *Tailer) loop(ctx context.Context, newest string) {
	defer t.wg.Done()

	if newest != "" {
		for _, evt := range t.CatchUp(newest) {
			if !t.emit(evt) {
				return
			}
		}
	}

	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case <-ticker.C:
			t.Poll()
		case <-t.wake:
			t.Poll()
		}
	}
}

// Wake asks the poll loop to run a pass now. Wake-ups coalesce.
func (t *Tailer) Wake() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Poll runs one pass over every journal file. If a pass is already running
// the call returns immediately; the skipped work is picked up next tick.
func (t *Tailer) Poll() {
	if !t.busy.CompareAndSwap(false, true) {
		return
	}
	defer t.busy.Store(false)

	select {
	case <-t.done:
		return
	default:
	}

	files, err := List(t.cfg.Dir)
	if err != nil {
		t.logger.Debug("journal: list failed, retrying next tick", "error", err)
		return
	}
	t.mu.Lock()
	primed := t.primed
	t.mu.Unlock()
	if !primed {
		t.prime(files)
	}
	t.ensureWatch()

	for i, f := range files {
		if !t.pollFile(f, i == len(files)-1) {
			return
		}
	}
}

// pollFile consumes complete lines appended to f since its stored offset. It
// returns false once the tailer is stopping. An inactive journal whose listed
// size matches its offset is skipped unopened; the active one is always
// opened since a directory listing can lag a writer that holds it open.
func (t *Tailer) pollFile(fi FileInfo, active bool) bool {
	path := fi.Path
	t.mu.Lock()
	off, known := t.offsets[path]
	if !known && !t.primed {
		t.mu.Unlock()
		return true
	}
	t.mu.Unlock()
	if known && !active && fi.Size == off {
		return true
	}

	// os.Open requests shared read+write access, so a writer holding the
	// file open does not block us unless it took an exclusive lock.
	f, err := t.openFile(path)
	if err != nil {
		t.logger.Debug("journal: open failed, retrying next tick", "file", path, "error", err)
		return true
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		t.logger.Debug("journal: stat failed, retrying next tick", "file", path, "error", err)
		return true
	}
	size := info.Size()
	if size < off {
		t.logger.Warn("journal: file shrank below stored offset, rereading from start",
			"file", path, "offset", off, "size", size)
		off = 0
		t.setOffset(path, 0)
	}
	if size == off {
		if !known {
			t.setOffset(path, 0)
		}
		return true
	}
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		t.logger.Debug("journal: seek failed, retrying next tick", "file", path, "error", err)
		return true
	}

	reader := bufio.NewReaderSize(f, 64*1024)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			// A trailing line without its newline is still being written;
			// leave it for the next pass.
			if !errors.Is(err, io.EOF) {
				t.logger.Debug("journal: read failed, retrying next tick", "file", path, "error", err)
			}
			break
		}
		start := off
		if !t.consume(path, start, line) {
			return false
		}
		off += int64(len(line))
		t.setOffset(path, off)
	}
	if !known {
		t.setOffset(path, off)
	}
	return true
}

// consume decodes one line and emits it. It returns false only when the
// tailer stopped before the event could be delivered, in which case the
// caller must not advance past the line.
func (t *Tailer) consume(path string, offset int64, line []byte) bool {
	body := trimLine(line)
	if len(body) == 0 {
		return true
	}
	evt, err := ParseLine(body)
	if err != nil {
		if !errors.Is(err, ErrNoKind) {
			t.logger.Warn("journal: skipping malformed line", "file", path, "offset", offset, "error", err)
		}
		return true
	}
	if t.cfg.Kinds != nil && !t.cfg.Kinds[evt.Kind] {
		return true
	}
	evt.Source = Source{File: path, Offset: offset}
	return t.emit(evt)
}

// emit blocks until the consumer takes evt or the tailer stops, which includes
// the cancellation of the context given to Start.
func (t *Tailer) emit(evt Event) bool {
	select {
	case t.events <- evt:
		return true
	case <-t.done:
		return false
	}
}

func (t *Tailer) setOffset(path string, off int64) {
	t.mu.Lock()
	t.offsets[path] = off
	t.mu.Unlock()
}
