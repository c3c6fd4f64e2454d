package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// recordingHandler captures log records so tests can count warnings.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

const testJournal = "Journal.2025-03-01T184512.01.log"

func line(kind string, ts time.Time, extra string) string {
	if extra != "" {
		extra = ", " + extra
	}
	return fmt.Sprintf(`{ "timestamp":%q, "event":%q%s }`+"\n", ts.UTC().Format(time.RFC3339), kind, extra)
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func drain(tl *Tailer) []Event {
	var out []Event
	for {
		select {
		case evt := <-tl.Events():
			out = append(out, evt)
		default:
			return out
		}
	}
}

func newTestTailer(t *testing.T, dir string, h *recordingHandler) *Tailer {
	t.Helper()
	cfg := TailerConfig{Dir: dir, EventBuffer: 64}
	if h != nil {
		cfg.Logger = slog.New(h)
	}
	return NewTailer(cfg)
}

func TestTailer_StartsAtEndOfExistingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, testJournal)
	now := time.Now()
	appendFile(t, path, line("Fileheader", now, "")+line("Music", now, ""))

	tl := newTestTailer(t, dir, nil)
	if _, err := tl.Prime(); err != nil {
		t.Fatalf("Prime: %v", err)
	}
	tl.Poll()
	if got := drain(tl); len(got) != 0 {
		t.Fatalf("history replayed: got %d events", len(got))
	}

	appendFile(t, path, line("Docked", now, `"StationName":"Jameson"`))
	tl.Poll()
	got := drain(tl)
	if len(got) != 1 || got[0].Kind != KindDocked {
		t.Fatalf("got %+v, want one Docked event", got)
	}
	if got[0].Source.File != path {
		t.Errorf("Source.File = %q, want %q", got[0].Source.File, path)
	}
}

func TestTailer_PartialLineWaitsForNewline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, testJournal)
	appendFile(t, path, "")

	tl := newTestTailer(t, dir, nil)
	if _, err := tl.Prime(); err != nil {
		t.Fatalf("Prime: %v", err)
	}

	full := line("Undocked", time.Now(), "")
	appendFile(t, path, full[:20])
	tl.Poll()
	if got := drain(tl); len(got) != 0 {
		t.Fatalf("partial line emitted: %+v", got)
	}
	if off := tl.Offset(path); off != 0 {
		t.Fatalf("offset advanced over a partial line: %d", off)
	}

	appendFile(t, path, full[20:])
	tl.Poll()
	got := drain(tl)
	if len(got) != 1 || got[0].Kind != KindUndocked {
		t.Fatalf("got %+v, want one Undocked event", got)
	}
	if off := tl.Offset(path); off != int64(len(full)) {
		t.Errorf("offset = %d, want %d", off, len(full))
	}
}

func TestTailer_MalformedLineIsSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, testJournal)
	appendFile(t, path, "")

	h := &recordingHandler{}
	tl := newTestTailer(t, dir, h)
	if _, err := tl.Prime(); err != nil {
		t.Fatalf("Prime: %v", err)
	}

	now := time.Now()
	appendFile(t, path, line("Docked", now, "")+"{not json\n"+line("Undocked", now, ""))
	tl.Poll()

	got := drain(tl)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Kind != KindDocked || got[1].Kind != KindUndocked {
		t.Errorf("kinds = %s, %s", got[0].Kind, got[1].Kind)
	}
	if n := h.count(slog.LevelWarn); n != 1 {
		t.Errorf("warnings = %d, want 1", n)
	}
}

func TestTailer_ShrunkFileResetsOffset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, testJournal)
	now := time.Now()
	appendFile(t, path, line("Fileheader", now, "")+line("LoadGame", now, "")+line("Music", now, ""))

	h := &recordingHandler{}
	tl := newTestTailer(t, dir, h)
	if _, err := tl.Prime(); err != nil {
		t.Fatalf("Prime: %v", err)
	}
	if tl.Offset(path) == 0 {
		t.Fatal("expected primed offset at end of file")
	}

	replacement := line("Location", now, `"StarSystem":"Sol"`)
	if err := os.WriteFile(path, []byte(replacement), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	tl.Poll()

	if n := h.count(slog.LevelWarn); n != 1 {
		t.Fatalf("warnings = %d, want exactly 1", n)
	}
	got := drain(tl)
	if len(got) != 1 || got[0].Kind != KindLocation {
		t.Fatalf("got %+v, want the rewritten Location line", got)
	}
	if off := tl.Offset(path); off != int64(len(replacement)) {
		t.Errorf("offset = %d, want %d", off, len(replacement))
	}

	tl.Poll()
	if n := h.count(slog.LevelWarn); n != 1 {
		t.Errorf("steady state raised more warnings: %d", n)
	}
}

func TestTailer_OpenFailureIsRetried(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, testJournal)
	appendFile(t, path, "")

	tl := newTestTailer(t, dir, nil)
	if _, err := tl.Prime(); err != nil {
		t.Fatalf("Prime: %v", err)
	}

	locked := true
	tl.openFile = func(name string) (*os.File, error) {
		if locked {
			return nil, errors.New("sharing violation")
		}
		return os.Open(name)
	}

	appendFile(t, path, line("Docked", time.Now(), ""))
	tl.Poll()
	if got := drain(tl); len(got) != 0 {
		t.Fatalf("locked file produced events: %+v", got)
	}
	if off := tl.Offset(path); off != 0 {
		t.Fatalf("offset advanced while locked: %d", off)
	}

	locked = false
	tl.Poll()
	if got := drain(tl); len(got) != 1 {
		t.Fatalf("got %d events after unlock, want 1", len(got))
	}
}

func TestTailer_NewFileIsReadFromStart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	old := filepath.Join(dir, "Journal.2025-03-01T184512.01.log")
	appendFile(t, old, line("Fileheader", time.Now(), ""))

	tl := newTestTailer(t, dir, nil)
	if _, err := tl.Prime(); err != nil {
		t.Fatalf("Prime: %v", err)
	}

	rotated := filepath.Join(dir, "Journal.2025-03-01T200000.01.log")
	appendFile(t, rotated, line("Fileheader", time.Now(), "")+line("LoadGame", time.Now(), ""))
	tl.Poll()

	got := drain(tl)
	if len(got) != 2 {
		t.Fatalf("got %d events from new file, want 2", len(got))
	}
}

func TestTailer_KindsFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, testJournal)
	appendFile(t, path, "")

	tl := NewTailer(TailerConfig{Dir: dir, Kinds: map[string]bool{KindDocked: true}})
	if _, err := tl.Prime(); err != nil {
		t.Fatalf("Prime: %v", err)
	}
	appendFile(t, path, line("Music", time.Now(), "")+line("Docked", time.Now(), ""))
	tl.Poll()

	got := drain(tl)
	if len(got) != 1 || got[0].Kind != KindDocked {
		t.Fatalf("got %+v, want only Docked", got)
	}
	if off := tl.Offset(path); off == 0 {
		t.Error("filtered lines must still advance the offset")
	}
}

func TestTailer_StartStop(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, testJournal)
	appendFile(t, path, "")

	tl := NewTailer(TailerConfig{Dir: dir, PollInterval: 20 * time.Millisecond})
	if err := tl.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	appendFile(t, path, line("SupercruiseEntry", time.Now(), ""))

	select {
	case evt := <-tl.Events():
		if evt.Kind != KindSupercruiseEntry {
			t.Errorf("Kind = %q, want %q", evt.Kind, KindSupercruiseEntry)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	tl.Stop()
	tl.Stop()

	select {
	case <-tl.Done():
	default:
		t.Error("Done should be closed after Stop")
	}
}

func TestTailer_StopBeforeStart(t *testing.T) {
	t.Parallel()

	tl := NewTailer(TailerConfig{Dir: t.TempDir()})
	tl.Stop()
	tl.Stop()
	tl.Poll()
}
