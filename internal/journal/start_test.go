package journal

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTailer_DirectoryCreatedAfterStart(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "Saved Games", "Frontier Developments")
	h := &recordingHandler{}
	tl := NewTailer(TailerConfig{Dir: dir, PollInterval: 10 * time.Millisecond, Logger: slog.New(h)})
	if err := tl.Start(context.Background()); err != nil {
		t.Fatalf("Start on a missing directory: %v", err)
	}
	defer tl.Stop()
	if n := h.count(slog.LevelWarn); n != 1 {
		t.Errorf("warnings = %d, want 1", n)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	appendFile(t, filepath.Join(dir, testJournal), line("Fileheader", time.Now(), "")+line("LoadGame", time.Now(), ""))

	var kinds []string
	deadline := time.After(2 * time.Second)
	for len(kinds) < 2 {
		select {
		case evt := <-tl.Events():
			kinds = append(kinds, evt.Kind)
		case <-deadline:
			t.Fatalf("got %v, want the new journal read from its start", kinds)
		}
	}
	if kinds[0] != "Fileheader" || kinds[1] != "LoadGame" {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestTailer_UnchangedInactiveFilesStayClosed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var paths []string
	for i, name := range []string{
		"Journal.2025-03-01T120000.01.log",
		"Journal.2025-03-01T130000.01.log",
		"Journal.2025-03-01T140000.01.log",
	} {
		path := filepath.Join(dir, name)
		appendFile(t, path, line("Fileheader", base, ""))
		stamp := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	tl := newTestTailer(t, dir, nil)
	if _, err := tl.Prime(); err != nil {
		t.Fatalf("Prime: %v", err)
	}
	var opened []string
	tl.openFile = func(name string) (*os.File, error) {
		opened = append(opened, name)
		return os.Open(name)
	}

	tl.Poll()
	if len(opened) != 1 || opened[0] != paths[2] {
		t.Fatalf("opened %v, want only the active journal", opened)
	}

	// An older journal that grew is still read even though its mtime puts
	// it behind the active one.
	appendFile(t, paths[0], line("Shutdown", base, ""))
	if err := os.Chtimes(paths[0], base, base); err != nil {
		t.Fatal(err)
	}
	opened = nil
	tl.Poll()
	got := drain(tl)
	if len(got) != 1 || got[0].Kind != KindShutdown || got[0].Source.File != paths[0] {
		t.Fatalf("got %+v, want the Shutdown line from %s", got, paths[0])
	}
	if len(opened) != 2 {
		t.Errorf("opened %v, want the grown file and the active journal", opened)
	}
}

func TestTailer_ContextCancelUnblocksFullChannel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, testJournal)
	appendFile(t, path, "")

	tl := NewTailer(TailerConfig{Dir: dir, PollInterval: 5 * time.Millisecond, EventBuffer: 1})
	ctx, cancel := context.WithCancel(context.Background())
	if err := tl.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	now := time.Now()
	appendFile(t, path, line("Music", now, "")+line("Music", now, "")+line("Music", now, ""))

	// Nobody reads Events, so the loop ends up blocked on the full channel.
	deadline := time.Now().Add(2 * time.Second)
	for len(tl.Events()) < cap(tl.Events()) {
		if time.Now().After(deadline) {
			t.Fatal("channel never filled")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-tl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("cancelling the context did not stop the tailer")
	}
	stopped := make(chan struct{})
	go func() {
		tl.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop still blocked after cancel")
	}
}
