package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
)

// CatchUp scans the trailing CatchupTailBytes of path for CatchupKinds whose
// timestamp lies within CatchupWindow of the clock, and returns them in
// chronological order. It never changes stored offsets, so running it twice
// over the same window leaves the tailer's steady state untouched.
func (t *Tailer) CatchUp(path string) []Event {
	events, err := t.scanTail(path)
	if err != nil {
		t.logger.Debug("journal: catch-up scan skipped", "file", path, "error", err)
		return nil
	}
	if len(events) > 0 {
		t.logger.Info("journal: replaying recent events", "file", path, "count", len(events))
	}
	return events
}

func (t *Tailer) scanTail(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("journal: stat %s: %w", path, err)
	}
	start := info.Size() - t.cfg.CatchupTailBytes
	if start < 0 {
		start = 0
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("journal: seek %s: %w", path, err)
	}
	buf, err := io.ReadAll(io.LimitReader(f, info.Size()-start))
	if err != nil {
		return nil, fmt.Errorf("journal: read %s: %w", path, err)
	}

	// Drop the leading fragment when the window starts mid-line.
	pos := 0
	if start > 0 {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			return nil, nil
		}
		pos = idx + 1
	}

	cutoff := t.cfg.Clock().Add(-t.cfg.CatchupWindow)
	var events []Event
	for pos < len(buf) {
		idx := bytes.IndexByte(buf[pos:], '\n')
		if idx < 0 {
			break
		}
		line := buf[pos : pos+idx+1]
		offset := start + int64(pos)
		pos += idx + 1

		evt, err := ParseLine(trimLine(line))
		if err != nil || !t.cfg.CatchupKinds[evt.Kind] {
			continue
		}
		if evt.Timestamp.IsZero() || evt.Timestamp.Before(cutoff) {
			continue
		}
		evt.Source = Source{File: path, Offset: offset}
		events = append(events, evt)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}
