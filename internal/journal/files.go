package journal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

// journalPattern matches both the current (Journal.2025-03-01T184512.01.log)
// and the legacy (Journal.250301184512.01.log) naming schemes.
var journalPattern = regexp.MustCompile(`^Journal\.[0-9T:\-]+\.[0-9]+\.log$`)

// IsJournalFile reports whether name (a base name or path) is a journal file.
func IsJournalFile(name string) bool {
	return journalPattern.MatchString(filepath.Base(name))
}

// FileInfo describes one journal file on disk.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// ErrNoJournal is returned by Current when the directory has no journal files.
var ErrNoJournal = errors.New("journal: no journal files found")

// List returns the journal files in dir ordered oldest-modified first.
func List(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("journal: read dir %s: %w", dir, err)
	}
	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !IsJournalFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Rotated away between ReadDir and Info.
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Path < files[j].Path
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// Current returns the most recently modified journal file in dir.
func Current(dir string) (string, error) {
	files, err := List(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrNoJournal
	}
	return files[len(files)-1].Path, nil
}

// ReadAll calls fn for every decodable event line in the file at path and
// returns the offset just past the last complete line. Malformed lines are
// skipped.
func ReadAll(path string, fn func(Event)) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var off int64
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return off, nil
			}
			return off, fmt.Errorf("journal: read %s: %w", path, err)
		}
		start := off
		off += int64(len(line))
		evt, perr := ParseLine(trimLine(line))
		if perr != nil {
			continue
		}
		evt.Source = Source{File: path, Offset: start}
		fn(evt)
	}
}

// LastOfKind returns the newest event of kind in dir, reading at most
// maxFiles journals from the most recently modified back.
func LastOfKind(dir, kind string, maxFiles int) (Event, bool, error) {
	files, err := List(dir)
	if err != nil {
		return Event{}, false, err
	}
	for i := len(files) - 1; i >= 0 && len(files)-i <= maxFiles; i-- {
		var last Event
		found := false
		if _, err := ReadAll(files[i].Path, func(evt Event) {
			if evt.Kind == kind {
				last, found = evt, true
			}
		}); err != nil {
			return Event{}, false, err
		}
		if found {
			return last, true, nil
		}
	}
	return Event{}, false, nil
}

// trimLine strips the trailing newline and an optional carriage return.
func trimLine(line []byte) []byte {
	n := len(line)
	for n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
		n--
	}
	return line[:n]
}
