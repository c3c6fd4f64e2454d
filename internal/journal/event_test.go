package journal

import (
	"errors"
	"testing"
	"time"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		line     string
		wantKind string
		wantErr  bool
		noKind   bool
	}{
		{name: "valid", line: `{"timestamp":"2025-03-01T18:45:12Z","event":"Docked","StationName":"Jameson"}`, wantKind: "Docked"},
		{name: "missing event", line: `{"timestamp":"2025-03-01T18:45:12Z"}`, wantErr: true, noKind: true},
		{name: "malformed", line: `{"timestamp":`, wantErr: true},
		{name: "event not a string", line: `{"event":12}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			evt, err := ParseLine([]byte(tt.line))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.noKind && !errors.Is(err, ErrNoKind) {
					t.Errorf("error = %v, want ErrNoKind", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if evt.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", evt.Kind, tt.wantKind)
			}
			want := time.Date(2025, 3, 1, 18, 45, 12, 0, time.UTC)
			if !evt.Timestamp.Equal(want) {
				t.Errorf("Timestamp = %v, want %v", evt.Timestamp, want)
			}
			if got := evt.String("StationName"); got != "Jameson" {
				t.Errorf("String(StationName) = %q, want %q", got, "Jameson")
			}
		})
	}
}

func TestEventIdentity(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"event":"MarketBuy","Type":"gold","Count":1}`)
	a := Event{Raw: raw, Source: Source{File: "/a/" + testJournal, Offset: 10}}
	b := Event{Raw: raw, Source: Source{File: "/b/" + testJournal, Offset: 10}}
	c := Event{Raw: raw, Source: Source{File: "/a/" + testJournal, Offset: 60}}

	if a.Identity() != b.Identity() {
		t.Error("same file name, offset and bytes should share an identity")
	}
	if a.Identity() == c.Identity() {
		t.Error("same bytes at a different offset should differ")
	}
}
