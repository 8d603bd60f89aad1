package screen

import (
	"strings"
	"testing"
)

func TestChunkBuffer_Feed(t *testing.T) {
	tests := []struct {
		name        string
		feeds       []string
		want        []string
		wantPending bool
	}{
		{
			name:  "no escape releases everything",
			feeds: []string{"hello world"},
			want:  []string{"hello world"},
		},
		{
			name:        "trailing escape held back",
			feeds:       []string{"hello\x1b["},
			want:        []string{"hello"},
			wantPending: true,
		},
		{
			name:  "held tail released once sequence completes",
			feeds: []string{"hello\x1b[", "2Kworld"},
			want:  []string{"hello", "\x1b[2Kworld"},
		},
		{
			name:  "complete sequence mid-chunk released whole",
			feeds: []string{"a\x1b[2Kb"},
			// The last escape is 4 bytes from the end, inside the
			// lookback window, so only the prefix is released.
			want:        []string{"a"},
			wantPending: true,
		},
		{
			name:  "escape far from end treated as literal",
			feeds: []string{"\x1b" + strings.Repeat("x", maxEscapeLookback)},
			want:  []string{"\x1b" + strings.Repeat("x", maxEscapeLookback)},
		},
		{
			name:        "escape just inside window held",
			feeds:       []string{"\x1b" + strings.Repeat("x", maxEscapeLookback-1)},
			want:        []string{""},
			wantPending: true,
		},
		{
			name:  "pending tail grows past window and is released",
			feeds: []string{"abc\x1b[", strings.Repeat("y", maxEscapeLookback)},
			want:  []string{"abc", "\x1b[" + strings.Repeat("y", maxEscapeLookback)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewChunkBuffer()
			for i, feed := range tt.feeds {
				got := b.Feed(feed)
				if got != tt.want[i] {
					t.Errorf("feed %d: expected release %q but got %q", i, tt.want[i], got)
				}
			}
			if b.Pending() != tt.wantPending {
				t.Errorf("expected pending=%v but got %v", tt.wantPending, b.Pending())
			}
		})
	}
}

func TestChunkBuffer_Drain(t *testing.T) {
	b := NewChunkBuffer()
	b.Feed("text\x1b[1")
	if got := b.Drain(); got != "\x1b[1" {
		t.Errorf("expected drained tail %q but got %q", "\x1b[1", got)
	}
	if b.Pending() {
		t.Error("buffer still pending after drain")
	}
	if got := b.Drain(); got != "" {
		t.Errorf("expected empty second drain but got %q", got)
	}
}

// Splitting a stream at any offset must reconstruct the same lines as
// feeding it whole, as long as no split lands more than the lookback window
// past an escape byte.
func TestChunkBuffer_SplitInvariance(t *testing.T) {
	stream := "$ ls\r\n\x1b[?1049hmenu\x1b[1;1H\x1b[?1049l" +
		"foo\x08\x08bar\n\x1b]0;title\x07done\x1b[2K$ echo hi\nhi\n"

	whole := processAll(t, []string{stream})

	for split := 1; split < len(stream); split++ {
		parts := []string{stream[:split], stream[split:]}
		got := processAll(t, parts)
		if len(got) != len(whole) {
			t.Fatalf("split %d: expected %d lines but got %d (%v)", split, len(whole), len(got), got)
		}
		for i := range whole {
			if got[i] != whole[i] {
				t.Errorf("split %d line %d: expected %q but got %q", split, i, whole[i], got[i])
			}
		}
	}
}

func processAll(t *testing.T, chunks []string) []string {
	t.Helper()
	b := NewChunkBuffer()
	e := NewEmulator()
	var lines []string
	for _, chunk := range chunks {
		if release := b.Feed(chunk); release != "" {
			lines = append(lines, e.Process(release)...)
		}
	}
	if tail := b.Drain(); tail != "" {
		lines = append(lines, e.Process(tail)...)
	}
	lines = append(lines, e.Flush()...)
	return lines
}
