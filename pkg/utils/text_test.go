package utils

import (
	"strings"
	"testing"
	"time"
)

func TestOrdinal(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "1st"},
		{2, "2nd"},
		{3, "3rd"},
		{4, "4th"},
		{11, "11th"},
		{12, "12th"},
		{13, "13th"},
		{21, "21st"},
		{102, "102nd"},
		{111, "111th"},
	}

	for _, tt := range tests {
		if got := Ordinal(tt.n); got != tt.want {
			t.Errorf("Ordinal(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPlural(t *testing.T) {
	if got := Plural(1, "point"); got != "1 point" {
		t.Errorf("Plural(1) = %q", got)
	}
	if got := Plural(3, "point"); got != "3 points" {
		t.Errorf("Plural(3) = %q", got)
	}
}

func TestReadableSince(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "just now"},
		{45 * time.Second, "45 seconds ago"},
		{2 * time.Minute, "2 minutes ago"},
		{26 * time.Hour, "1 day ago"},
		{8 * 24 * time.Hour, "1 week ago"},
		{400 * 24 * time.Hour, "1 year ago"},
	}

	for _, tt := range tests {
		if got := ReadableSince(tt.d); got != tt.want {
			t.Errorf("ReadableSince(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestSplitMessageShort(t *testing.T) {
	chunks := SplitMessage("hello", 2000)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("unexpected chunks %v", chunks)
	}
}

func TestSplitMessagePrefersNewlines(t *testing.T) {
	content := strings.Repeat("line one\n", 10)
	chunks := SplitMessage(content, 30)
	for i, chunk := range chunks {
		if len([]rune(chunk)) > 30 {
			t.Errorf("chunk %d over limit: %q", i, chunk)
		}
		if strings.Contains(chunk, "line one\nline one\nline one\nline") {
			t.Errorf("chunk %d should have broken on a newline: %q", i, chunk)
		}
	}
	if got := strings.Join(chunks, "\n"); !strings.Contains(got, "line one") {
		t.Errorf("content lost: %q", got)
	}
}

func TestSplitMessageHardBreak(t *testing.T) {
	content := strings.Repeat("x", 100)
	chunks := SplitMessage(content, 30)
	total := 0
	for _, chunk := range chunks {
		if len(chunk) > 30 {
			t.Errorf("chunk over limit: %d", len(chunk))
		}
		total += len(chunk)
	}
	if total != 100 {
		t.Errorf("lost content, total %d", total)
	}
}
