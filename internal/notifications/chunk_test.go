package notifications

import (
	"strings"
	"testing"
)

func TestChunkShortTextIsSingle(t *testing.T) {
	got := Chunk("hello", 10)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("unexpected chunks %q", got)
	}
	if got := Chunk("", 10); len(got) != 0 {
		t.Fatalf("expected no chunks for empty text, got %q", got)
	}
}

func TestChunkSplitsAtLastBlankLine(t *testing.T) {
	text := "aaaa\n\nbbbb\n\ncccc"
	got := Chunk(text, 12)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %q", got)
	}
	if got[0] != "aaaa\n\nbbbb" || got[1] != "cccc" {
		t.Fatalf("unexpected chunks %q", got)
	}
}

func TestChunkHardSplitWithoutBlankLine(t *testing.T) {
	got := Chunk(strings.Repeat("x", 25), 10)
	if len(got) != 3 || got[0] != strings.Repeat("x", 10) || got[2] != strings.Repeat("x", 5) {
		t.Fatalf("unexpected chunks %q", got)
	}
}

func TestChunkCountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("🍃", 4) + "\n\n" + strings.Repeat("🖊️", 2)
	got := Chunk(text, 7)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %q", got)
	}
	if got[0] != strings.Repeat("🍃", 4) {
		t.Fatalf("unexpected first chunk %q", got[0])
	}
	for _, c := range got {
		if n := len([]rune(c)); n > 7 {
			t.Fatalf("chunk too long: %d runes", n)
		}
	}
}

func TestChunkDefaultLength(t *testing.T) {
	block := strings.Repeat("y", 2000)
	got := Chunk(block+"\n\n"+block, 0)
	if len(got) != 2 || got[0] != block || got[1] != block {
		t.Fatalf("unexpected split at default length: %d chunks", len(got))
	}
}
