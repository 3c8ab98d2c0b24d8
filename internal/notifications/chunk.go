package notifications

import "unicode"

// DefaultChunkLen keeps messages under the chat API's 4096 character limit.
const DefaultChunkLen = 3500

// Chunk splits text into pieces of at most max characters, preferring to
// break at the last blank line inside the window. Leading whitespace of each
// following piece is dropped.
func Chunk(text string, max int) []string {
	if max <= 0 {
		max = DefaultChunkLen
	}
	runes := []rune(text)
	var out []string
	for len(runes) > max {
		split := lastBlankLine(runes[:max])
		if split <= 0 {
			split = max
		}
		out = append(out, string(runes[:split]))
		runes = trimLeftSpace(runes[split:])
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// lastBlankLine returns the rune index of the last "\n\n" in window, or -1.
func lastBlankLine(window []rune) int {
	for i := len(window) - 2; i >= 0; i-- {
		if window[i] == '\n' && window[i+1] == '\n' {
			return i
		}
	}
	return -1
}

func trimLeftSpace(r []rune) []rune {
	i := 0
	for i < len(r) && unicode.IsSpace(r[i]) {
		i++
	}
	return r[i:]
}
