package validators

import "strings"

// SanitizeString trims input and caps it at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	return CapRunes(strings.TrimSpace(input), maxLen)
}

// CapRunes caps input at maxLen runes and otherwise leaves it untouched.
func CapRunes(input string, maxLen int) string {
	if maxLen <= 0 {
		return input
	}
	runes := []rune(input)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return input
}
