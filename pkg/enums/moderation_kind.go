package enums

import "fmt"

// ModerationKind names a destructive operator action guarded by a
// confirmation step.
type ModerationKind string

const (
	ModerationKindDelete ModerationKind = "delete"
	ModerationKindReset  ModerationKind = "reset"
)

var validModerationKinds = []ModerationKind{ModerationKindDelete, ModerationKindReset}

// String implements fmt.Stringer.
func (m ModerationKind) String() string {
	return string(m)
}

// IsValid reports whether the value is a known ModerationKind.
func (m ModerationKind) IsValid() bool {
	for _, candidate := range validModerationKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseModerationKind converts raw input into a ModerationKind.
func ParseModerationKind(value string) (ModerationKind, error) {
	for _, candidate := range validModerationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid moderation kind %q", value)
}
