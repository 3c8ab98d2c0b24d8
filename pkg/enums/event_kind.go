package enums

import "fmt"

// EventKind classifies an inbound chat event.
type EventKind string

const (
	EventKindCommand EventKind = "command"
	EventKindButton  EventKind = "button"
	EventKindText    EventKind = "text"
)

var validEventKinds = []EventKind{EventKindCommand, EventKindButton, EventKindText}

// String implements fmt.Stringer.
func (e EventKind) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EventKind.
func (e EventKind) IsValid() bool {
	for _, candidate := range validEventKinds {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEventKind converts raw input into an EventKind.
func ParseEventKind(value string) (EventKind, error) {
	for _, candidate := range validEventKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event kind %q", value)
}
