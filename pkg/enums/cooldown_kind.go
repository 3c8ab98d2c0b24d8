package enums

import "fmt"

// CooldownKind names an action that is throttled per user.
type CooldownKind string

const (
	CooldownKindOrder CooldownKind = "order"
	CooldownKindHelp  CooldownKind = "help"
)

var validCooldownKinds = []CooldownKind{CooldownKindOrder, CooldownKindHelp}

// String implements fmt.Stringer.
func (c CooldownKind) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CooldownKind.
func (c CooldownKind) IsValid() bool {
	for _, candidate := range validCooldownKinds {
		if candidate == c {
			return true
		}
	}
	return false
}

// CooldownKinds returns every throttled action kind.
func CooldownKinds() []CooldownKind {
	out := make([]CooldownKind, len(validCooldownKinds))
	copy(out, validCooldownKinds)
	return out
}

// ParseCooldownKind converts raw input into a CooldownKind.
func ParseCooldownKind(value string) (CooldownKind, error) {
	for _, candidate := range validCooldownKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cooldown kind %q", value)
}
