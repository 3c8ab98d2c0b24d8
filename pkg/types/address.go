package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is the shipping address collected field by field during checkout.
// ReturnNumber is free text and the only optional field.
type Address struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Street       string `json:"street"`
	ReturnNumber string `json:"return_number,omitempty"`
}

// Complete reports whether every required field is populated.
func (a Address) Complete() bool {
	for _, v := range []string{a.FirstName, a.LastName, a.City, a.State, a.Zip, a.Street} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// FullName joins first and last name.
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Lines renders the address the way shipping labels expect it.
func (a Address) Lines() []string {
	return []string{
		a.FullName(),
		a.Street,
		fmt.Sprintf("%s, %s %s", a.City, a.State, a.Zip),
	}
}

// ReturnNumberOr returns the return number, or fallback when none was given.
func (a Address) ReturnNumberOr(fallback string) string {
	if strings.TrimSpace(a.ReturnNumber) == "" {
		return fallback
	}
	return a.ReturnNumber
}

// Value stores the address as a JSON document.
func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: marshal: %w", err)
	}
	return string(b), nil
}

// Scan decodes the JSON document written by Value.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*a = Address{}
		return nil
	}
	if err := json.Unmarshal(raw, a); err != nil {
		return fmt.Errorf("address: unmarshal: %w", err)
	}
	return nil
}
