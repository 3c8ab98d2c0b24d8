// Package env reads process settings that must be known before config.Load,
// such as the log format.
package env

import (
	"os"
	"strings"
)

// Prefix namespaces every orderbot variable.
const Prefix = "ORDERBOT_"

// Get returns ORDERBOT_<key>, then the bare key, then fallback.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(Prefix + key)); val != "" {
		return val
	}
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
