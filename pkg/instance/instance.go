// Package instance names the running replica for logs and lock ownership.
package instance

import (
	"os"

	"github.com/angelmondragon/orderbot/pkg/env"
)

const fallbackID = "orderbot-0"

// GetID returns ORDERBOT_INSTANCE_ID, the platform dyno name, the hostname,
// or a fixed default, in that order.
func GetID() string {
	if id := env.Get("INSTANCE_ID", ""); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
