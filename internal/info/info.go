// Package info parses the backing store's INFO payload into the handful of
// fields the health check reports.
package info

import (
	"strconv"
	"strings"
)

// Info holds the store metadata surfaced by a healthy health check.
type Info struct {
	Version          string
	UptimeSeconds    int64
	ConnectedClients int64
	UsedMemory       string
}

// Parse extracts the known fields from a raw INFO payload. Unknown lines,
// section headers, and malformed values are skipped; a missing field is
// left at its zero value.
func Parse(raw string) Info {
	var out Info

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		switch name {
		case "redis_version":
			out.Version = value
		case "uptime_in_seconds":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				out.UptimeSeconds = n
			}
		case "connected_clients":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				out.ConnectedClients = n
			}
		case "used_memory_human":
			out.UsedMemory = value
		case "used_memory":
			// Fallback when the human-readable field is absent.
			if out.UsedMemory == "" {
				out.UsedMemory = value
			}
		}
	}

	return out
}
