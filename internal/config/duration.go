package config

import (
	"fmt"
	"strings"
	"time"
)

// durationOrDefault parses a duration setting such as "30s" or "24h".
// A blank or zero value yields def; negative values are rejected.
func durationOrDefault(key, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: must not be negative, got %s", key, s)
	case d == 0:
		return def, nil
	}
	return d, nil
}
