package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a duration string, extending the standard units
// with a day suffix. "30d" and "720h" are equivalent; anything without
// a recognized single-unit suffix is handed to time.ParseDuration.
func ParseDuration(s string) (time.Duration, error) {
	unit, ok := durationUnit(s)
	if !ok {
		return time.ParseDuration(s)
	}

	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration value: %s", s[:len(s)-1])
	}

	return time.Duration(value) * unit, nil
}

func durationUnit(s string) (time.Duration, bool) {
	if len(s) < 2 {
		return 0, false
	}
	for _, r := range s[:len(s)-1] {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	switch strings.ToLower(s[len(s)-1:]) {
	case "s":
		return time.Second, true
	case "m":
		return time.Minute, true
	case "h":
		return time.Hour, true
	case "d":
		return 24 * time.Hour, true
	}
	return 0, false
}
