package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration fields (scheduler.entry_delay, queue.busy_timeout,
// bot.poll_timeout) are kept as Go duration strings in the file so
// zero stays distinguishable from unset. path names the field in
// errors, dotted like the yaml shape.

// ParseDurationField parses one such field. Empty means unset and
// yields zero without error.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", path, raw)
	}
	return d, nil
}

// ParseDurationOrDefault substitutes def for unset or zero fields.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
