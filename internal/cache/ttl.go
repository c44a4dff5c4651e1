package cache

import (
	"fmt"
	"strconv"
	"time"
)

// TTL bounds and defaults.
const (
	DefaultTTL       = 5 * time.Minute
	MinTTL           = time.Second
	MaxTTL           = 24 * time.Hour
	DefaultMaxSizeMB = 50

	hoursPerDay    = 24
	minutesPerHour = 60
)

// ErrInvalidTTL is returned for a TTL outside [MinTTL, MaxTTL].
var ErrInvalidTTL = fmt.Errorf("TTL must be between %s and %s", MinTTL, MaxTTL)

// ParseTTL accepts integer seconds ("300") or a Go duration ("5m").
func ParseTTL(s string) (time.Duration, error) {
	var d time.Duration
	if seconds, err := strconv.Atoi(s); err == nil {
		d = time.Duration(seconds) * time.Second
	} else {
		parsed, parseErr := time.ParseDuration(s)
		if parseErr != nil {
			return 0, fmt.Errorf("invalid TTL format: %w", parseErr)
		}
		d = parsed
	}
	if err := ValidateTTL(d); err != nil {
		return 0, err
	}
	return d, nil
}

// ValidateTTL checks d against the allowed range.
func ValidateTTL(d time.Duration) error {
	if d < MinTTL || d > MaxTTL {
		return fmt.Errorf("%w: got %s", ErrInvalidTTL, d)
	}
	return nil
}

// FormatDuration renders d compactly: "30s", "5m", "2h30m", "3d2h".
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	case d < hoursPerDay*time.Hour:
		hours := int(d.Hours())
		if minutes := int(d.Minutes()) % minutesPerHour; minutes != 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := int(d.Hours()) / hoursPerDay
	if hours := int(d.Hours()) % hoursPerDay; hours != 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}
