package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPart = regexp.MustCompile(`(\d+)([dhms])`)

// ParseDuration parses a Go duration or a compound of day/hour/minute/second
// units such as "1d", "2h30m" or "90s". Empty input yields zero.
func ParseDuration(s string) (time.Duration, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(input); err == nil {
		return d, nil
	}

	matches := durationPart.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration: %s", input)
	}

	consumed := 0
	var total time.Duration
	for _, m := range matches {
		consumed += m[1] - m[0]
		n, err := strconv.ParseInt(input[m[2]:m[3]], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", input)
		}
		switch input[m[4]:m[5]] {
		case "d":
			total += 24 * time.Hour * time.Duration(n)
		case "h":
			total += time.Hour * time.Duration(n)
		case "m":
			total += time.Minute * time.Duration(n)
		case "s":
			total += time.Second * time.Duration(n)
		}
	}
	if consumed != len(input) {
		return 0, fmt.Errorf("invalid duration: %s", input)
	}
	return total, nil
}

// ParseSince resolves a --since value relative to now. It accepts an
// absolute date ("2025-01-26", RFC3339) or a duration looking back ("2d").
func ParseSince(s string, now time.Time) (time.Time, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return time.Time{}, fmt.Errorf("time reference is empty")
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, input); err == nil {
			return t, nil
		}
	}

	d, err := ParseDuration(input)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}

// FormatRelative describes t relative to now the way the report history
// shows it: "Just now", "5 minutes ago", "1 hour ago", "3 days ago".
func FormatRelative(t, now time.Time) string {
	elapsed := now.Sub(t)
	minutes := int(elapsed / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 1:
		return fmt.Sprintf("%d days ago", days)
	case days == 1:
		return "1 day ago"
	case hours > 1:
		return fmt.Sprintf("%d hours ago", hours)
	case hours == 1:
		return "1 hour ago"
	case minutes > 1:
		return fmt.Sprintf("%d minutes ago", minutes)
	default:
		return "Just now"
	}
}
