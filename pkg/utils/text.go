package utils

import (
	"fmt"
	"time"
)

// Ordinal renders 1 -> "1st", 2 -> "2nd", 11 -> "11th" and so on.
func Ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// Plural renders a count with a naively pluralized noun ("1 point",
// "3 points").
func Plural(count int, thing string) string {
	if count == 1 {
		return fmt.Sprintf("1 %s", thing)
	}
	return fmt.Sprintf("%d %ss", count, thing)
}

// ReadableSince renders an elapsed duration as a coarse human string
// ("3 weeks ago", "just now"). Only the largest nonzero period is shown.
func ReadableSince(d time.Duration) string {
	days := int(d.Hours()) / 24
	periods := []struct {
		name  string
		count int
	}{
		{"year", days / 365},
		{"month", days / 30},
		{"week", days / 7},
		{"day", days % 30},
		{"hour", int(d.Hours()) % 24},
		{"minute", int(d.Minutes()) % 60},
		{"second", int(d.Seconds()) % 60},
	}

	for _, p := range periods {
		if p.count > 0 {
			return Plural(p.count, p.name) + " ago"
		}
	}
	return "just now"
}
