// Package humantime renders timestamps as rough relative phrases for
// display ("3 hours ago", "Yesterday").
package humantime

import (
	"errors"
	"fmt"
	"time"
)

// ErrFutureTime indicates the timestamp lies after the reference time.
var ErrFutureTime = errors.New("humantime.future_time")

// PrettyDate renders t relative to now.
func PrettyDate(t time.Time) (string, error) {
	return Since(t, time.Now())
}

// Since renders t relative to an explicit reference time.
func Since(t, now time.Time) (string, error) {
	diff := now.Sub(t)
	if diff < 0 {
		return "", ErrFutureTime
	}

	days := int(diff.Hours() / 24)
	seconds := int(diff.Seconds()) - days*86400

	if days == 0 {
		switch {
		case seconds < 10:
			return "just now", nil
		case seconds < 60:
			return fmt.Sprintf("%d seconds ago", seconds), nil
		case seconds < 120:
			return "a minute ago", nil
		case seconds < 3600:
			return fmt.Sprintf("%d minutes ago", seconds/60), nil
		case seconds < 7200:
			return "an hour ago", nil
		default:
			return fmt.Sprintf("%d hours ago", seconds/3600), nil
		}
	}

	switch {
	case days == 1:
		return "Yesterday", nil
	case days < 7:
		return fmt.Sprintf("%d days ago", days), nil
	case days < 14:
		return "a week ago", nil
	}

	if now.Year() == t.Year() {
		if now.Month() == t.Month() {
			return fmt.Sprintf("%d weeks ago", days/7), nil
		}
		if now.Month()-t.Month() == 1 {
			return "a month ago", nil
		}
		return fmt.Sprintf("%d months ago", int(now.Month()-t.Month())), nil
	}
	if now.Year()-t.Year() == 1 {
		return "a year ago", nil
	}
	return fmt.Sprintf("%d years ago", now.Year()-t.Year()), nil
}
