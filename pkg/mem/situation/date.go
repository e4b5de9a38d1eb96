package situation

import (
	"regexp"
	"time"
	"unicode/utf8"
)

// datePattern recognizes a parenthesized ISO date, e.g. "(2026-08-24)",
// which is how dated market situations are labeled upstream.
var datePattern = regexp.MustCompile(`\((\d{4}-\d{2}-\d{2})\)`)

// dateScanWindow bounds how far into a situation text the date scan looks.
// The label always sits in the header lines; scanning the whole text would
// risk picking up dates quoted inside news snippets.
const dateScanWindow = 500

// extractDate returns the first labeled date in the head of text, if any.
// Calendar-invalid strings such as "(2024-13-45)" are treated as undated.
func extractDate(text string) (time.Time, bool) {
	window := text
	if len(window) > dateScanWindow {
		cut := dateScanWindow
		for cut > 0 && !utf8.RuneStart(window[cut]) {
			cut--
		}
		window = window[:cut]
	}

	match := datePattern.FindStringSubmatch(window)
	if match == nil {
		return time.Time{}, false
	}

	day, err := time.Parse("2006-01-02", match[1])
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// ageInDays returns how many whole calendar days separate day from the
// reference date. Both are truncated to midnight so intraday timestamps do
// not shift tier boundaries.
func ageInDays(reference, day time.Time) int {
	r := time.Date(reference.Year(), reference.Month(), reference.Day(), 0, 0, 0, 0, time.UTC)
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return int(r.Sub(d).Hours() / 24)
}
