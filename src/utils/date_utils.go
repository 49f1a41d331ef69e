package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/username/tradenorm/src/logger"
)

// Base formats, tried in order. Non-padded month/day layouts accept both "3/5" and "03/05".
var baseDateLayouts = []string{
	"1/2/2006",
	"2006-1-2",
	"1-2-2006",
	"2/1/2006",
	"20060102",
	"1/2/06",
	"2-1-06",
	"Jan 2, 2006",
	"2 Jan 2006",
	"1/2/2006 15:04:05",
	"2006-1-2 15:04",
}

// Formats for ParseComplexDate. Layouts carrying a clock come first so the time
// of day survives. Day-first dashed dates win over month-first here.
var complexDateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"1/2/2006",
	"2006-1-2",
	"2-1-2006",
	"2.1.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006/1/2",
}

const monthNamePattern = `(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

var (
	monthTokenRegex  = regexp.MustCompile(`(?i)` + monthNamePattern)
	dayTokenRegex    = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\b`)
	yearTokenRegex   = regexp.MustCompile(`\b(20\d{2})\b`)
	numericTripleRe  = regexp.MustCompile(`^(\d{1,4})[-./](\d{1,2})[-./](\d{1,4})`)
	usDateFallbackRe = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})`)

	descriptionDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})`),
		regexp.MustCompile(monthNamePattern + `\s+\d{1,2},?\s+\d{4}`),
		regexp.MustCompile(`(\d{4}-\d{1,2}-\d{1,2})`),
		regexp.MustCompile(`(\d{1,2}[-./]\d{1,2}[-./]\d{4})`),
	}
)

var monthNumbers = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// MonthFromName resolves a month name or three-letter abbreviation, case-insensitively.
func MonthFromName(name string) (time.Month, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 3 {
		return 0, false
	}
	m, ok := monthNumbers[name[:3]]
	return m, ok
}

// ParseDate tries the base broker format list and reports whether any matched.
func ParseDate(dateStr string) (time.Time, bool) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, false
	}
	for _, layout := range baseDateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseComplexDate runs the full layered parse: fixed layouts, then month/day/year
// component extraction, then the ambiguous a-b-c rule, then a US-order fallback.
// now bounds the a-b-c rule, which never returns a future date.
func ParseComplexDate(dateStr string, now time.Time) (time.Time, bool) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, false
	}

	for _, layout := range complexDateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t.UTC(), true
		}
	}

	monthMatch := monthTokenRegex.FindString(dateStr)
	dayMatch := dayTokenRegex.FindStringSubmatch(dateStr)
	yearMatch := yearTokenRegex.FindStringSubmatch(dateStr)
	if monthMatch != "" && dayMatch != nil && yearMatch != nil {
		month, _ := MonthFromName(monthMatch)
		day, _ := strconv.Atoi(dayMatch[1])
		year, _ := strconv.Atoi(yearMatch[1])
		if t, ok := MakeDate(year, month, day); ok {
			return t, true
		}
	}

	if m := numericTripleRe.FindStringSubmatch(dateStr); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		c, _ := strconv.Atoi(m[3])
		if t, ok := disambiguateTriple(a, b, c); ok && !t.After(now) {
			return t, true
		}
	}

	if m := usDateFallbackRe.FindStringSubmatch(dateStr); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 {
			if t, ok := MakeDate(year, time.Month(month), day); ok {
				return t, true
			}
		}
	}

	logger.L.Debug("Could not parse date", "value", dateStr)
	return time.Time{}, false
}

// disambiguateTriple applies "the member > 31 is the year"; of the remaining two,
// the first ordering that forms a valid month/day wins.
func disambiguateTriple(a, b, c int) (time.Time, bool) {
	isMonth := func(n int) bool { return n >= 1 && n <= 12 }
	isDay := func(n int) bool { return n >= 1 && n <= 31 }

	switch {
	case a > 31 && isMonth(b) && isDay(c):
		return MakeDate(a, time.Month(b), c)
	case a > 31 && isMonth(c) && isDay(b):
		return MakeDate(a, time.Month(c), b)
	case c > 31 && isMonth(a) && isDay(b):
		return MakeDate(c, time.Month(a), b)
	case c > 31 && isMonth(b) && isDay(a):
		return MakeDate(c, time.Month(b), a)
	case b > 31 && isMonth(a) && isDay(c):
		return MakeDate(b, time.Month(a), c)
	case b > 31 && isMonth(c) && isDay(a):
		return MakeDate(b, time.Month(c), a)
	}
	return time.Time{}, false
}

// ExtractDateFromDescription finds the first date-looking token in free text and
// parses it. The first pattern that matches decides the outcome.
func ExtractDateFromDescription(description string, now time.Time) (time.Time, bool) {
	if description == "" {
		return time.Time{}, false
	}
	for _, re := range descriptionDatePatterns {
		if match := re.FindString(description); match != "" {
			return ParseComplexDate(match, now)
		}
	}
	return time.Time{}, false
}

// MakeDate builds a UTC midnight date and rejects values time.Date would normalize.
func MakeDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// ClampDate builds a date like MakeDate but pulls an out-of-range day back to the
// last day of the month.
func ClampDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// TruncateToDay drops the clock part of t, keeping its calendar date.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
