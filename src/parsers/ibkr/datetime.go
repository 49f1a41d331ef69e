package ibkr

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/username/tradenorm/src/utils"
)

var (
	amPmDateTimeRegex = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(AM|PM)$`)
	amPmTimeRegex     = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(AM|PM)`)
)

var spacedLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

var tradeDateLayouts = []string{"2006-01-02", "20060102", "01/02/2006", "02/01/2006", "02-01-2006"}

// ParseDateTime reads IB's DateTime column: "2024-07-09 9:39:23 AM", ISO 8601,
// "20240709;093923" and space separated forms.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := amPmDateTimeRegex.FindStringSubmatch(strings.ToUpper(s)); m != nil {
		d, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			return time.Time{}, false
		}
		h, _ := strconv.Atoi(m[2])
		minute, _ := strconv.Atoi(m[3])
		sec, _ := strconv.Atoi(m[4])
		h = to24Hour(h, m[5])
		return time.Date(d.Year(), d.Month(), d.Day(), h, minute, sec, 0, time.UTC), true
	}

	if strings.Contains(s, "T") {
		if t, err := time.Parse(time.RFC3339, strings.Replace(s, "Z", "+00:00", 1)); err == nil {
			return t.UTC(), true
		}
		if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
			return t, true
		}
	}

	if date, clock, ok := strings.Cut(s, ";"); ok {
		d, ok := ParseTradeDate(date)
		if !ok {
			return time.Time{}, false
		}
		h, minute, sec := ParseTime(clock)
		return time.Date(d.Year(), d.Month(), d.Day(), h, minute, sec, 0, time.UTC), true
	}

	if strings.Contains(s, " ") {
		for _, layout := range spacedLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		date, _, _ := strings.Cut(s, " ")
		return ParseTradeDate(date)
	}
	return ParseTradeDate(s)
}

// ParseTradeDate reads IB's TradeDate column.
func ParseTradeDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range tradeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return utils.ParseDate(s)
}

// ParseTime reads HH:MM[:SS], HHMM[SS] or 12-hour clock values. Out of range
// components are clamped; unreadable input is midnight.
func ParseTime(s string) (hour, minute, second int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, 0
	}

	if m := amPmTimeRegex.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		second, _ = strconv.Atoi(m[3])
		return clamp(to24Hour(hour, strings.ToUpper(m[4])), 23), clamp(minute, 59), clamp(second, 59)
	}

	var parts []string
	if strings.Contains(s, ":") {
		parts = strings.Split(s, ":")
	} else {
		switch {
		case len(s) >= 6:
			parts = []string{s[:2], s[2:4], s[4:6]}
		case len(s) >= 4:
			parts = []string{s[:2], s[2:4]}
		default:
			parts = []string{s}
		}
	}

	vals := make([]int, 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return 0, 0, 0
		}
		vals[i] = v
	}
	return clamp(vals[0], 23), clamp(vals[1], 59), clamp(vals[2], 59)
}

func to24Hour(hour int, amPm string) int {
	switch {
	case amPm == "PM" && hour < 12:
		return hour + 12
	case amPm == "AM" && hour == 12:
		return 0
	}
	return hour
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
