package options

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/utils"
)

// Details is what could be recovered about an option contract from free text.
// Nil fields were not found.
type Details struct {
	IsOption bool
	Type     *models.OptionType
	Strike   *float64
	Expiry   *time.Time
}

var (
	optionKeywordRegex = regexp.MustCompile(`\b(PUT|CALL|OPTION)S?\b`)
	putWordRegex       = regexp.MustCompile(`\bPUTS?\b`)
	trailingTypeRegex  = regexp.MustCompile(`\s([CP])$`)

	strikeAfterTypeRegex  = regexp.MustCompile(`(?i)\b(?:Call|Put)\s+\$?(\d+(?:\.\d+)?)(?:\s|$)`)
	strikeDollarRegex     = regexp.MustCompile(`\$(\d+(?:\.\d+)?)`)
	strikeBeforeTypeRegex = regexp.MustCompile(`(\d+(?:\.\d+)?)\s+(?:CALL|PUT)`)
	strikeTrailingRegex   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[PC]$`)
	strikeLetterRegex     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[PC]\b`)

	slashDateRegex   = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	dayMonYYRegex    = regexp.MustCompile(`(\d{1,2})([A-Z]{3})(\d{2})\b`)
	monDayRegex      = regexp.MustCompile(`\b([A-Z]{3})(\d{1,2})\b`)
	monSpaceDayRegex = regexp.MustCompile(`\b([A-Z]{3})\s+(\d{1,2})\b`)
	dayMonRegex      = regexp.MustCompile(`\b(\d{1,2})([A-Z]{3})\b`)
	monYearRegex     = regexp.MustCompile(`\b([A-Z]{3})(\d{4})\b`)
	monDayYearRegex  = regexp.MustCompile(`\b([A-Z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})\b`)
	dayMonYearRegex  = regexp.MustCompile(`\b(\d{1,2})\s*([A-Z]{3,9})\s*(\d{4})\b`)
)

// IsOptionText reports whether text carries an option marker: one of the words
// PUT, CALL or OPTION, or a standalone trailing C/P as in "OEX 12/19/2009 495.00 C".
func IsOptionText(text string) bool {
	upper := strings.ToUpper(strings.TrimSpace(text))
	if upper == "" {
		return false
	}
	return optionKeywordRegex.MatchString(upper) || trailingTypeRegex.MatchString(upper)
}

// Extract detects an option in description, falling back to symbol when the
// description carries no marker. now anchors expiries written without a year.
func Extract(description, symbol string, now time.Time) Details {
	text := description
	if !IsOptionText(text) {
		if !IsOptionText(symbol) {
			return Details{}
		}
		text = symbol
	}

	upper := strings.ToUpper(strings.TrimSpace(text))
	d := Details{IsOption: true}

	optType := models.OptionCall
	if putWordRegex.MatchString(upper) {
		optType = models.OptionPut
	} else if m := trailingTypeRegex.FindStringSubmatch(upper); m != nil && m[1] == "P" && !strings.Contains(upper, "CALL") {
		optType = models.OptionPut
	}
	d.Type = &optType

	d.Strike = extractStrike(strings.TrimSpace(text), upper)
	d.Expiry = extractExpiry(upper, now)

	logger.L.Debug("Identified option", "text", text, "type", optType, "strike", d.Strike, "expiry", d.Expiry)
	return d
}

func extractStrike(text, upper string) *float64 {
	if m := strikeAfterTypeRegex.FindStringSubmatch(text); m != nil {
		return parseStrike(m[1])
	}
	if m := strikeDollarRegex.FindStringSubmatch(text); m != nil {
		return parseStrike(m[1])
	}

	dateParts := slashDateRegex.FindStringSubmatch(upper)

	if all := strikeBeforeTypeRegex.FindAllStringSubmatch(upper, -1); len(all) > 0 {
		if v := parseStrike(all[len(all)-1][1]); v != nil && !matchesDatePart(*v, dateParts) {
			return v
		}
	}

	var strike *float64
	if m := strikeTrailingRegex.FindStringSubmatch(upper); m != nil {
		strike = parseStrike(m[1])
	} else if all := strikeLetterRegex.FindAllStringSubmatch(upper, -1); len(all) > 0 {
		strike = parseStrike(all[len(all)-1][1])
	}

	// A bare year next to a trailing type letter is not a strike.
	if strike != nil && dateParts != nil {
		if year, _ := strconv.ParseFloat(dateParts[3], 64); year == *strike {
			return nil
		}
	}
	return strike
}

func matchesDatePart(v float64, dateParts []string) bool {
	if dateParts == nil {
		return false
	}
	for _, part := range dateParts[1:] {
		if n, err := strconv.ParseFloat(part, 64); err == nil && n == v {
			return true
		}
	}
	return false
}

func parseStrike(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func extractExpiry(upper string, now time.Time) *time.Time {
	if m := slashDateRegex.FindStringSubmatch(upper); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if t, ok := utils.ClampDate(year, time.Month(month), day); ok {
			return &t
		}
	}

	for _, m := range dayMonYYRegex.FindAllStringSubmatch(upper, -1) {
		month, ok := utils.MonthFromName(m[2])
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		yy, _ := strconv.Atoi(m[3])
		if t, ok := utils.ClampDate(2000+yy, month, day); ok {
			return &t
		}
	}

	// A full year after the day ("JUN 21 2024", "21 JUN 2024") wins over the yearless forms.
	for _, m := range monDayYearRegex.FindAllStringSubmatch(upper, -1) {
		if month, ok := monthWord(m[1]); ok {
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			if t, ok := utils.ClampDate(year, month, day); ok {
				return &t
			}
		}
	}
	for _, m := range dayMonYearRegex.FindAllStringSubmatch(upper, -1) {
		if month, ok := monthWord(m[2]); ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			if t, ok := utils.ClampDate(year, month, day); ok {
				return &t
			}
		}
	}

	// No year in the text: assume the next occurrence of that month.
	yearless := func(month time.Month, day int) *time.Time {
		year := now.Year()
		if month < now.Month() {
			year++
		}
		if t, ok := utils.ClampDate(year, month, day); ok {
			return &t
		}
		return nil
	}
	for _, re := range []*regexp.Regexp{monDayRegex, monSpaceDayRegex} {
		for _, m := range re.FindAllStringSubmatch(upper, -1) {
			if month, ok := utils.MonthFromName(m[1]); ok {
				day, _ := strconv.Atoi(m[2])
				if t := yearless(month, day); t != nil {
					return t
				}
			}
		}
	}
	for _, m := range dayMonRegex.FindAllStringSubmatch(upper, -1) {
		if month, ok := utils.MonthFromName(m[2]); ok {
			day, _ := strconv.Atoi(m[1])
			if t := yearless(month, day); t != nil {
				return t
			}
		}
	}

	for _, m := range monYearRegex.FindAllStringSubmatch(upper, -1) {
		if month, ok := utils.MonthFromName(m[1]); ok {
			year, _ := strconv.Atoi(m[2])
			t := time.Date(year, month, utils.DaysIn(year, month), 0, 0, 0, 0, time.UTC)
			return &t
		}
	}
	return nil
}

// monthWord accepts a month name or a prefix of one ("JUN", "JUNE"), but not
// words that merely start like one ("JUNK").
func monthWord(word string) (time.Month, bool) {
	month, ok := utils.MonthFromName(word)
	if !ok || !strings.HasPrefix(strings.ToUpper(month.String()), word) {
		return 0, false
	}
	return month, true
}

// DTE is the number of calendar days from the trade date to expiry, floored at 0.
// It is nil when either date is missing.
func DTE(tradeDate time.Time, expiry *time.Time) *int {
	if tradeDate.IsZero() || expiry == nil || expiry.IsZero() {
		return nil
	}
	from := utils.TruncateToDay(tradeDate)
	to := utils.TruncateToDay(*expiry)
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}

// ApplyTo copies the detected contract fields onto a trade and computes DTE from
// its timestamp. Fields the trade already carries, from explicit option columns, win.
func (d Details) ApplyTo(t *models.CanonicalTrade) {
	if !d.IsOption {
		return
	}
	t.IsOption = true
	if t.OptionType == nil {
		t.OptionType = d.Type
	}
	if t.StrikePrice == nil {
		t.StrikePrice = d.Strike
	}
	if t.ExpiryDate == nil {
		t.ExpiryDate = d.Expiry
	}
	t.DTE = DTE(t.Timestamp, t.ExpiryDate)
}
