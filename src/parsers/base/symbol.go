package base

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/symbols"
)

var (
	plainSymbolRegex = regexp.MustCompile(`^[A-Z]{1,5}$`)

	// Checked in order; the first capture group is the ticker.
	baseSymbolPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^([A-Z]{1,5})\s+\d{1,2}/\d{1,2}/\d{2,4}`), // OEX 12/19/2009 495.00 C
		regexp.MustCompile(`^([A-Z]{1,5})\s+\d{1,2}[A-Z]{3}\d{2}`),    // SPX 15MAR24 5140 P
		regexp.MustCompile(`\b([A-Z]{1,5})\s+-\s+`),                   // AAPL - APPLE INC
		regexp.MustCompile(`\(([A-Z]{1,5})\)`),                        // GEVO INC COM PAR (GEVO)
		regexp.MustCompile(`CUSIP\s+\d+\s+([A-Z]{1,5})\b`),
	}

	occSymbolRegex = regexp.MustCompile(`^([A-Z]{1,6})\s*(\d{6})([CP])(\d{8})$`)
	leadingLetters = regexp.MustCompile(`^([A-Z]+)`)
)

// Descriptions that are always kept as trades, with the ticker they map to.
var alwaysKeep = []struct {
	phrase string
	ticker string
}{
	{"VIRGIN GALACTIC", "SPCE"},
}

// AlwaysKeep reports whether description names a security whose rows are kept
// even without trade indicators, and the ticker to use for it.
func AlwaysKeep(description string) (string, bool) {
	upper := strings.ToUpper(description)
	for _, k := range alwaysKeep {
		if strings.Contains(upper, k.phrase) {
			return k.ticker, true
		}
	}
	return "", false
}

// ExtractBaseSymbol pulls the underlying ticker out of an option symbol or a
// security description. It returns "" when nothing looks like a ticker.
func ExtractBaseSymbol(text string) string {
	upper := strings.ToUpper(strings.TrimSpace(text))
	if upper == "" {
		return ""
	}
	if plainSymbolRegex.MatchString(upper) {
		return upper
	}
	if occ, ok := ParseOCC(upper); ok {
		return occ.Underlying
	}
	for _, re := range baseSymbolPatterns {
		if m := re.FindStringSubmatch(upper); m != nil {
			return m[1]
		}
	}
	if c := symbols.ExtractTickerCandidates(upper); len(c) > 0 {
		return c[0]
	}
	return ""
}

// TickerOnly strips exchange and class qualifiers: AAPL:NASDAQ -> AAPL, BRK.B -> BRK.
func TickerOnly(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if before, _, ok := strings.Cut(symbol, ":"); ok {
		symbol = before
	}
	if before, _, ok := strings.Cut(symbol, "."); ok {
		symbol = before
	}
	if m := leadingLetters.FindStringSubmatch(symbol); m != nil {
		return m[1]
	}
	return symbol
}

// OCCSymbol is a parsed OSI option symbol such as "SPY   240621P00430000".
type OCCSymbol struct {
	Underlying string
	Expiry     time.Time
	Type       models.OptionType
	Strike     float64
}

// ParseOCC parses an OSI option symbol, with or without the root padding.
func ParseOCC(symbol string) (OCCSymbol, bool) {
	m := occSymbolRegex.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(symbol)))
	if m == nil {
		return OCCSymbol{}, false
	}
	expiry, err := time.Parse("060102", m[2])
	if err != nil {
		return OCCSymbol{}, false
	}
	strike, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return OCCSymbol{}, false
	}
	typ := models.OptionCall
	if m[3] == "P" {
		typ = models.OptionPut
	}
	return OCCSymbol{Underlying: m[1], Expiry: expiry, Type: typ, Strike: strike / 1000}, true
}

// Apply copies the contract onto t. Price scaling is left to Mapper.ApplyOption.
func (o OCCSymbol) Apply(t *models.CanonicalTrade) {
	typ, strike, expiry := o.Type, o.Strike, o.Expiry
	t.IsOption = true
	t.OptionType = &typ
	t.StrikePrice = &strike
	t.ExpiryDate = &expiry
}
