package symbols

import (
	"regexp"
	"strings"
	"unicode"
)

// MoneyMarketSymbol is the placeholder ticker for sweep and cash positions.
const MoneyMarketSymbol = "SPAXX"

var commonSuffixes = wordSet(
	"INC", "CORP", "LTD", "CO", "LLC", "HOLDINGS", "GROUP", "PLC", "TECHNOLOGY",
	"TECHNOLOGIES", "INTERNATIONAL", "ETF", "FUND", "TRUST", "REIT", "BANCORP",
	"ADR", "ADS", "LP", "SA", "AG", "SE", "NV", "PTE", "BHD", "BERHAD",
	"HK", "KK", "OYJ", "ASA", "OY", "AB", "GMBH", "HLDGS", "HLDG",
)

var commonWords = wordSet(
	"THE", "AND", "OF", "FOR", "IN", "ON", "BY", "WITH", "TO", "A", "AN",
	"FROM", "CLASS", "SERIES", "CL", "SER", "COMMON", "COM", "STOCK", "SHARE",
	"SHARES", "NEW", "EACH", "USD", "CASH", "EXCHANGE", "TRADED", "MONEY", "MARKET",
	"REPRESENTS", "REPRESENTING", "PAR", "VALUE", "ORDINARY", "PREFERRED", "DEPOSITARY",
	"RECEIPT", "RECEIPTS", "YOU", "BOUGHT", "SOLD", "BUY", "SELL", "CALL", "PUT",
)

var spacIndicators = []string{
	"SPAC", "ACQUISITION", "BLANK CHECK", "SPECIAL PURPOSE", "CAPITAL", "PARTNERS",
	"MERGER", "SPONSOR", "UNIT", "WARR", "WTS", "UNITS",
}

var spacIndicatorSet = wordSet(spacIndicators...)

// Identifiers whose ticker cannot be recovered from the text.
var knownCUSIPs = map[string]string{
	"00941Q104": "ANTE", // AirNet Technology
	"603171109": "MINE", // Minerco
	"G7483N129": "RTP",  // Reinvent Technology Partners
	"92766K106": "SPCE", // Virgin Galactic
}

// Company names that always map to one ticker, checked in order.
var knownCompanies = []struct {
	phrase string
	ticker string
}{
	{"VIRGIN GALACTIC", "SPCE"},
	{"MINERCO", "MINE"},
	{"AIRNET TECHNOLOGY", "ANTE"},
	{"REINVENT TECHNOLOGY PARTNERS", "RTP"},
}

var (
	parenTickerRegex = regexp.MustCompile(`\(([A-Z]{1,5})\)`)
	shortWordRegex   = regexp.MustCompile(`\b[A-Z0-9]{1,5}\b`)
	cleanTickerRegex = regexp.MustCompile(`^[A-Z]{1,5}$`)
	nonAlphaRegex    = regexp.MustCompile(`[^A-Za-z]`)
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func isNoise(word string) bool {
	_, suffix := commonSuffixes[word]
	_, common := commonWords[word]
	return suffix || common
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// IsCleanTicker reports whether s is already a 1-5 letter upper-case ticker.
func IsCleanTicker(s string) bool {
	return cleanTickerRegex.MatchString(s)
}

// NeedsEnhancement reports whether a broker symbol has to be resolved to a ticker:
// it holds a digit or a colon, or is longer than five characters.
func NeedsEnhancement(symbol string) bool {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" || symbol == MoneyMarketSymbol {
		return false
	}
	if len(symbol) > 5 || strings.Contains(symbol, ":") {
		return true
	}
	return strings.IndexFunc(symbol, unicode.IsDigit) >= 0
}

// HasSpacIndicator reports whether text carries SPAC naming such as ACQUISITION or UNITS.
func HasSpacIndicator(text string) bool {
	upper := strings.ToUpper(text)
	for _, ind := range spacIndicators {
		if strings.Contains(upper, ind) {
			return true
		}
	}
	return false
}

// ExtractTickerCandidates pulls likely tickers out of a security description,
// best candidate first. A parenthesised ticker wins outright.
func ExtractTickerCandidates(description string) []string {
	if description == "" {
		return nil
	}
	desc := strings.ToUpper(description)

	if parens := parenTickerRegex.FindAllStringSubmatch(desc, -1); len(parens) > 0 {
		var out []string
		for _, m := range parens {
			if !isNoise(m[1]) {
				out = append(out, m[1])
			}
		}
		return out
	}

	words := shortWordRegex.FindAllString(desc, -1)
	var candidates []string
	for _, w := range words {
		if isAlpha(w) && !isNoise(w) {
			candidates = append(candidates, w)
		}
	}
	if len(words) > 0 && isAlpha(words[0]) && !isNoise(words[0]) {
		candidates = append([]string{words[0]}, candidates...)
	}

	if HasSpacIndicator(desc) {
		for _, w := range words {
			if _, ind := spacIndicatorSet[w]; ind || len(w) < 2 || !isAlpha(w) || isNoise(w) {
				continue
			}
			candidates = append(candidates, w)
		}
	}

	for _, kc := range knownCompanies {
		if strings.Contains(desc, kc.phrase) {
			candidates = append([]string{kc.ticker}, candidates...)
			break
		}
	}

	return dedupe(candidates)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// CleanSymbol is the offline last resort: recover a ticker from a colon payload or
// a known CUSIP, else keep the first five letters.
func CleanSymbol(symbol string) string {
	if symbol == "" {
		return ""
	}
	if _, rest, ok := strings.Cut(symbol, ":"); ok {
		if c := ExtractTickerCandidates(rest); len(c) > 0 {
			return c[0]
		}
	}
	if t, ok := knownCUSIPs[symbol]; ok {
		return t
	}
	clean := nonAlphaRegex.ReplaceAllString(symbol, "")
	if len(clean) > 5 {
		clean = clean[:5]
	}
	if clean == "" {
		return symbol
	}
	return strings.ToUpper(clean)
}
