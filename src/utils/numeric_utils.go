package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/tradenorm/src/logger"
)

// ErrInvalidNumber is returned by ParseNumeric when the cell holds no number.
var ErrInvalidNumber = errors.New("invalid numeric value")

var numericNoiseRegex = regexp.MustCompile(`[$,\s]`)

// ParseNumeric converts broker cell text into a decimal. It strips currency
// symbols, thousands separators and whitespace, and reads "(x)" as -x.
// An empty cell parses to zero with no error.
func ParseNumeric(value string) (decimal.Decimal, error) {
	clean := numericNoiseRegex.ReplaceAllString(value, "")
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") && len(clean) >= 2 {
		clean = "-" + clean[1 : len(clean)-1]
	}
	clean = strings.TrimPrefix(clean, "+")
	if clean == "" || clean == "-" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, value)
	}
	return d, nil
}

// CleanNumeric is the lenient form of ParseNumeric used by the row mappers:
// anything that is not a number becomes 0.0 and a warning is logged.
func CleanNumeric(value string) float64 {
	d, err := ParseNumeric(value)
	if err != nil {
		logger.L.Warn("Could not convert value to number, using 0", "value", value)
		return 0
	}
	return d.InexactFloat64()
}

// NumericPresent reports whether the cell holds a parseable, non-zero number,
// and returns it. Mappers use this to decide whether a field was supplied.
func NumericPresent(value string) (float64, bool) {
	if strings.TrimSpace(value) == "" {
		return 0, false
	}
	d, err := ParseNumeric(value)
	if err != nil || d.IsZero() {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// ContractPrice scales a per-share option quote to a contract price when the
// quote looks per-share (< 100). Decimal math keeps 1.15 from becoming 114.999....
func ContractPrice(price float64) float64 {
	if price <= 0 || price >= 100 {
		return price
	}
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
