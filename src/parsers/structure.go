package parsers

import (
	"fmt"
	"strings"

	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers/base"
)

// requiredFields lists, per broker, the headers a well-formed export carries and
// the canonical field each one supplies.
var requiredFields = map[string][]base.Column{
	"interactive-brokers": {{Source: "Description", Field: base.FieldDescription}, {Source: "Buy/Sell", Field: base.FieldSide}, {Source: "TradeDate", Field: base.FieldDate}},
	"fidelity":            {{Source: "Run Date", Field: base.FieldDate}, {Source: "Action", Field: base.FieldSide}, {Source: "Price ($)", Field: base.FieldPrice}},
	"robinhood":           {{Source: "Activity Date", Field: base.FieldDate}, {Source: "Trans Code", Field: base.FieldSide}, {Source: "Instrument", Field: base.FieldSymbol}},
	"charles-schwab":      {{Source: "Date", Field: base.FieldDate}, {Source: "Action", Field: base.FieldSide}, {Source: "Price", Field: base.FieldPrice}},
	"tastytrade":          {{Source: "Date", Field: base.FieldDate}, {Source: "Action", Field: base.FieldSide}, {Source: "Symbol", Field: base.FieldSymbol}},
	"tradingview":         {{Source: "Date", Field: base.FieldDate}, {Source: "Action", Field: base.FieldSide}, {Source: "Symbol", Field: base.FieldSymbol}},
	"webull":              {{Source: "Filled Time", Field: base.FieldDate}, {Source: "Side", Field: base.FieldSide}, {Source: "Symbol", Field: base.FieldSymbol}},
}

// ValidateStructure checks an export's header and row count against a broker's
// expectations. A header missing some required columns is still valid when any
// alias of the mapper's date and side columns is present.
func ValidateStructure(headers []string, dataRows int, broker string, mapper Mapper) models.ValidationResult {
	if len(headers) == 0 {
		return models.ValidationResult{Error: ErrEmptyHeader.Error()}
	}
	normalized := NormalizeBroker(broker)
	required, ok := requiredFields[normalized]
	if !ok || mapper == nil {
		return models.ValidationResult{Error: fmt.Sprintf("%s: %s", ErrUnsupportedBroker, broker)}
	}
	if dataRows == 0 {
		return models.ValidationResult{Broker: normalized, Error: ErrNoDataRows.Error()}
	}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var missing []string
	for _, col := range required {
		if !present[col.Source] {
			missing = append(missing, col.Source)
		}
	}
	if len(missing) == 0 {
		return models.ValidationResult{Valid: true, Broker: normalized}
	}

	hasField := func(field string) bool {
		for src, f := range mapper.ColumnMappings() {
			if f == field && present[src] {
				return true
			}
		}
		return false
	}
	if hasField(base.FieldDate) && hasField(base.FieldSide) {
		return models.ValidationResult{Valid: true, Broker: normalized, Missing: missing}
	}
	return models.ValidationResult{
		Broker:  normalized,
		Error:   "Missing essential fields: " + strings.Join(missing, ", "),
		Missing: missing,
	}
}
