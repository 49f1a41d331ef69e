// Package base holds the row-mapping steps every broker shares: column lookup,
// the date chain, the symbol pipeline, option enrichment and the acceptance check.
package base

import (
	"context"
	"strings"
	"time"

	"github.com/username/tradenorm/src/cache"
	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/options"
	"github.com/username/tradenorm/src/side"
	"github.com/username/tradenorm/src/spac"
	"github.com/username/tradenorm/src/symbols"
	"github.com/username/tradenorm/src/utils"
)

// Canonical field names a source column can map to.
const (
	FieldDate        = "date"
	FieldTime        = "time"
	FieldTimestamp   = "timestamp"
	FieldSymbol      = "symbol"
	FieldDescription = "description"
	FieldSide        = "side"
	FieldQuantity    = "quantity"
	FieldPrice       = "price"
	FieldCommission  = "commission"
	FieldFees        = "fees"
	FieldNetProceeds = "net_proceeds"
	FieldOptionType  = "option_type"
	FieldStrike      = "strike_price"
	FieldExpiry      = "expiry_date"
	FieldStatus      = "status"
)

// Column maps one source header to a canonical field. Columns are declared
// primary first, so the first non-blank alias wins.
type Column struct {
	Source string
	Field  string
}

// Deps are the shared services injected into every mapper.
type Deps struct {
	Symbols *symbols.Resolver
	Spac    *spac.Resolver
	Now     func() time.Time
}

// OfflineDeps resolves symbols from a fresh in-memory cache with no external lookup.
func OfflineDeps() Deps {
	c := cache.New(nil)
	return Deps{
		Symbols: symbols.NewResolver(c, nil),
		Spac:    spac.NewResolver(c, nil),
	}
}

// Mapper is embedded by the broker mappers.
type Mapper struct {
	broker  string
	columns []Column
	enhance bool
	deps    Deps
	Side    *side.Resolver
}

func NewMapper(broker string, columns []Column, enhance bool, deps Deps, sideOpts ...side.Option) *Mapper {
	if deps.Symbols == nil || deps.Spac == nil {
		offline := OfflineDeps()
		if deps.Symbols == nil {
			deps.Symbols = offline.Symbols
		}
		if deps.Spac == nil {
			deps.Spac = offline.Spac
		}
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Mapper{
		broker:  broker,
		columns: columns,
		enhance: enhance,
		deps:    deps,
		Side:    side.NewResolver(sideOpts...),
	}
}

func (m *Mapper) Broker() string { return m.broker }

func (m *Mapper) UsesSymbolEnhancement() bool { return m.enhance }

// ColumnMappings returns source header -> canonical field.
func (m *Mapper) ColumnMappings() map[string]string {
	out := make(map[string]string, len(m.columns))
	for _, c := range m.columns {
		out[c.Source] = c.Field
	}
	return out
}

// Columns returns the source headers mapped to field, primary first.
func (m *Mapper) Columns(field string) []string {
	var out []string
	for _, c := range m.columns {
		if c.Field == field {
			out = append(out, c.Source)
		}
	}
	return out
}

// Field returns the first non-blank cell mapped to field.
func (m *Mapper) Field(row models.RawRow, field string) string {
	return row.Get(m.Columns(field)...)
}

// Now is the clock used for date fallbacks and yearless expiries.
func (m *Mapper) Now() time.Time { return m.deps.Now() }

// NewTrade returns a draft stamped with this broker.
func (m *Mapper) NewTrade() *models.CanonicalTrade {
	return models.NewCanonicalTrade(m.broker)
}

// Skip logs a dropped row. It always returns (nil, nil) so callers can return it directly.
func (m *Mapper) Skip(ctx context.Context, row models.RawRow, reason string, args ...any) (*models.CanonicalTrade, error) {
	attrs := append([]any{"broker", m.broker, "row", row.Number, "reason", reason}, args...)
	logger.FromContext(ctx).Info("Skipping row", attrs...)
	return nil, nil
}

// ResolveDate runs the date chain: the primary columns, the mapped date columns,
// the description, any other non-numeric column, then now.
func (m *Mapper) ResolveDate(ctx context.Context, row models.RawRow, description string, primary ...string) time.Time {
	log := logger.FromContext(ctx)
	now := m.Now()

	checked := make(map[string]bool)
	for _, col := range append(primary, m.Columns(FieldDate)...) {
		checked[col] = true
		if v := row.Value(col); v != "" {
			if t, ok := utils.ParseComplexDate(v, now); ok {
				return t
			}
			log.Debug("Unparseable date cell", "row", row.Number, "column", col, "value", v)
		}
	}

	if description != "" {
		if t, ok := utils.ExtractDateFromDescription(description, now); ok {
			log.Debug("Date extracted from description", "row", row.Number)
			return t
		}
	}

	for _, f := range []string{FieldSymbol, FieldDescription, FieldQuantity, FieldPrice, FieldCommission, FieldFees, FieldNetProceeds, FieldStrike} {
		for _, col := range m.Columns(f) {
			checked[col] = true
		}
	}
	for _, col := range row.Headers {
		if checked[col] {
			continue
		}
		if v := row.Value(col); v != "" {
			if t, ok := utils.ParseComplexDate(v, now); ok {
				log.Debug("Date found in unmapped column", "row", row.Number, "column", col)
				return t
			}
		}
	}

	log.Warn("No valid date found, using current date", "broker", m.broker, "row", row.Number)
	return now
}

// ResolveSymbol runs the symbol pipeline on raw and records provenance on t:
// whitespace cleanup, SPAC renaming, enhancement, description extraction, UNKNOWN.
func (m *Mapper) ResolveSymbol(ctx context.Context, t *models.CanonicalTrade, raw, description string) {
	sym := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if sym == "" {
		sym = ExtractBaseSymbol(description)
	}
	if sym == "" {
		t.Symbol = models.UnknownSymbol
		return
	}

	res := m.deps.Spac.Resolve(ctx, sym, description)
	if res.Resolved && res.Symbol != sym {
		t.OriginalSymbol = sym
		t.SymbolResolved = true
		t.IsSpac = true
		sym = res.Symbol
	}
	t.PotentialSpac = res.PotentialSpac

	if m.enhance && symbols.NeedsEnhancement(sym) {
		if enhanced := m.deps.Symbols.Resolve(ctx, sym, description); enhanced != "" && enhanced != sym {
			if t.OriginalSymbol == "" {
				t.OriginalSymbol = sym
			}
			t.SymbolEnhanced = true
			sym = enhanced
		}
	}
	t.Symbol = sym
}

// ApplyOption detects an option in description (or symbol), copies the contract
// fields onto t and scales a per-share price to the contract price.
func (m *Mapper) ApplyOption(t *models.CanonicalTrade, description, symbol string) {
	options.Extract(description, symbol, m.Now()).ApplyTo(t)
	if !t.IsOption {
		return
	}
	if t.DTE == nil {
		t.DTE = options.DTE(t.Timestamp, t.ExpiryDate)
	}
	t.Price = utils.ContractPrice(t.Price)
}

// SignProceeds makes net proceeds negative for buys and positive for sells.
func SignProceeds(t *models.CanonicalTrade) {
	switch {
	case t.Side == models.SideBuy && t.NetProceeds > 0:
		t.NetProceeds = -t.NetProceeds
	case t.Side == models.SideSell && t.NetProceeds < 0:
		t.NetProceeds = -t.NetProceeds
	}
}

// Accept reports whether a row carries the fields a trade needs, logging what is missing.
func (m *Mapper) Accept(ctx context.Context, row models.RawRow, d side.Decision, hasQuantity, hasPrice bool) bool {
	var missing []string
	if !d.Resolved() {
		missing = append(missing, "side")
	}
	if !hasQuantity {
		missing = append(missing, "quantity")
	}
	if !hasPrice {
		missing = append(missing, "price")
	}
	if len(missing) == 0 {
		return true
	}
	logger.FromContext(ctx).Warn("Skipping row, missing required fields", "broker", m.broker, "row", row.Number, "missing", missing)
	return false
}

// ApplyOptionColumns reads explicit option columns (type, strike, expiry) when
// the export has them. Description detection still runs afterwards.
func (m *Mapper) ApplyOptionColumns(t *models.CanonicalTrade, row models.RawRow) {
	var typ models.OptionType
	switch strings.ToUpper(m.Field(row, FieldOptionType)) {
	case "C", "CALL":
		typ = models.OptionCall
	case "P", "PUT":
		typ = models.OptionPut
	default:
		return
	}
	t.IsOption = true
	t.OptionType = &typ
	if strike, ok := utils.NumericPresent(m.Field(row, FieldStrike)); ok {
		strike = utils.AbsFloat(strike)
		t.StrikePrice = &strike
	}
	if v := m.Field(row, FieldExpiry); v != "" {
		if exp, ok := parseExpiry(v, m.Now()); ok {
			t.ExpiryDate = &exp
		}
	}
}

func parseExpiry(v string, now time.Time) (time.Time, bool) {
	if len(v) == 8 {
		if t, err := time.Parse("20060102", v); err == nil {
			return t, true
		}
	}
	t, ok := utils.ParseComplexDate(v, now)
	if !ok {
		return time.Time{}, false
	}
	return utils.TruncateToDay(t), true
}
