package base

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradenorm/src/models"
)

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func testMapper(enhance bool) *Mapper {
	return NewMapper("test-broker", []Column{
		{"Date", FieldDate},
		{"Symbol", FieldSymbol},
		{"Description", FieldDescription},
		{"Qty", FieldQuantity},
		{"Put/Call", FieldOptionType},
		{"Strike", FieldStrike},
		{"Expiry", FieldExpiry},
	}, enhance, Deps{Now: func() time.Time { return fixedNow }})
}

func row(headers []string, record ...string) models.RawRow {
	return models.NewRawRow(1, headers, record)
}

func TestMapper_ColumnsPrimaryFirst(t *testing.T) {
	m := NewMapper("x", []Column{{"Run Date", FieldDate}, {"Date", FieldDate}, {"Price", FieldPrice}}, false, Deps{})
	assert.Equal(t, []string{"Run Date", "Date"}, m.Columns(FieldDate))
	assert.Equal(t, FieldPrice, m.ColumnMappings()["Price"])

	r := row([]string{"Run Date", "Date"}, "", "2024-01-02")
	assert.Equal(t, "2024-01-02", m.Field(r, FieldDate))
}

func TestResolveDate_MappedColumn(t *testing.T) {
	m := testMapper(false)
	r := row([]string{"Date", "Symbol"}, "03/15/2023", "AAPL")
	assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), m.ResolveDate(context.Background(), r, ""))
}

func TestResolveDate_Description(t *testing.T) {
	m := testMapper(false)
	r := row([]string{"Date"}, "")
	got := m.ResolveDate(context.Background(), r, "YOU BOUGHT AAPL AS OF 03/15/2023")
	assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestResolveDate_UnmappedColumn(t *testing.T) {
	m := testMapper(false)
	r := row([]string{"Date", "Settlement"}, "", "2023-03-15")
	assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), m.ResolveDate(context.Background(), r, ""))
}

func TestResolveDate_FallsBackToNow(t *testing.T) {
	m := testMapper(false)
	r := row([]string{"Date", "Symbol"}, "", "AAPL")
	assert.Equal(t, fixedNow, m.ResolveDate(context.Background(), r, ""))
}

func TestResolveSymbol(t *testing.T) {
	ctx := context.Background()
	m := testMapper(true)

	trade := m.NewTrade()
	m.ResolveSymbol(ctx, trade, " aapl ", "APPLE INC")
	assert.Equal(t, "AAPL", trade.Symbol)
	assert.False(t, trade.SymbolEnhanced)

	trade = m.NewTrade()
	m.ResolveSymbol(ctx, trade, "", "APPLE INC (AAPL)")
	assert.Equal(t, "AAPL", trade.Symbol)

	trade = m.NewTrade()
	m.ResolveSymbol(ctx, trade, "", "")
	assert.Equal(t, models.UnknownSymbol, trade.Symbol)
}

func TestResolveSymbol_FormerSpac(t *testing.T) {
	m := testMapper(false)
	trade := m.NewTrade()
	m.ResolveSymbol(context.Background(), trade, "IPOA", "")
	assert.Equal(t, "SPCE", trade.Symbol)
	assert.Equal(t, "IPOA", trade.OriginalSymbol)
	assert.True(t, trade.SymbolResolved)
	assert.True(t, trade.IsSpac)
}

func TestApplyOptionColumns(t *testing.T) {
	m := testMapper(false)
	r := row([]string{"Put/Call", "Strike", "Expiry"}, "P", "80", "20240719")
	trade := m.NewTrade()
	m.ApplyOptionColumns(trade, r)
	require.True(t, trade.IsOption)
	assert.Equal(t, models.OptionPut, *trade.OptionType)
	assert.Equal(t, 80.0, *trade.StrikePrice)
	assert.Equal(t, "2024-07-19", trade.ExpiryDateString())

	trade = m.NewTrade()
	m.ApplyOptionColumns(trade, row([]string{"Put/Call"}, ""))
	assert.False(t, trade.IsOption)
}

func TestApplyOption_ScalesPrice(t *testing.T) {
	m := testMapper(false)
	trade := m.NewTrade()
	trade.SetTimestamp(time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC))
	trade.Price = 1.15
	m.ApplyOption(trade, "GOOG 6/9/2023 Call $123.00", "GOOG")
	require.True(t, trade.IsOption)
	assert.Equal(t, 115.0, trade.Price)
	require.NotNil(t, trade.DTE)
	assert.Equal(t, 8, *trade.DTE)
}

func TestSignProceeds(t *testing.T) {
	buy := &models.CanonicalTrade{Side: models.SideBuy, NetProceeds: 100}
	SignProceeds(buy)
	assert.Equal(t, -100.0, buy.NetProceeds)

	sell := &models.CanonicalTrade{Side: models.SideSell, NetProceeds: -100}
	SignProceeds(sell)
	assert.Equal(t, 100.0, sell.NetProceeds)

	unchanged := &models.CanonicalTrade{Side: models.SideSell, NetProceeds: 50}
	SignProceeds(unchanged)
	assert.Equal(t, 50.0, unchanged.NetProceeds)
}
