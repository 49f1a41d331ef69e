package base

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradenorm/src/models"
)

func TestExtractBaseSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AAPL", "AAPL"},
		{"msft", "MSFT"},
		{"SPY   240621P00430000", "SPY"},
		{"OEX 12/19/2009 495.00 C", "OEX"},
		{"SPX 15MAR24 5140 P", "SPX"},
		{"AAPL - APPLE INC", "AAPL"},
		{"GEVO INC COM PAR (GEVO)", "GEVO"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBaseSymbol(tt.in))
		})
	}
}

func TestTickerOnly(t *testing.T) {
	assert.Equal(t, "AAPL", TickerOnly("AAPL:NASDAQ"))
	assert.Equal(t, "BRK", TickerOnly("BRK.B"))
	assert.Equal(t, "XOM", TickerOnly("XOM 19JUL24 80 P"))
	assert.Equal(t, "MSFT", TickerOnly(" msft "))
}

func TestParseOCC(t *testing.T) {
	occ, ok := ParseOCC("SPY240621P00430000")
	require.True(t, ok)
	assert.Equal(t, "SPY", occ.Underlying)
	assert.Equal(t, models.OptionPut, occ.Type)
	assert.Equal(t, 430.0, occ.Strike)
	assert.Equal(t, time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC), occ.Expiry)

	occ, ok = ParseOCC("AAPL  250117C00192500")
	require.True(t, ok)
	assert.Equal(t, models.OptionCall, occ.Type)
	assert.Equal(t, 192.5, occ.Strike)

	_, ok = ParseOCC("AAPL")
	assert.False(t, ok)
}

func TestOCCSymbolApply(t *testing.T) {
	occ, ok := ParseOCC("SPY240621P00430000")
	require.True(t, ok)
	trade := models.NewCanonicalTrade("webull")
	occ.Apply(trade)
	assert.True(t, trade.IsOption)
	assert.Equal(t, models.OptionPut, *trade.OptionType)
	assert.Equal(t, "2024-06-21", trade.ExpiryDateString())
}

func TestAlwaysKeep(t *testing.T) {
	ticker, ok := AlwaysKeep("Virgin Galactic Holdings Inc")
	require.True(t, ok)
	assert.Equal(t, "SPCE", ticker)

	_, ok = AlwaysKeep("APPLE INC")
	assert.False(t, ok)
}
