package robinhood

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers/base"
)

var headers = []string{"Activity Date", "Process Date", "Settle Date", "Instrument", "Description", "Trans Code", "Quantity", "Price", "Amount"}

func newMapper() *Mapper {
	return NewMapper(base.Deps{Now: func() time.Time { return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC) }})
}

func TestProcessRow_OptionBuyToOpen(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"6/1/2023", "6/1/2023", "6/2/2023", "GOOG", "GOOG 6/9/2023 Call $123.00", "BTO", "1", "$1.15", "($115.00)"})
	trade, err := newMapper().ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, "GOOG", trade.Symbol)
	assert.Equal(t, models.SideBuy, trade.Side)
	require.True(t, trade.IsOption)
	assert.Equal(t, models.OptionCall, *trade.OptionType)
	assert.Equal(t, 123.0, *trade.StrikePrice)
	assert.Equal(t, "2023-06-09", trade.ExpiryDateString())
	require.NotNil(t, trade.DTE)
	assert.Equal(t, 8, *trade.DTE)
	assert.Equal(t, 115.0, trade.Price)
	assert.Equal(t, -115.0, trade.NetProceeds)
}

func TestProcessRow_StockSell(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"3/15/2023", "3/15/2023", "3/17/2023", "TSLA", "Tesla", "Sell", "2", "$180.00", "$360.00"})
	trade, err := newMapper().ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, models.SideSell, trade.Side)
	assert.False(t, trade.IsOption)
	assert.Equal(t, 360.0, trade.NetProceeds)
}

func TestProcessRow_ExpirationIsSell(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"6/16/2023", "6/16/2023", "6/16/2023", "SPY", "Option Expiration for SPY 6/16/2023 Put $430.00", "OEXP", "2", "", ""})
	trade, err := newMapper().ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, models.SideSell, trade.Side)
	assert.Equal(t, 0.0, trade.Price)
	assert.Equal(t, 2.0, trade.Quantity)
}

func TestProcessRow_SkipsCashCodes(t *testing.T) {
	m := newMapper()
	for _, code := range []string{"INT", "ACH", "RTP", "DIV", "CDIV", ""} {
		t.Run(code, func(t *testing.T) {
			r := models.NewRawRow(1, headers, []string{"3/15/2023", "", "", "", "Interest Payment", code, "", "", "$0.12"})
			trade, err := m.ProcessRow(context.Background(), r)
			assert.NoError(t, err)
			assert.Nil(t, trade)
		})
	}
}

func TestProcessRow_UnknownCodeDefaultsToBuy(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"3/15/2023", "", "", "AAPL", "Apple", "REC", "1", "$150.00", ""})
	trade, err := newMapper().ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, models.SideBuy, trade.Side)
}
