package schwab

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers/base"
)

var headers = []string{"Date", "Action", "Symbol", "Description", "Quantity", "Price", "Fees & Comm", "Amount"}

func newMapper() *Mapper {
	return NewMapper(base.Deps{Now: func() time.Time { return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC) }})
}

func TestProcessRow_OptionFromSymbolColumn(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"12/01/2009", "Buy to Open", "OEX 12/19/2009 495.00 C", "", "1", "$3.25", "$0.65", "-$325.65"})
	trade, err := newMapper().ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, "OEX", trade.Symbol)
	assert.Equal(t, models.SideBuy, trade.Side)
	require.True(t, trade.IsOption)
	assert.Equal(t, models.OptionCall, *trade.OptionType)
	require.NotNil(t, trade.StrikePrice)
	assert.Equal(t, 495.0, *trade.StrikePrice)
	assert.Equal(t, "2009-12-19", trade.ExpiryDateString())
	assert.Equal(t, 325.0, trade.Price)
	assert.Equal(t, 1.0, trade.Quantity)
	assert.Equal(t, 0.65, trade.Commission)
	assert.Equal(t, -325.65, trade.NetProceeds)
	assert.Equal(t, "2009-12-01", trade.Date)
}

func TestProcessRow_DateWithTime(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"01/13/2022 14:30:00", "Buy", "AAPL", "APPLE INC", "10", "$170.00", "", "-$1,700.00"})
	trade, err := newMapper().ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, "2022-01-13", trade.Date)
	assert.Equal(t, "14:30:00", trade.Time)
}

func TestProcessRow_StockSell(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"03/15/2023", "Sell", "MSFT", "MICROSOFT CORP", "5", "$250.00", "", "$1,250.00"})
	trade, err := newMapper().ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, "MSFT", trade.Symbol)
	assert.Equal(t, models.SideSell, trade.Side)
	assert.False(t, trade.IsOption)
	assert.Nil(t, trade.StrikePrice)
	assert.Equal(t, 250.0, trade.Price)
	assert.Equal(t, 1250.0, trade.NetProceeds)
}

func TestProcessRow_AsOfDate(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"04/18/2023 as of 04/17/2023", "Buy", "AAPL", "APPLE INC", "10", "$165.00", "", "-$1,650.00"})
	trade, err := newMapper().ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, "2023-04-17", trade.Date)
}

func TestProcessRow_SkipsNonTradeActions(t *testing.T) {
	m := newMapper()
	for _, action := range []string{"Qualified Dividend", "Credit Interest", "MoneyLink Transfer", ""} {
		t.Run(action, func(t *testing.T) {
			r := models.NewRawRow(1, headers, []string{"03/15/2023", action, "AAPL", "APPLE INC", "", "", "", "$1.00"})
			trade, err := m.ProcessRow(context.Background(), r)
			assert.NoError(t, err)
			assert.Nil(t, trade)
		})
	}
}

func TestProcessRow_MissingPrice(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"03/15/2023", "Buy", "AAPL", "APPLE INC", "10", "", "", ""})
	trade, err := newMapper().ProcessRow(context.Background(), r)
	assert.NoError(t, err)
	assert.Nil(t, trade)
}
