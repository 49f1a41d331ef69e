package webull

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers/base"
)

var headers = []string{"Name", "Symbol", "Side", "Status", "Filled", "Total Qty", "Price", "Avg Price", "Time-in-Force", "Placed Time", "Filled Time"}

func TestProcessRow_FilledBuy(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"Apple Inc", "AAPL", "Buy", "Filled", "10", "10", "@150.00", "150.00", "DAY", "03/14/2024 10:30:00 EDT", "03/14/2024 10:32:15 EDT"})
	trade, err := NewMapper(base.OfflineDeps()).ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, "AAPL", trade.Symbol)
	assert.Equal(t, models.SideBuy, trade.Side)
	assert.Equal(t, models.StatusCompleted, trade.Status)
	assert.Equal(t, 150.0, trade.Price)
	assert.Equal(t, -1500.0, trade.NetProceeds)
	assert.Equal(t, "2024-03-14", trade.Date)
	assert.Equal(t, "10:32:15", trade.Time)
}

func TestProcessRow_ShortIsSell(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"Tesla", "TSLA", "Short", "Filled", "2", "2", "@180.00", "180.00", "DAY", "", "03/14/2024 11:00:00 EST"})
	trade, err := NewMapper(base.OfflineDeps()).ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, models.SideSell, trade.Side)
	assert.Equal(t, 360.0, trade.NetProceeds)
}

func TestProcessRow_PartialFillIsCompleted(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"Apple Inc", "AAPL", "Buy", "Partially Filled", "4", "10", "@150.00", "150.00", "GTC", "", "03/14/2024 10:32:15 EDT"})
	trade, err := NewMapper(base.OfflineDeps()).ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, models.StatusCompleted, trade.Status)
	assert.Equal(t, 4.0, trade.Quantity)
}

func TestProcessRow_OCCOption(t *testing.T) {
	r := models.NewRawRow(1, headers, []string{"SPY 240621 Put 430.00", "SPY240621P00430000", "Buy", "Filled", "1", "1", "@2.50", "2.50", "DAY", "", "03/14/2024 10:32:15 EDT"})
	trade, err := NewMapper(base.OfflineDeps()).ProcessRow(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, "SPY", trade.Symbol)
	require.True(t, trade.IsOption)
	assert.Equal(t, models.OptionPut, *trade.OptionType)
	assert.Equal(t, "2024-06-21", trade.ExpiryDateString())
	assert.Equal(t, 250.0, trade.Price)
	assert.Equal(t, -250.0, trade.NetProceeds)
}

func TestProcessRow_SkipsCancelled(t *testing.T) {
	m := NewMapper(base.OfflineDeps())
	for _, status := range []string{"Cancelled", "Failed"} {
		r := models.NewRawRow(1, headers, []string{"Apple Inc", "AAPL", "Buy", status, "0", "10", "@150.00", "", "DAY", "03/14/2024 10:30:00 EDT", ""})
		trade, err := m.ProcessRow(context.Background(), r)
		assert.NoError(t, err)
		assert.Nil(t, trade, status)
	}
}
