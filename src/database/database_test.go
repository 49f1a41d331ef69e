package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradenorm/src/models"
)

func openTestDB(t *testing.T) *TradeStore {
	t.Helper()
	db, err := InitDB(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTradeStore(db)
}

func sampleTrade(hash string) models.CanonicalTrade {
	tr := models.NewCanonicalTrade("charles-schwab")
	tr.SetTimestamp(time.Date(2009, 12, 1, 0, 0, 0, 0, time.UTC))
	tr.Symbol = "OEX"
	tr.Side = models.SideBuy
	tr.Price = 325
	tr.Quantity = 1
	tr.HashId = hash
	return *tr
}

func TestInitDB_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		db, err := InitDB(context.Background(), path)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}
}

func TestTradeStore_InsertSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)

	opt := sampleTrade("h2")
	call := models.OptionCall
	strike := 495.0
	exp := time.Date(2009, 12, 19, 0, 0, 0, 0, time.UTC)
	dte := 18
	opt.IsOption, opt.OptionType, opt.StrikePrice, opt.ExpiryDate, opt.DTE = true, &call, &strike, &exp, &dte

	inserted, dups, err := store.InsertTrades(ctx, "batch-1", []models.CanonicalTrade{sampleTrade("h1"), opt})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 0, dups)

	inserted, dups, err = store.InsertTrades(ctx, "batch-2", []models.CanonicalTrade{sampleTrade("h1"), sampleTrade("h3")})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, dups)

	trades, err := store.TradesByBatch(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "h1", trades[0].HashId)
	assert.Equal(t, models.SideBuy, trades[0].Side)
	assert.Nil(t, trades[0].OptionType)

	got := trades[1]
	assert.True(t, got.IsOption)
	require.NotNil(t, got.OptionType)
	assert.Equal(t, models.OptionCall, *got.OptionType)
	assert.Equal(t, 495.0, *got.StrikePrice)
	assert.Equal(t, "2009-12-19", got.ExpiryDateString())
	assert.Equal(t, 18, *got.DTE)
}

func TestTradeStore_EmptyBatch(t *testing.T) {
	store := openTestDB(t)
	inserted, dups, err := store.InsertTrades(context.Background(), "b", nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Zero(t, dups)
}
