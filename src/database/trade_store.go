package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/models"
)

// TradeStore persists normalized trades. A trade is identified by its hash, so
// re-uploading the same export inserts nothing new.
type TradeStore struct {
	db *sql.DB
}

func NewTradeStore(db *sql.DB) *TradeStore {
	return &TradeStore{db: db}
}

const insertTrade = `INSERT INTO normalized_trades (
	batch_id, hash_id, broker_type, timestamp, date, time, symbol, side, status,
	price, quantity, commission, net_proceeds, is_option, option_type, strike_price,
	expiry_date, dte, description, original_symbol, is_spac, potential_spac
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertTrades writes one batch in a single transaction and reports how many rows
// were new and how many were already stored.
func (s *TradeStore) InsertTrades(ctx context.Context, batchID string, trades []models.CanonicalTrade) (inserted, duplicates int, err error) {
	if len(trades) == 0 {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTrade)
	if err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: prepare insert trade")
	}
	defer stmt.Close()

	for _, t := range trades {
		var optionType sql.NullString
		if t.OptionType != nil {
			optionType = sql.NullString{String: string(*t.OptionType), Valid: true}
		}
		var strike sql.NullFloat64
		if t.StrikePrice != nil {
			strike = sql.NullFloat64{Float64: *t.StrikePrice, Valid: true}
		}
		var dte sql.NullInt64
		if t.DTE != nil {
			dte = sql.NullInt64{Int64: int64(*t.DTE), Valid: true}
		}
		var expiry sql.NullString
		if t.ExpiryDate != nil {
			expiry = sql.NullString{String: t.ExpiryDateString(), Valid: true}
		}

		_, err := stmt.ExecContext(ctx,
			batchID, t.HashId, t.BrokerType, t.Timestamp.UTC(), t.Date, t.Time, t.Symbol, string(t.Side), string(t.Status),
			t.Price, t.Quantity, t.Commission, t.NetProceeds, t.IsOption, optionType, strike,
			expiry, dte, t.Description, t.OriginalSymbol, t.IsSpac, t.PotentialSpac,
		)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				logger.L.Debug("Skipping duplicate trade", "batch_id", batchID, "hash_id", t.HashId)
				duplicates++
				continue
			}
			return 0, 0, eris.Wrapf(err, "sqlite: insert trade %s", t.HashId)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: commit trades")
	}
	return inserted, duplicates, nil
}

// TradesByBatch returns the trades first stored by one batch, in insertion order.
func (s *TradeStore) TradesByBatch(ctx context.Context, batchID string) ([]models.CanonicalTrade, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hash_id, broker_type, timestamp, date, time, symbol, side, status,
		price, quantity, commission, net_proceeds, is_option, option_type, strike_price, expiry_date, dte,
		description, original_symbol, is_spac, potential_spac
		FROM normalized_trades WHERE batch_id = ? ORDER BY id`, batchID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query trades for batch %s", batchID)
	}
	defer rows.Close()

	var trades []models.CanonicalTrade
	for rows.Next() {
		var (
			t                     models.CanonicalTrade
			side, status          string
			tm, desc, origSym     sql.NullString
			optionType, expiry    sql.NullString
			strike                sql.NullFloat64
			dte                   sql.NullInt64
			isSpac, potentialSpac sql.NullBool
		)
		if err := rows.Scan(&t.HashId, &t.BrokerType, &t.Timestamp, &t.Date, &tm, &t.Symbol, &side, &status,
			&t.Price, &t.Quantity, &t.Commission, &t.NetProceeds, &t.IsOption, &optionType, &strike, &expiry, &dte,
			&desc, &origSym, &isSpac, &potentialSpac); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan trade")
		}
		t.Side = models.TradeSide(side)
		t.Status = models.TradeStatus(status)
		t.Time = tm.String
		t.Description = desc.String
		t.OriginalSymbol = origSym.String
		t.IsSpac = isSpac.Bool
		t.PotentialSpac = potentialSpac.Bool
		if optionType.Valid {
			ot := models.OptionType(optionType.String)
			t.OptionType = &ot
		}
		if strike.Valid {
			v := strike.Float64
			t.StrikePrice = &v
		}
		if expiry.Valid {
			if e, err := time.Parse("2006-01-02", expiry.String); err == nil {
				t.ExpiryDate = &e
			}
		}
		if dte.Valid {
			v := int(dte.Int64)
			t.DTE = &v
		}
		trades = append(trades, t)
	}
	return trades, eris.Wrap(rows.Err(), "sqlite: iterate trades")
}
