package database

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"github.com/username/tradenorm/src/logger"
	_ "modernc.org/sqlite"
)

const migration = `
CREATE TABLE IF NOT EXISTS symbol_cache (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS normalized_trades (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id       TEXT NOT NULL,
	hash_id        TEXT NOT NULL,
	broker_type    TEXT NOT NULL,
	timestamp      DATETIME NOT NULL,
	date           TEXT NOT NULL,
	time           TEXT,
	symbol         TEXT NOT NULL,
	side           TEXT NOT NULL,
	status         TEXT NOT NULL,
	price          REAL NOT NULL DEFAULT 0,
	quantity       REAL NOT NULL DEFAULT 0,
	commission     REAL NOT NULL DEFAULT 0,
	net_proceeds   REAL NOT NULL DEFAULT 0,
	is_option      BOOLEAN NOT NULL DEFAULT FALSE,
	option_type    TEXT,
	strike_price   REAL,
	expiry_date    TEXT,
	dte            INTEGER,
	description    TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(hash_id)
);

CREATE INDEX IF NOT EXISTS idx_normalized_trades_batch_id ON normalized_trades(batch_id);
CREATE INDEX IF NOT EXISTS idx_normalized_trades_symbol ON normalized_trades(symbol);
`

// InitDB opens the sqlite database at path, switches it to WAL and ensures the schema.
func InitDB(ctx context.Context, databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: open %s", databasePath)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	if _, err := db.ExecContext(ctx, migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	if err := migrateNormalizedTrades(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.L.Info("Database tables ensured/created.")
	return db, nil
}

// Columns added after the first schema. Older databases get them on startup.
var provenanceColumns = []struct {
	name string
	ddl  string
}{
	{"original_symbol", "ALTER TABLE normalized_trades ADD COLUMN original_symbol TEXT"},
	{"is_spac", "ALTER TABLE normalized_trades ADD COLUMN is_spac BOOLEAN DEFAULT FALSE"},
	{"potential_spac", "ALTER TABLE normalized_trades ADD COLUMN potential_spac BOOLEAN DEFAULT FALSE"},
}

func migrateNormalizedTrades(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info(normalized_trades)")
	if err != nil {
		return eris.Wrap(err, "sqlite: table info normalized_trades")
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, notnull, pk int
		var name, dataType string
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnull, &dflt, &pk); err != nil {
			return eris.Wrap(err, "sqlite: scan column info")
		}
		columnExists[name] = true
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "sqlite: iterate column info")
	}

	for _, col := range provenanceColumns {
		if columnExists[col.name] {
			continue
		}
		if _, err := db.ExecContext(ctx, col.ddl); err != nil {
			return eris.Wrapf(err, "sqlite: add column %s", col.name)
		}
		logger.L.Info("Added column to normalized_trades table", "column", col.name)
	}
	return nil
}
