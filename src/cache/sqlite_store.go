package cache

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
)

// SQLiteStore keeps cache entries in the symbol_cache table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) LoadAll(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM symbol_cache`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query symbol cache")
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan symbol cache")
		}
		entries[k] = v
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate symbol cache")
}

func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO symbol_cache (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return eris.Wrapf(err, "sqlite: put symbol cache %s", key)
}
