package parsers

import (
	"context"
	"errors"

	"github.com/username/tradenorm/src/models"
)

var (
	ErrUnsupportedBroker = errors.New("unsupported broker type")
	ErrEmptyHeader       = errors.New("file is empty or has no headers")
	ErrNoDataRows        = errors.New("file has headers but no data rows")
)

// Mapper turns one broker's raw rows into canonical trades.
//
// ProcessRow returns (trade, nil) for an accepted row, (nil, nil) for a row that
// is not a trade or lacks required fields, and (nil, err) only for an unexpected
// failure.
type Mapper interface {
	Broker() string
	ColumnMappings() map[string]string
	UsesSymbolEnhancement() bool
	ProcessRow(ctx context.Context, row models.RawRow) (*models.CanonicalTrade, error)
}
