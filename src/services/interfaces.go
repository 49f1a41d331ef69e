package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers"
)

var (
	ErrParsingFailed    = errors.New("failed to parse file")
	ErrProcessingFailed = errors.New("failed to process rows")
	ErrBatchNotFound    = errors.New("batch not found")
)

// UploadService normalizes broker exports and keeps recent batch results.
type UploadService interface {
	ProcessUpload(ctx context.Context, fileReader io.Reader, broker string, format parsers.Format) (*models.BatchResult, error)
	ValidateUpload(ctx context.Context, fileReader io.Reader, broker string, format parsers.Format) (models.ValidationResult, error)
	GetBatchResult(batchID string) (*models.BatchResult, error)
}

// TradeStore persists normalized trades. database.TradeStore implements it.
type TradeStore interface {
	InsertTrades(ctx context.Context, batchID string, trades []models.CanonicalTrade) (inserted, duplicates int, err error)
}
