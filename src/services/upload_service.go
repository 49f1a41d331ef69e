package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers"
	"github.com/username/tradenorm/src/parsers/base"
	"github.com/username/tradenorm/src/processors"
)

const (
	ckBatchResult = "batch_result_%s"

	DefaultCacheExpiration = 30 * time.Minute
	CacheCleanupInterval   = 10 * time.Minute
)

type uploadServiceImpl struct {
	deps        base.Deps
	processor   *processors.TradeProcessor
	store       TradeStore
	resultCache *cache.Cache
}

// NewUploadService wires the upload pipeline. store may be nil, in which case
// batches are normalized and cached but not persisted.
func NewUploadService(deps base.Deps, processor *processors.TradeProcessor, store TradeStore, resultCache *cache.Cache) UploadService {
	if resultCache == nil {
		resultCache = cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	}
	return &uploadServiceImpl{
		deps:        deps,
		processor:   processor,
		store:       store,
		resultCache: resultCache,
	}
}

func (s *uploadServiceImpl) readRows(fileReader io.Reader, broker string, format parsers.Format) (parsers.Mapper, []string, []models.RawRow, error) {
	mapper, err := parsers.GetMapper(broker, s.deps)
	if err != nil {
		return nil, nil, nil, err
	}
	headers, rows, err := parsers.ReadRows(fileReader, format)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}
	return mapper, headers, rows, nil
}

func (s *uploadServiceImpl) ProcessUpload(ctx context.Context, fileReader io.Reader, broker string, format parsers.Format) (*models.BatchResult, error) {
	overallStartTime := time.Now()
	batchID := uuid.NewString()
	ctx = logger.WithBatchID(ctx, batchID)
	log := logger.FromContext(ctx)
	log.Info("ProcessUpload START", "broker", broker, "format", format)

	mapper, _, rows, err := s.readRows(fileReader, broker, format)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrParsingFailed, parsers.ErrNoDataRows)
	}

	result, err := s.processor.Process(ctx, batchID, mapper, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
	}

	if s.store != nil && len(result.Trades) > 0 {
		inserted, duplicates, err := s.store.InsertTrades(ctx, batchID, result.Trades)
		if err != nil {
			return nil, fmt.Errorf("error storing trades for batch %s: %w", batchID, err)
		}
		result.Inserted = inserted
		result.Duplicates = duplicates
	}
	result.Duration = time.Since(overallStartTime)

	s.resultCache.Set(fmt.Sprintf(ckBatchResult, batchID), result, cache.DefaultExpiration)
	log.Info("ProcessUpload END", "processed", result.Processed, "inserted", result.Inserted,
		"duplicates", result.Duplicates, "duration", result.Duration)
	return result, nil
}

// ValidateUpload checks the header and row count without mapping any rows.
func (s *uploadServiceImpl) ValidateUpload(ctx context.Context, fileReader io.Reader, broker string, format parsers.Format) (models.ValidationResult, error) {
	mapper, headers, rows, err := s.readRows(fileReader, broker, format)
	if err != nil {
		if errors.Is(err, parsers.ErrEmptyHeader) {
			return models.ValidationResult{Broker: parsers.NormalizeBroker(broker), Error: parsers.ErrEmptyHeader.Error()}, nil
		}
		return models.ValidationResult{}, err
	}
	res := parsers.ValidateStructure(headers, len(rows), broker, mapper)
	logger.FromContext(ctx).Info("Validated file structure", "broker", res.Broker, "valid", res.Valid, "missing", res.Missing)
	return res, nil
}

func (s *uploadServiceImpl) GetBatchResult(batchID string) (*models.BatchResult, error) {
	if cached, found := s.resultCache.Get(fmt.Sprintf(ckBatchResult, batchID)); found {
		logger.L.Debug("Cache hit for batch result", "batch_id", batchID)
		return cached.(*models.BatchResult), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
}
