package processors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers"
)

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeProcessed
	outcomeErrored
)

type rowResult struct {
	trade   *models.CanonicalTrade
	outcome outcome
}

// TradeProcessor maps the rows of one batch through a broker mapper. Rows are
// independent, so they fan out; results come back in row order.
type TradeProcessor struct {
	concurrency int
}

func NewTradeProcessor(concurrency int) *TradeProcessor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &TradeProcessor{concurrency: concurrency}
}

// Process runs every row and summarizes the batch. A row that errors or panics
// is counted and the batch carries on. The returned error is only the context's.
func (p *TradeProcessor) Process(ctx context.Context, batchID string, mapper parsers.Mapper, rows []models.RawRow) (*models.BatchResult, error) {
	start := time.Now()
	ctx = logger.WithBatchID(ctx, batchID)
	log := logger.FromContext(ctx)
	log.Info("Batch processing START", "broker", mapper.Broker(), "rows", len(rows), "concurrency", p.concurrency)

	results := make([]rowResult, len(rows))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range rows {
		g.Go(func() error {
			results[i] = p.processRow(gCtx, mapper, rows[i])
			return nil
		})
	}
	_ = g.Wait()

	result := &models.BatchResult{
		BatchID:   batchID,
		Broker:    mapper.Broker(),
		TotalRows: len(rows),
		Trades:    make([]models.CanonicalTrade, 0, len(rows)),
	}
	for _, r := range results {
		switch r.outcome {
		case outcomeProcessed:
			result.Processed++
			if r.trade.SymbolEnhanced {
				result.SymbolEnhancements++
			}
			if r.trade.PotentialSpac {
				result.PotentialSpacs++
			}
			result.Trades = append(result.Trades, *r.trade)
		case outcomeErrored:
			result.Errored++
		default:
			result.Skipped++
		}
	}
	result.Duration = time.Since(start)

	log.Info("Batch processing END",
		"processed", result.Processed, "skipped", result.Skipped, "errored", result.Errored,
		"symbol_enhancements", result.SymbolEnhancements, "potential_spacs", result.PotentialSpacs,
		"duration", result.Duration)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("batch %s interrupted: %w", batchID, err)
	}
	return result, nil
}

func (p *TradeProcessor) processRow(ctx context.Context, mapper parsers.Mapper, row models.RawRow) (res rowResult) {
	log := logger.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while processing row", "row", row.Number, "panic", r, "stack", string(debug.Stack()))
			res = rowResult{outcome: outcomeErrored}
		}
	}()

	if err := ctx.Err(); err != nil {
		return rowResult{outcome: outcomeErrored}
	}

	trade, err := mapper.ProcessRow(ctx, row)
	if err != nil {
		log.Error("Error processing row", "row", row.Number, "error", err)
		return rowResult{outcome: outcomeErrored}
	}
	if trade == nil {
		return rowResult{outcome: outcomeSkipped}
	}
	trade.HashId = GenerateHash(trade)
	return rowResult{trade: trade, outcome: outcomeProcessed}
}

// GenerateHash identifies a trade across uploads from its execution fields.
func GenerateHash(t *models.CanonicalTrade) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%f|%f|%s", t.Date, t.Time, t.Symbol, t.Side, t.Quantity, t.Price, t.BrokerType)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
