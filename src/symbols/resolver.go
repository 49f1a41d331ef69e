package symbols

import (
	"context"
	"strings"

	"github.com/username/tradenorm/src/cache"
	"github.com/username/tradenorm/src/logger"
)

// Resolver turns broker identifiers (CUSIPs, colon payloads, long names) into
// standard tickers. Every answer it produces is cached under (symbol, description).
type Resolver struct {
	cache  *cache.SymbolCache
	lookup Lookup
}

// NewResolver wires a resolver. A nil lookup means offline resolution only.
func NewResolver(c *cache.SymbolCache, lookup Lookup) *Resolver {
	if lookup == nil {
		lookup = NoopLookup{}
	}
	return &Resolver{cache: c, lookup: lookup}
}

// Resolve returns the best ticker for symbol. It never fails; the worst case is
// the cleaned input.
func (r *Resolver) Resolve(ctx context.Context, symbol, description string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return ""
	}
	key := cache.Key(symbol, description)
	resolved, _ := r.cache.GetOrCompute(ctx, key, func(ctx context.Context) (string, bool) {
		v, rule := r.resolve(ctx, symbol, description)
		logger.FromContext(ctx).Debug("Resolved symbol", "symbol", symbol, "resolved", v, "rule", rule)
		return v, true
	})
	return resolved
}

func (r *Resolver) resolve(ctx context.Context, symbol, description string) (string, string) {
	if strings.Contains(symbol, "MONEY MARKET") || strings.Contains(symbol, MoneyMarketSymbol) || strings.Contains(symbol, "CASH") {
		return MoneyMarketSymbol, "money_market"
	}
	if t, ok := knownCUSIPs[symbol]; ok {
		return t, "known_cusip"
	}
	if IsCleanTicker(symbol) {
		return symbol, "clean_ticker"
	}
	if _, rest, ok := strings.Cut(symbol, ":"); ok {
		if c := ExtractTickerCandidates(rest); len(c) > 0 {
			return c[0], "colon_suffix"
		}
	}
	if description != "" && NeedsEnhancement(symbol) {
		if c := ExtractTickerCandidates(description); len(c) > 0 {
			return c[0], "description"
		}
	}
	if t, ok := r.ask(ctx, symbol, description); ok {
		return t, "lookup"
	}
	return CleanSymbol(symbol), "clean"
}

func (r *Resolver) ask(ctx context.Context, symbol, description string) (string, bool) {
	reply, err := r.lookup.Lookup(ctx, SymbolPrompt(symbol, description))
	if err != nil {
		logger.FromContext(ctx).Warn("Symbol lookup unavailable, using local heuristics", "symbol", symbol, "error", err)
		return "", false
	}
	reply = strings.ToUpper(strings.Trim(reply, "\"' \t\n"))
	if reply == UnknownReply || !IsCleanTicker(reply) {
		logger.FromContext(ctx).Info("Symbol lookup gave no usable ticker", "symbol", symbol, "reply", reply)
		return "", false
	}
	logger.FromContext(ctx).Info("Symbol lookup identified ticker", "symbol", symbol, "ticker", reply)
	return reply, true
}
