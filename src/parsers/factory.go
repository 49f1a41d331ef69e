package parsers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/username/tradenorm/src/parsers/base"
	"github.com/username/tradenorm/src/parsers/fidelity"
	"github.com/username/tradenorm/src/parsers/ibkr"
	"github.com/username/tradenorm/src/parsers/robinhood"
	"github.com/username/tradenorm/src/parsers/schwab"
	"github.com/username/tradenorm/src/parsers/tastytrade"
	"github.com/username/tradenorm/src/parsers/tradingview"
	"github.com/username/tradenorm/src/parsers/webull"
)

var constructors = map[string]func(base.Deps) Mapper{
	fidelity.Broker:    func(d base.Deps) Mapper { return fidelity.NewMapper(d) },
	robinhood.Broker:   func(d base.Deps) Mapper { return robinhood.NewMapper(d) },
	ibkr.Broker:        func(d base.Deps) Mapper { return ibkr.NewMapper(d) },
	schwab.Broker:      func(d base.Deps) Mapper { return schwab.NewMapper(d) },
	tastytrade.Broker:  func(d base.Deps) Mapper { return tastytrade.NewMapper(d) },
	tradingview.Broker: func(d base.Deps) Mapper { return tradingview.NewMapper(d) },
	webull.Broker:      func(d base.Deps) Mapper { return webull.NewMapper(d) },
}

// Aliases maps alternative broker names, including the frontend's, to canonical ones.
var Aliases = map[string]string{
	"td":                 fidelity.Broker,
	"td-ameritrade":      fidelity.Broker,
	"schwab":             schwab.Broker,
	"ib":                 ibkr.Broker,
	"ibkr":               ibkr.Broker,
	"interactivebrokers": ibkr.Broker,
	"tasty-trade":        tastytrade.Broker,
	"trading-view":       tradingview.Broker,
}

var separatorReplacer = strings.NewReplacer(" ", "-", "_", "-")

// NormalizeBroker lower-cases the identifier, turns spaces and underscores into
// dashes and resolves aliases. Dashes are not significant: "charlesschwab" and
// "tasty_trade" resolve too. It does not check that the broker is supported.
func NormalizeBroker(broker string) string {
	normalized := separatorReplacer.Replace(strings.ToLower(strings.TrimSpace(broker)))
	if canonical, ok := Aliases[normalized]; ok {
		return canonical
	}
	if _, ok := constructors[normalized]; ok {
		return normalized
	}

	compact := strings.ReplaceAll(normalized, "-", "")
	for b := range constructors {
		if strings.ReplaceAll(b, "-", "") == compact {
			return b
		}
	}
	for alias, canonical := range Aliases {
		if strings.ReplaceAll(alias, "-", "") == compact {
			return canonical
		}
	}
	return normalized
}

// GetMapper returns the mapper for a broker identifier or alias.
func GetMapper(broker string, deps base.Deps) (Mapper, error) {
	ctor, ok := constructors[NormalizeBroker(broker)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBroker, broker)
	}
	return ctor(deps), nil
}

// SupportedBrokers lists the canonical broker identifiers in sorted order.
func SupportedBrokers() []string {
	out := make([]string, 0, len(constructors))
	for b := range constructors {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}
