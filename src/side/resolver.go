package side

import (
	"context"
	"regexp"
	"strings"

	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/models"
)

// Rule names, as logged and reported in Decision.Rule.
const (
	RuleExpiration        = "expiration"
	RuleExplicitPhrase    = "explicit_phrase"
	RuleActionCode        = "action_code"
	RuleDescriptionPhrase = "description_phrase"
	RuleQuantitySign      = "quantity_sign"
	RuleAmountSign        = "amount_sign"
	RuleKeywordPattern    = "keyword_pattern"
	RuleDefault           = "default_buy"
	RuleNone              = "none"
)

// Evidence is everything a row offers about its direction.
type Evidence struct {
	Action      string
	Description string
	Quantity    float64 // signed as it appears in the source
	Amount      float64 // signed net cash
	HasQuantity bool
	HasPrice    bool
	Expiration  bool // option expiration event
}

// Decision is the resolved side and the rule that produced it.
type Decision struct {
	Side      models.TradeSide
	Rule      string
	Defaulted bool // no evidence, BUY was assumed
}

// Resolved reports whether a side was decided.
func (d Decision) Resolved() bool {
	return d.Side != ""
}

// Rule inspects the evidence and returns a side, or ok=false for no opinion.
type Rule struct {
	Name  string
	Apply func(Evidence) (models.TradeSide, bool)
}

// Terms are the action vocabulary of one broker. Terms of up to three letters
// must match a whole token of the action; longer terms match as substrings.
type Terms struct {
	Buy  []string
	Sell []string
}

// DefaultTerms covers the action codes shared by most exports.
var DefaultTerms = Terms{
	Buy:  []string{"YOU BOUGHT", "BUY", "BOUGHT", "PURCHASE", "BTO", "BTC"},
	Sell: []string{"YOU SOLD", "SELL", "SOLD", "SALE", "STO", "STC"},
}

var (
	explicitBuyPhrases  = []string{"YOU BOUGHT"}
	explicitSellPhrases = []string{"YOU SOLD"}

	descriptionBuyPhrases = []string{
		"PURCHASE", "PURCHASES", "PURCHASED", "REINVEST", "SHARES ADDED",
		"SHARES ACQUIRED", "BUY", "BOUGHT", "BUYING", "DEPOSIT",
	}
	descriptionSellPhrases = []string{
		"SALE", "SALES", "SOLD", "SELL", "SELLING", "SHARES REMOVED",
		"SHARES REDEEMED", "REDEMPTION", "WITHDRAWAL",
	}

	buyKeywordRegex  = regexp.MustCompile(`ADDED|ADD|DEPOSIT|TRANSFER IN|CONTRIB|CONTRIBUTION`)
	sellKeywordRegex = regexp.MustCompile(`REMOVED|REMOVE|WITHDRAWAL|TRANSFER OUT|DISTRIB|DISTRIBUTION`)
	tokenSplitRegex  = regexp.MustCompile(`[^A-Z]+`)
)

// Resolver evaluates an ordered rule list; the first rule with an opinion wins.
type Resolver struct {
	terms         Terms
	rules         []Rule
	alwaysDefault bool
}

type Option func(*Resolver)

// WithTerms replaces the action vocabulary.
func WithTerms(t Terms) Option {
	return func(r *Resolver) { r.terms = t }
}

// WithAlwaysDefault assumes BUY even when quantity or price is missing. Brokers
// whose exports always describe executed trades use this.
func WithAlwaysDefault() Option {
	return func(r *Resolver) { r.alwaysDefault = true }
}

// WithoutRules drops rules by name. Exports whose description column is a
// security name, or whose cash column is signed by a different convention,
// opt out of the rules that would misread them.
func WithoutRules(names ...string) Option {
	return func(r *Resolver) {
		drop := make(map[string]bool, len(names))
		for _, n := range names {
			drop[n] = true
		}
		kept := r.rules[:0]
		for _, rule := range r.rules {
			if !drop[rule.Name] {
				kept = append(kept, rule)
			}
		}
		r.rules = kept
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{terms: DefaultTerms}
	r.rules = []Rule{
		{RuleExplicitPhrase, explicitPhrase},
		{RuleActionCode, func(e Evidence) (models.TradeSide, bool) { return r.MatchAction(e.Action) }},
		{RuleDescriptionPhrase, descriptionPhrase},
		{RuleQuantitySign, quantitySign},
		{RuleAmountSign, amountSign},
		{RuleKeywordPattern, keywordPattern},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve decides the side for one row. Expiration events are always SELL.
func (r *Resolver) Resolve(ctx context.Context, e Evidence) Decision {
	log := logger.FromContext(ctx)
	if e.Expiration {
		log.Debug("Resolved trade side", "rule", RuleExpiration, "side", models.SideSell)
		return Decision{Side: models.SideSell, Rule: RuleExpiration}
	}
	for _, rule := range r.rules {
		if s, ok := rule.Apply(e); ok {
			log.Debug("Resolved trade side", "rule", rule.Name, "side", s)
			return Decision{Side: s, Rule: rule.Name}
		}
	}
	if r.alwaysDefault || (e.HasQuantity && e.HasPrice) {
		log.Warn("No side evidence, defaulting to BUY", "rule", RuleDefault, "action", e.Action, "description", e.Description)
		return Decision{Side: models.SideBuy, Rule: RuleDefault, Defaulted: true}
	}
	log.Debug("Trade side unresolved", "rule", RuleNone, "action", e.Action)
	return Decision{Rule: RuleNone}
}

// MatchAction maps an action code to a side using the configured terms.
func (r *Resolver) MatchAction(action string) (models.TradeSide, bool) {
	upper := strings.ToUpper(strings.TrimSpace(action))
	if upper == "" {
		return "", false
	}
	tokens := tokenSplitRegex.Split(upper, -1)
	if matchTerms(upper, tokens, r.terms.Buy) {
		return models.SideBuy, true
	}
	if matchTerms(upper, tokens, r.terms.Sell) {
		return models.SideSell, true
	}
	return "", false
}

func matchTerms(upper string, tokens, terms []string) bool {
	for _, term := range terms {
		if len(term) <= 3 {
			for _, tok := range tokens {
				if tok == term {
					return true
				}
			}
			continue
		}
		if strings.Contains(upper, term) {
			return true
		}
	}
	return false
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func explicitPhrase(e Evidence) (models.TradeSide, bool) {
	desc := strings.ToUpper(e.Description)
	switch {
	case containsAny(desc, explicitBuyPhrases):
		return models.SideBuy, true
	case containsAny(desc, explicitSellPhrases):
		return models.SideSell, true
	}
	return "", false
}

func descriptionPhrase(e Evidence) (models.TradeSide, bool) {
	desc := strings.ToUpper(e.Description)
	switch {
	case containsAny(desc, descriptionBuyPhrases):
		return models.SideBuy, true
	case containsAny(desc, descriptionSellPhrases):
		return models.SideSell, true
	}
	return "", false
}

func quantitySign(e Evidence) (models.TradeSide, bool) {
	switch {
	case e.Quantity < 0:
		return models.SideSell, true
	case e.Quantity > 0:
		return models.SideBuy, true
	}
	return "", false
}

func amountSign(e Evidence) (models.TradeSide, bool) {
	switch {
	case e.Amount < 0:
		return models.SideSell, true
	case e.Amount > 0:
		return models.SideBuy, true
	}
	return "", false
}

func keywordPattern(e Evidence) (models.TradeSide, bool) {
	desc := strings.ToUpper(e.Description)
	switch {
	case buyKeywordRegex.MatchString(desc):
		return models.SideBuy, true
	case sellKeywordRegex.MatchString(desc):
		return models.SideSell, true
	}
	return "", false
}
