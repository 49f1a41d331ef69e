package side

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/tradenorm/src/models"
)

func TestResolve_ExplicitPhraseBeatsQuantity(t *testing.T) {
	r := NewResolver()
	d := r.Resolve(context.Background(), Evidence{Description: "YOU SOLD AAPL", Quantity: 10, HasQuantity: true})
	assert.Equal(t, models.SideSell, d.Side)
	assert.Equal(t, RuleExplicitPhrase, d.Rule)
	assert.False(t, d.Defaulted)
}

func TestResolve_QuantitySign(t *testing.T) {
	d := NewResolver().Resolve(context.Background(), Evidence{Quantity: -10, HasQuantity: true})
	assert.Equal(t, models.SideSell, d.Side)
	assert.Equal(t, RuleQuantitySign, d.Rule)
}

func TestResolve_AmountSign(t *testing.T) {
	d := NewResolver().Resolve(context.Background(), Evidence{Amount: 250})
	assert.Equal(t, models.SideBuy, d.Side)
	assert.Equal(t, RuleAmountSign, d.Rule)
}

func TestResolve_ExpirationForcesSell(t *testing.T) {
	d := NewResolver().Resolve(context.Background(), Evidence{Action: "BUY", Quantity: 1, Expiration: true})
	assert.Equal(t, models.SideSell, d.Side)
	assert.Equal(t, RuleExpiration, d.Rule)
}

func TestResolve_ActionCodes(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		action string
		want   models.TradeSide
	}{
		{"Buy to Open", models.SideBuy},
		{"Sell to Close", models.SideSell},
		{"BTO", models.SideBuy},
		{"STC", models.SideSell},
		{"YOU BOUGHT", models.SideBuy},
		{"Sold", models.SideSell},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			d := r.Resolve(context.Background(), Evidence{Action: tt.action})
			assert.Equal(t, tt.want, d.Side)
			assert.Equal(t, RuleActionCode, d.Rule)
		})
	}
}

func TestResolve_ShortTermsMatchWholeTokens(t *testing.T) {
	r := NewResolver(WithTerms(Terms{Buy: []string{"B", "BUY"}, Sell: []string{"S", "SELL"}}))

	s, ok := r.MatchAction("S")
	assert.True(t, ok)
	assert.Equal(t, models.SideSell, s)

	s, ok = r.MatchAction("B")
	assert.True(t, ok)
	assert.Equal(t, models.SideBuy, s)

	// "S" inside another word is not a sell code.
	_, ok = r.MatchAction("TRANSFERS")
	assert.False(t, ok)
}

func TestResolve_DescriptionPhrases(t *testing.T) {
	r := NewResolver()
	d := r.Resolve(context.Background(), Evidence{Description: "REINVESTMENT SHARES ADDED"})
	assert.Equal(t, models.SideBuy, d.Side)
	assert.Equal(t, RuleDescriptionPhrase, d.Rule)

	d = r.Resolve(context.Background(), Evidence{Description: "REDEMPTION PAYOUT"})
	assert.Equal(t, models.SideSell, d.Side)
}

func TestResolve_KeywordPattern(t *testing.T) {
	d := NewResolver().Resolve(context.Background(), Evidence{Description: "TRANSFER OUT OF ACCOUNT"})
	assert.Equal(t, models.SideSell, d.Side)
	assert.Equal(t, RuleKeywordPattern, d.Rule)
}

func TestResolve_DefaultIsFlagged(t *testing.T) {
	d := NewResolver().Resolve(context.Background(), Evidence{Action: "???", HasQuantity: true, HasPrice: true})
	assert.Equal(t, models.SideBuy, d.Side)
	assert.Equal(t, RuleDefault, d.Rule)
	assert.True(t, d.Defaulted)
}

func TestResolve_NoEvidenceWithoutQuantityAndPrice(t *testing.T) {
	d := NewResolver().Resolve(context.Background(), Evidence{Action: "JOURNAL"})
	assert.False(t, d.Resolved())
	assert.Equal(t, RuleNone, d.Rule)

	d = NewResolver(WithAlwaysDefault()).Resolve(context.Background(), Evidence{Action: "JOURNAL"})
	assert.True(t, d.Defaulted)
	assert.Equal(t, models.SideBuy, d.Side)
}

func TestResolve_WithoutRules(t *testing.T) {
	r := NewResolver(WithoutRules(RuleDescriptionPhrase, RuleKeywordPattern))
	d := r.Resolve(context.Background(), Evidence{Description: "SALESFORCE INC", Quantity: 5})
	assert.Equal(t, models.SideBuy, d.Side)
	assert.Equal(t, RuleQuantitySign, d.Rule)
}

func TestResolve_WithoutAmountSignFallsToDefault(t *testing.T) {
	r := NewResolver(WithoutRules(RuleAmountSign), WithAlwaysDefault())
	d := r.Resolve(context.Background(), Evidence{Action: "GOLD", Amount: -5})
	assert.Equal(t, models.SideBuy, d.Side)
	assert.True(t, d.Defaulted)
}
