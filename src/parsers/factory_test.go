package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradenorm/src/parsers/base"
)

func TestGetMapper_Aliases(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fidelity", "fidelity"},
		{"TD Ameritrade", "fidelity"},
		{"td", "fidelity"},
		{"Schwab", "charles-schwab"},
		{"IBKR", "interactive-brokers"},
		{"ib", "interactive-brokers"},
		{"interactive-brokers", "interactive-brokers"},
		{"Robinhood", "robinhood"},
		{"charlesschwab", "charles-schwab"},
		{"Charles_Schwab", "charles-schwab"},
		{"tasty_trade", "tastytrade"},
		{"interactive_brokers", "interactive-brokers"},
		{"td_ameritrade", "fidelity"},
		{"web-ull", "webull"},
		{"tasty-trade", "tastytrade"},
		{"trading-view", "tradingview"},
		{"webull", "webull"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := GetMapper(tt.in, base.OfflineDeps())
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Broker())
		})
	}
}

func TestGetMapper_Unsupported(t *testing.T) {
	_, err := GetMapper("etrade", base.OfflineDeps())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedBroker)
}

func TestSupportedBrokers(t *testing.T) {
	assert.Equal(t, []string{
		"charles-schwab", "fidelity", "interactive-brokers", "robinhood", "tastytrade", "tradingview", "webull",
	}, SupportedBrokers())
}

func TestUsesSymbolEnhancement(t *testing.T) {
	for broker, want := range map[string]bool{"fidelity": true, "robinhood": true, "ib": true, "schwab": false} {
		m, err := GetMapper(broker, base.OfflineDeps())
		require.NoError(t, err)
		assert.Equal(t, want, m.UsesSymbolEnhancement(), broker)
	}
}
