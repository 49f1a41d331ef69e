package models

import "time"

type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

type TradeStatus string

const (
	StatusPending   TradeStatus = "PENDING"
	StatusCompleted TradeStatus = "COMPLETED"
	StatusCancelled TradeStatus = "CANCELLED"
)

type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// UnknownSymbol is the terminal symbol for rows whose ticker could not be resolved.
const UnknownSymbol = "UNKNOWN"

// CanonicalTrade is the broker-agnostic record produced for every accepted row.
// Mappers populate it directly from the source row; the batch processor only adds the hash.
type CanonicalTrade struct {
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"`           // YYYY-MM-DD
	Time      string    `json:"time,omitempty"` // HH:MM:SS

	Symbol      string      `json:"symbol"`
	Price       float64     `json:"price"`    // contract price for options
	Quantity    float64     `json:"quantity"` // magnitude, direction lives in Side
	Side        TradeSide   `json:"side"`
	Status      TradeStatus `json:"status"`
	Commission  float64     `json:"commission"`
	NetProceeds float64     `json:"net_proceeds"`

	IsOption    bool        `json:"is_option"`
	OptionType  *OptionType `json:"option_type,omitempty"`
	StrikePrice *float64    `json:"strike_price,omitempty"`
	ExpiryDate  *time.Time  `json:"expiry_date,omitempty"`
	DTE         *int        `json:"dte,omitempty"`

	Description string `json:"description,omitempty"`
	BrokerType  string `json:"broker_type"`

	// Provenance, used for auditing only.
	SymbolEnhanced bool   `json:"symbol_enhanced,omitempty"`
	OriginalSymbol string `json:"original_symbol,omitempty"`
	SymbolResolved bool   `json:"symbol_resolved,omitempty"`
	IsSpac         bool   `json:"is_spac,omitempty"`
	PotentialSpac  bool   `json:"potential_spac,omitempty"`

	HashId string `json:"hash_id,omitempty"`
}

// NewCanonicalTrade returns a draft with the defaults every mapper starts from.
func NewCanonicalTrade(broker string) *CanonicalTrade {
	return &CanonicalTrade{
		Status:     StatusCompleted,
		BrokerType: broker,
	}
}

// SetTimestamp fills Timestamp, Date and Time from one instant.
func (t *CanonicalTrade) SetTimestamp(ts time.Time) {
	t.Timestamp = ts
	t.Date = ts.Format("2006-01-02")
	t.Time = ts.Format("15:04:05")
}

// ExpiryDateString renders the expiry as YYYY-MM-DD, or "" when unset.
func (t *CanonicalTrade) ExpiryDateString() string {
	if t.ExpiryDate == nil {
		return ""
	}
	return t.ExpiryDate.Format("2006-01-02")
}
