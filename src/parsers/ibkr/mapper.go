package ibkr

import (
	"context"
	"strings"
	"time"

	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers/base"
	"github.com/username/tradenorm/src/side"
	"github.com/username/tradenorm/src/utils"
)

const Broker = "interactive-brokers"

var columns = []base.Column{
	{Source: "Description", Field: base.FieldDescription},
	{Source: "Symbol", Field: base.FieldSymbol},
	{Source: "TradeDate", Field: base.FieldDate},
	{Source: "TradeTime", Field: base.FieldTime},
	{Source: "DateTime", Field: base.FieldTimestamp},
	{Source: "Buy/Sell", Field: base.FieldSide},
	{Source: "Quantity", Field: base.FieldQuantity},
	{Source: "NetCash", Field: base.FieldNetProceeds},
	{Source: "TradePrice", Field: base.FieldPrice},
	{Source: "Commission", Field: base.FieldCommission},
	{Source: "IBCommission", Field: base.FieldCommission},
	{Source: "Put/Call", Field: base.FieldOptionType},
	{Source: "Strike", Field: base.FieldStrike},
	{Source: "Expiry", Field: base.FieldExpiry},

	{Source: "Date", Field: base.FieldDate},
	{Source: "Time", Field: base.FieldTime},
	{Source: "Action", Field: base.FieldSide},
	{Source: "Type", Field: base.FieldSide},
	{Source: "Transaction Type", Field: base.FieldSide},
	{Source: "Shares", Field: base.FieldQuantity},
	{Source: "Price", Field: base.FieldPrice},
	{Source: "Amount", Field: base.FieldNetProceeds},
	{Source: "Net Amount", Field: base.FieldNetProceeds},
}

var actionColumns = []string{"Buy/Sell", "Action", "Type", "Transaction Type"}

var nonTradeActions = map[string]bool{
	"DIV": true, "DIVIDEND": true, "INT": true, "INTEREST": true, "ADJ": true, "ADJUSTMENT": true,
}

var terms = side.Terms{
	Buy:  []string{"BUY", "B", "BTO", "BTC"},
	Sell: []string{"SELL", "S", "STO", "STC"},
}

type Mapper struct {
	*base.Mapper
}

// NewMapper builds the IB Flex/activity mapper. IB's Buy/Sell column is
// authoritative; unrecognized values default to BUY.
func NewMapper(deps base.Deps) *Mapper {
	return &Mapper{Mapper: base.NewMapper(Broker, columns, true, deps,
		side.WithTerms(terms),
		side.WithoutRules(side.RuleDescriptionPhrase, side.RuleAmountSign, side.RuleKeywordPattern),
		side.WithAlwaysDefault(),
	)}
}

func (m *Mapper) ProcessRow(ctx context.Context, row models.RawRow) (*models.CanonicalTrade, error) {
	action := row.Get(actionColumns...)
	if action == "" || nonTradeActions[strings.ToUpper(action)] {
		return m.Skip(ctx, row, "action missing or non-trade", "action", action)
	}
	description := m.Field(row, base.FieldDescription)

	qty, hasQty := utils.NumericPresent(m.Field(row, base.FieldQuantity))
	price, hasPrice := utils.NumericPresent(m.Field(row, base.FieldPrice))
	netCash := utils.CleanNumeric(m.Field(row, base.FieldNetProceeds))

	decision := m.Side.Resolve(ctx, side.Evidence{
		Action:      action,
		Description: description,
		Quantity:    qty,
		HasQuantity: hasQty,
		HasPrice:    hasPrice,
	})

	trade := m.NewTrade()
	trade.Description = description
	trade.Side = decision.Side
	trade.Quantity = utils.AbsFloat(qty)
	trade.Price = utils.AbsFloat(price)
	trade.Commission = utils.CleanNumeric(m.Field(row, base.FieldCommission))
	trade.NetProceeds = netCash
	trade.SetTimestamp(m.timestamp(ctx, row, description))

	rawSymbol := m.Field(row, base.FieldSymbol)
	if rawSymbol != "" {
		rawSymbol = base.TickerOnly(rawSymbol)
	}
	m.ResolveSymbol(ctx, trade, rawSymbol, description)

	m.ApplyOptionColumns(trade, row)
	m.ApplyOption(trade, description, m.Field(row, base.FieldSymbol))

	// Some activity statements leave TradePrice blank; derive it from the cash leg.
	if !hasPrice && trade.Quantity > 0 && netCash != 0 {
		trade.Price = utils.AbsFloat(netCash / trade.Quantity)
		if trade.IsOption {
			trade.Price = utils.ContractPrice(trade.Price)
		}
		hasPrice = true
	}

	if !m.Accept(ctx, row, decision, hasQty, hasPrice) {
		return nil, nil
	}
	if trade.IsOption {
		logger.FromContext(ctx).Debug("Detected option", "symbol", trade.Symbol, "type", trade.OptionType,
			"strike", trade.StrikePrice, "expiry", trade.ExpiryDateString(), "dte", trade.DTE)
	}
	return trade, nil
}

// timestamp prefers the combined DateTime column, then TradeDate plus TradeTime,
// then the shared date chain.
func (m *Mapper) timestamp(ctx context.Context, row models.RawRow, description string) time.Time {
	if v := m.Field(row, base.FieldTimestamp); v != "" {
		if t, ok := ParseDateTime(v); ok {
			return t
		}
		logger.FromContext(ctx).Warn("Could not parse timestamp", "row", row.Number, "value", v)
	}
	if v := m.Field(row, base.FieldDate); v != "" {
		if d, ok := ParseTradeDate(v); ok {
			h, minute, sec := ParseTime(m.Field(row, base.FieldTime))
			return time.Date(d.Year(), d.Month(), d.Day(), h, minute, sec, 0, time.UTC)
		}
	}
	return m.ResolveDate(ctx, row, description)
}
