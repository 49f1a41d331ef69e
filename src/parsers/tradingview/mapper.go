package tradingview

import (
	"context"
	"strings"

	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers/base"
	"github.com/username/tradenorm/src/side"
	"github.com/username/tradenorm/src/utils"
)

const Broker = "tradingview"

var columns = []base.Column{
	{Source: "Date", Field: base.FieldDate},
	{Source: "Action", Field: base.FieldSide},
	{Source: "Symbol", Field: base.FieldSymbol},
	{Source: "Type", Field: base.FieldDescription},
	{Source: "Quantity", Field: base.FieldQuantity},
	{Source: "Price", Field: base.FieldPrice},
	{Source: "Fee", Field: base.FieldCommission},
	{Source: "Value", Field: base.FieldNetProceeds},
}

var nonTradeActions = map[string]bool{
	"DIV": true, "DIVIDEND": true, "INT": true, "INTEREST": true, "ADJ": true,
}

type Mapper struct {
	*base.Mapper
}

// NewMapper builds the TradingView paper-trading mapper. Its Type column is an
// instrument class, not a narrative, so free-text side rules are off.
func NewMapper(deps base.Deps) *Mapper {
	return &Mapper{Mapper: base.NewMapper(Broker, columns, false, deps,
		side.WithoutRules(side.RuleDescriptionPhrase, side.RuleKeywordPattern),
	)}
}

func (m *Mapper) ProcessRow(ctx context.Context, row models.RawRow) (*models.CanonicalTrade, error) {
	action := m.Field(row, base.FieldSide)
	if action == "" || nonTradeActions[strings.ToUpper(action)] {
		return m.Skip(ctx, row, "action missing or non-trade", "action", action)
	}
	description := m.Field(row, base.FieldDescription)

	qty, hasQty := utils.NumericPresent(m.Field(row, base.FieldQuantity))
	price, hasPrice := utils.NumericPresent(m.Field(row, base.FieldPrice))
	value := utils.CleanNumeric(m.Field(row, base.FieldNetProceeds))

	decision := m.Side.Resolve(ctx, side.Evidence{
		Action:      action,
		Description: description,
		Quantity:    qty,
		Amount:      value,
		HasQuantity: hasQty,
		HasPrice:    hasPrice,
	})
	if !m.Accept(ctx, row, decision, hasQty, hasPrice) {
		return nil, nil
	}

	trade := m.NewTrade()
	trade.Description = description
	trade.Side = decision.Side
	trade.Quantity = utils.AbsFloat(qty)
	trade.Price = utils.AbsFloat(price)
	trade.Commission = utils.CleanNumeric(m.Field(row, base.FieldCommission))
	trade.NetProceeds = value
	base.SignProceeds(trade)
	trade.SetTimestamp(m.ResolveDate(ctx, row, ""))

	// Symbols carry the venue: "NASDAQ:AAPL".
	rawSymbol := m.Field(row, base.FieldSymbol)
	ticker := rawSymbol
	if _, after, ok := strings.Cut(rawSymbol, ":"); ok {
		ticker = after
	}
	m.ResolveSymbol(ctx, trade, base.ExtractBaseSymbol(ticker), description)

	m.ApplyOption(trade, description, ticker)
	return trade, nil
}
