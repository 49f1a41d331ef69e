package schwab

import (
	"context"
	"strings"
	"time"

	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/options"
	"github.com/username/tradenorm/src/parsers/base"
	"github.com/username/tradenorm/src/side"
	"github.com/username/tradenorm/src/utils"
)

const Broker = "charles-schwab"

var columns = []base.Column{
	{Source: "Date", Field: base.FieldDate},
	{Source: "Action", Field: base.FieldSide},
	{Source: "Quantity", Field: base.FieldQuantity},
	{Source: "Symbol", Field: base.FieldSymbol},
	{Source: "Description", Field: base.FieldDescription},
	{Source: "Price", Field: base.FieldPrice},
	{Source: "Amount", Field: base.FieldNetProceeds},
	{Source: "Comm/Fees", Field: base.FieldCommission},
	{Source: "Fees & Comm", Field: base.FieldCommission},
	{Source: "Strike", Field: base.FieldStrike},
}

var tradeActions = map[string]bool{
	"BUY": true, "SELL": true,
	"BUY TO OPEN": true, "SELL TO OPEN": true,
	"BUY TO CLOSE": true, "SELL TO CLOSE": true,
}

type Mapper struct {
	*base.Mapper
}

func NewMapper(deps base.Deps) *Mapper {
	return &Mapper{Mapper: base.NewMapper(Broker, columns, false, deps)}
}

// ProcessRow maps one Schwab history row. Only the six order actions are trades.
func (m *Mapper) ProcessRow(ctx context.Context, row models.RawRow) (*models.CanonicalTrade, error) {
	action := m.Field(row, base.FieldSide)
	if !tradeActions[strings.ToUpper(action)] {
		return m.Skip(ctx, row, "non-trade action", "action", action)
	}
	description := m.Field(row, base.FieldDescription)

	qty, hasQty := utils.NumericPresent(m.Field(row, base.FieldQuantity))
	price, hasPrice := utils.NumericPresent(m.Field(row, base.FieldPrice))

	decision := m.Side.Resolve(ctx, side.Evidence{
		Action:      action,
		Description: description,
		Quantity:    qty,
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
	trade.NetProceeds = utils.CleanNumeric(m.Field(row, base.FieldNetProceeds))
	base.SignProceeds(trade)
	if ts, ok := asOfDate(row.Value("Date")); ok {
		trade.SetTimestamp(ts)
	} else {
		trade.SetTimestamp(m.ResolveDate(ctx, row, description))
	}

	// The Symbol column holds the full contract for options: "OEX 12/19/2009 495.00 C".
	rawSymbol := m.Field(row, base.FieldSymbol)
	m.ResolveSymbol(ctx, trade, base.ExtractBaseSymbol(rawSymbol), description)

	if strike, ok := utils.NumericPresent(m.Field(row, base.FieldStrike)); ok {
		trade.StrikePrice = &strike
	}
	text, fallback := description, rawSymbol
	if options.IsOptionText(rawSymbol) {
		text, fallback = rawSymbol, description
	}
	m.ApplyOption(trade, text, fallback)
	if !trade.IsOption {
		trade.StrikePrice = nil
	}
	return trade, nil
}

// asOfDate reads "04/18/2023 as of 04/17/2023" cells; the as-of date is the trade date.
func asOfDate(cell string) (time.Time, bool) {
	_, asOf, ok := strings.Cut(strings.ToLower(cell), " as of ")
	if !ok {
		return time.Time{}, false
	}
	return utils.ParseDate(strings.TrimSpace(asOf))
}
