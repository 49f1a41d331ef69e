package robinhood

import (
	"context"
	"strings"

	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/options"
	"github.com/username/tradenorm/src/parsers/base"
	"github.com/username/tradenorm/src/side"
	"github.com/username/tradenorm/src/utils"
)

const Broker = "robinhood"

var columns = []base.Column{
	{Source: "Activity Date", Field: base.FieldDate},
	{Source: "Instrument", Field: base.FieldSymbol},
	{Source: "Description", Field: base.FieldDescription},
	{Source: "Trans Code", Field: base.FieldSide},
	{Source: "Quantity", Field: base.FieldQuantity},
	{Source: "Price", Field: base.FieldPrice},
	{Source: "Amount", Field: base.FieldNetProceeds},

	{Source: "Date", Field: base.FieldDate},
	{Source: "Trade Date", Field: base.FieldDate},
	{Source: "Symbol", Field: base.FieldSymbol},
	{Source: "Action", Field: base.FieldSide},
	{Source: "Type", Field: base.FieldSide},
	{Source: "Transaction Type", Field: base.FieldSide},
	{Source: "Side", Field: base.FieldSide},
	{Source: "Shares", Field: base.FieldQuantity},
	{Source: "Qty/Amt", Field: base.FieldQuantity},
	{Source: "Trade Price", Field: base.FieldPrice},
	{Source: "Net Amount", Field: base.FieldNetProceeds},
	{Source: "Expiry Date", Field: base.FieldExpiry},
	{Source: "Option Type", Field: base.FieldOptionType},
	{Source: "Strike Price", Field: base.FieldStrike},
}

var actionColumns = []string{"Trans Code", "Type", "Transaction Type", "Action", "Side"}

// Cash-only codes: interest, ACH transfers, instant transfers and dividends.
var nonTradeCodes = map[string]bool{"INT": true, "ACH": true, "RTP": true, "DIV": true, "CDIV": true}

var terms = side.Terms{
	Buy:  []string{"BTO", "BTC", "BUY", "B"},
	Sell: []string{"STO", "STC", "SELL", "S"},
}

type Mapper struct {
	*base.Mapper
}

// NewMapper builds the Robinhood mapper. Robinhood's Amount is cash-signed and
// its descriptions name the instrument, so only the trans code and quantity
// decide the side; anything unrecognized is a BUY.
func NewMapper(deps base.Deps) *Mapper {
	return &Mapper{Mapper: base.NewMapper(Broker, columns, true, deps,
		side.WithTerms(terms),
		side.WithoutRules(side.RuleDescriptionPhrase, side.RuleAmountSign, side.RuleKeywordPattern),
		side.WithAlwaysDefault(),
	)}
}

func isExpiration(code string) bool {
	upper := strings.ToUpper(code)
	return strings.Contains(upper, "EXPIRATION") || upper == "OEXP"
}

func (m *Mapper) ProcessRow(ctx context.Context, row models.RawRow) (*models.CanonicalTrade, error) {
	code := row.Get(actionColumns...)
	if code == "" || nonTradeCodes[strings.ToUpper(code)] {
		return m.Skip(ctx, row, "transaction code missing or non-trade", "code", code)
	}
	description := m.Field(row, base.FieldDescription)
	expiration := isExpiration(code)

	qty, hasQty := utils.NumericPresent(m.Field(row, base.FieldQuantity))
	price, hasPrice := utils.NumericPresent(m.Field(row, base.FieldPrice))
	amount := utils.CleanNumeric(m.Field(row, base.FieldNetProceeds))

	decision := m.Side.Resolve(ctx, side.Evidence{
		Action:      code,
		Description: description,
		Quantity:    qty,
		HasQuantity: hasQty,
		HasPrice:    hasPrice,
		Expiration:  expiration,
	})

	trade := m.NewTrade()
	trade.Description = description
	trade.Side = decision.Side
	trade.Quantity = utils.AbsFloat(qty)
	trade.Price = utils.AbsFloat(price)
	trade.NetProceeds = amount
	trade.SetTimestamp(m.ResolveDate(ctx, row, description, "Activity Date"))

	base.SignProceeds(trade)
	if expiration && trade.NetProceeds == 0 {
		trade.NetProceeds = trade.Price * trade.Quantity
	}

	rawSymbol := m.Field(row, base.FieldSymbol)
	m.ResolveSymbol(ctx, trade, rawSymbol, description)

	// Expired contracts carry no price; the row still closes the position.
	if !m.Accept(ctx, row, decision, hasQty, hasPrice || expiration) {
		return nil, nil
	}

	m.ApplyOptionColumns(trade, row)
	m.ApplyOption(trade, description, rawSymbol)
	if trade.IsOption && trade.ExpiryDate == nil && expiration {
		if exp, ok := utils.ExtractDateFromDescription(description, m.Now()); ok {
			trade.ExpiryDate = &exp
			trade.DTE = options.DTE(trade.Timestamp, trade.ExpiryDate)
		}
	}
	return trade, nil
}
