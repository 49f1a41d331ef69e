package tastytrade

import (
	"context"
	"strings"
	"time"

	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers/base"
	"github.com/username/tradenorm/src/side"
	"github.com/username/tradenorm/src/utils"
)

const Broker = "tastytrade"

var columns = []base.Column{
	{Source: "Date", Field: base.FieldDate},
	{Source: "Action", Field: base.FieldSide},
	{Source: "Symbol", Field: base.FieldSymbol},
	{Source: "Description", Field: base.FieldDescription},
	{Source: "Value", Field: base.FieldNetProceeds},
	{Source: "Quantity", Field: base.FieldQuantity},
	{Source: "Average Price", Field: base.FieldPrice},
	{Source: "Commissions", Field: base.FieldCommission},
	{Source: "Fees", Field: base.FieldFees},
	{Source: "Expiration Date", Field: base.FieldExpiry},
	{Source: "Strike Price", Field: base.FieldStrike},
	{Source: "Call or Put", Field: base.FieldOptionType},
}

// Receive Deliver rows that still move a position.
var positionEvents = map[string]bool{"EXPIRATION": true, "ASSIGNMENT": true, "EXERCISE": true}

var terms = side.Terms{
	Buy:  []string{"BUY", "BTO", "BTC", "BOUGHT"},
	Sell: []string{"SELL", "STO", "STC", "SOLD"},
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
}

type Mapper struct {
	*base.Mapper
}

// NewMapper builds the tastytrade transaction-history mapper. Value is cash
// signed, so the amount rule is off.
func NewMapper(deps base.Deps) *Mapper {
	return &Mapper{Mapper: base.NewMapper(Broker, columns, false, deps,
		side.WithTerms(terms),
		side.WithoutRules(side.RuleAmountSign),
	)}
}

func (m *Mapper) ProcessRow(ctx context.Context, row models.RawRow) (*models.CanonicalTrade, error) {
	typ := strings.ToUpper(row.Value("Type"))
	subType := strings.ToUpper(row.Value("Sub Type"))
	switch {
	case typ == "MONEY MOVEMENT":
		return m.Skip(ctx, row, "money movement", "sub_type", subType)
	case typ == "RECEIVE DELIVER" && !positionEvents[subType]:
		return m.Skip(ctx, row, "receive deliver without position change", "sub_type", subType)
	}

	action := m.Field(row, base.FieldSide)
	description := m.Field(row, base.FieldDescription)
	expiration := subType == "EXPIRATION"

	qty, hasQty := utils.NumericPresent(m.Field(row, base.FieldQuantity))
	price, hasPrice := utils.NumericPresent(m.Field(row, base.FieldPrice))

	decision := m.Side.Resolve(ctx, side.Evidence{
		Action:      action,
		Description: description,
		Quantity:    qty,
		HasQuantity: hasQty,
		HasPrice:    hasPrice,
		Expiration:  expiration,
	})
	// Expirations and assignments settle at no price.
	if !m.Accept(ctx, row, decision, hasQty, hasPrice || positionEvents[subType]) {
		return nil, nil
	}

	trade := m.NewTrade()
	trade.Description = description
	trade.Side = decision.Side
	trade.Quantity = utils.AbsFloat(qty)
	trade.Price = utils.AbsFloat(price)
	trade.Commission = utils.CleanNumeric(m.Field(row, base.FieldCommission)) + utils.CleanNumeric(m.Field(row, base.FieldFees))
	trade.NetProceeds = utils.CleanNumeric(m.Field(row, base.FieldNetProceeds))
	base.SignProceeds(trade)
	trade.SetTimestamp(m.timestamp(ctx, row, description))

	rawSymbol := m.Field(row, base.FieldSymbol)
	underlying := row.Get("Underlying Symbol", "Root Symbol")
	if underlying == "" {
		underlying = base.ExtractBaseSymbol(rawSymbol)
	}
	m.ResolveSymbol(ctx, trade, strings.TrimPrefix(underlying, "/"), description)

	if occ, ok := base.ParseOCC(rawSymbol); ok {
		occ.Apply(trade)
	}
	m.ApplyOptionColumns(trade, row)
	m.ApplyOption(trade, description, rawSymbol)
	return trade, nil
}

func (m *Mapper) timestamp(ctx context.Context, row models.RawRow, description string) time.Time {
	if v := row.Value("Date"); v != "" {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC()
			}
		}
	}
	return m.ResolveDate(ctx, row, description)
}
