package webull

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers/base"
	"github.com/username/tradenorm/src/side"
	"github.com/username/tradenorm/src/utils"
)

const Broker = "webull"

var columns = []base.Column{
	{Source: "Filled Time", Field: base.FieldDate},
	{Source: "Placed Time", Field: base.FieldDate},
	{Source: "Name", Field: base.FieldDescription},
	{Source: "Symbol", Field: base.FieldSymbol},
	{Source: "Side", Field: base.FieldSide},
	{Source: "Status", Field: base.FieldStatus},
	{Source: "Filled", Field: base.FieldQuantity},
	{Source: "Total Qty", Field: base.FieldQuantity},
	{Source: "Avg Price", Field: base.FieldPrice},
	{Source: "Price", Field: base.FieldPrice},
}

var terms = side.Terms{
	Buy:  []string{"BUY"},
	Sell: []string{"SELL", "SHORT"},
}

// "03/14/2024 10:32:15 EDT"
var timezoneSuffix = regexp.MustCompile(`\s+[A-Z]{2,4}$`)

type Mapper struct {
	*base.Mapper
}

// NewMapper builds the Webull order-history mapper. The Side column is the only
// direction signal the export has.
func NewMapper(deps base.Deps) *Mapper {
	return &Mapper{Mapper: base.NewMapper(Broker, columns, false, deps,
		side.WithTerms(terms),
		side.WithoutRules(side.RuleDescriptionPhrase, side.RuleAmountSign, side.RuleKeywordPattern),
	)}
}

func (m *Mapper) ProcessRow(ctx context.Context, row models.RawRow) (*models.CanonicalTrade, error) {
	status := strings.ToUpper(m.Field(row, base.FieldStatus))
	if status == "CANCELLED" || status == "FAILED" {
		return m.Skip(ctx, row, "order not executed", "status", status)
	}
	description := m.Field(row, base.FieldDescription)

	qty, hasQty := utils.NumericPresent(m.Field(row, base.FieldQuantity))
	price, hasPrice := utils.NumericPresent(strings.TrimPrefix(m.Field(row, base.FieldPrice), "@"))

	decision := m.Side.Resolve(ctx, side.Evidence{
		Action:      m.Field(row, base.FieldSide),
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
	// Partial fills carry only the filled quantity and stay COMPLETED.
	trade.Quantity = utils.AbsFloat(qty)
	trade.Price = utils.AbsFloat(price)
	trade.SetTimestamp(m.timestamp(ctx, row, description))

	rawSymbol := m.Field(row, base.FieldSymbol)
	m.ResolveSymbol(ctx, trade, base.ExtractBaseSymbol(rawSymbol), description)

	if occ, ok := base.ParseOCC(rawSymbol); ok {
		occ.Apply(trade)
	}
	m.ApplyOption(trade, description, rawSymbol)

	// The export has no cash column; proceeds follow from the fill.
	trade.NetProceeds = utils.RoundFloat(trade.Price*trade.Quantity, 2)
	base.SignProceeds(trade)
	return trade, nil
}

func (m *Mapper) timestamp(ctx context.Context, row models.RawRow, description string) time.Time {
	for _, col := range m.Columns(base.FieldDate) {
		v := timezoneSuffix.ReplaceAllString(row.Value(col), "")
		if v == "" {
			continue
		}
		if t, ok := utils.ParseDate(v); ok {
			return t
		}
	}
	return m.ResolveDate(ctx, row, description)
}
