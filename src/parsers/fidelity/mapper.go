package fidelity

import (
	"context"
	"regexp"
	"strings"

	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers/base"
	"github.com/username/tradenorm/src/side"
	"github.com/username/tradenorm/src/utils"
)

const Broker = "fidelity"

var columns = []base.Column{
	{Source: "Run Date", Field: base.FieldDate},
	{Source: "Symbol", Field: base.FieldSymbol},
	{Source: "Description", Field: base.FieldDescription},
	{Source: "Action", Field: base.FieldSide},
	{Source: "Quantity", Field: base.FieldQuantity},
	{Source: "Price ($)", Field: base.FieldPrice},
	{Source: "Commission ($)", Field: base.FieldCommission},
	{Source: "Fees ($)", Field: base.FieldFees},
	{Source: "Amount ($)", Field: base.FieldNetProceeds},

	{Source: "Date", Field: base.FieldDate},
	{Source: "Trade Date", Field: base.FieldDate},
	{Source: "Activity Date", Field: base.FieldDate},
	{Source: "Type", Field: base.FieldSide},
	{Source: "Transaction Type", Field: base.FieldSide},
	{Source: "Trans Code", Field: base.FieldSide},
	{Source: "Price", Field: base.FieldPrice},
	{Source: "Trade Price", Field: base.FieldPrice},
	{Source: "Commission", Field: base.FieldCommission},
	{Source: "Fees", Field: base.FieldFees},
	{Source: "Amount", Field: base.FieldNetProceeds},
}

var actionColumns = []string{"Action", "Type", "Transaction Type", "Trans Code"}

var nonTradeActions = map[string]bool{
	"DIVIDEND": true, "INTEREST": true, "JOURNAL": true, "ADJ": true,
	"REINVESTMENT": true, "DIV": true, "INT": true, "FEE": true, "REINVEST": true,
	"ELECTRONIC FUNDS TRANSFER": true, "WIRE": true, "ATM": true, "CHECK": true,
	"ADJUSTMENT": true, "DISTRIBUTION": true,
}

// Matched on word boundaries so CHECKPOINT or ATMOS stay trades.
var nonTradeDescription = regexp.MustCompile(`\b(DIVIDEND|INTEREST|JOURNAL|ADJUSTMENT|SERVICE FEE|ACCOUNT FEE|MARGIN INTEREST|WIRE TRANSFER|ELECTRONIC FUNDS TRANSFER|ATM|CHECK)\b`)

type Mapper struct {
	*base.Mapper
}

func NewMapper(deps base.Deps) *Mapper {
	return &Mapper{Mapper: base.NewMapper(Broker, columns, true, deps)}
}

// ProcessRow maps one Fidelity (or TD Ameritrade) history row.
func (m *Mapper) ProcessRow(ctx context.Context, row models.RawRow) (*models.CanonicalTrade, error) {
	action := row.Get(actionColumns...)
	description := m.Field(row, base.FieldDescription)
	keepTicker, keep := base.AlwaysKeep(description)

	if !keep {
		if reason := skipReason(action, description); reason != "" {
			return m.Skip(ctx, row, reason, "action", action)
		}
	}

	signedQty, hasQty := utils.NumericPresent(m.Field(row, base.FieldQuantity))
	price, hasPrice := utils.NumericPresent(m.Field(row, base.FieldPrice))
	hasPrice = hasPrice && price > 0
	amount := utils.CleanNumeric(m.Field(row, base.FieldNetProceeds))

	decision := m.Side.Resolve(ctx, side.Evidence{
		Action:      m.Field(row, base.FieldSide),
		Description: description,
		Quantity:    signedQty,
		Amount:      amount,
		HasQuantity: hasQty,
		HasPrice:    hasPrice,
	})

	trade := m.NewTrade()
	trade.Description = description
	trade.Side = decision.Side
	trade.Quantity = utils.AbsFloat(signedQty)
	trade.Price = price
	trade.Commission = utils.CleanNumeric(m.Field(row, base.FieldCommission)) + utils.CleanNumeric(m.Field(row, base.FieldFees))
	trade.NetProceeds = amount

	rawSymbol := m.Field(row, base.FieldSymbol)
	m.ResolveSymbol(ctx, trade, rawSymbol, description)

	if keep {
		if trade.Symbol != keepTicker {
			if trade.Symbol != models.UnknownSymbol && trade.OriginalSymbol == "" {
				trade.OriginalSymbol = trade.Symbol
			}
			trade.Symbol = keepTicker
			trade.IsSpac = true
		}
		if !decision.Resolved() {
			trade.Side = models.SideBuy
		}
		if !hasPrice {
			trade.Price = 1
		}
		if !hasQty {
			trade.Quantity = 1
		}
	} else if !m.Accept(ctx, row, decision, hasQty, hasPrice) {
		return nil, nil
	}

	trade.SetTimestamp(m.ResolveDate(ctx, row, description, "Run Date"))
	m.ApplyOption(trade, description, rawSymbol)
	return trade, nil
}

func skipReason(action, description string) string {
	upperAction := strings.ToUpper(strings.TrimSpace(action))
	if nonTradeActions[upperAction] {
		return "non-trade action"
	}
	if hasTradeIndicator(upperAction) {
		return ""
	}
	if m := nonTradeDescription.FindString(upperAction); m != "" {
		return "non-trade action: " + m
	}
	upper := strings.ToUpper(description)
	if hasTradeIndicator(upper) {
		return ""
	}
	if m := nonTradeDescription.FindString(upper); m != "" {
		return "non-trade description: " + m
	}
	return ""
}

func hasTradeIndicator(s string) bool {
	return strings.Contains(s, "YOU BOUGHT") || strings.Contains(s, "YOU SOLD")
}
